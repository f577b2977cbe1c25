// File: internal/profile/handler.go
package profile

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/drraj1965/neurohealthhub-sub000/internal/common"
)

// AllowlistChecker answers the privileged-allowlist membership question
// without any store dependency.
type AllowlistChecker interface {
	IsAllowlisted(email string) bool
}

// Handler exposes the profile read endpoint.
type Handler struct {
	service   *Service
	allowlist AllowlistChecker
	logger    *zap.Logger
}

// NewHandler creates a new profile handler.
func NewHandler(service *Service, allowlist AllowlistChecker, logger *zap.Logger) *Handler {
	return &Handler{service: service, allowlist: allowlist, logger: logger}
}

// RegisterRoutes sets up the profile routes behind the auth middleware.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	group := router.Group("/identities", authMW)
	{
		group.GET("/:uid/profile", h.getProfile)
	}
}

func (h *Handler) getProfile(c *gin.Context) {
	uid := c.Param("uid")
	callerUID := common.GetFirebaseUIDFromContext(c)
	callerEmail := common.GetUserEmailFromContext(c)

	// Self-read, or allowlisted operator.
	if uid != callerUID && !h.allowlist.IsAllowlisted(callerEmail) {
		common.RespondWithError(c, common.ErrForbidden.WithDetails("You may only read your own profile."))
		return
	}

	p, err := h.service.Get(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			common.RespondWithError(c, common.ErrNotFound.WithDetails("No profile exists for this identity yet."))
			return
		}
		common.RespondWithError(c, err)
		return
	}

	common.RespondOK(c, "Profile retrieved.", ToProfileResponse(p))
}
