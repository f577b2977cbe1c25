// File: internal/verification/handler.go
package verification

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/drraj1965/neurohealthhub-sub000/internal/common"
)

// Handler exposes the verification endpoints.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new verification handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the verification routes. Both are public: the
// inbound link is clicked from an email, before any session exists.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/verify-email", h.verifyEmail)
	router.POST("/identities/:uid/verification-email", h.sendVerificationEmail)
}

func (h *Handler) verifyEmail(c *gin.Context) {
	params := Params{
		Mode:    c.Query("mode"),
		OobCode: c.Query("oobCode"),
		Token:   c.Query("token"),
	}

	result, err := h.service.HandleVerification(c.Request.Context(), params)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	if result.ReconciliationPending {
		// The email IS verified; only the profile write is still pending.
		common.RespondAccepted(c,
			"Email verified. Profile setup is still pending; it will be retried automatically.", result)
		return
	}

	common.RespondOK(c, "Email verified.", result)
}

func (h *Handler) sendVerificationEmail(c *gin.Context) {
	uid := c.Param("uid")
	if uid == "" {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("uid path parameter is required."))
		return
	}

	ack, err := h.service.SendVerificationEmail(c.Request.Context(), uid)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	if ack.AlreadyVerified {
		common.RespondOK(c, "Email is already verified.", ack)
		return
	}
	common.RespondOK(c, "Verification email dispatch attempted.", ack)
}
