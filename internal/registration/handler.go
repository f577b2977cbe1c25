// File: internal/registration/handler.go
package registration

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/drraj1965/neurohealthhub-sub000/internal/common"
)

// Handler exposes the registration capture endpoint.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new registration handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the registration routes. Capture happens before
// verification, so the endpoint is public.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/registrations", h.create)
}

func (h *Handler) create(c *gin.Context) {
	var req CreateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Registration capture: invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	resp, err := h.service.Capture(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondCreated(c, "Registration captured. Verify the email to complete profile setup.", resp)
}
