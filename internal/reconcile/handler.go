// File: internal/reconcile/handler.go
package reconcile

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/drraj1965/neurohealthhub-sub000/internal/common"
)

// Handler exposes operator endpoints for the reconciliation queue.
type Handler struct {
	orchestrator *Orchestrator
	logger       *zap.Logger
}

// NewHandler creates a new reconciliation handler.
func NewHandler(orchestrator *Orchestrator, logger *zap.Logger) *Handler {
	return &Handler{orchestrator: orchestrator, logger: logger}
}

// RegisterRoutes sets up the reconciliation routes. The caller is expected to
// guard the group with admin-only middleware.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/reconciliation")
	{
		group.GET("/pending", h.getPending)
		group.POST("/retry", h.retry)
	}
}

func (h *Handler) getPending(c *gin.Context) {
	common.RespondOK(c, "Pending reconciliation count.", gin.H{"pending": h.orchestrator.PendingCount()})
}

func (h *Handler) retry(c *gin.Context) {
	h.orchestrator.RetryPending(c.Request.Context())
	common.RespondOK(c, "Retry triggered.", gin.H{"pending": h.orchestrator.PendingCount()})
}
