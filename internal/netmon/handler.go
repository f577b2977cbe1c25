// File: internal/netmon/handler.go
package netmon

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/drraj1965/neurohealthhub-sub000/internal/common"
)

// Handler exposes the network state endpoints.
type Handler struct {
	monitor *Monitor
	logger  *zap.Logger
}

// NewHandler creates a new network state handler.
func NewHandler(monitor *Monitor, logger *zap.Logger) *Handler {
	return &Handler{monitor: monitor, logger: logger}
}

// RegisterRoutes sets up the network routes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/network")
	{
		group.GET("/state", h.getState)
		group.POST("/probe", h.probe)
	}
}

func (h *Handler) getState(c *gin.Context) {
	common.RespondOK(c, "Network state.", gin.H{"state": h.monitor.State().String()})
}

// probe is the explicit "connectivity may have changed" hint. The caller's
// belief is not trusted; a real probe runs and its result is returned.
func (h *Handler) probe(c *gin.Context) {
	state := h.monitor.ProbeNow(c.Request.Context())
	common.RespondOK(c, "Probe completed.", gin.H{"state": state.String()})
}
