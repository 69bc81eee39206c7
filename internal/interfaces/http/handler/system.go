package handler

import (
	"time"

	"github.com/erp/printd/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SystemHandler handles the liveness endpoint
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	platform  string
	startTime time.Time
	now       func() time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(name, version, platform string) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		platform:  platform,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// Health godoc
//
//	@Summary	Report that the service is up. Never touches a printer.
//	@Tags		system
//	@Produce	json
//	@Success	200	{object}	dto.HealthResponse
//	@Router		/health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	now := h.now()
	h.Success(c, dto.HealthResponse{
		Status:    "healthy",
		Service:   h.name,
		Version:   h.version,
		Platform:  h.platform,
		Uptime:    now.Sub(h.startTime).Round(time.Second).String(),
		Timestamp: now.Format(time.RFC3339),
	})
}
