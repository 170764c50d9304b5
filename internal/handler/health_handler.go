package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/luchoelporo900-design/optica-yolanda2/internal/branch"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/utils"
)

var startTime = time.Now()

// HealthHandler provides health endpoint.
type HealthHandler struct {
	registry *branch.Registry
	backend  string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(registry *branch.Registry, backend string) *HealthHandler {
	return &HealthHandler{registry: registry, backend: backend}
}

// GetHealth responds with service status and catalog layout.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	utils.Success(c, 200, "Service is healthy", gin.H{
		"status":     "healthy",
		"version":    "1.0.0",
		"uptime":     int(time.Since(startTime).Seconds()),
		"time":       utils.NowISO(),
		"sucursales": h.registry.All(),
		"backend":    h.backend,
	})
}
