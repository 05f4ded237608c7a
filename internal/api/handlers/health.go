package handlers

import (
	"net/http"

	"photark/internal/service"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	files service.FileService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(files service.FileService) *HealthHandler {
	return &HealthHandler{files: files}
}

// Health reports the aggregate state of the backing components
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	status := h.files.Health(c.Request.Context())

	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, status)
}

// Ping answers a liveness probe
// GET /ping
func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
