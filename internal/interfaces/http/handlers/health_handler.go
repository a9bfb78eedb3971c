package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"coffee-rewards.backend/internal/interfaces/http/response"
)

// HealthHandler reports liveness
type HealthHandler struct{}

// NewHealthHandler creates a new health handler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Health returns a static liveness body
// GET /api/health
func (h *HealthHandler) Health(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"status":  "UP",
		"message": "Backend is healthy!",
	})
}
