package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainerrors "coffee-rewards.backend/internal/domain/errors"
	"coffee-rewards.backend/internal/interfaces/http/middleware"
	"coffee-rewards.backend/internal/interfaces/http/response"
)

// UserHandler handles the authenticated profile endpoint
type UserHandler struct{}

// NewUserHandler creates a new user handler
func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Me returns the verified identity id and its embedded wallet, if any.
// GET /api/user/me
func (h *UserHandler) Me(c *gin.Context) {
	did, ok := middleware.GetPrivyDID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthenticated("Unauthorized: Missing or invalid Authorization header"))
		return
	}

	body := gin.H{
		"message":  "User authenticated successfully",
		"privyDid": did,
	}
	if wallet, ok := middleware.GetWallet(c); ok {
		body["wallet"] = wallet
	}
	response.Success(c, http.StatusOK, body)
}
