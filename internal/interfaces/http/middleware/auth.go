package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coffee-rewards.backend/internal/domain/entities"
	"coffee-rewards.backend/internal/interfaces/http/response"
	"coffee-rewards.backend/internal/usecases"
	"coffee-rewards.backend/pkg/logger"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// PrivyDIDKey is the context key for the verified identity id
	PrivyDIDKey = "privyDid"
	// IdentityKey is the context key for the full identity record
	IdentityKey = "identity"
	// WalletKey is the context key for the resolved embedded wallet
	WalletKey = "wallet"
)

type authenticator interface {
	Authenticate(ctx context.Context, authorization string) (*usecases.AuthenticatedUser, error)
}

// AuthMiddleware verifies the bearer token and attaches the identity and
// its resolved wallet to the request.
func AuthMiddleware(auth authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.Authenticate(c.Request.Context(), c.GetHeader(AuthorizationHeader))
		if err != nil {
			logger.Warn(c.Request.Context(), "Authentication failed",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			response.Abort(c, err)
			return
		}

		c.Set(PrivyDIDKey, user.DID)
		c.Set(IdentityKey, user.Identity)
		if user.Wallet != nil {
			c.Set(WalletKey, user.Wallet)
		}
		c.Request = c.Request.WithContext(logger.WithPrivyDID(c.Request.Context(), user.DID))

		c.Next()
	}
}

// GetPrivyDID gets the verified identity id from context
func GetPrivyDID(c *gin.Context) (string, bool) {
	did, exists := c.Get(PrivyDIDKey)
	if !exists {
		return "", false
	}
	s, ok := did.(string)
	return s, ok && s != ""
}

// GetIdentity gets the identity record from context
func GetIdentity(c *gin.Context) (*entities.Identity, bool) {
	identity, exists := c.Get(IdentityKey)
	if !exists {
		return nil, false
	}
	v, ok := identity.(*entities.Identity)
	return v, ok
}

// GetWallet gets the resolved embedded wallet from context. A verified user
// without a wallet on the target chain yields false.
func GetWallet(c *gin.Context) (*entities.ResolvedWallet, bool) {
	wallet, exists := c.Get(WalletKey)
	if !exists {
		return nil, false
	}
	v, ok := wallet.(*entities.ResolvedWallet)
	return v, ok
}
