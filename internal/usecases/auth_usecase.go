package usecases

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"coffee-rewards.backend/internal/domain/entities"
	domainerrors "coffee-rewards.backend/internal/domain/errors"
	"coffee-rewards.backend/internal/infrastructure/privy"
	"coffee-rewards.backend/pkg/jwt"
	"coffee-rewards.backend/pkg/logger"
	"coffee-rewards.backend/pkg/metrics"
)

const bearerPrefix = "Bearer "

// IdentityProvider verifies identity tokens and loads user records
type IdentityProvider interface {
	VerifyAuthToken(ctx context.Context, token string) (*jwt.VerifiedClaims, error)
	GetUser(ctx context.Context, did string) (*entities.Identity, error)
}

// AuthenticatedUser is attached to the request after a successful Authenticate.
// Wallet is nil when the identity has no embedded wallet on the target chain.
type AuthenticatedUser struct {
	DID       string
	SessionID string
	Identity  *entities.Identity
	Wallet    *entities.ResolvedWallet
}

// AuthUsecase handles identity verification
type AuthUsecase struct {
	provider    IdentityProvider
	targetChain entities.ChainID
}

// NewAuthUsecase creates a new auth usecase. provider may be nil when the
// identity provider is not configured.
func NewAuthUsecase(provider IdentityProvider, targetChain entities.ChainID) *AuthUsecase {
	return &AuthUsecase{
		provider:    provider,
		targetChain: targetChain,
	}
}

// Configured reports whether tokens can be verified at all
func (u *AuthUsecase) Configured() bool {
	return u.provider != nil
}

// Authenticate verifies the Authorization header value, loads the identity
// and resolves its embedded wallet.
func (u *AuthUsecase) Authenticate(ctx context.Context, authorization string) (*AuthenticatedUser, error) {
	if u.provider == nil {
		metrics.RecordAuthOutcome("unconfigured")
		return nil, domainerrors.ServiceUnavailable("Authentication service not configured.")
	}

	token, ok := bearerToken(authorization)
	if !ok {
		metrics.RecordAuthOutcome("missing_header")
		return nil, domainerrors.Unauthenticated("Unauthorized: Missing or invalid Authorization header")
	}

	claims, err := u.provider.VerifyAuthToken(ctx, token)
	if err != nil {
		return nil, u.classifyVerifyError(ctx, err)
	}

	identity, err := u.provider.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, privy.ErrUserNotFound) {
			metrics.RecordAuthOutcome("not_found")
			return nil, domainerrors.NotFound("User not found")
		}
		metrics.RecordAuthOutcome("upstream")
		logger.Error(ctx, "Failed to fetch identity", zap.String("privy_did", claims.UserID), zap.Error(err))
		return nil, domainerrors.UpstreamFailure("Failed to fetch user", err)
	}

	user := &AuthenticatedUser{
		DID:       claims.UserID,
		SessionID: claims.SessionID,
		Identity:  identity,
	}
	if wallet, ok := ResolveWallet(identity, u.targetChain); ok {
		user.Wallet = wallet
	} else {
		logger.Warn(ctx, "No embedded wallet on target chain",
			zap.String("privy_did", claims.UserID),
			zap.String("chain_id", u.targetChain.String()),
		)
	}

	metrics.RecordAuthOutcome("ok")
	return user, nil
}

func (u *AuthUsecase) classifyVerifyError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, jwt.ErrExpiredToken):
		metrics.RecordAuthOutcome("expired")
		return domainerrors.TokenExpired("Unauthorized: Token has expired.").WithDetails(err.Error())
	case errors.Is(err, jwt.ErrInvalidToken), errors.Is(err, jwt.ErrInvalidKey):
		metrics.RecordAuthOutcome("invalid")
		return domainerrors.Unauthenticated("Unauthorized: Invalid token format or signature.").
			WithDetails(err.Error())
	default:
		metrics.RecordAuthOutcome("upstream")
		logger.Error(ctx, "Identity token verification failed upstream", zap.Error(err))
		return domainerrors.UpstreamFailure("Failed to verify identity token", err)
	}
}

func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
