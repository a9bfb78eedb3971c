package jwt

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token format or signature")
	ErrExpiredToken = errors.New("token has expired")
	ErrInvalidKey   = errors.New("invalid verification key")
)

// PrivyIssuer is the "iss" claim on identity tokens.
const PrivyIssuer = "privy.io"

// Claims represents identity token claims
type Claims struct {
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// VerifiedClaims is the result of a successful verification
type VerifiedClaims struct {
	AppID      string
	Issuer     string
	UserID     string
	SessionID  string
	IssuedAt   time.Time
	Expiration time.Time
}

// Verifier validates ES256 identity tokens for one application.
type Verifier struct {
	issuer   string
	audience string
	now      func() time.Time
}

// NewVerifier creates a verifier that accepts tokens issued by issuer for audience.
func NewVerifier(issuer, audience string) *Verifier {
	return &Verifier{
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}
}

// ParsePublicKey decodes a PEM (SPKI) encoded ECDSA verification key.
func ParsePublicKey(pemKey string) (*ecdsa.PublicKey, error) {
	key, err := jwt.ParseECPublicKeyFromPEM([]byte(pemKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return key, nil
}

// Verify validates the token signature, issuer, audience and expiry.
// Expired tokens yield ErrExpiredToken, everything else ErrInvalidToken.
func (v *Verifier) Verify(tokenString string, key *ecdsa.PublicKey) (*VerifiedClaims, error) {
	if key == nil {
		return nil, ErrInvalidKey
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, ErrInvalidToken
		}
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	out := &VerifiedClaims{
		AppID:     v.audience,
		Issuer:    claims.Issuer,
		UserID:    claims.Subject,
		SessionID: claims.SessionID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.Expiration = claims.ExpiresAt.Time
	}
	return out, nil
}

var signJWTToken = func(token *jwt.Token, key *ecdsa.PrivateKey) (string, error) {
	return token.SignedString(key)
}

// IssueToken signs an ES256 identity token. Local fakes of the identity
// provider use it; production tokens come from the provider itself.
func IssueToken(key *ecdsa.PrivateKey, issuer, audience, subject, sessionID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	return signJWTToken(token, key)
}
