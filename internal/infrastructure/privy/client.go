package privy

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/tidwall/gjson"

	"coffee-rewards.backend/internal/domain/entities"
	"coffee-rewards.backend/pkg/jwt"
)

const (
	DefaultAPIURL = "https://auth.privy.io"

	verificationKeyCacheKey = "verification_key"
	defaultKeyTTL           = time.Hour
	defaultHTTPTimeout      = 10 * time.Second
	maxResponseBytes        = 1 << 20
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrKeyUnavailable     = errors.New("verification key unavailable")
	ErrUnexpectedResponse = errors.New("unexpected identity provider response")
)

// Options configures a Client.
type Options struct {
	AppID     string
	AppSecret string
	APIURL    string
	// VerificationKey is a PEM public key. When empty the key is fetched from
	// the provider and cached for KeyTTL.
	VerificationKey string
	KeyTTL          time.Duration
	HTTPClient      *http.Client
}

// Client verifies identity tokens and loads user records from Privy.
type Client struct {
	appID      string
	appSecret  string
	apiURL     string
	httpClient *http.Client
	verifier   *jwt.Verifier
	staticKey  *ecdsa.PublicKey
	keys       *cache.Cache
}

// NewClient validates the options. It does not contact the provider.
func NewClient(opts Options) (*Client, error) {
	if opts.AppID == "" || opts.AppSecret == "" {
		return nil, errors.New("privy app id and secret are required")
	}

	apiURL := strings.TrimRight(opts.APIURL, "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if _, err := url.ParseRequestURI(apiURL); err != nil {
		return nil, fmt.Errorf("invalid privy api url: %w", err)
	}

	keyTTL := opts.KeyTTL
	if keyTTL <= 0 {
		keyTTL = defaultKeyTTL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	c := &Client{
		appID:      opts.AppID,
		appSecret:  opts.AppSecret,
		apiURL:     apiURL,
		httpClient: httpClient,
		verifier:   jwt.NewVerifier(jwt.PrivyIssuer, opts.AppID),
		keys:       cache.New(keyTTL, 2*keyTTL),
	}

	if strings.TrimSpace(opts.VerificationKey) != "" {
		key, err := jwt.ParsePublicKey(opts.VerificationKey)
		if err != nil {
			return nil, err
		}
		c.staticKey = key
	}

	return c, nil
}

// AppID returns the application the client verifies tokens for
func (c *Client) AppID() string {
	return c.appID
}

// VerifyAuthToken checks the token against the application's verification
// key. Signature, issuer and audience failures return jwt.ErrInvalidToken;
// expiry returns jwt.ErrExpiredToken.
func (c *Client) VerifyAuthToken(ctx context.Context, token string) (*jwt.VerifiedClaims, error) {
	key, err := c.verificationKey(ctx)
	if err != nil {
		return nil, err
	}
	return c.verifier.Verify(token, key)
}

// GetUser loads the user record for a DID.
func (c *Client) GetUser(ctx context.Context, did string) (*entities.Identity, error) {
	if strings.TrimSpace(did) == "" {
		return nil, ErrUserNotFound
	}

	status, body, err := c.get(ctx, "/api/v1/users/"+url.PathEscape(did))
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusNotFound:
		return nil, ErrUserNotFound
	case status != http.StatusOK:
		return nil, fmt.Errorf("%w: get user returned %d", ErrUnexpectedResponse, status)
	}

	identity, err := DecodeUser(body)
	if err != nil {
		return nil, err
	}
	if identity.DID != did {
		return nil, fmt.Errorf("%w: user id mismatch", ErrUnexpectedResponse)
	}
	return identity, nil
}

func (c *Client) verificationKey(ctx context.Context) (*ecdsa.PublicKey, error) {
	if c.staticKey != nil {
		return c.staticKey, nil
	}
	if cached, ok := c.keys.Get(verificationKeyCacheKey); ok {
		return cached.(*ecdsa.PublicKey), nil
	}

	status, body, err := c.get(ctx, "/api/v1/apps/"+url.PathEscape(c.appID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: app lookup returned %d", ErrKeyUnavailable, status)
	}

	pemKey := gjson.GetBytes(body, "verification_key").String()
	if pemKey == "" {
		return nil, fmt.Errorf("%w: response has no verification_key", ErrKeyUnavailable)
	}
	key, err := jwt.ParsePublicKey(pemKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
	}

	c.keys.SetDefault(verificationKeyCacheKey, key)
	return key, nil
}

func (c *Client) get(ctx context.Context, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+path, nil)
	if err != nil {
		return 0, nil, err
	}
	req.SetBasicAuth(c.appID, c.appSecret)
	req.Header.Set("privy-app-id", c.appID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}
