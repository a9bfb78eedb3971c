// Package rewardsapi is a typed client for the coffee rewards HTTP API.
package rewardsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Client talks to a rewards backend. It is safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Config holds client configuration.
type Config struct {
	BaseURL string // API root, e.g. http://localhost:3001/api
	Token   string // identity-provider access token
	Timeout time.Duration
}

// New creates a new rewards API client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// APIError is a non-2xx response. Message is the body's "error" field.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// =============================================================================
// Request/Response Types
// =============================================================================

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// TokenInfo is returned by GET /coffee-coin/info.
type TokenInfo struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// BalanceResponse is returned by GET /coffee-coin/balance/:address.
type BalanceResponse struct {
	UserAddress string `json:"userAddress"`
	Balance     string `json:"balance"`
}

// Wallet is the embedded wallet resolved for the caller.
type Wallet struct {
	Address    string `json:"address"`
	ChainID    string `json:"chainId"`
	WalletType string `json:"walletType,omitempty"`
}

// MeResponse is returned by GET /user/me.
type MeResponse struct {
	Message  string  `json:"message"`
	PrivyDID string  `json:"privyDid"`
	Wallet   *Wallet `json:"wallet,omitempty"`
}

// EarnPointsResponse is returned by POST /coffee-coin/earn-points.
type EarnPointsResponse struct {
	Message          string `json:"message"`
	TransactionHash  string `json:"transactionHash"`
	RecipientAddress string `json:"recipientAddress"`
	PointsEarned     string `json:"pointsEarned"`
	NewBalance       string `json:"newBalance,omitempty"`

	// Replayed is set when the response came from the idempotency cache.
	Replayed bool `json:"-"`
}

// RecordRedemptionRequest is the body of POST /coffee-coin/record-redemption.
type RecordRedemptionRequest struct {
	RewardID            string `json:"rewardId"`
	PointsBurned        string `json:"pointsBurned"`
	BurnTransactionHash string `json:"burnTransactionHash"`
}

// RecordRedemptionResponse acknowledges a redemption.
type RecordRedemptionResponse struct {
	Message             string `json:"message"`
	RewardID            string `json:"rewardId"`
	PointsBurned        string `json:"pointsBurned"`
	BurnTransactionHash string `json:"burnTransactionHash"`
	VoucherCode         string `json:"voucherCode"`
}

// Reward is a catalog entry.
type Reward struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	PointsRequired uint64 `json:"pointsRequired"`
	Description    string `json:"description,omitempty"`
	Icon           string `json:"icon,omitempty"`
}

// MenuItem is a purchasable item.
type MenuItem struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Price        string `json:"price"`
	PointsToEarn uint64 `json:"pointsToEarn"`
}

// =============================================================================
// API Methods
// =============================================================================

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if _, err := c.do(ctx, http.MethodGet, "/health", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TokenInfo calls GET /coffee-coin/info.
func (c *Client) TokenInfo(ctx context.Context) (*TokenInfo, error) {
	var out TokenInfo
	if _, err := c.do(ctx, http.MethodGet, "/coffee-coin/info", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TotalSupply calls GET /coffee-coin/total-supply.
func (c *Client) TotalSupply(ctx context.Context) (string, error) {
	var out struct {
		TotalSupply string `json:"totalSupply"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/coffee-coin/total-supply", nil, nil, &out); err != nil {
		return "", err
	}
	return out.TotalSupply, nil
}

// Balance calls GET /coffee-coin/balance/:address.
func (c *Client) Balance(ctx context.Context, address string) (*BalanceResponse, error) {
	var out BalanceResponse
	if _, err := c.do(ctx, http.MethodGet, "/coffee-coin/balance/"+url.PathEscape(address), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me calls GET /user/me.
func (c *Client) Me(ctx context.Context) (*MeResponse, error) {
	var out MeResponse
	if _, err := c.do(ctx, http.MethodGet, "/user/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EarnPoints calls POST /coffee-coin/earn-points. A non-empty
// idempotencyKey makes a repeated call return the first result.
func (c *Client) EarnPoints(ctx context.Context, points string, idempotencyKey string) (*EarnPointsResponse, error) {
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}

	var out EarnPointsResponse
	resp, err := c.do(ctx, http.MethodPost, "/coffee-coin/earn-points", map[string]string{"pointsToEarn": points}, headers, &out)
	if err != nil {
		return nil, err
	}
	out.Replayed = resp.Header.Get("X-Idempotency-Hit") == "true"
	return &out, nil
}

// RecordRedemption calls POST /coffee-coin/record-redemption.
func (c *Client) RecordRedemption(ctx context.Context, req *RecordRedemptionRequest) (*RecordRedemptionResponse, error) {
	var out RecordRedemptionResponse
	if _, err := c.do(ctx, http.MethodPost, "/coffee-coin/record-redemption", req, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Rewards calls GET /rewards.
func (c *Client) Rewards(ctx context.Context) ([]Reward, error) {
	var out struct {
		Rewards []Reward `json:"rewards"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/rewards", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Rewards, nil
}

// Menu calls GET /menu.
func (c *Client) Menu(ctx context.Context) ([]MenuItem, error) {
	var out struct {
		Items []MenuItem `json:"items"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/menu", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) do(ctx context.Context, method, path string, in interface{}, headers map[string]string, out interface{}) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeAPIError(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return nil, fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return resp, nil
}

func decodeAPIError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status}
	if gjson.ValidBytes(body) {
		doc := gjson.ParseBytes(body)
		apiErr.Message = doc.Get("error").String()
		apiErr.Code = doc.Get("code").String()
		apiErr.Details = doc.Get("details").String()
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}
