package handlers

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"coffee-rewards.backend/internal/domain/entities"
	domainerrors "coffee-rewards.backend/internal/domain/errors"
	"coffee-rewards.backend/internal/interfaces/http/middleware"
	"coffee-rewards.backend/internal/interfaces/http/response"
)

type coffeeCoinService interface {
	GetTokenInfo(ctx context.Context) (*entities.TokenInfo, error)
	GetTotalSupply(ctx context.Context) (*big.Int, error)
	GetBalance(ctx context.Context, address string) (*big.Int, error)
	EarnPoints(ctx context.Context, wallet *entities.ResolvedWallet, rawAmount string) (*entities.MintResult, error)
}

// CoffeeCoinHandler handles token endpoints
type CoffeeCoinHandler struct {
	coffeeCoinUsecase coffeeCoinService
}

// NewCoffeeCoinHandler creates a new coffee coin handler
func NewCoffeeCoinHandler(coffeeCoinUsecase coffeeCoinService) *CoffeeCoinHandler {
	return &CoffeeCoinHandler{coffeeCoinUsecase: coffeeCoinUsecase}
}

// EarnPointsRequest is the body of POST /coffee-coin/earn-points.
// PointsToEarn accepts a decimal string or a JSON integer.
type EarnPointsRequest struct {
	PointsToEarn json.RawMessage `json:"pointsToEarn"`
}

// GetInfo returns the token name and symbol
// GET /api/coffee-coin/info
func (h *CoffeeCoinHandler) GetInfo(c *gin.Context) {
	info, err := h.coffeeCoinUsecase.GetTokenInfo(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, info)
}

// GetTotalSupply returns the total supply as a decimal string
// GET /api/coffee-coin/total-supply
func (h *CoffeeCoinHandler) GetTotalSupply(c *gin.Context) {
	supply, err := h.coffeeCoinUsecase.GetTotalSupply(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"totalSupply": supply.String()})
}

// GetBalance returns the balance of an address as a decimal string
// GET /api/coffee-coin/balance/:address
func (h *CoffeeCoinHandler) GetBalance(c *gin.Context) {
	address := c.Param("address")
	balance, err := h.coffeeCoinUsecase.GetBalance(c.Request.Context(), address)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"userAddress": address,
		"balance":     balance.String(),
	})
}

// EarnPoints mints points to the caller's embedded wallet
// POST /api/coffee-coin/earn-points
func (h *CoffeeCoinHandler) EarnPoints(c *gin.Context) {
	var req EarnPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.InvalidArgument("Invalid request body."))
		return
	}

	wallet, _ := middleware.GetWallet(c)
	result, err := h.coffeeCoinUsecase.EarnPoints(c.Request.Context(), wallet, scalarText(gjson.ParseBytes(req.PointsToEarn)))
	if err != nil {
		response.Error(c, err)
		return
	}

	body := gin.H{
		"message":          "Minting successful!",
		"transactionHash":  result.TransactionHash,
		"recipientAddress": result.RecipientAddress,
		"pointsEarned":     result.Amount.String(),
	}
	if result.NewBalance != nil {
		body["newBalance"] = result.NewBalance.String()
	}
	response.Success(c, http.StatusOK, body)
}
