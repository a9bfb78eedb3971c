package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"coffee-rewards.backend/internal/domain/entities"
	domainerrors "coffee-rewards.backend/internal/domain/errors"
	"coffee-rewards.backend/internal/interfaces/http/middleware"
	"coffee-rewards.backend/internal/interfaces/http/response"
)

type rewardCatalog interface {
	Rewards() []entities.Reward
	Menu() []entities.MenuItem
}

type redemptionService interface {
	RecordRedemption(ctx context.Context, did string, input *entities.RecordRedemptionInput) (*entities.Redemption, error)
}

// RewardHandler serves the catalog and acknowledges redemptions
type RewardHandler struct {
	catalog           rewardCatalog
	redemptionUsecase redemptionService
}

// NewRewardHandler creates a new reward handler
func NewRewardHandler(catalog rewardCatalog, redemptionUsecase redemptionService) *RewardHandler {
	return &RewardHandler{
		catalog:           catalog,
		redemptionUsecase: redemptionUsecase,
	}
}

// ListRewards returns the static reward catalog
// GET /api/rewards
func (h *RewardHandler) ListRewards(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"rewards": h.catalog.Rewards()})
}

// ListMenu returns the purchasable items and the points each earns
// GET /api/menu
func (h *RewardHandler) ListMenu(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"items": h.catalog.Menu()})
}

// RecordRedemption acknowledges a client-side burn and returns a voucher.
// The burn hash is not verified on chain.
// POST /api/coffee-coin/record-redemption
func (h *RewardHandler) RecordRedemption(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil || !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		response.Error(c, domainerrors.InvalidArgument("Invalid request body."))
		return
	}
	doc := gjson.ParseBytes(raw)

	did, ok := middleware.GetPrivyDID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthenticated("Unauthorized: Missing or invalid Authorization header"))
		return
	}

	input := &entities.RecordRedemptionInput{
		RewardID:            scalarText(doc.Get("rewardId")),
		PointsBurned:        scalarText(doc.Get("pointsBurned")),
		BurnTransactionHash: scalarText(doc.Get("burnTransactionHash")),
	}
	redemption, err := h.redemptionUsecase.RecordRedemption(c.Request.Context(), did, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message":             "Redemption recorded successfully",
		"rewardId":            redemption.RewardID,
		"pointsBurned":        redemption.PointsBurned,
		"burnTransactionHash": redemption.BurnTransactionHash,
		"voucherCode":         redemption.VoucherCode,
	})
}

func scalarText(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return strings.TrimSpace(v.Str)
	case gjson.Number:
		return v.Raw
	default:
		return ""
	}
}
