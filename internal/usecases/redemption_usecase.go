package usecases

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"coffee-rewards.backend/internal/domain/entities"
	domainerrors "coffee-rewards.backend/internal/domain/errors"
	"coffee-rewards.backend/pkg/logger"
	"coffee-rewards.backend/pkg/metrics"
	"coffee-rewards.backend/pkg/utils"
)

// RedemptionUsecase acknowledges redemptions whose burn the client already
// broadcast. The burn hash is not checked against the chain and nothing is
// stored; the caller gets a fresh voucher code back.
type RedemptionUsecase struct {
	newVoucherCode func() string
}

// NewRedemptionUsecase creates a new redemption usecase
func NewRedemptionUsecase() *RedemptionUsecase {
	return &RedemptionUsecase{newVoucherCode: utils.GenerateVoucherCode}
}

// RecordRedemption validates the acknowledgement and issues a voucher.
func (u *RedemptionUsecase) RecordRedemption(ctx context.Context, did string, input *entities.RecordRedemptionInput) (*entities.Redemption, error) {
	if input == nil {
		return nil, domainerrors.InvalidArgument("Missing rewardId, pointsBurned, or burnTransactionHash.")
	}
	rewardID := strings.TrimSpace(input.RewardID)
	txHash := strings.TrimSpace(input.BurnTransactionHash)
	if rewardID == "" || strings.TrimSpace(input.PointsBurned) == "" || txHash == "" {
		return nil, domainerrors.InvalidArgument("Missing rewardId, pointsBurned, or burnTransactionHash.")
	}

	points, err := ParsePositiveAmount(input.PointsBurned)
	if err != nil {
		return nil, err
	}

	redemption := &entities.Redemption{
		PrivyDID:            did,
		RewardID:            rewardID,
		PointsBurned:        points.String(),
		BurnTransactionHash: txHash,
		VoucherCode:         u.newVoucherCode(),
	}

	metrics.RecordRedemption(rewardID)
	logger.Info(ctx, "Redemption recorded",
		zap.String("reward_id", rewardID),
		zap.String("points_burned", redemption.PointsBurned),
		zap.String("burn_tx_hash", txHash),
		zap.String("voucher_code", redemption.VoucherCode),
	)
	return redemption, nil
}
