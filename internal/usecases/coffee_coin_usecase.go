package usecases

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"coffee-rewards.backend/internal/domain/entities"
	domainerrors "coffee-rewards.backend/internal/domain/errors"
	"coffee-rewards.backend/internal/infrastructure/blockchain"
	"coffee-rewards.backend/pkg/logger"
	"coffee-rewards.backend/pkg/metrics"
)

// TokenContract is the subset of the rewards token binding used here
type TokenContract interface {
	Name(ctx context.Context) (string, error)
	Symbol(ctx context.Context) (string, error)
	TotalSupply(ctx context.Context) (*big.Int, error)
	BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
	Mint(ctx context.Context, to common.Address, amount *big.Int) (common.Hash, error)
	CanMint() bool
}

// CoffeeCoinUsecase handles token reads and point minting
type CoffeeCoinUsecase struct {
	token TokenContract
}

// NewCoffeeCoinUsecase creates a new coffee coin usecase
func NewCoffeeCoinUsecase(token TokenContract) *CoffeeCoinUsecase {
	return &CoffeeCoinUsecase{token: token}
}

// GetTokenInfo reads the token name and symbol
func (u *CoffeeCoinUsecase) GetTokenInfo(ctx context.Context) (*entities.TokenInfo, error) {
	name, err := u.token.Name(ctx)
	metrics.RecordChainCall("name", err)
	if err != nil {
		logger.Error(ctx, "Failed to read token name", zap.Error(err))
		return nil, domainerrors.UpstreamFailure("Failed to fetch token info", err)
	}
	symbol, err := u.token.Symbol(ctx)
	metrics.RecordChainCall("symbol", err)
	if err != nil {
		logger.Error(ctx, "Failed to read token symbol", zap.Error(err))
		return nil, domainerrors.UpstreamFailure("Failed to fetch token info", err)
	}
	return &entities.TokenInfo{Name: name, Symbol: symbol}, nil
}

// GetTotalSupply reads the token total supply
func (u *CoffeeCoinUsecase) GetTotalSupply(ctx context.Context) (*big.Int, error) {
	supply, err := u.token.TotalSupply(ctx)
	metrics.RecordChainCall("totalSupply", err)
	if err != nil {
		logger.Error(ctx, "Failed to read total supply", zap.Error(err))
		return nil, domainerrors.UpstreamFailure("Failed to fetch total supply", err)
	}
	return supply, nil
}

// GetBalance validates address and reads its balance.
func (u *CoffeeCoinUsecase) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	owner, err := parseAddress(address, "Invalid user address format.")
	if err != nil {
		return nil, err
	}
	balance, err := u.token.BalanceOf(ctx, owner)
	metrics.RecordChainCall("balanceOf", err)
	if err != nil {
		logger.Error(ctx, "Failed to read balance", zap.String("address", owner.Hex()), zap.Error(err))
		return nil, domainerrors.UpstreamFailure("Failed to fetch balance", err)
	}
	return balance, nil
}

// EarnPoints mints rawAmount tokens to the caller's resolved wallet and
// waits for one confirmation. Nothing is retried: a failed mint is returned
// to the caller as is.
func (u *CoffeeCoinUsecase) EarnPoints(ctx context.Context, wallet *entities.ResolvedWallet, rawAmount string) (*entities.MintResult, error) {
	if wallet == nil {
		return nil, domainerrors.Unauthenticated("Unauthorized: No embedded wallet found for this user on the rewards network.")
	}
	if !u.token.CanMint() {
		return nil, domainerrors.ServiceUnavailable("Minting service not configured.")
	}
	recipient, err := parseAddress(wallet.Address, "Invalid recipient address format.")
	if err != nil {
		return nil, err
	}
	amount, err := ParsePositiveAmount(rawAmount)
	if err != nil {
		return nil, err
	}

	txHash, err := u.token.Mint(ctx, recipient, amount)
	metrics.RecordChainCall("mint", err)
	if err != nil {
		return nil, mintFailure(ctx, recipient, err)
	}
	minted, _ := new(big.Float).SetInt(amount).Float64()
	metrics.RecordPointsMinted(minted)
	logger.Info(ctx, "Points minted",
		zap.String("recipient", recipient.Hex()),
		zap.String("amount", amount.String()),
		zap.String("tx_hash", txHash.Hex()),
	)

	result := &entities.MintResult{
		TransactionHash:  txHash.Hex(),
		RecipientAddress: recipient.Hex(),
		Amount:           amount,
	}

	balance, err := u.token.BalanceOf(ctx, recipient)
	metrics.RecordChainCall("balanceOf", err)
	if err != nil {
		logger.Warn(ctx, "Post-mint balance read failed", zap.String("tx_hash", txHash.Hex()), zap.Error(err))
	} else {
		result.NewBalance = balance
	}
	return result, nil
}

func mintFailure(ctx context.Context, recipient common.Address, err error) error {
	if errors.Is(err, blockchain.ErrSignerNotConfigured) {
		return domainerrors.ServiceUnavailable("Minting service not configured.")
	}

	reason := err.Error()
	var txErr *blockchain.TxError
	if errors.As(err, &txErr) && txErr.Reason != "" {
		reason = txErr.Reason
	}
	logger.Error(ctx, "Mint failed",
		zap.String("recipient", recipient.Hex()),
		zap.String("reason", reason),
		zap.Error(err),
	)
	return domainerrors.UpstreamFailure("Failed to mint tokens: "+reason, err)
}

func parseAddress(raw, message string) (common.Address, error) {
	value := strings.TrimSpace(raw)
	if !common.IsHexAddress(value) {
		return common.Address{}, domainerrors.InvalidArgument(message)
	}
	return common.HexToAddress(value), nil
}
