package usecases

import (
	"math/big"
	"regexp"
	"strings"

	domainerrors "coffee-rewards.backend/internal/domain/errors"
)

var unsignedIntegerPattern = regexp.MustCompile(`^[0-9]+$`)

// maxTokenAmount is the uint256 ceiling of the token contract.
var maxTokenAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// ParsePositiveAmount parses a whole-token amount. The token has zero
// decimals, so fractions, signs and exponents are rejected.
func ParsePositiveAmount(raw string) (*big.Int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, domainerrors.InvalidArgument("Amount is required.")
	}
	if !unsignedIntegerPattern.MatchString(value) {
		return nil, domainerrors.InvalidArgument("Invalid amount format.")
	}

	amount, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, domainerrors.InvalidArgument("Invalid amount format.")
	}
	if amount.Sign() <= 0 {
		return nil, domainerrors.InvalidArgument("Amount must be positive.")
	}
	if amount.Cmp(maxTokenAmount) > 0 {
		return nil, domainerrors.InvalidArgument("Amount is too large.")
	}
	return amount, nil
}
