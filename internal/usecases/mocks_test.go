package usecases_test

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"

	"coffee-rewards.backend/internal/domain/entities"
	"coffee-rewards.backend/pkg/jwt"
)

// MockIdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyAuthToken(ctx context.Context, token string) (*jwt.VerifiedClaims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jwt.VerifiedClaims), args.Error(1)
}

func (m *MockIdentityProvider) GetUser(ctx context.Context, did string) (*entities.Identity, error) {
	args := m.Called(ctx, did)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Identity), args.Error(1)
}

// MockTokenContract
type MockTokenContract struct {
	mock.Mock
}

func (m *MockTokenContract) Name(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockTokenContract) Symbol(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockTokenContract) TotalSupply(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockTokenContract) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockTokenContract) Mint(ctx context.Context, to common.Address, amount *big.Int) (common.Hash, error) {
	args := m.Called(ctx, to, amount)
	return args.Get(0).(common.Hash), args.Error(1)
}

func (m *MockTokenContract) CanMint() bool {
	args := m.Called()
	return args.Bool(0)
}
