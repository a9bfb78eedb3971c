package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var rawTransact = func(contract *bind.BoundContract, opts *bind.TransactOpts, calldata []byte) (*types.Transaction, error) {
	return contract.RawTransact(opts, calldata)
}

// BurnSigner broadcasts burn calls from a holder key. Transactions are
// not awaited.
type BurnSigner struct {
	client        *EVMClient
	token         common.Address
	key           *ecdsa.PrivateKey
	expectedChain *big.Int
}

// NewBurnSigner creates a signer for the token at tokenAddress.
func NewBurnSigner(client *EVMClient, tokenAddress, keyHex string, expectedChain *big.Int) (*BurnSigner, error) {
	if !common.IsHexAddress(tokenAddress) {
		return nil, fmt.Errorf("invalid token contract address %q", tokenAddress)
	}
	keyHex = strings.TrimPrefix(strings.TrimSpace(keyHex), "0x")
	if keyHex == "" {
		return nil, errors.New("holder private key is required")
	}
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, errors.New("invalid holder private key")
	}
	return &BurnSigner{
		client:        client,
		token:         common.HexToAddress(tokenAddress),
		key:           key,
		expectedChain: expectedChain,
	}, nil
}

// From returns the holder address
func (s *BurnSigner) From() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// SendBurn signs and broadcasts data against the token and returns the
// transaction hash.
func (s *BurnSigner) SendBurn(ctx context.Context, data []byte) (string, error) {
	chainID, err := s.client.ChainID(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch chain id: %w", err)
	}
	if s.expectedChain != nil && chainID.Cmp(s.expectedChain) != 0 {
		return "", fmt.Errorf("%w: got %s want %s", ErrChainMismatch, chainID, s.expectedChain)
	}

	auth, err := bind.NewKeyedTransactorWithChainID(s.key, chainID)
	if err != nil {
		return "", err
	}
	auth.Context = ctx

	backend := s.client.Backend()
	contract := bind.NewBoundContract(s.token, coffeeCoinABI, backend, backend, backend)
	tx, err := rawTransact(contract, auth, data)
	if err != nil {
		return "", &TxError{Reason: RevertReason(err), Err: err}
	}
	return tx.Hash().Hex(), nil
}
