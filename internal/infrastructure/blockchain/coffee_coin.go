package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// CoffeeCoinABIJSON covers the parts of the deployed ERC20 (Burnable,
// Ownable) contract this service touches.
const CoffeeCoinABIJSON = `[
	{"inputs":[],"name":"name","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"symbol","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"totalSupply","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"address","name":"account","type":"address"}],"name":"balanceOf","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"address","name":"to","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"mint","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"uint256","name":"value","type":"uint256"}],"name":"burn","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"address","name":"account","type":"address"}],"name":"OwnableUnauthorizedAccount","type":"error"},
	{"inputs":[{"internalType":"address","name":"receiver","type":"address"}],"name":"ERC20InvalidReceiver","type":"error"},
	{"inputs":[{"internalType":"address","name":"sender","type":"address"},{"internalType":"uint256","name":"balance","type":"uint256"},{"internalType":"uint256","name":"needed","type":"uint256"}],"name":"ERC20InsufficientBalance","type":"error"}
]`

var coffeeCoinABI = mustParseABI(CoffeeCoinABIJSON)

var (
	ErrSignerNotConfigured = errors.New("server wallet private key is not configured")
	ErrInvalidSignerKey    = errors.New("invalid server wallet private key")
	ErrChainMismatch       = errors.New("rpc endpoint reports an unexpected chain id")
)

var (
	transactContract = func(contract *bind.BoundContract, opts *bind.TransactOpts, method string, args ...interface{}) (*types.Transaction, error) {
		return contract.Transact(opts, method, args...)
	}
	waitMined = func(ctx context.Context, backend bind.DeployBackend, tx *types.Transaction) (*types.Receipt, error) {
		return bind.WaitMined(ctx, backend, tx)
	}
)

// TxError reports a mint that was rejected on submission or reverted
// on chain. TxHash is empty when the transaction never left the node.
type TxError struct {
	TxHash string
	Reason string
	Err    error
}

func (e *TxError) Error() string {
	if e.TxHash != "" {
		return fmt.Sprintf("transaction %s failed: %s", e.TxHash, e.Reason)
	}
	return "transaction rejected: " + e.Reason
}

func (e *TxError) Unwrap() error {
	return e.Err
}

// CoffeeCoin is a binding to the deployed rewards token.
type CoffeeCoin struct {
	client        *EVMClient
	address       common.Address
	parsedABI     abi.ABI
	signer        *ecdsa.PrivateKey
	expectedChain *big.Int
}

// NewCoffeeCoin binds the contract at address. signerKeyHex may be empty, in
// which case reads work and Mint returns ErrSignerNotConfigured.
// expectedChain, when set, is checked before any transaction is signed.
func NewCoffeeCoin(client *EVMClient, address string, signerKeyHex string, expectedChain *big.Int) (*CoffeeCoin, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid token contract address %q", address)
	}
	token := &CoffeeCoin{
		client:        client,
		address:       common.HexToAddress(address),
		parsedABI:     coffeeCoinABI,
		expectedChain: expectedChain,
	}
	if keyHex := strings.TrimPrefix(strings.TrimSpace(signerKeyHex), "0x"); keyHex != "" {
		key, err := crypto.HexToECDSA(keyHex)
		if err != nil {
			return nil, ErrInvalidSignerKey
		}
		token.signer = key
	}
	return token, nil
}

// Address returns the contract address
func (c *CoffeeCoin) Address() common.Address {
	return c.address
}

// CanMint reports whether a signing key is configured.
func (c *CoffeeCoin) CanMint() bool {
	return c.signer != nil
}

// Operator returns the address that signs mint transactions.
func (c *CoffeeCoin) Operator() (common.Address, bool) {
	if c.signer == nil {
		return common.Address{}, false
	}
	return crypto.PubkeyToAddress(c.signer.PublicKey), true
}

func (c *CoffeeCoin) Name(ctx context.Context) (string, error) {
	return callTypedView[string](ctx, c.client, c.address, c.parsedABI, "name")
}

func (c *CoffeeCoin) Symbol(ctx context.Context) (string, error) {
	return callTypedView[string](ctx, c.client, c.address, c.parsedABI, "symbol")
}

func (c *CoffeeCoin) TotalSupply(ctx context.Context) (*big.Int, error) {
	return callTypedView[*big.Int](ctx, c.client, c.address, c.parsedABI, "totalSupply")
}

func (c *CoffeeCoin) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	return callTypedView[*big.Int](ctx, c.client, c.address, c.parsedABI, "balanceOf", owner)
}

// Mint submits mint(to, amount), waits for the receipt and returns the
// transaction hash. A failed receipt is replayed at its block to recover
// the revert reason.
func (c *CoffeeCoin) Mint(ctx context.Context, to common.Address, amount *big.Int) (common.Hash, error) {
	if c.signer == nil {
		return common.Hash{}, ErrSignerNotConfigured
	}

	chainID, err := c.client.ChainID(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to fetch chain id: %w", err)
	}
	if c.expectedChain != nil && chainID.Cmp(c.expectedChain) != 0 {
		return common.Hash{}, fmt.Errorf("%w: got %s want %s", ErrChainMismatch, chainID, c.expectedChain)
	}

	auth, err := bind.NewKeyedTransactorWithChainID(c.signer, chainID)
	if err != nil {
		return common.Hash{}, err
	}
	auth.Context = ctx

	backend := c.client.Backend()
	contract := bind.NewBoundContract(c.address, c.parsedABI, backend, backend, backend)
	tx, err := transactContract(contract, auth, "mint", to, amount)
	if err != nil {
		return common.Hash{}, &TxError{Reason: RevertReason(err), Err: err}
	}

	receipt, err := waitMined(ctx, backend, tx)
	if err != nil {
		return tx.Hash(), &TxError{TxHash: tx.Hash().Hex(), Reason: err.Error(), Err: err}
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return tx.Hash(), &TxError{TxHash: tx.Hash().Hex(), Reason: c.replayRevertReason(ctx, auth.From, tx, receipt)}
	}
	return tx.Hash(), nil
}

func (c *CoffeeCoin) replayRevertReason(ctx context.Context, from common.Address, tx *types.Transaction, receipt *types.Receipt) string {
	msg := ethereum.CallMsg{
		From:  from,
		To:    tx.To(),
		Gas:   tx.Gas(),
		Value: tx.Value(),
		Data:  tx.Data(),
	}
	_, err := c.client.CallAt(ctx, msg, receipt.BlockNumber)
	if err == nil {
		return "execution reverted"
	}
	return RevertReason(err)
}

// BurnCallData encodes burn(amount) for a transaction sent from the
// holder's own wallet.
func BurnCallData(amount *big.Int) ([]byte, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, errors.New("burn amount must be positive")
	}
	return coffeeCoinABI.Pack("burn", amount)
}

func callTypedView[T any](
	ctx context.Context,
	client *EVMClient,
	contractAddress common.Address,
	parsedABI abi.ABI,
	method string,
	args ...interface{},
) (T, error) {
	var zero T

	data, err := parsedABI.Pack(method, args...)
	if err != nil {
		return zero, err
	}
	out, err := client.CallView(ctx, contractAddress, data)
	if err != nil {
		return zero, err
	}
	vals, err := parsedABI.Unpack(method, out)
	if err != nil || len(vals) == 0 {
		return zero, fmt.Errorf("failed to decode %s", method)
	}
	value, ok := vals[0].(T)
	if !ok {
		return zero, fmt.Errorf("invalid %s return type", method)
	}
	return value, nil
}

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
