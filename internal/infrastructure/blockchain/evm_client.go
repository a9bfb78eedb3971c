package blockchain

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

var dialEVMClient = ethclient.DialContext

// ErrClientClosed is returned by calls made after Close.
var ErrClientClosed = errors.New("evm client is closed")

// EVMClient provides EVM blockchain interaction
type EVMClient struct {
	client *ethclient.Client
	rpcURL string

	chainMu sync.Mutex
	chainID *big.Int

	// testCallView allows deterministic unit tests without network sockets.
	testCallView func(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error)
}

// NewEVMClient dials the RPC endpoint. HTTP endpoints connect lazily, so
// this does not touch the network.
func NewEVMClient(ctx context.Context, rpcURL string) (*EVMClient, error) {
	client, err := dialEVMClient(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &EVMClient{
		client: client,
		rpcURL: rpcURL,
	}, nil
}

// NewEVMClientWithCallView creates an EVM client that uses an injected call implementation.
// This is intended for unit tests where RPC sockets are unavailable.
func NewEVMClientWithCallView(chainID *big.Int, callViewFn func(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error)) *EVMClient {
	if chainID == nil {
		chainID = big.NewInt(1)
	}
	return &EVMClient{
		chainID:      chainID,
		testCallView: callViewFn,
	}
}

// RPCURL returns the endpoint the client was dialed with
func (c *EVMClient) RPCURL() string {
	return c.rpcURL
}

// ChainID returns the chain id reported by the endpoint. The first
// successful answer is kept for the life of the client.
func (c *EVMClient) ChainID(ctx context.Context) (*big.Int, error) {
	c.chainMu.Lock()
	defer c.chainMu.Unlock()

	if c.chainID != nil {
		return new(big.Int).Set(c.chainID), nil
	}
	if c.client == nil {
		return nil, ErrClientClosed
	}
	id, err := c.client.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	c.chainID = id
	return new(big.Int).Set(id), nil
}

// CallView executes a read-only contract call against the latest block
func (c *EVMClient) CallView(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return c.CallAt(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
}

// CallAt executes msg at the given block (nil for latest).
func (c *EVMClient) CallAt(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	if c.testCallView != nil {
		return c.testCallView(ctx, msg, block)
	}
	if c.client == nil {
		return nil, ErrClientClosed
	}
	return c.client.CallContract(ctx, msg, block)
}

// Backend exposes the underlying client for contract bindings.
func (c *EVMClient) Backend() *ethclient.Client {
	return c.client
}

// Close closes the client connection
func (c *EVMClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}
