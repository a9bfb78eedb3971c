package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffee-rewards.backend/internal/config"
	"coffee-rewards.backend/internal/domain/entities"
	"coffee-rewards.backend/internal/infrastructure/blockchain"
	"coffee-rewards.backend/internal/infrastructure/privy"
	"coffee-rewards.backend/pkg/jwt"
	plog "coffee-rewards.backend/pkg/logger"
)

const (
	testContract = "0x1111111111111111111111111111111111111111"
	testWallet   = "0x7a2f4c4f1f3b5e2d9c8b7a6f5e4d3c2b1a098765"
	testAppID    = "app-e2e"
	testSecret   = "secret-e2e"
	testDID      = "did:privy:e2e"
)

func withMainHooks(t *testing.T) {
	t.Helper()
	origLoadDotenv := loadDotenv
	origLoadCfg := loadCfg
	origInitLog := initLog
	origInitRedis := initRedis
	origDialChain := dialChain
	origNewPrivyClient := newPrivyClient
	origRunServer := runServer

	t.Cleanup(func() {
		loadDotenv = origLoadDotenv
		loadCfg = origLoadCfg
		initLog = origInitLog
		initRedis = origInitRedis
		dialChain = origDialChain
		newPrivyClient = origNewPrivyClient
		runServer = origRunServer
	})

	loadDotenv = func(...string) error { return nil }
	initLog = plog.Init
	dialChain = func(context.Context, string) (*blockchain.EVMClient, error) {
		return blockchain.NewEVMClientWithCallView(big.NewInt(11155111), nil), nil
	}
}

func baseTestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port: "18080",
			Env:  "development",
		},
		Blockchain: config.BlockchainConfig{
			RPCURL:            "http://rpc.local",
			CoffeeCoinAddress: testContract,
			TargetChainID:     entities.SepoliaChainID,
		},
	}
}

func TestRunMainProcess_InvalidConfig(t *testing.T) {
	withMainHooks(t)

	dialed := false
	dialChain = func(context.Context, string) (*blockchain.EVMClient, error) {
		dialed = true
		return nil, errors.New("unexpected dial")
	}
	loadCfg = func() *config.Config {
		cfg := baseTestConfig()
		cfg.Blockchain.CoffeeCoinAddress = ""
		return cfg
	}

	err := runMainProcess()
	require.ErrorIs(t, err, config.ErrMissingContractAddress)
	assert.False(t, dialed)
}

func TestRunMainProcess_RedisInitError(t *testing.T) {
	withMainHooks(t)

	loadCfg = func() *config.Config {
		cfg := baseTestConfig()
		cfg.Redis.URL = "redis://localhost:6379"
		return cfg
	}
	initRedis = func(string, string) error { return errors.New("redis down") }

	err := runMainProcess()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestRunMainProcess_ChainDialError(t *testing.T) {
	withMainHooks(t)

	loadCfg = baseTestConfig
	dialChain = func(context.Context, string) (*blockchain.EVMClient, error) {
		return nil, errors.New("no route to host")
	}

	err := runMainProcess()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chain rpc")
}

func TestRunMainProcess_InvalidSignerKey(t *testing.T) {
	withMainHooks(t)

	loadCfg = func() *config.Config {
		cfg := baseTestConfig()
		cfg.Blockchain.ServerWalletPrivateKey = "0xnot-a-key"
		return cfg
	}

	err := runMainProcess()
	require.ErrorIs(t, err, blockchain.ErrInvalidSignerKey)
}

func TestRunMainProcess_PrivyClientError(t *testing.T) {
	withMainHooks(t)

	loadCfg = func() *config.Config {
		cfg := baseTestConfig()
		cfg.Privy = config.PrivyConfig{AppID: testAppID, AppSecret: testSecret}
		return cfg
	}
	newPrivyClient = func(privy.Options) (*privy.Client, error) { return nil, errors.New("bad key") }

	err := runMainProcess()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "privy")
}

func TestRunMainProcess_ServerRunError(t *testing.T) {
	withMainHooks(t)

	loadCfg = baseTestConfig
	runServer = func(context.Context, *http.Server) error { return errors.New("listen failed") }

	err := runMainProcess()
	require.Error(t, err)
}

func TestRunMainProcess_DegradesWithoutIdentityProvider(t *testing.T) {
	withMainHooks(t)

	loadCfg = baseTestConfig
	runServer = func(_ context.Context, srv *http.Server) error {
		assert.Equal(t, ":18080", srv.Addr)

		rec := serve(srv.Handler, http.MethodGet, "/api/health", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = serve(srv.Handler, http.MethodGet, "/api/user/me", "", "Bearer anything")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "Authentication service not configured.")

		rec = serve(srv.Handler, http.MethodGet, "/metrics", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		return nil
	}

	require.NoError(t, runMainProcess())
}

func TestRunMainProcess_EndToEnd(t *testing.T) {
	withMainHooks(t)

	provider := newFakeIdentityProvider(t)
	rpc := newBalanceRPCServer(t, testWallet, 40)

	loadCfg = func() *config.Config {
		cfg := baseTestConfig()
		cfg.Blockchain.RPCURL = rpc.URL
		cfg.Privy = config.PrivyConfig{AppID: testAppID, AppSecret: testSecret, APIURL: provider.srv.URL}
		return cfg
	}
	dialChain = blockchain.NewEVMClient

	runServer = func(_ context.Context, srv *http.Server) error {
		h := srv.Handler
		good := "Bearer " + provider.token(t, time.Hour)

		// linked embedded wallet, no primary wallet field
		rec := serve(h, http.MethodGet, "/api/user/me", "", good)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var me struct {
			PrivyDID string                  `json:"privyDid"`
			Wallet   entities.ResolvedWallet `json:"wallet"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
		assert.Equal(t, testDID, me.PrivyDID)
		assert.Equal(t, testWallet, me.Wallet.Address)

		rec = serve(h, http.MethodGet, "/api/coffee-coin/balance/"+me.Wallet.Address, "", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"userAddress":"`+testWallet+`","balance":"40"}`, rec.Body.String())

		rec = serve(h, http.MethodGet, "/api/coffee-coin/balance/not-an-address", "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		expired := serve(h, http.MethodGet, "/api/user/me", "", "Bearer "+provider.token(t, -time.Minute))
		invalid := serve(h, http.MethodGet, "/api/user/me", "", "Bearer not.a.jwt")
		assert.Equal(t, http.StatusUnauthorized, expired.Code)
		assert.Equal(t, http.StatusUnauthorized, invalid.Code)
		assert.Contains(t, expired.Body.String(), "Unauthorized: Token has expired.")
		assert.Contains(t, invalid.Body.String(), "Unauthorized: Invalid token format or signature.")

		rec = serve(h, http.MethodPost, "/api/coffee-coin/record-redemption",
			`{"rewardId":"reward1","pointsBurned":"25","burnTransactionHash":"0x01"}`, good)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Regexp(t, `"voucherCode":"[^"]+"`, rec.Body.String())

		// no operator key configured
		rec = serve(h, http.MethodPost, "/api/coffee-coin/earn-points", `{"pointsToEarn":"10"}`, good)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "Minting service not configured.")

		rec = serve(h, http.MethodOptions, "/api/coffee-coin/earn-points", "", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		return nil
	}

	require.NoError(t, runMainProcess())
}

func serve(h http.Handler, method, path, body, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://localhost:8080")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type fakeIdentityProvider struct {
	key *ecdsa.PrivateKey
	srv *httptest.Server
}

func newFakeIdentityProvider(t *testing.T) *fakeIdentityProvider {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemKey := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/apps/"+testAppID, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": testAppID, "verification_key": pemKey})
	})
	mux.HandleFunc("/api/v1/users/"+testDID, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id": testDID,
			"linked_accounts": []map[string]interface{}{
				{"type": "email", "address": "barista@example.com"},
				{
					"type":               "wallet",
					"address":            testWallet,
					"chain_type":         "ethereum",
					"wallet_client_type": "privy",
					"chain_id":           "11155111",
				},
			},
		})
	})

	p := &fakeIdentityProvider{key: key, srv: httptest.NewServer(mux)}
	t.Cleanup(p.srv.Close)
	return p
}

func (p *fakeIdentityProvider) token(t *testing.T, ttl time.Duration) string {
	t.Helper()
	tok, err := jwt.IssueToken(p.key, jwt.PrivyIssuer, testAppID, testDID, "sess-e2e", ttl)
	require.NoError(t, err)
	return tok
}

// newBalanceRPCServer answers eth_chainId for Sepolia and balanceOf(holder)
// with balance; every other holder has zero.
func newBalanceRPCServer(t *testing.T, holder string, balance int64) *httptest.Server {
	t.Helper()
	word := func(v int64) string {
		return hexutil.Encode(common.LeftPadBytes(big.NewInt(v).Bytes(), 32))
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
			ID     interface{}     `json:"id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		res := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		params := strings.ToLower(string(req.Params))
		switch {
		case req.Method == "eth_chainId":
			res["result"] = "0xaa36a7"
		case req.Method == "eth_call" && strings.Contains(params, strings.ToLower(strings.TrimPrefix(holder, "0x"))):
			res["result"] = word(balance)
		case req.Method == "eth_call":
			res["result"] = word(0)
		default:
			res["error"] = map[string]interface{}{"code": -32601, "message": "method not found"}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(res)
	}))
	t.Cleanup(srv.Close)
	return srv
}
