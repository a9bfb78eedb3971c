package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cliWallet = "0x2222222222222222222222222222222222222222"

// fakeBackend mimics the rewards API with an in-memory balance
type fakeBackend struct {
	mu        sync.Mutex
	balance   int64
	wallet    bool
	recorded  []map[string]string
	earnCalls int
}

func (b *fakeBackend) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok" {
				reply(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized: Missing or invalid Authorization header", "code": "UNAUTHENTICATED"})
				return
			}
			h(w, r)
		}
	}

	mux.HandleFunc("/api/coffee-coin/info", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]string{"name": "CoffeeCoin", "symbol": "CFC"})
	})
	mux.HandleFunc("/api/coffee-coin/total-supply", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]string{"totalSupply": "500"})
	})
	mux.HandleFunc("/api/coffee-coin/balance/", func(w http.ResponseWriter, r *http.Request) {
		addr := strings.TrimPrefix(r.URL.Path, "/api/coffee-coin/balance/")
		if !common.IsHexAddress(addr) {
			reply(w, http.StatusBadRequest, map[string]string{"error": "Invalid user address format.", "code": "INVALID_ARGUMENT"})
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		balance := "0"
		if strings.EqualFold(addr, cliWallet) {
			balance = big.NewInt(b.balance).String()
		}
		reply(w, http.StatusOK, map[string]string{"userAddress": addr, "balance": balance})
	})
	mux.HandleFunc("/api/user/me", authed(func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{"message": "User authenticated successfully", "privyDid": "did:privy:cli"}
		if b.wallet {
			body["wallet"] = map[string]string{"address": cliWallet, "chainId": "11155111"}
		}
		reply(w, http.StatusOK, body)
	}))
	mux.HandleFunc("/api/coffee-coin/earn-points", authed(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		points, ok := new(big.Int).SetString(req["pointsToEarn"], 10)
		if !ok || points.Sign() <= 0 {
			reply(w, http.StatusBadRequest, map[string]string{"error": "Invalid amount format.", "code": "INVALID_ARGUMENT"})
			return
		}
		b.mu.Lock()
		b.earnCalls++
		b.balance += points.Int64()
		newBalance := big.NewInt(b.balance).String()
		b.mu.Unlock()
		reply(w, http.StatusOK, map[string]string{
			"message":          "Minting successful!",
			"transactionHash":  "0x" + strings.Repeat("ab", 32),
			"recipientAddress": cliWallet,
			"pointsEarned":     points.String(),
			"newBalance":       newBalance,
		})
	}))
	mux.HandleFunc("/api/coffee-coin/record-redemption", authed(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		b.recorded = append(b.recorded, req)
		b.mu.Unlock()
		req["message"] = "Redemption recorded successfully"
		req["voucherCode"] = "CFC-VOUCHER"
		reply(w, http.StatusOK, req)
	}))
	mux.HandleFunc("/api/rewards", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]interface{}{"rewards": []map[string]interface{}{
			{"id": "reward1", "name": "Free Coffee", "pointsRequired": 25},
			{"id": "reward2", "name": "Free Espresso Shot", "pointsRequired": 15},
		}})
	})
	mux.HandleFunc("/api/menu", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]interface{}{"items": []map[string]interface{}{
			{"id": 1, "name": "Espresso", "description": "Rich and bold", "price": "$3.50", "pointsToEarn": 5},
		}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func reply(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func runCLI(t *testing.T, srv *httptest.Server, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("REWARDS_API_URL", "")
	t.Setenv("PRIVY_ACCESS_TOKEN", "")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--api-url", srv.URL + "/api", "--token", "tok"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

type fakeBurnSigner struct {
	from  common.Address
	err   error
	calls int
}

func (s *fakeBurnSigner) From() common.Address { return s.from }

func (s *fakeBurnSigner) SendBurn(context.Context, []byte) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return "0x" + strings.Repeat("cd", 32), nil
}

func stubBurnSigner(t *testing.T, signer *fakeBurnSigner) {
	t.Helper()
	orig := newBurnSigner
	t.Cleanup(func() { newBurnSigner = orig })
	newBurnSigner = func(context.Context, string, string, string, *big.Int) (burnSigner, func(), error) {
		return signer, func() {}, nil
	}
}

func TestInfoCommand(t *testing.T) {
	srv := (&fakeBackend{}).server(t)
	out, err := runCLI(t, srv, "", "info")
	require.NoError(t, err)
	assert.Contains(t, out, "CoffeeCoin")
	assert.Contains(t, out, "Total supply: 500")
}

func TestBalanceCommand(t *testing.T) {
	backend := &fakeBackend{balance: 40, wallet: true}
	srv := backend.server(t)

	out, err := runCLI(t, srv, "", "balance")
	require.NoError(t, err)
	assert.Contains(t, out, cliWallet+": 40 CFC")

	out, err = runCLI(t, srv, "", "balance", "0x5555555555555555555555555555555555555555")
	require.NoError(t, err)
	assert.Contains(t, out, ": 0 CFC")

	_, err = runCLI(t, srv, "", "balance", "0x123")
	assert.EqualError(t, err, "Invalid user address format.")
}

func TestBalanceCommand_NoWallet(t *testing.T) {
	srv := (&fakeBackend{}).server(t)
	_, err := runCLI(t, srv, "", "balance")
	assert.ErrorIs(t, err, errNoWallet)
}

func TestEarnCommand(t *testing.T) {
	backend := &fakeBackend{balance: 40, wallet: true}
	srv := backend.server(t)

	out, err := runCLI(t, srv, "", "earn", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "New balance: 50 CFC")

	out, err = runCLI(t, srv, "", "earn", "--item", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Processing purchase for Espresso...")
	assert.Contains(t, out, "New balance: 55 CFC")

	_, err = runCLI(t, srv, "", "earn", "--item", "9")
	assert.EqualError(t, err, "unknown menu item 9")

	_, err = runCLI(t, srv, "", "earn")
	assert.Error(t, err)
	assert.Equal(t, 2, backend.earnCalls)
}

func TestRewardsAndMenuCommands(t *testing.T) {
	srv := (&fakeBackend{}).server(t)

	out, err := runCLI(t, srv, "", "rewards")
	require.NoError(t, err)
	assert.Contains(t, out, "reward1")
	assert.Contains(t, out, "Free Espresso Shot")

	out, err = runCLI(t, srv, "", "menu")
	require.NoError(t, err)
	assert.Contains(t, out, "$3.50")
}

func TestRedeemCommand(t *testing.T) {
	backend := &fakeBackend{balance: 40, wallet: true}
	srv := backend.server(t)
	signer := &fakeBurnSigner{from: common.HexToAddress(cliWallet)}
	stubBurnSigner(t, signer)

	out, err := runCLI(t, srv, "y\n", "redeem", "reward1")
	require.NoError(t, err)
	assert.Contains(t, out, "Redeem Free Coffee for 25 CoffeeCoins?")
	assert.Contains(t, out, "Voucher: CFC-VOUCHER")
	assert.Equal(t, 1, signer.calls)

	require.Len(t, backend.recorded, 1)
	assert.Equal(t, "reward1", backend.recorded[0]["rewardId"])
	assert.Equal(t, "25", backend.recorded[0]["pointsBurned"])
	assert.Equal(t, "0x"+strings.Repeat("cd", 32), backend.recorded[0]["burnTransactionHash"])
}

func TestRedeemCommand_Cancelled(t *testing.T) {
	backend := &fakeBackend{balance: 40, wallet: true}
	srv := backend.server(t)
	signer := &fakeBurnSigner{from: common.HexToAddress(cliWallet)}
	stubBurnSigner(t, signer)

	out, err := runCLI(t, srv, "n\n", "redeem", "reward1")
	require.NoError(t, err)
	assert.Contains(t, out, "Redemption cancelled.")
	assert.Zero(t, signer.calls)
	assert.Empty(t, backend.recorded)
}

func TestRedeemCommand_InsufficientBalance(t *testing.T) {
	backend := &fakeBackend{balance: 10, wallet: true}
	srv := backend.server(t)
	signer := &fakeBurnSigner{from: common.HexToAddress(cliWallet)}
	stubBurnSigner(t, signer)

	_, err := runCLI(t, srv, "", "redeem", "reward1", "--yes")
	assert.EqualError(t, err, "Not enough CoffeeCoins to redeem Free Coffee. You need 25, have 10.")
	assert.Zero(t, signer.calls)
}

func TestRedeemCommand_SignerRejected(t *testing.T) {
	backend := &fakeBackend{balance: 40, wallet: true}
	srv := backend.server(t)
	stubBurnSigner(t, &fakeBurnSigner{from: common.HexToAddress(cliWallet), err: errors.New("user rejected")})

	_, err := runCLI(t, srv, "", "redeem", "reward1", "--yes")
	assert.EqualError(t, err, "user rejected")
	assert.Empty(t, backend.recorded)
}

func TestRedeemCommand_KeyMustControlWallet(t *testing.T) {
	backend := &fakeBackend{balance: 40, wallet: true}
	srv := backend.server(t)
	stubBurnSigner(t, &fakeBurnSigner{from: common.HexToAddress("0x9999999999999999999999999999999999999999")})

	_, err := runCLI(t, srv, "", "redeem", "reward1", "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not the embedded wallet")
}

func TestRedeemCommand_UnknownReward(t *testing.T) {
	srv := (&fakeBackend{wallet: true}).server(t)
	_, err := runCLI(t, srv, "", "redeem", "nope", "--yes")
	assert.EqualError(t, err, `unknown reward "nope"`)
}
