package config

import (
	"errors"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"coffee-rewards.backend/internal/domain/entities"
)

// Config holds all configuration values
type Config struct {
	Server     ServerConfig
	Privy      PrivyConfig
	Blockchain BlockchainConfig
	Redis      RedisConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
	// CORSAllowedOrigins is empty to allow any origin
	CORSAllowedOrigins []string
}

// PrivyConfig holds identity provider credentials
type PrivyConfig struct {
	AppID           string
	AppSecret       string
	VerificationKey string
	APIURL          string
}

// Configured reports whether the identity client can be constructed.
func (c PrivyConfig) Configured() bool {
	return c.AppID != "" && c.AppSecret != ""
}

// BlockchainConfig holds the chain endpoint and the token contract
type BlockchainConfig struct {
	RPCURL                 string
	CoffeeCoinAddress      string
	ServerWalletPrivateKey string
	TargetChainID          entities.ChainID
}

// RedisConfig holds Redis configuration. An empty URL disables idempotent
// earn-points.
type RedisConfig struct {
	URL      string
	Password string
}

var (
	ErrMissingRPCURL          = errors.New("SEPOLIA_RPC_URL is not defined")
	ErrMissingContractAddress = errors.New("COFFEE_COIN_CONTRACT_ADDRESS is not defined")
	ErrInvalidContractAddress = errors.New("COFFEE_COIN_CONTRACT_ADDRESS is not a valid address")
	ErrInvalidTargetChainID   = errors.New("TARGET_CHAIN_ID is not a valid chain id")
)

// Load loads configuration from environment variables
func Load() *Config {
	targetChain, ok := entities.ParseChainID(getEnv("TARGET_CHAIN_ID", entities.SepoliaChainID.String()))
	if !ok {
		targetChain = ""
	}
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", getEnv("SERVER_PORT", "3001")),
			Env:  getEnv("SERVER_ENV", "development"),

			CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		},
		Privy: PrivyConfig{
			AppID:           getEnv("PRIVY_APP_ID", ""),
			AppSecret:       getEnv("PRIVY_APP_SECRET", ""),
			VerificationKey: strings.ReplaceAll(getEnv("PRIVY_VERIFICATION_KEY", ""), `\n`, "\n"),
			APIURL:          strings.TrimRight(getEnv("PRIVY_API_URL", "https://auth.privy.io"), "/"),
		},
		Blockchain: BlockchainConfig{
			RPCURL:                 getEnv("SEPOLIA_RPC_URL", ""),
			CoffeeCoinAddress:      getEnv("COFFEE_COIN_CONTRACT_ADDRESS", ""),
			ServerWalletPrivateKey: getEnv("SERVER_WALLET_PRIVATE_KEY", ""),
			TargetChainID:          targetChain,
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
	}
}

// Validate checks the settings without which the server must not start.
func (c *Config) Validate() error {
	if c.Blockchain.RPCURL == "" {
		return ErrMissingRPCURL
	}
	if c.Blockchain.CoffeeCoinAddress == "" {
		return ErrMissingContractAddress
	}
	if !common.IsHexAddress(c.Blockchain.CoffeeCoinAddress) {
		return ErrInvalidContractAddress
	}
	if c.Blockchain.TargetChainID.IsZero() {
		return ErrInvalidTargetChainID
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
