package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"coffee-rewards.backend/internal/config"
	"coffee-rewards.backend/internal/infrastructure/blockchain"
	"coffee-rewards.backend/internal/infrastructure/privy"
	"coffee-rewards.backend/internal/interfaces/http/handlers"
	"coffee-rewards.backend/internal/usecases"
	"coffee-rewards.backend/pkg/logger"
	"coffee-rewards.backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

var (
	loadDotenv     = godotenv.Load
	loadCfg        = config.Load
	initLog        = logger.Init
	initRedis      = redis.Init
	dialChain      = blockchain.NewEVMClient
	newPrivyClient = privy.NewClient
	runServer      = serveUntilSignal
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	// Load .env file
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	defer logger.Sync()
	ctx := context.Background()
	logger.Info(ctx, "Logger initialized", zap.String("env", cfg.Server.Env))

	if err := cfg.Validate(); err != nil {
		logger.Error(ctx, "Invalid configuration", zap.Error(err))
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Redis only backs Idempotency-Key on earn-points
	if cfg.Redis.URL != "" {
		if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
			logger.Error(ctx, "Failed to initialize Redis", zap.Error(err))
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer redis.Close()
		logger.Info(ctx, "Redis initialized")
	} else {
		logger.Warn(ctx, "REDIS_URL not set, Idempotency-Key is ignored")
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	chainClient, err := dialChain(ctx, cfg.Blockchain.RPCURL)
	if err != nil {
		return fmt.Errorf("failed to connect to chain rpc: %w", err)
	}
	defer chainClient.Close()

	targetChain := cfg.Blockchain.TargetChainID
	coffeeCoin, err := blockchain.NewCoffeeCoin(
		chainClient,
		cfg.Blockchain.CoffeeCoinAddress,
		cfg.Blockchain.ServerWalletPrivateKey,
		targetChain.BigInt(),
	)
	if err != nil {
		return fmt.Errorf("failed to bind coffee coin contract: %w", err)
	}
	if operator, ok := coffeeCoin.Operator(); ok {
		logger.Info(ctx, "Minting enabled", zap.String("operator", operator.Hex()))
	} else {
		logger.Warn(ctx, "SERVER_WALLET_PRIVATE_KEY not set, earn-points will fail")
	}
	checkChain(ctx, chainClient, targetChain.String())

	// A nil provider degrades authenticated routes instead of aborting startup
	var identityProvider usecases.IdentityProvider
	if cfg.Privy.Configured() {
		privyClient, err := newPrivyClient(privy.Options{
			AppID:           cfg.Privy.AppID,
			AppSecret:       cfg.Privy.AppSecret,
			APIURL:          cfg.Privy.APIURL,
			VerificationKey: cfg.Privy.VerificationKey,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize privy client: %w", err)
		}
		identityProvider = privyClient
	} else {
		logger.Warn(ctx, "PRIVY_APP_ID or PRIVY_APP_SECRET not set, authenticated routes are unavailable")
	}

	// Initialize usecases
	authUsecase := usecases.NewAuthUsecase(identityProvider, targetChain)
	coffeeCoinUsecase := usecases.NewCoffeeCoinUsecase(coffeeCoin)
	redemptionUsecase := usecases.NewRedemptionUsecase()
	rewardCatalog := usecases.NewRewardCatalog()

	r := newRouter(cfg, routeDeps{
		healthHandler:     handlers.NewHealthHandler(),
		coffeeCoinHandler: handlers.NewCoffeeCoinHandler(coffeeCoinUsecase),
		userHandler:       handlers.NewUserHandler(),
		rewardHandler:     handlers.NewRewardHandler(rewardCatalog, redemptionUsecase),
		authenticator:     authUsecase,
	})

	for _, route := range r.Routes() {
		logger.Debug(ctx, "Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info(ctx, "Coffee rewards backend starting",
		zap.String("addr", srv.Addr),
		zap.String("target_chain", targetChain.String()),
		zap.String("contract", coffeeCoin.Address().Hex()),
	)

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := runServer(sigCtx, srv); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// checkChain warns when the RPC endpoint serves another network. An
// unreachable endpoint is not fatal; reads report it per request.
func checkChain(ctx context.Context, client *blockchain.EVMClient, target string) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		logger.Warn(ctx, "Chain RPC not reachable at startup", zap.Error(err))
		return
	}
	if chainID.String() != target {
		logger.Warn(ctx, "Chain RPC serves a different network than TARGET_CHAIN_ID",
			zap.String("rpc_chain_id", chainID.String()),
			zap.String("target_chain_id", target),
		)
	}
}

func serveUntilSignal(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return <-errCh
}
