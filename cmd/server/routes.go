package main

import (
	"context"

	"github.com/gin-gonic/gin"

	"coffee-rewards.backend/internal/config"
	"coffee-rewards.backend/internal/interfaces/http/handlers"
	"coffee-rewards.backend/internal/interfaces/http/middleware"
	"coffee-rewards.backend/internal/usecases"
	"coffee-rewards.backend/pkg/metrics"
)

type authenticator interface {
	Authenticate(ctx context.Context, authorization string) (*usecases.AuthenticatedUser, error)
}

type routeDeps struct {
	healthHandler     *handlers.HealthHandler
	coffeeCoinHandler *handlers.CoffeeCoinHandler
	userHandler       *handlers.UserHandler
	rewardHandler     *handlers.RewardHandler
	authenticator     authenticator
}

func newRouter(cfg *config.Config, d routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	applyCORSMiddleware(r, cfg.Server.CORSAllowedOrigins)
	registerMetricsRoute(r)
	registerAPIRoutes(r, d)
	return r
}

func registerAPIRoutes(r *gin.Engine, d routeDeps) {
	api := r.Group("/api")
	{
		api.GET("/health", d.healthHandler.Health)
		api.GET("/rewards", d.rewardHandler.ListRewards)
		api.GET("/menu", d.rewardHandler.ListMenu)

		requireUser := middleware.AuthMiddleware(d.authenticator)

		user := api.Group("/user")
		user.Use(requireUser)
		{
			user.GET("/me", d.userHandler.Me)
		}

		coffeeCoin := api.Group("/coffee-coin")
		{
			coffeeCoin.GET("/info", d.coffeeCoinHandler.GetInfo)
			coffeeCoin.GET("/total-supply", d.coffeeCoinHandler.GetTotalSupply)
			coffeeCoin.GET("/balance/:address", d.coffeeCoinHandler.GetBalance)

			coffeeCoin.POST("/earn-points", requireUser, middleware.IdempotencyMiddleware("earn-points"), d.coffeeCoinHandler.EarnPoints)
			coffeeCoin.POST("/record-redemption", requireUser, d.rewardHandler.RecordRedemption)
		}
	}
}

func registerMetricsRoute(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
}
