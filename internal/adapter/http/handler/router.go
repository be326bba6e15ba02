package handler

import (
	"wallet-ledger/internal/adapter/http/middleware"
	redisStore "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AccountSvc     ports.AccountService
	LedgerSvc      ports.LedgerService
	SnapshotSvc    ports.SnapshotService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	userHandler := NewUserHandler(deps.AccountSvc)
	users := v1.Group("/users")
	{
		users.POST("", rl("users_create"), userHandler.Create)
		users.GET("", rl("read"), userHandler.List)
		users.DELETE("/:id", rl("wallet_write"), userHandler.Delete)
	}

	walletHandler := NewWalletHandler(deps.LedgerSvc, deps.SnapshotSvc)
	wallets := v1.Group("/wallets")
	{
		wallets.GET("", rl("read"), walletHandler.List)
		wallets.POST("/:id/credit", rl("wallet_write"), walletHandler.Credit)
		wallets.POST("/:id/debit", rl("wallet_write"), walletHandler.Debit)
		wallets.GET("/:id/balance", rl("read"), walletHandler.GetBalance)
		wallets.GET("/:id/history", rl("read"), walletHandler.GetHistory)
	}

	return r
}
