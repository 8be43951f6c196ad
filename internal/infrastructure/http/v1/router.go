// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"farmapos/internal/domain/auth"
	"farmapos/internal/domain/cart"
	"farmapos/internal/domain/catalog/product"
	"farmapos/internal/domain/ledger"
	"farmapos/internal/domain/reward"
	"farmapos/internal/domain/sales"
	"farmapos/internal/infrastructure/http/v1/handlers"
	"farmapos/internal/infrastructure/http/v1/middleware"
	"farmapos/internal/infrastructure/storage/postgres"
	"farmapos/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection (for health checks)
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Services
	AuthService    *auth.Service
	ProductService *product.Service
	CartService    *cart.Service
	LedgerService  *ledger.Service
	SalesService   *sales.Service
	RewardService  *reward.Service

	// IdempotencyStore enables Idempotency-Key replay on mutating
	// endpoints when non-nil.
	IdempotencyStore *postgres.IdempotencyStore
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()

	authHandler := handlers.NewAuthHandler(base, cfg.AuthService)
	productHandler := handlers.NewProductHandler(base, cfg.ProductService)
	cartHandler := handlers.NewCartHandler(base, cfg.CartService)
	checkoutHandler := handlers.NewCheckoutHandler(base, cfg.CartService, cfg.SalesService)
	stockHandler := handlers.NewStockHandler(base, cfg.LedgerService)
	rewardHandler := handlers.NewRewardHandler(base, cfg.RewardService)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/login", authHandler.Login)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))
		if cfg.IdempotencyStore != nil {
			protected.Use(middleware.Idempotency(cfg.IdempotencyStore))
		}

		protected.GET("/products", productHandler.List)
		protected.GET("/products/:id", productHandler.Get)

		protected.GET("/cart", cartHandler.View)
		protected.POST("/cart/items", cartHandler.AddItem)
		protected.PUT("/cart/items/:productId", cartHandler.UpdateItem)
		protected.DELETE("/cart/items/:productId", cartHandler.RemoveItem)
		protected.DELETE("/cart", cartHandler.Clear)

		protected.POST("/checkout", checkoutHandler.Checkout)

		protected.POST("/rewards/issue", rewardHandler.Issue)
		protected.POST("/rewards/redeem", rewardHandler.Redeem)

		// Stock mutation and staff-assisted redemption are not for the
		// cashier role.
		staff := protected.Group("")
		staff.Use(middleware.RequireRole(auth.RoleAdmin, auth.RolePharmacist))
		staff.POST("/stock/movements", stockHandler.CreateMovement)
		staff.GET("/stock/movements", stockHandler.History)
		staff.POST("/rewards/redeem-for", rewardHandler.RedeemFor)
	}

	return router
}
