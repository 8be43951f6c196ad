// Package main is the entry point for the farmapos API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"farmapos/internal/domain/auth"
	"farmapos/internal/domain/cart"
	"farmapos/internal/domain/catalog/product"
	"farmapos/internal/domain/ledger"
	"farmapos/internal/domain/loyalty"
	"farmapos/internal/domain/reward"
	"farmapos/internal/domain/sales"
	v1 "farmapos/internal/infrastructure/http/v1"
	"farmapos/internal/infrastructure/storage/postgres"
	"farmapos/internal/infrastructure/storage/postgres/auth_repo"
	"farmapos/internal/infrastructure/storage/postgres/catalog_repo"
	"farmapos/internal/infrastructure/storage/postgres/ledger_repo"
	"farmapos/internal/infrastructure/storage/postgres/loyalty_repo"
	"farmapos/internal/infrastructure/storage/postgres/reward_repo"
	"farmapos/internal/infrastructure/storage/postgres/sales_repo"
	"farmapos/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting farmapos server")

	// --- Database ---
	dsn := mustEnv("DATABASE_URL")
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	if getEnv("APPLY_SCHEMA", "false") == "true" {
		if err := postgres.ApplySchema(ctx, pool); err != nil {
			log.Fatalw("failed to apply schema", "error", err)
		}
		log.Info("schema applied")
	}

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	productRepo := catalog_repo.NewProductRepo(txManager)
	movementRepo := ledger_repo.NewMovementRepo(txManager)
	saleRepo := sales_repo.NewSaleRepo(txManager)
	accountRepo := loyalty_repo.NewAccountRepo(txManager)
	tokenRepo := reward_repo.NewTokenRepo(txManager)
	userRepo := auth_repo.NewUserRepo(txManager)

	// --- Audit ---
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- JWT ---
	jwtSecret := mustEnv("JWT_SECRET")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))

	// --- Services ---
	authService := auth.NewService(userRepo, jwtService)
	productService := product.NewService(productRepo)
	ledgerService := ledger.NewService(productRepo, movementRepo, txManager).WithAudit(auditService)
	cartStore := cart.NewStore()
	cartService := cart.NewService(cartStore, productRepo)
	salesService := sales.NewService(productRepo, ledgerService, saleRepo, txManager, auditService)
	loyaltyService := loyalty.NewService(accountRepo, txManager)
	rewardService := reward.NewService(tokenRepo, saleRepo, loyaltyService, txManager, auditService)

	// --- Idempotency ---
	var idempotencyStore *postgres.IdempotencyStore
	if getEnv("IDEMPOTENCY_ENABLED", "true") == "true" {
		ttl := getEnvDuration("IDEMPOTENCY_TTL", 10*time.Minute)
		idempotencyStore = postgres.NewIdempotencyStore(txManager, ttl)
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:             pool,
		Logger:           log,
		JWTValidator:     jwtService,
		AuthService:      authService,
		ProductService:   productService,
		CartService:      cartService,
		LedgerService:    ledgerService,
		SalesService:     salesService,
		RewardService:    rewardService,
		IdempotencyStore: idempotencyStore,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
