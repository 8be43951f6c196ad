// Package main provides a CLI tool for seeding the database with
// demo products and register users.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"farmapos/internal/core/apperror"
	"farmapos/internal/core/id"
	"farmapos/internal/core/types"
	"farmapos/internal/domain/auth"
	"farmapos/internal/domain/catalog/product"
	"farmapos/internal/domain/ledger"
	"farmapos/internal/infrastructure/storage/postgres"
	"farmapos/internal/infrastructure/storage/postgres/auth_repo"
	"farmapos/internal/infrastructure/storage/postgres/catalog_repo"
	"farmapos/internal/infrastructure/storage/postgres/ledger_repo"
	"farmapos/pkg/logger"
)

type demoProduct struct {
	name  string
	price string
	stock int64
}

var demoProducts = []demoProduct{
	{"Paracetamol 500mg", "12.50", 500},
	{"Amoxicillin 500mg", "18.00", 300},
	{"Cetirizine 10mg", "9.75", 400},
	{"Ibuprofen 200mg", "8.25", 350},
	{"Ascorbic Acid 500mg", "6.00", 600},
	{"Multivitamins", "15.50", 250},
	{"Loperamide 2mg", "11.00", 200},
	{"Salbutamol Inhaler", "385.00", 40},
	{"Losartan 50mg", "22.50", 180},
	{"Metformin 500mg", "14.00", 220},
}

type demoUser struct {
	username string
	fullName string
	role     string
	password string
}

var demoUsers = []demoUser{
	{"admin", "Store Administrator", auth.RoleAdmin, "Admin123!"},
	{"pharmacist", "Duty Pharmacist", auth.RolePharmacist, "Pharma123!"},
	{"cashier", "Register Cashier", auth.RoleCashier, "Cashier123!"},
}

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("connected to database")

	if err := postgres.ApplySchema(ctx, pool); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}
	log.Info("schema applied")

	txManager := postgres.NewTxManager(pool)
	productRepo := catalog_repo.NewProductRepo(txManager)
	movementRepo := ledger_repo.NewMovementRepo(txManager)
	userRepo := auth_repo.NewUserRepo(txManager)
	ledgerService := ledger.NewService(productRepo, movementRepo, txManager)

	if err := seedUsers(ctx, userRepo, log); err != nil {
		log.Fatalw("failed to seed users", "error", err)
	}

	if err := seedProducts(ctx, productRepo, ledgerService, log); err != nil {
		log.Fatalw("failed to seed products", "error", err)
	}

	log.Info("seeding completed successfully")
}

func seedUsers(ctx context.Context, repo *auth_repo.UserRepo, log *logger.Logger) error {
	for _, u := range demoUsers {
		hash, err := auth.HashPassword(u.password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.username, err)
		}

		user := &auth.User{
			ID:           id.New(),
			Username:     u.username,
			FullName:     u.fullName,
			Role:         u.role,
			PasswordHash: hash,
			Active:       true,
			CreatedAt:    time.Now().UTC(),
		}

		if err := repo.Create(ctx, user); err != nil {
			if apperror.IsCode(err, apperror.CodeDuplicate) {
				log.Infow("user already exists, skipping", "username", u.username)
				continue
			}
			return err
		}
		log.Infow("user created", "username", u.username, "role", u.role)
	}
	return nil
}

func seedProducts(ctx context.Context, repo *catalog_repo.ProductRepo, ledgerService *ledger.Service, log *logger.Logger) error {
	for _, d := range demoProducts {
		price, err := types.NewMoneyFromString(d.price)
		if err != nil {
			return fmt.Errorf("parse price for %s: %w", d.name, err)
		}

		p := product.NewProduct(d.name, price)
		if err := p.Validate(); err != nil {
			return err
		}

		if err := repo.Create(ctx, p); err != nil {
			if apperror.IsCode(err, apperror.CodeDuplicate) {
				log.Infow("product already exists, skipping", "name", d.name)
				continue
			}
			return err
		}

		// Initial stock arrives as an ADJUSTMENT so the history starts
		// with an explicit ledger entry instead of a bare column value.
		_, err = ledgerService.Apply(ctx, ledger.ApplyInput{
			ProductID:     p.ID,
			Type:          ledger.MovementAdjustment,
			Quantity:      d.stock,
			ReferenceType: ledger.ReferenceInitialStock,
			Actor:         "seed",
			Notes:         "initial stock",
		})
		if err != nil {
			return fmt.Errorf("apply initial stock for %s: %w", d.name, err)
		}

		log.Infow("product created", "name", d.name, "stock", d.stock)
	}
	return nil
}
