package postgres

import (
	"context"
	"fmt"
)

// schema holds the DDL for the transactional core. Applied by cmd/seed;
// statements are idempotent so reruns are safe.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		unit_price NUMERIC(12,2) NOT NULL CHECK (unit_price >= 0),
		stock_quantity BIGINT NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS stock_movements (
		id UUID PRIMARY KEY,
		product_id UUID NOT NULL REFERENCES products(id),
		movement_type TEXT NOT NULL CHECK (movement_type IN ('IN','OUT','ADJUSTMENT')),
		quantity BIGINT NOT NULL CHECK (quantity >= 0),
		previous_stock BIGINT NOT NULL,
		new_stock BIGINT NOT NULL CHECK (new_stock >= 0),
		reference_type TEXT NOT NULL,
		reference_id UUID,
		actor TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_movements_product
		ON stock_movements (product_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id UUID PRIMARY KEY,
		reference TEXT NOT NULL UNIQUE,
		total NUMERIC(12,2) NOT NULL,
		payment_method TEXT NOT NULL,
		paid_amount NUMERIC(12,2) NOT NULL,
		change_amount NUMERIC(12,2) NOT NULL,
		cashier TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sale_items (
		sale_id UUID NOT NULL REFERENCES sales(id),
		product_id UUID NOT NULL REFERENCES products(id),
		name TEXT NOT NULL,
		unit_price NUMERIC(12,2) NOT NULL,
		quantity BIGINT NOT NULL CHECK (quantity > 0),
		line_total NUMERIC(12,2) NOT NULL,
		PRIMARY KEY (sale_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS reward_tokens (
		id UUID PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		source_sale_id UUID NOT NULL REFERENCES sales(id),
		points_value BIGINT NOT NULL CHECK (points_value > 0),
		is_redeemed BOOLEAN NOT NULL DEFAULT FALSE,
		redeemed_by TEXT,
		redeemed_at TIMESTAMPTZ,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	// At most one live (unredeemed) token per sale; issuance races
	// resolve on this index.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_reward_tokens_live_sale
		ON reward_tokens (source_sale_id) WHERE NOT is_redeemed`,
	`CREATE TABLE IF NOT EXISTS loyalty_accounts (
		id UUID PRIMARY KEY,
		customer_ref TEXT NOT NULL UNIQUE,
		balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS points_ledger (
		id UUID PRIMARY KEY,
		account_id UUID NOT NULL REFERENCES loyalty_accounts(id),
		delta BIGINT NOT NULL,
		transaction_type TEXT NOT NULL
			CHECK (transaction_type IN ('EARN','REDEEM','QR_SCAN','BONUS','ADJUSTMENT')),
		reference TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_points_ledger_account
		ON points_ledger (account_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL,
		role TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id UUID PRIMARY KEY,
		entity_type TEXT NOT NULL,
		entity_id UUID NOT NULL,
		action TEXT NOT NULL,
		actor TEXT NOT NULL,
		payload JSONB,
		payload_compressed BYTEA,
		compression_algo TEXT NOT NULL DEFAULT 'none',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sys_idempotency (
		idempotency_key TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		operation TEXT NOT NULL,
		status TEXT NOT NULL,
		request_hash TEXT NOT NULL,
		response BYTEA,
		response_status INT NOT NULL DEFAULT 0,
		response_content_type TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
}

// ApplySchema creates the core tables if they do not exist.
func ApplySchema(ctx context.Context, pool *Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
