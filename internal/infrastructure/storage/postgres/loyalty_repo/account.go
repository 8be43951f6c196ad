// Package loyalty_repo provides PostgreSQL storage for loyalty accounts
// and their points ledger.
package loyalty_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"farmapos/internal/core/apperror"
	"farmapos/internal/core/id"
	"farmapos/internal/domain/loyalty"
	"farmapos/internal/infrastructure/storage/postgres"
)

const (
	accountsTable = "loyalty_accounts"
	ledgerTable   = "points_ledger"
)

var accountColumns = []string{"id", "customer_ref", "balance", "created_at"}

var ledgerColumns = []string{
	"id", "account_id", "delta", "transaction_type", "reference",
	"description", "created_at",
}

// AccountRepo implements loyalty.Repository.
type AccountRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ loyalty.Repository = (*AccountRepo)(nil)

// NewAccountRepo creates a new loyalty repository.
func NewAccountRepo(txManager *postgres.TxManager) *AccountRepo {
	return &AccountRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetByID retrieves an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, accountID id.ID) (*loyalty.Account, error) {
	return r.getOne(ctx, squirrel.Eq{"id": accountID}, "loyalty account", accountID)
}

// GetByCustomerRef retrieves an account by its customer reference.
func (r *AccountRepo) GetByCustomerRef(ctx context.Context, customerRef string) (*loyalty.Account, error) {
	return r.getOne(ctx, squirrel.Eq{"customer_ref": customerRef}, "loyalty account", customerRef)
}

func (r *AccountRepo) getOne(ctx context.Context, where squirrel.Eq, entity string, key any) (*loyalty.Account, error) {
	q := r.builder.Select(accountColumns...).
		From(accountsTable).
		Where(where).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var a loyalty.Account
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &a, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(entity, key)
		}
		return nil, fmt.Errorf("select loyalty account: %w", err)
	}
	return &a, nil
}

// Create inserts a new account.
func (r *AccountRepo) Create(ctx context.Context, account *loyalty.Account) error {
	q := r.builder.Insert(accountsTable).
		Columns(accountColumns...).
		Values(account.ID, account.CustomerRef, account.Balance, account.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("loyalty account", "customer_ref", account.CustomerRef)
		}
		return fmt.Errorf("insert loyalty account: %w", err)
	}
	return nil
}

// AddBalance applies a delta in a single conditional UPDATE and returns
// the resulting balance. The WHERE clause keeps the balance from going
// negative; zero rows affected means insufficient points.
func (r *AccountRepo) AddBalance(ctx context.Context, accountID id.ID, delta int64) (int64, error) {
	sql := `UPDATE loyalty_accounts
		SET balance = balance + $2
		WHERE id = $1 AND balance + $2 >= 0
		RETURNING balance`

	var balance int64
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, accountID, delta).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperror.NewConflict("insufficient points balance or unknown account")
		}
		return 0, fmt.Errorf("update loyalty balance: %w", err)
	}
	return balance, nil
}

// CreateLedgerEntry appends one points ledger row.
func (r *AccountRepo) CreateLedgerEntry(ctx context.Context, entry *loyalty.LedgerEntry) error {
	q := r.builder.Insert(ledgerTable).
		Columns(ledgerColumns...).
		Values(entry.ID, entry.AccountID, entry.Delta, entry.Type,
			entry.Reference, entry.Description, entry.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert points ledger entry: %w", err)
	}
	return nil
}

// ListLedger returns an account's points history, newest first.
func (r *AccountRepo) ListLedger(ctx context.Context, accountID id.ID, limit, offset int) ([]loyalty.LedgerEntry, error) {
	q := r.builder.Select(ledgerColumns...).
		From(ledgerTable).
		Where(squirrel.Eq{"account_id": accountID}).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []loyalty.LedgerEntry
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select points ledger: %w", err)
	}
	return items, nil
}
