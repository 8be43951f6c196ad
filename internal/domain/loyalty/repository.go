package loyalty

import (
	"context"

	"farmapos/internal/core/id"
)

// Repository defines loyalty storage.
type Repository interface {
	// GetByID returns an account or apperror.NewNotFound.
	GetByID(ctx context.Context, accountID id.ID) (*Account, error)

	// GetByCustomerRef returns an account or apperror.NewNotFound.
	GetByCustomerRef(ctx context.Context, customerRef string) (*Account, error)

	// Create inserts a new account.
	Create(ctx context.Context, account *Account) error

	// AddBalance atomically applies a delta to the cached balance and
	// returns the new balance. Fails with a conflict error if the delta
	// would drive the balance negative.
	AddBalance(ctx context.Context, accountID id.ID, delta int64) (int64, error)

	// CreateLedgerEntry appends one points ledger entry.
	CreateLedgerEntry(ctx context.Context, entry *LedgerEntry) error

	// ListLedger returns an account's points history, newest first.
	ListLedger(ctx context.Context, accountID id.ID, limit, offset int) ([]LedgerEntry, error)
}
