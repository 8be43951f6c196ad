package reward

import (
	"context"
	"time"

	"farmapos/internal/core/id"
)

// Repository defines reward token storage.
type Repository interface {
	// Create inserts an unredeemed token. Returns apperror.NewDuplicate
	// when a live token already exists for the same sale (partial unique
	// index), which callers resolve by re-reading.
	Create(ctx context.Context, token *Token) error

	// GetLiveBySale returns the unredeemed, unexpired token for a sale,
	// or apperror.NewNotFound.
	GetLiveBySale(ctx context.Context, saleID id.ID, now time.Time) (*Token, error)

	// GetByCode returns a token by its code, or apperror.NewNotFound.
	GetByCode(ctx context.Context, code string) (*Token, error)

	// MarkRedeemed performs the single atomic conditional transition
	// (UPDATE ... WHERE is_redeemed = false). Returns false when another
	// redemption won the race; no row is modified in that case.
	MarkRedeemed(ctx context.Context, code string, redeemedBy string, redeemedAt time.Time) (bool, error)
}
