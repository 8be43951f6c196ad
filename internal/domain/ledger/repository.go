package ledger

import (
	"context"

	"farmapos/internal/core/id"
)

// Repository defines storage for the append-only movement history.
// There are deliberately no update or delete operations.
type Repository interface {
	// CreateMovement appends one ledger entry. Must run inside the same
	// transaction that updates the product's stock quantity.
	CreateMovement(ctx context.Context, m *StockMovement) error

	// ListByProduct returns movement history, newest first.
	ListByProduct(ctx context.Context, productID id.ID, limit, offset int) ([]StockMovement, error)
}
