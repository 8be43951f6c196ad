package product

import (
	"context"

	"farmapos/internal/core/id"
)

// Repository defines catalog storage operations.
//
// Locking contract: GetForUpdate takes a pessimistic row lock on every
// requested product for the duration of the surrounding transaction.
// Callers MUST pass ids sorted ascending (id.SortAscending) so that all
// concurrent multi-product lockers acquire rows in the same order and
// cannot deadlock each other.
type Repository interface {
	// GetByID returns a product or apperror.NewNotFound.
	GetByID(ctx context.Context, productID id.ID) (*Product, error)

	// List returns the catalog ordered by name.
	List(ctx context.Context, limit, offset int) ([]*Product, error)

	// GetForUpdate locks and returns the requested products keyed by id.
	// Must run inside a transaction. Missing ids are absent from the map.
	GetForUpdate(ctx context.Context, ids []id.ID) (map[id.ID]*Product, error)

	// UpdateStock persists a new authoritative stock quantity.
	// Only ledger.Service may call this, under the row lock it holds.
	UpdateStock(ctx context.Context, productID id.ID, newQuantity int64) error

	// Create inserts a new product (seed and admin flows).
	Create(ctx context.Context, p *Product) error
}
