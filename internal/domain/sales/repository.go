package sales

import (
	"context"

	"farmapos/internal/core/id"
)

// Repository defines sale storage. Sales are write-once; there are no
// update operations.
type Repository interface {
	// Create inserts the sale header.
	Create(ctx context.Context, sale *Sale) error

	// SaveItems inserts the line item snapshots for a sale.
	SaveItems(ctx context.Context, saleID id.ID, items []SaleItem) error

	// GetByID returns a sale header or apperror.NewNotFound.
	GetByID(ctx context.Context, saleID id.ID) (*Sale, error)

	// GetItems returns the line items of a sale.
	GetItems(ctx context.Context, saleID id.ID) ([]SaleItem, error)
}
