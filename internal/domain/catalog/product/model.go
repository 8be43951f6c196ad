// Package product provides the product catalog.
package product

import (
	"time"

	"farmapos/internal/core/apperror"
	"farmapos/internal/core/id"
	"farmapos/internal/core/types"
)

// Product is a catalog item with an authoritative stock quantity.
// StockQuantity is mutated only through ledger movements, never directly;
// checkout and adjustments go through ledger.Service.
type Product struct {
	ID            id.ID       `db:"id" json:"id"`
	Name          string      `db:"name" json:"name"`
	UnitPrice     types.Money `db:"unit_price" json:"unitPrice"`
	StockQuantity int64       `db:"stock_quantity" json:"stockQuantity"`
	CreatedAt     time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updatedAt"`
}

// NewProduct creates a product with zero stock. Initial stock is applied
// via an ADJUSTMENT movement so the ledger history starts complete.
func NewProduct(name string, unitPrice types.Money) *Product {
	now := time.Now().UTC()
	return &Product{
		ID:        id.New(),
		Name:      name,
		UnitPrice: unitPrice,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks invariants before persisting.
func (p *Product) Validate() error {
	if p.Name == "" {
		return apperror.NewValidation("product name is required")
	}
	if p.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price must not be negative")
	}
	if p.StockQuantity < 0 {
		return apperror.NewValidation("stock quantity must not be negative")
	}
	return nil
}
