package dto

import (
	"time"

	"farmapos/internal/core/types"
	"farmapos/internal/domain/catalog/product"
)

// ProductResponse represents a catalog product.
type ProductResponse struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	UnitPrice     types.Money `json:"unitPrice"`
	StockQuantity int64       `json:"stockQuantity"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// FromProduct creates a response from a domain product.
func FromProduct(p *product.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID.String(),
		Name:          p.Name,
		UnitPrice:     p.UnitPrice,
		StockQuantity: p.StockQuantity,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// FromProducts converts a product list.
func FromProducts(items []*product.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(items))
	for _, p := range items {
		out = append(out, FromProduct(p))
	}
	return out
}
