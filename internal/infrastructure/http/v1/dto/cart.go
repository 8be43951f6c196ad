package dto

import (
	"farmapos/internal/core/types"
	"farmapos/internal/domain/cart"
)

// AddCartItemRequest for POST /cart/items.
type AddCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest for PUT /cart/items/:productId.
// Quantity 0 removes the line.
type UpdateCartItemRequest struct {
	Quantity int64 `json:"quantity" binding:"min=0"`
}

// CartLineResponse represents one priced cart line.
type CartLineResponse struct {
	ProductID string      `json:"product_id"`
	Name      string      `json:"name"`
	UnitPrice types.Money `json:"unit_price"`
	Quantity  int64       `json:"quantity"`
	LineTotal types.Money `json:"line_total"`
}

// CartResponse represents the session cart priced at current catalog
// prices. The total is advisory; checkout recomputes it under locks.
type CartResponse struct {
	Lines []CartLineResponse `json:"lines"`
	Total types.Money        `json:"total"`
}

// FromCartView creates a response from a priced cart view.
func FromCartView(v *cart.View) CartResponse {
	lines := make([]CartLineResponse, 0, len(v.Lines))
	for _, l := range v.Lines {
		lines = append(lines, CartLineResponse{
			ProductID: l.ProductID.String(),
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			LineTotal: l.LineTotal,
		})
	}
	return CartResponse{Lines: lines, Total: v.Total}
}
