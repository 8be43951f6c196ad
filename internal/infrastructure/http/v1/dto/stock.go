package dto

import (
	"time"

	"farmapos/internal/domain/ledger"
)

// CreateMovementRequest for POST /stock/movements.
type CreateMovementRequest struct {
	ProductID     string `json:"product_id" binding:"required,uuid"`
	MovementType  string `json:"movement_type" binding:"required,oneof=IN OUT ADJUSTMENT"`
	Quantity      int64  `json:"quantity" binding:"min=0"`
	ReferenceType string `json:"reference_type,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// MovementResponse reports the before/after quantities of a recorded
// movement.
type MovementResponse struct {
	Success       bool  `json:"success"`
	PreviousStock int64 `json:"previous_stock"`
	NewStock      int64 `json:"new_stock"`
}

// MovementHistoryQuery for GET /stock/movements.
type MovementHistoryQuery struct {
	ProductID string `form:"product_id" binding:"required,uuid"`
	Limit     int    `form:"limit" binding:"min=0,max=500"`
	Offset    int    `form:"offset" binding:"min=0"`
}

// MovementEntryResponse represents one ledger row.
type MovementEntryResponse struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	MovementType  string    `json:"movement_type"`
	Quantity      int64     `json:"quantity"`
	PreviousStock int64     `json:"previous_stock"`
	NewStock      int64     `json:"new_stock"`
	ReferenceType string    `json:"reference_type"`
	ReferenceID   string    `json:"reference_id,omitempty"`
	Actor         string    `json:"actor"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// FromMovements converts ledger history.
func FromMovements(items []ledger.StockMovement) []MovementEntryResponse {
	out := make([]MovementEntryResponse, 0, len(items))
	for _, m := range items {
		entry := MovementEntryResponse{
			ID:            m.ID.String(),
			ProductID:     m.ProductID.String(),
			MovementType:  string(m.Type),
			Quantity:      m.Quantity,
			PreviousStock: m.PreviousStock,
			NewStock:      m.NewStock,
			ReferenceType: string(m.ReferenceType),
			Actor:         m.Actor,
			Notes:         m.Notes,
			CreatedAt:     m.CreatedAt,
		}
		if m.ReferenceID != nil {
			entry.ReferenceID = m.ReferenceID.String()
		}
		out = append(out, entry)
	}
	return out
}
