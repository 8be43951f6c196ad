// Package ledger provides the stock movement ledger.
// A product's stock quantity always equals the new_stock of its most
// recent movement; movements are append-only and never updated.
package ledger

import (
	"time"

	"farmapos/internal/core/id"
)

// MovementType discriminates how a movement changes stock.
type MovementType string

const (
	// MovementIn adds quantity to stock (deliveries, returns to shelf).
	MovementIn MovementType = "IN"
	// MovementOut subtracts quantity from stock (sales, losses).
	MovementOut MovementType = "OUT"
	// MovementAdjustment sets stock to an absolute quantity (counts, corrections).
	MovementAdjustment MovementType = "ADJUSTMENT"
)

// Valid reports whether t is a known movement type.
func (t MovementType) Valid() bool {
	switch t {
	case MovementIn, MovementOut, MovementAdjustment:
		return true
	}
	return false
}

// ReferenceType links a movement to the event that caused it.
type ReferenceType string

const (
	ReferenceSale         ReferenceType = "sale"
	ReferenceAdjustment   ReferenceType = "adjustment"
	ReferenceInitialStock ReferenceType = "initial_stock"
)

// StockMovement is one immutable ledger entry. PreviousStock and NewStock
// are captured under the product row lock, so the history is a gap-free
// audit trail: NewStock = PreviousStock ± Quantity (or = Quantity for
// ADJUSTMENT), and NewStock is never negative.
type StockMovement struct {
	ID            id.ID         `db:"id" json:"id"`
	ProductID     id.ID         `db:"product_id" json:"productId"`
	Type          MovementType  `db:"movement_type" json:"movementType"`
	Quantity      int64         `db:"quantity" json:"quantity"`
	PreviousStock int64         `db:"previous_stock" json:"previousStock"`
	NewStock      int64         `db:"new_stock" json:"newStock"`
	ReferenceType ReferenceType `db:"reference_type" json:"referenceType"`
	ReferenceID   *id.ID        `db:"reference_id" json:"referenceId,omitempty"`
	Actor         string        `db:"actor" json:"actor"`
	Notes         string        `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"createdAt"`
}
