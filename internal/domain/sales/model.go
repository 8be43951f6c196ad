// Package sales provides the checkout engine and sale records.
package sales

import (
	"time"

	"farmapos/internal/core/id"
	"farmapos/internal/core/types"
)

// Sale is the immutable header of one completed checkout.
// Created exactly once per successful checkout; never updated.
type Sale struct {
	ID            id.ID       `db:"id" json:"id"`
	Reference     string      `db:"reference" json:"reference"`
	Total         types.Money `db:"total" json:"total"`
	PaymentMethod string      `db:"payment_method" json:"paymentMethod"`
	PaidAmount    types.Money `db:"paid_amount" json:"paidAmount"`
	ChangeAmount  types.Money `db:"change_amount" json:"changeAmount"`
	Cashier       string      `db:"cashier" json:"cashier"`
	CreatedAt     time.Time   `db:"created_at" json:"createdAt"`
}

// SaleItem snapshots one sold line. Name and unit price are copied at
// commit time because the catalog may change later; the sale is a
// historical record, not a live join.
type SaleItem struct {
	SaleID    id.ID       `db:"sale_id" json:"saleId"`
	ProductID id.ID       `db:"product_id" json:"productId"`
	Name      string      `db:"name" json:"name"`
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`
	Quantity  int64       `db:"quantity" json:"quantity"`
	LineTotal types.Money `db:"line_total" json:"lineTotal"`
}
