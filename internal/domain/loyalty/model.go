// Package loyalty provides loyalty accounts and their points ledger.
// The points ledger mirrors the stock ledger's role: the cached balance
// always equals the sum of its entries, updated in the same transaction.
package loyalty

import (
	"time"

	"farmapos/internal/core/id"
)

// Account is one customer's loyalty account. Balance is a cached,
// non-negative sum of the ledger entries.
type Account struct {
	ID          id.ID     `db:"id" json:"id"`
	CustomerRef string    `db:"customer_ref" json:"customerRef"`
	Balance     int64     `db:"balance" json:"balance"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// NewAccount creates an account with zero balance.
func NewAccount(customerRef string) *Account {
	return &Account{
		ID:          id.New(),
		CustomerRef: customerRef,
		CreatedAt:   time.Now().UTC(),
	}
}

// TransactionType discriminates points ledger entries.
type TransactionType string

const (
	TransactionEarn       TransactionType = "EARN"
	TransactionRedeem     TransactionType = "REDEEM"
	TransactionQRScan     TransactionType = "QR_SCAN"
	TransactionBonus      TransactionType = "BONUS"
	TransactionAdjustment TransactionType = "ADJUSTMENT"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionEarn, TransactionRedeem, TransactionQRScan,
		TransactionBonus, TransactionAdjustment:
		return true
	}
	return false
}

// LedgerEntry is one append-only points movement.
type LedgerEntry struct {
	ID          id.ID           `db:"id" json:"id"`
	AccountID   id.ID           `db:"account_id" json:"accountId"`
	Delta       int64           `db:"delta" json:"delta"`
	Type        TransactionType `db:"transaction_type" json:"transactionType"`
	Reference   string          `db:"reference" json:"reference"`
	Description string          `db:"description" json:"description"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
}
