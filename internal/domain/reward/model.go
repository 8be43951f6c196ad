// Package reward provides single-use reward tokens tied to sales.
package reward

import (
	"time"

	"farmapos/internal/core/id"
	"farmapos/internal/core/types"
)

// Points step function: 25 points per full ₱500 of the sale total.
// Flat increments avoid fractional-point bookkeeping.
const (
	PointsStep    = 500
	PointsPerStep = 25

	// TokenTTL is how long a token stays redeemable after issuance.
	TokenTTL = 30 * 24 * time.Hour
)

// Token is a single-use reward bound 1:1 to a completed sale.
//
// Lifecycle: created unredeemed, then exactly one transition to redeemed.
// Expiry is derived from ExpiresAt at read time and never stored; there is
// no background job flipping tokens to an expired state.
type Token struct {
	ID          id.ID      `db:"id" json:"id"`
	Code        string     `db:"code" json:"code"`
	SaleID      id.ID      `db:"source_sale_id" json:"saleId"`
	PointsValue int64      `db:"points_value" json:"pointsValue"`
	IsRedeemed  bool       `db:"is_redeemed" json:"isRedeemed"`
	RedeemedBy  *string    `db:"redeemed_by" json:"redeemedBy,omitempty"`
	RedeemedAt  *time.Time `db:"redeemed_at" json:"redeemedAt,omitempty"`
	ExpiresAt   time.Time  `db:"expires_at" json:"expiresAt"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
}

// Expired reports whether the token is past its expiry at the given time.
func (t *Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// PointsForTotal computes the frozen points value for a sale total:
// floor(total / 500) * 25. Totals below ₱500 earn nothing.
func PointsForTotal(total types.Money) int64 {
	steps := total.Div(types.MoneyFromInt(PointsStep)).IntPart()
	if steps <= 0 {
		return 0
	}
	return steps * PointsPerStep
}
