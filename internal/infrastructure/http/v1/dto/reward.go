package dto

import (
	"time"

	"farmapos/internal/domain/reward"
)

// IssueTokenRequest for POST /rewards/issue.
type IssueTokenRequest struct {
	OrderID string `json:"order_id" binding:"required,uuid"`
}

// IssueTokenResponse carries the live token for a sale. Repeated calls
// for the same sale return the same code.
type IssueTokenResponse struct {
	Success     bool      `json:"success"`
	QRCode      string    `json:"qr_code"`
	QRID        string    `json:"qr_id"`
	PointsValue int64     `json:"points_value"`
	ExpiresAt   time.Time `json:"expires_at"`
	Message     string    `json:"message,omitempty"`
}

// FromToken creates an issue response.
func FromToken(t *reward.Token) IssueTokenResponse {
	return IssueTokenResponse{
		Success:     true,
		QRCode:      t.Code,
		QRID:        t.ID.String(),
		PointsValue: t.PointsValue,
		ExpiresAt:   t.ExpiresAt,
	}
}

// RedeemTokenRequest for POST /rewards/redeem. CustomerRef identifies
// the loyalty account; when empty the authenticated username is used.
type RedeemTokenRequest struct {
	QRCode      string `json:"qr_code" binding:"required"`
	CustomerRef string `json:"customer_ref,omitempty"`
}

// RedeemForAccountRequest for POST /rewards/redeem-for (staff flow,
// explicit account).
type RedeemForAccountRequest struct {
	QRCode    string `json:"qr_code" binding:"required"`
	AccountID string `json:"account_id" binding:"required,uuid"`
}

// RedeemTokenResponse reports the credited points and resulting balance.
type RedeemTokenResponse struct {
	Success      bool   `json:"success"`
	PointsEarned int64  `json:"points_earned"`
	TotalPoints  int64  `json:"total_points"`
	AccountID    string `json:"account_id"`
	Message      string `json:"message,omitempty"`
}

// FromRedeemResult creates a redeem response.
func FromRedeemResult(r *reward.RedeemResult) RedeemTokenResponse {
	return RedeemTokenResponse{
		Success:      true,
		PointsEarned: r.PointsEarned,
		TotalPoints:  r.NewBalance,
		AccountID:    r.AccountID.String(),
	}
}
