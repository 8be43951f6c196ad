package dto

import (
	"farmapos/internal/core/apperror"
	"farmapos/internal/core/types"
	"farmapos/internal/domain/sales"
)

// CheckoutRequest for POST /checkout. The cart itself is server-side
// session state; the request carries only the payment.
type CheckoutRequest struct {
	PaymentMethod string      `json:"payment_method" binding:"required"`
	PaidAmount    types.Money `json:"paid_amount" binding:"required"`
}

// CheckoutResponse for a completed sale.
type CheckoutResponse struct {
	OK            bool        `json:"ok"`
	SaleID        string      `json:"sale_id"`
	SaleReference string      `json:"sale_reference"`
	Total         types.Money `json:"total"`
	Change        types.Money `json:"change"`
}

// FromSale creates a checkout response.
func FromSale(s *sales.Sale) CheckoutResponse {
	return CheckoutResponse{
		OK:            true,
		SaleID:        s.ID.String(),
		SaleReference: s.Reference,
		Total:         s.Total,
		Change:        s.ChangeAmount,
	}
}

// CheckoutFailure is a declined checkout, sent as HTTP 200 so the
// terminal can show the reason without treating it as a fault.
type CheckoutFailure struct {
	OK      bool           `json:"ok"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// NewCheckoutFailure builds the decline body from a business error.
func NewCheckoutFailure(appErr *apperror.AppError) CheckoutFailure {
	return CheckoutFailure{
		OK:      false,
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
}
