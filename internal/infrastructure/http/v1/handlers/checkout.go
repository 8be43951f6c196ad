package handlers

import (
	"github.com/gin-gonic/gin"

	"farmapos/internal/core/apperror"
	"farmapos/internal/domain/cart"
	"farmapos/internal/domain/sales"
	"farmapos/internal/infrastructure/http/v1/dto"
)

// CheckoutHandler turns the session cart into a recorded sale.
type CheckoutHandler struct {
	*BaseHandler
	carts *cart.Service
	sales *sales.Service
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(base *BaseHandler, carts *cart.Service, salesService *sales.Service) *CheckoutHandler {
	return &CheckoutHandler{
		BaseHandler: base,
		carts:       carts,
		sales:       salesService,
	}
}

// Checkout handles POST /checkout
//
// The cart is cleared only after the sale commits; a declined or failed
// checkout leaves the cart untouched so the cashier can correct and retry.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CheckoutRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sessionKey := h.SessionKey(c)
	snapshot := h.carts.Snapshot(sessionKey)

	sale, err := h.sales.Checkout(ctx, snapshot, sales.CheckoutInput{
		PaymentMethod: req.PaymentMethod,
		PaidAmount:    req.PaidAmount,
		Cashier:       h.Username(c),
	})
	if err != nil {
		if appErr, ok := apperror.AsAppError(err); ok && appErr.IsBusiness() {
			h.OK(c, dto.NewCheckoutFailure(appErr))
			return
		}
		h.Error(c, err)
		return
	}

	h.carts.Clear(sessionKey)
	h.OK(c, dto.FromSale(sale))
}
