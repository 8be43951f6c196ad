package handlers

import (
	"github.com/gin-gonic/gin"

	"farmapos/internal/core/apperror"
	"farmapos/internal/core/id"
	"farmapos/internal/domain/cart"
	"farmapos/internal/infrastructure/http/v1/dto"
)

// CartHandler handles the register's session cart endpoints.
type CartHandler struct {
	*BaseHandler
	service *cart.Service
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(base *BaseHandler, service *cart.Service) *CartHandler {
	return &CartHandler{
		BaseHandler: base,
		service:     service,
	}
}

// View handles GET /cart
func (h *CartHandler) View(c *gin.Context) {
	ctx := c.Request.Context()

	view, err := h.service.View(ctx, h.SessionKey(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCartView(view))
}

// AddItem handles POST /cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.AddCartItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id"))
		return
	}

	if err := h.service.Add(ctx, h.SessionKey(c), productID, req.Quantity); err != nil {
		if h.Declined(c, err) {
			return
		}
		h.Error(c, err)
		return
	}

	h.cartView(c)
}

// UpdateItem handles PUT /cart/items/:productId
func (h *CartHandler) UpdateItem(c *gin.Context) {
	ctx := c.Request.Context()

	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id"))
		return
	}

	var req dto.UpdateCartItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetQuantity(ctx, h.SessionKey(c), productID, req.Quantity); err != nil {
		if h.Declined(c, err) {
			return
		}
		h.Error(c, err)
		return
	}

	h.cartView(c)
}

// RemoveItem handles DELETE /cart/items/:productId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	ctx := c.Request.Context()

	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id"))
		return
	}

	if err := h.service.Remove(ctx, h.SessionKey(c), productID); err != nil {
		h.Error(c, err)
		return
	}

	h.cartView(c)
}

// Clear handles DELETE /cart
func (h *CartHandler) Clear(c *gin.Context) {
	h.service.Clear(h.SessionKey(c))
	h.NoContent(c)
}

// cartView responds with the current priced cart after a mutation.
func (h *CartHandler) cartView(c *gin.Context) {
	view, err := h.service.View(c.Request.Context(), h.SessionKey(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCartView(view))
}
