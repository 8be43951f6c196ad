package handlers

import (
	"github.com/gin-gonic/gin"

	"farmapos/internal/core/apperror"
	"farmapos/internal/core/id"
	"farmapos/internal/domain/ledger"
	"farmapos/internal/infrastructure/http/v1/dto"
)

// StockHandler handles stock movement endpoints.
type StockHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *ledger.Service) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		service:     service,
	}
}

// CreateMovement handles POST /stock/movements
func (h *StockHandler) CreateMovement(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id"))
		return
	}

	referenceType := ledger.ReferenceType(req.ReferenceType)
	if referenceType == "" {
		referenceType = ledger.ReferenceAdjustment
	}

	result, err := h.service.Apply(ctx, ledger.ApplyInput{
		ProductID:     productID,
		Type:          ledger.MovementType(req.MovementType),
		Quantity:      req.Quantity,
		ReferenceType: referenceType,
		Actor:         h.Username(c),
		Notes:         req.Notes,
	})
	if err != nil {
		if h.Declined(c, err) {
			return
		}
		h.Error(c, err)
		return
	}

	h.OK(c, dto.MovementResponse{
		Success:       true,
		PreviousStock: result.PreviousStock,
		NewStock:      result.NewStock,
	})
}

// History handles GET /stock/movements
func (h *StockHandler) History(c *gin.Context) {
	ctx := c.Request.Context()

	var query dto.MovementHistoryQuery
	if !h.BindQuery(c, &query) {
		return
	}

	productID, err := id.Parse(query.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id"))
		return
	}

	limit := query.Limit
	if limit == 0 {
		limit = 50
	}

	items, err := h.service.History(ctx, productID, limit, query.Offset)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:  dto.FromMovements(items),
		Limit:  limit,
		Offset: query.Offset,
	})
}
