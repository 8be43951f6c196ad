package handlers

import (
	"github.com/gin-gonic/gin"

	"farmapos/internal/core/apperror"
	"farmapos/internal/core/id"
	"farmapos/internal/domain/reward"
	"farmapos/internal/infrastructure/http/v1/dto"
)

// RewardHandler handles reward token endpoints.
type RewardHandler struct {
	*BaseHandler
	service *reward.Service
}

// NewRewardHandler creates a new reward handler.
func NewRewardHandler(base *BaseHandler, service *reward.Service) *RewardHandler {
	return &RewardHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Issue handles POST /rewards/issue
//
// Issuance is idempotent per sale: retrying returns the already-issued
// live token instead of minting a second one.
func (h *RewardHandler) Issue(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.IssueTokenRequest
	if !h.BindJSON(c, &req) {
		return
	}

	saleID, err := id.Parse(req.OrderID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid order id"))
		return
	}

	token, err := h.service.IssueForSale(ctx, saleID)
	if err != nil {
		if h.Declined(c, err) {
			return
		}
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromToken(token))
}

// Redeem handles POST /rewards/redeem
func (h *RewardHandler) Redeem(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RedeemTokenRequest
	if !h.BindJSON(c, &req) {
		return
	}

	customerRef := req.CustomerRef
	if customerRef == "" {
		customerRef = h.Username(c)
	}

	result, err := h.service.Redeem(ctx, req.QRCode, customerRef)
	if err != nil {
		if h.Declined(c, err) {
			return
		}
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromRedeemResult(result))
}

// RedeemFor handles POST /rewards/redeem-for (staff-assisted flow).
func (h *RewardHandler) RedeemFor(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RedeemForAccountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	accountID, err := id.Parse(req.AccountID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid account id"))
		return
	}

	result, err := h.service.RedeemForAccount(ctx, req.QRCode, accountID)
	if err != nil {
		if h.Declined(c, err) {
			return
		}
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromRedeemResult(result))
}
