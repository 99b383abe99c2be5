package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appbilling "github.com/propman/backend/internal/application/billing"
)

// BillingHandler serves the reconciliation and utility preview endpoints.
type BillingHandler struct {
	BaseHandler
	service *appbilling.ReconciliationService
}

// NewBillingHandler creates a billing handler
func NewBillingHandler(service *appbilling.ReconciliationService, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// Summary returns the reconciled payable breakdown for a completed
// inspection.
// GET /api/v1/inspections/:id/billing
func (h *BillingHandler) Summary(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, err)
		return
	}

	totals, err := h.service.Summary(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, totals)
}

// PreviewUtilityCost estimates the tiered cost of a proposed meter
// reading before the inspection is completed.
// POST /api/v1/billing/utility-preview
func (h *BillingHandler) PreviewUtilityCost(c *gin.Context) {
	var req appbilling.UtilityPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	resp, err := h.service.PreviewUtilityCost(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}
