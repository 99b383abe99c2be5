package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appinspection "github.com/propman/backend/internal/application/inspection"
	domaininspection "github.com/propman/backend/internal/domain/inspection"
	"github.com/propman/backend/internal/interfaces/http/dto"
)

var errInvalidStatus = errors.New("status must be one of: PENDING, IN_PROGRESS, COMPLETED, CANCELLED")

// InspectionHandler serves the move-out inspection endpoints.
type InspectionHandler struct {
	BaseHandler
	service *appinspection.LifecycleService
}

// NewInspectionHandler creates an inspection handler
func NewInspectionHandler(service *appinspection.LifecycleService, logger *zap.Logger) *InspectionHandler {
	return &InspectionHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// Create schedules a new move-out inspection.
// POST /api/v1/inspections
func (h *InspectionHandler) Create(c *gin.Context) {
	var req appinspection.CreateInspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	resp, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns inspections matching the filter.
// GET /api/v1/inspections
func (h *InspectionHandler) List(c *gin.Context) {
	filter, err := h.parseListFilter(c)
	if err != nil {
		h.BadRequest(c, err)
		return
	}

	items, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// GetByID returns one inspection with its items.
// GET /api/v1/inspections/:id
func (h *InspectionHandler) GetByID(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		h.BadRequest(c, err)
		return
	}

	resp, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// AssignInspector assigns or replaces the inspector.
// PUT /api/v1/inspections/:id/inspector
func (h *InspectionHandler) AssignInspector(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		h.BadRequest(c, err)
		return
	}

	var req appinspection.AssignInspectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	resp, err := h.service.AssignInspector(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// Start moves a due inspection into progress and snapshots the unit's
// asset checklist.
// POST /api/v1/inspections/:id/start
func (h *InspectionHandler) Start(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		h.BadRequest(c, err)
		return
	}

	resp, err := h.service.Start(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateItem records the assessment of one checklist item.
// PUT /api/v1/inspections/:id/items/:itemId
func (h *InspectionHandler) UpdateItem(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		h.BadRequest(c, err)
		return
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		h.BadRequest(c, err)
		return
	}

	var req appinspection.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	resp, err := h.service.UpdateItem(c.Request.Context(), id, itemID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// Complete finishes the inspection and triggers the billing engine.
// POST /api/v1/inspections/:id/complete
func (h *InspectionHandler) Complete(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		h.BadRequest(c, err)
		return
	}

	var req appinspection.CompleteInspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	result, err := h.service.Complete(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// Cancel cancels a pending or in-progress inspection.
// POST /api/v1/inspections/:id/cancel
func (h *InspectionHandler) Cancel(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		h.BadRequest(c, err)
		return
	}

	var req appinspection.CancelInspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err)
		return
	}

	resp, err := h.service.Cancel(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// Recalculate re-derives the damage total from the item assessments.
// POST /api/v1/inspections/:id/recalculate
func (h *InspectionHandler) Recalculate(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		h.BadRequest(c, err)
		return
	}

	resp, err := h.service.RecalculateDamageCost(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

func (h *InspectionHandler) parseID(c *gin.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

// parseListFilter reads the filter query parameters by hand. UUID and
// time pointers do not bind reliably through form tags, and a typoed
// filter should be a 400 rather than a silent full listing.
func (h *InspectionHandler) parseListFilter(c *gin.Context) (appinspection.InspectionListFilter, error) {
	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		return appinspection.InspectionListFilter{}, err
	}
	defaults := dto.DefaultListRequest()
	if list.Page == 0 {
		list.Page = defaults.Page
	}
	if list.PageSize == 0 {
		list.PageSize = defaults.PageSize
	}

	filter := appinspection.InspectionListFilter{
		Search:   list.Search,
		Page:     list.Page,
		PageSize: list.PageSize,
		OrderBy:  list.OrderBy,
		OrderDir: list.OrderDir,
	}

	if raw := c.Query("unit_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, err
		}
		filter.UnitID = &id
	}
	if raw := c.Query("inspector_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, err
		}
		filter.InspectorID = &id
	}
	if raw := c.Query("status"); raw != "" {
		status := domaininspection.InspectionStatus(raw)
		if !status.IsValid() {
			return filter, errInvalidStatus
		}
		filter.Status = &status
	}
	if raw := c.Query("start_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, err
		}
		filter.StartDate = &t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, err
		}
		filter.EndDate = &t
	}
	return filter, nil
}
