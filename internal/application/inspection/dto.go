package inspection

import (
	"time"

	"github.com/google/uuid"
	"github.com/propman/backend/internal/domain/inspection"
	"github.com/shopspring/decimal"
)

// CreateInspectionRequest represents a request to schedule a move-out inspection
type CreateInspectionRequest struct {
	ContractID     uuid.UUID  `json:"contract_id" binding:"required"`
	UnitID         uuid.UUID  `json:"unit_id" binding:"required"`
	InspectionDate time.Time  `json:"inspection_date" binding:"required"`
	InspectorID    *uuid.UUID `json:"inspector_id"`
	InspectorName  string     `json:"inspector_name"`
}

// AssignInspectorRequest represents a request to assign an inspector
type AssignInspectorRequest struct {
	InspectorID   uuid.UUID `json:"inspector_id" binding:"required"`
	InspectorName string    `json:"inspector_name" binding:"required,min=1,max=200"`
}

// UpdateItemRequest represents the assessment of a single inspection item
type UpdateItemRequest struct {
	Condition inspection.ConditionStatus `json:"condition" binding:"required,condition"`
	Cost      *decimal.Decimal           `json:"cost"`
	Note      string                     `json:"note"`
}

// MeterReadingInput is a raw meter index entered at completion time.
// The value is text because it arrives unparsed from the operator.
type MeterReadingInput struct {
	MeterID uuid.UUID `json:"meter_id" binding:"required"`
	Current string    `json:"current" binding:"required"`
}

// CompleteInspectionRequest represents a request to complete an inspection
type CompleteInspectionRequest struct {
	Notes    string              `json:"notes"`
	Readings []MeterReadingInput `json:"readings"`
}

// CancelInspectionRequest represents a request to cancel an inspection
type CancelInspectionRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// InspectionListFilter represents filter options for the inspection list
type InspectionListFilter struct {
	Search      string                       `form:"search"`
	UnitID      *uuid.UUID                   `form:"unit_id"`
	InspectorID *uuid.UUID                   `form:"inspector_id"`
	Status      *inspection.InspectionStatus `form:"status"`
	StartDate   *time.Time                   `form:"start_date"`
	EndDate     *time.Time                   `form:"end_date"`
	Page        int                          `form:"page" binding:"min=0"`
	PageSize    int                          `form:"page_size" binding:"min=0,max=100"`
	OrderBy     string                       `form:"order_by"`
	OrderDir    string                       `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// InspectionItemResponse represents an inspection item in API responses
type InspectionItemResponse struct {
	ID             uuid.UUID        `json:"id"`
	AssetID        uuid.UUID        `json:"asset_id"`
	AssetName      string           `json:"asset_name"`
	ReferencePrice *decimal.Decimal `json:"reference_price,omitempty"`
	Condition      string           `json:"condition,omitempty"`
	DamageCost     *decimal.Decimal `json:"damage_cost,omitempty"`
	CostOverridden bool             `json:"cost_overridden"`
	Checked        bool             `json:"checked"`
	Note           string           `json:"note,omitempty"`
}

// InspectionResponse represents an inspection in API responses
type InspectionResponse struct {
	ID              uuid.UUID                `json:"id"`
	ContractID      uuid.UUID                `json:"contract_id"`
	UnitID          uuid.UUID                `json:"unit_id"`
	InspectionDate  time.Time                `json:"inspection_date"`
	InspectorID     *uuid.UUID               `json:"inspector_id,omitempty"`
	InspectorName   string                   `json:"inspector_name,omitempty"`
	Items           []InspectionItemResponse `json:"items"`
	TotalDamageCost decimal.Decimal          `json:"total_damage_cost"`
	Status          string                   `json:"status"`
	Notes           string                   `json:"notes,omitempty"`
	InvoiceID       *uuid.UUID               `json:"invoice_id,omitempty"`
	StartedAt       *time.Time               `json:"started_at,omitempty"`
	CompletedAt     *time.Time               `json:"completed_at,omitempty"`
	CancelledAt     *time.Time               `json:"cancelled_at,omitempty"`
	CancelReason    string                   `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
	Version         int                      `json:"version"`
}

// InspectionListItemResponse represents an inspection in list responses
type InspectionListItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	ContractID      uuid.UUID       `json:"contract_id"`
	UnitID          uuid.UUID       `json:"unit_id"`
	InspectionDate  time.Time       `json:"inspection_date"`
	InspectorName   string          `json:"inspector_name,omitempty"`
	ItemCount       int             `json:"item_count"`
	TotalDamageCost decimal.Decimal `json:"total_damage_cost"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ToInspectionItemResponse converts a domain item to a response DTO
func ToInspectionItemResponse(item inspection.InspectionItem) InspectionItemResponse {
	return InspectionItemResponse{
		ID:             item.ID,
		AssetID:        item.AssetID,
		AssetName:      item.AssetName,
		ReferencePrice: item.ReferencePrice,
		Condition:      item.Condition.String(),
		DamageCost:     item.DamageCost,
		CostOverridden: item.CostOverridden,
		Checked:        item.Checked,
		Note:           item.Note,
	}
}

// ToInspectionResponse converts a domain inspection to a response DTO
func ToInspectionResponse(insp *inspection.Inspection) InspectionResponse {
	items := make([]InspectionItemResponse, 0, len(insp.Items))
	for _, item := range insp.Items {
		items = append(items, ToInspectionItemResponse(item))
	}

	return InspectionResponse{
		ID:              insp.ID,
		ContractID:      insp.ContractID,
		UnitID:          insp.UnitID,
		InspectionDate:  insp.InspectionDate,
		InspectorID:     insp.InspectorID,
		InspectorName:   insp.InspectorName,
		Items:           items,
		TotalDamageCost: insp.TotalDamageCost,
		Status:          insp.Status.String(),
		Notes:           insp.Notes,
		InvoiceID:       insp.InvoiceID,
		StartedAt:       insp.StartedAt,
		CompletedAt:     insp.CompletedAt,
		CancelledAt:     insp.CancelledAt,
		CancelReason:    insp.CancelReason,
		CreatedAt:       insp.CreatedAt,
		UpdatedAt:       insp.UpdatedAt,
		Version:         insp.Version,
	}
}

// ToInspectionListItemResponses converts domain inspections to list DTOs
func ToInspectionListItemResponses(inspections []inspection.Inspection) []InspectionListItemResponse {
	responses := make([]InspectionListItemResponse, 0, len(inspections))
	for i := range inspections {
		insp := &inspections[i]
		responses = append(responses, InspectionListItemResponse{
			ID:              insp.ID,
			ContractID:      insp.ContractID,
			UnitID:          insp.UnitID,
			InspectionDate:  insp.InspectionDate,
			InspectorName:   insp.InspectorName,
			ItemCount:       len(insp.Items),
			TotalDamageCost: insp.TotalDamageCost,
			Status:          insp.Status.String(),
			CreatedAt:       insp.CreatedAt,
		})
	}
	return responses
}
