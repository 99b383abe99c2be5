package inspection

import (
	"github.com/google/uuid"
	"github.com/propman/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeInspection = "Inspection"

	EventTypeInspectionCreated   = "inspection.created"
	EventTypeInspectionStarted   = "inspection.started"
	EventTypeInspectionCompleted = "inspection.completed"
	EventTypeInspectionCancelled = "inspection.cancelled"
)

// InspectionCreatedEvent is published when a new inspection is scheduled
type InspectionCreatedEvent struct {
	shared.BaseDomainEvent
	ContractID     uuid.UUID `json:"contract_id"`
	UnitID         uuid.UUID `json:"unit_id"`
	InspectionDate string    `json:"inspection_date"`
}

// NewInspectionCreatedEvent creates a new InspectionCreatedEvent
func NewInspectionCreatedEvent(insp *Inspection) *InspectionCreatedEvent {
	return &InspectionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInspectionCreated, AggregateTypeInspection, insp.ID),
		ContractID:      insp.ContractID,
		UnitID:          insp.UnitID,
		InspectionDate:  insp.InspectionDate.Format("2006-01-02"),
	}
}

// EventType returns the event type
func (e *InspectionCreatedEvent) EventType() string {
	return EventTypeInspectionCreated
}

// InspectionStartedEvent is published when an inspector begins the inspection
type InspectionStartedEvent struct {
	shared.BaseDomainEvent
	ContractID    uuid.UUID  `json:"contract_id"`
	UnitID        uuid.UUID  `json:"unit_id"`
	InspectorID   *uuid.UUID `json:"inspector_id,omitempty"`
	InspectorName string     `json:"inspector_name,omitempty"`
}

// NewInspectionStartedEvent creates a new InspectionStartedEvent
func NewInspectionStartedEvent(insp *Inspection) *InspectionStartedEvent {
	return &InspectionStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInspectionStarted, AggregateTypeInspection, insp.ID),
		ContractID:      insp.ContractID,
		UnitID:          insp.UnitID,
		InspectorID:     insp.InspectorID,
		InspectorName:   insp.InspectorName,
	}
}

// EventType returns the event type
func (e *InspectionStartedEvent) EventType() string {
	return EventTypeInspectionStarted
}

// InspectionCompletedEvent is published when an inspection finishes.
// Billing listens for this event to raise the damage invoice.
type InspectionCompletedEvent struct {
	shared.BaseDomainEvent
	ContractID      uuid.UUID       `json:"contract_id"`
	UnitID          uuid.UUID       `json:"unit_id"`
	TotalDamageCost decimal.Decimal `json:"total_damage_cost"`
	ItemCount       int             `json:"item_count"`
}

// NewInspectionCompletedEvent creates a new InspectionCompletedEvent
func NewInspectionCompletedEvent(insp *Inspection) *InspectionCompletedEvent {
	return &InspectionCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInspectionCompleted, AggregateTypeInspection, insp.ID),
		ContractID:      insp.ContractID,
		UnitID:          insp.UnitID,
		TotalDamageCost: insp.TotalDamageCost,
		ItemCount:       len(insp.Items),
	}
}

// EventType returns the event type
func (e *InspectionCompletedEvent) EventType() string {
	return EventTypeInspectionCompleted
}

// InspectionCancelledEvent is published when an inspection is cancelled
type InspectionCancelledEvent struct {
	shared.BaseDomainEvent
	ContractID uuid.UUID `json:"contract_id"`
	Reason     string    `json:"reason,omitempty"`
}

// NewInspectionCancelledEvent creates a new InspectionCancelledEvent
func NewInspectionCancelledEvent(insp *Inspection) *InspectionCancelledEvent {
	return &InspectionCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInspectionCancelled, AggregateTypeInspection, insp.ID),
		ContractID:      insp.ContractID,
		Reason:          insp.CancelReason,
	}
}

// EventType returns the event type
func (e *InspectionCancelledEvent) EventType() string {
	return EventTypeInspectionCancelled
}
