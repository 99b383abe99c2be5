package inspection

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/propman/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InspectionStatus represents the lifecycle state of a move-out inspection
type InspectionStatus string

const (
	StatusPending    InspectionStatus = "PENDING"
	StatusInProgress InspectionStatus = "IN_PROGRESS"
	StatusCompleted  InspectionStatus = "COMPLETED"
	StatusCancelled  InspectionStatus = "CANCELLED"
)

// IsValid checks if the status is a valid InspectionStatus
func (s InspectionStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InspectionStatus
func (s InspectionStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s InspectionStatus) CanTransitionTo(target InspectionStatus) bool {
	switch s {
	case StatusPending:
		return target == StatusInProgress || target == StatusCancelled
	case StatusInProgress:
		return target == StatusCompleted || target == StatusCancelled
	case StatusCompleted, StatusCancelled:
		return false // Terminal states
	}
	return false
}

// InspectionItem represents a single asset checked during an inspection
type InspectionItem struct {
	ID             uuid.UUID        `gorm:"type:uuid;primary_key"`
	InspectionID   uuid.UUID        `gorm:"type:uuid;not null;index"`
	AssetID        uuid.UUID        `gorm:"type:uuid;not null"`
	AssetName      string           `gorm:"type:varchar(200);not null"`
	ReferencePrice *decimal.Decimal `gorm:"type:decimal(18,4)"` // Purchase/replacement price, nil when unknown
	Condition      ConditionStatus  `gorm:"type:varchar(20)"`
	DamageCost     *decimal.Decimal `gorm:"type:decimal(18,4)"` // nil until the item has been assessed
	CostOverridden bool             `gorm:"not null;default:false"` // True once the operator entered a cost manually
	Checked        bool             `gorm:"not null;default:false"`
	Note           string           `gorm:"type:varchar(500)"`
	CreatedAt      time.Time        `gorm:"not null"`
	UpdatedAt      time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InspectionItem) TableName() string {
	return "inspection_items"
}

// NewInspectionItem creates an unassessed inspection item for an asset
func NewInspectionItem(inspectionID, assetID uuid.UUID, assetName string, referencePrice *decimal.Decimal) (*InspectionItem, error) {
	if assetID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ASSET", "Asset ID cannot be empty")
	}
	if assetName == "" {
		return nil, shared.NewDomainError("INVALID_ASSET_NAME", "Asset name cannot be empty")
	}
	if referencePrice != nil && referencePrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Reference price cannot be negative")
	}

	now := time.Now()
	return &InspectionItem{
		ID:             uuid.New(),
		InspectionID:   inspectionID,
		AssetID:        assetID,
		AssetName:      assetName,
		ReferencePrice: referencePrice,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Assess records the asset condition and derives the default damage cost.
// Changing the condition resets the cost to the policy default, so a previous
// manual override does not survive a condition change. Re-submitting the same
// condition (a note-only edit) leaves the cost and any override untouched.
func (i *InspectionItem) Assess(condition ConditionStatus, note string) error {
	if !condition.IsValid() {
		return shared.NewDomainError("CONDITION_REQUIRED", "A valid asset condition must be provided")
	}

	if condition != i.Condition {
		i.Condition = condition
		i.DamageCost = DefaultCost(condition, i.ReferencePrice)
		i.CostOverridden = false
	}
	i.Note = note
	i.UpdatedAt = time.Now()

	return nil
}

// OverrideCost replaces the computed damage cost with an operator-entered one
func (i *InspectionItem) OverrideCost(cost decimal.Decimal) error {
	if !i.Condition.IsSet() {
		return shared.NewDomainError("CONDITION_REQUIRED", "Cannot set a cost before the condition is assessed")
	}
	if cost.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Damage cost cannot be negative")
	}

	i.DamageCost = &cost
	i.CostOverridden = true
	i.UpdatedAt = time.Now()

	return nil
}

// ChargeableCost returns the damage cost that flows into the inspection total.
// GOOD items never charge; unassessed items charge nothing yet.
func (i *InspectionItem) ChargeableCost() decimal.Decimal {
	if i.Condition == ConditionGood || i.DamageCost == nil {
		return decimal.Zero
	}
	return *i.DamageCost
}

// Inspection represents a move-out inspection aggregate root.
// It tracks the assessment of every asset in a rental unit at the end of a
// contract and the damage cost owed by the renter.
type Inspection struct {
	shared.BaseAggregateRoot
	ContractID      uuid.UUID        `gorm:"type:uuid;not null;index"`
	UnitID          uuid.UUID        `gorm:"type:uuid;not null;index"`
	InspectionDate  time.Time        `gorm:"not null;index"` // Scheduled date; inspection cannot start before it
	InspectorID     *uuid.UUID       `gorm:"type:uuid;index"`
	InspectorName   string           `gorm:"type:varchar(200)"`
	Items           []InspectionItem `gorm:"foreignKey:InspectionID;references:ID"`
	TotalDamageCost decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"` // Sum of chargeable costs of non-GOOD items
	Status          InspectionStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Notes           string           `gorm:"type:text"`
	InvoiceID       *uuid.UUID       `gorm:"type:uuid;index"` // Damage invoice, set after billing export
	StartedAt       *time.Time       `gorm:"index"`
	CompletedAt     *time.Time       `gorm:"index"`
	CancelledAt     *time.Time       `gorm:"index"`
	CancelReason    string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Inspection) TableName() string {
	return "inspections"
}

// NewInspection creates a new inspection in PENDING status
func NewInspection(contractID, unitID uuid.UUID, inspectionDate time.Time) (*Inspection, error) {
	if contractID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CONTRACT", "Contract ID cannot be empty")
	}
	if unitID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_UNIT", "Unit ID cannot be empty")
	}
	if inspectionDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Inspection date cannot be empty")
	}

	insp := &Inspection{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ContractID:        contractID,
		UnitID:            unitID,
		InspectionDate:    inspectionDate,
		Items:             make([]InspectionItem, 0),
		TotalDamageCost:   decimal.Zero,
		Status:            StatusPending,
	}

	insp.AddDomainEvent(NewInspectionCreatedEvent(insp))

	return insp, nil
}

// AddItem adds an asset to the inspection checklist.
// Only allowed before the inspection is completed or cancelled.
func (n *Inspection) AddItem(assetID uuid.UUID, assetName string, referencePrice *decimal.Decimal) (*InspectionItem, error) {
	if n.Status == StatusCompleted || n.Status == StatusCancelled {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to a finished inspection")
	}

	for _, item := range n.Items {
		if item.AssetID == assetID {
			return nil, shared.NewDomainError("DUPLICATE_ASSET", "Asset already exists in inspection")
		}
	}

	item, err := NewInspectionItem(n.ID, assetID, assetName, referencePrice)
	if err != nil {
		return nil, err
	}

	n.Items = append(n.Items, *item)
	n.UpdatedAt = time.Now()

	return item, nil
}

// AssignInspector assigns the inspector before work begins.
// Only allowed in PENDING status.
func (n *Inspection) AssignInspector(inspectorID uuid.UUID, inspectorName string) error {
	if n.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", "Inspector can only be assigned before the inspection starts")
	}
	if inspectorID == uuid.Nil {
		return shared.NewDomainError("INVALID_INSPECTOR", "Inspector ID cannot be empty")
	}

	n.InspectorID = &inspectorID
	n.InspectorName = inspectorName
	n.UpdatedAt = time.Now()

	return nil
}

// Start transitions the inspection from PENDING to IN_PROGRESS.
// The inspection cannot start before its scheduled date; today is compared by
// calendar date, so starting on the scheduled day itself is allowed.
func (n *Inspection) Start(today time.Time) error {
	if !n.Status.CanTransitionTo(StatusInProgress) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot start inspection in %s status", n.Status))
	}
	if dateOnly(today).Before(dateOnly(n.InspectionDate)) {
		return shared.NewDomainError("NOT_YET_DUE", fmt.Sprintf("Inspection is scheduled for %s and cannot start earlier", n.InspectionDate.Format("2006-01-02")))
	}

	now := time.Now()
	n.Status = StatusInProgress
	n.StartedAt = &now
	n.UpdatedAt = now

	n.AddDomainEvent(NewInspectionStartedEvent(n))

	return nil
}

// UpdateItem records the assessed condition of an item and optionally an
// operator-entered cost. Only allowed while the inspection is IN_PROGRESS.
func (n *Inspection) UpdateItem(itemID uuid.UUID, condition ConditionStatus, cost *decimal.Decimal, note string) error {
	if n.Status != StatusInProgress {
		return shared.NewDomainError("INVALID_STATE", "Items can only be assessed while the inspection is in progress")
	}

	for idx := range n.Items {
		if n.Items[idx].ID == itemID {
			if err := n.Items[idx].Assess(condition, note); err != nil {
				return err
			}
			if cost != nil {
				if err := n.Items[idx].OverrideCost(*cost); err != nil {
					return err
				}
			}
			n.RecalculateTotal()
			n.UpdatedAt = time.Now()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Inspection item not found")
}

// ValidateItemsForCompletion checks the item-level completion gates in order:
// every item must have an assessed condition, then every non-GOOD item must
// carry a positive damage cost.
func (n *Inspection) ValidateItemsForCompletion() error {
	for _, item := range n.Items {
		if !item.Condition.IsSet() {
			return shared.NewDomainError("ITEMS_MISSING_STATUS", fmt.Sprintf("Asset %q has not been assessed", item.AssetName))
		}
	}
	for _, item := range n.Items {
		if item.Condition == ConditionGood {
			continue
		}
		if item.DamageCost == nil || !item.DamageCost.IsPositive() {
			return shared.NewDomainError("ITEMS_INVALID_COST", fmt.Sprintf("Asset %q is %s but has no damage cost", item.AssetName, item.Condition))
		}
	}
	return nil
}

// Complete transitions the inspection from IN_PROGRESS to COMPLETED.
// All items are marked checked and the total damage cost is recomputed.
func (n *Inspection) Complete(notes string) error {
	if !n.Status.CanTransitionTo(StatusCompleted) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete inspection in %s status", n.Status))
	}
	if err := n.ValidateItemsForCompletion(); err != nil {
		return err
	}

	now := time.Now()
	for idx := range n.Items {
		n.Items[idx].Checked = true
		n.Items[idx].UpdatedAt = now
	}
	n.RecalculateTotal()
	if notes != "" {
		n.Notes = notes
	}
	n.Status = StatusCompleted
	n.CompletedAt = &now
	n.UpdatedAt = now

	n.AddDomainEvent(NewInspectionCompletedEvent(n))

	return nil
}

// Cancel transitions the inspection to CANCELLED
func (n *Inspection) Cancel(reason string) error {
	if !n.Status.CanTransitionTo(StatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel inspection in %s status", n.Status))
	}

	now := time.Now()
	n.Status = StatusCancelled
	n.CancelledAt = &now
	n.CancelReason = reason
	n.UpdatedAt = now

	n.AddDomainEvent(NewInspectionCancelledEvent(n))

	return nil
}

// LinkInvoice records the damage invoice produced for this inspection.
// Only allowed once the inspection is completed, and only once.
func (n *Inspection) LinkInvoice(invoiceID uuid.UUID) error {
	if n.Status != StatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Invoice can only be linked to a completed inspection")
	}
	if invoiceID == uuid.Nil {
		return shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if n.InvoiceID != nil {
		return shared.NewDomainError("INVOICE_ALREADY_LINKED", "Inspection already has a damage invoice")
	}

	n.InvoiceID = &invoiceID
	n.UpdatedAt = time.Now()

	return nil
}

// RecalculateTotal recomputes the total damage cost from the items.
// GOOD and unassessed items contribute nothing.
func (n *Inspection) RecalculateTotal() {
	total := decimal.Zero
	for idx := range n.Items {
		total = total.Add(n.Items[idx].ChargeableCost())
	}
	n.TotalDamageCost = total
}

// HasDamage reports whether the inspection found any chargeable damage
func (n *Inspection) HasDamage() bool {
	return n.TotalDamageCost.IsPositive()
}

// FindItem returns the item with the given ID, or nil
func (n *Inspection) FindItem(itemID uuid.UUID) *InspectionItem {
	for idx := range n.Items {
		if n.Items[idx].ID == itemID {
			return &n.Items[idx]
		}
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
