package billing

import (
	"context"
	"fmt"

	"github.com/propman/backend/internal/domain/inspection"
	"github.com/propman/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// InspectionCompletedHandler handles InspectionCompletedEvent and retries
// damage invoice generation when the synchronous hand-off at completion
// failed. Inspections that already carry an invoice pass through untouched,
// so replaying the event is safe.
type InspectionCompletedHandler struct {
	service *ReconciliationService
	logger  *zap.Logger
}

// NewInspectionCompletedHandler creates a new handler for inspection completed events
func NewInspectionCompletedHandler(service *ReconciliationService, logger *zap.Logger) *InspectionCompletedHandler {
	return &InspectionCompletedHandler{
		service: service,
		logger:  logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *InspectionCompletedHandler) EventTypes() []string {
	return []string{inspection.EventTypeInspectionCompleted}
}

// Handle processes an InspectionCompletedEvent
func (h *InspectionCompletedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	completedEvent, ok := event.(*inspection.InspectionCompletedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", inspection.EventTypeInspectionCompleted),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inspection.EventTypeInspectionCompleted, event.EventType())
	}

	// Nothing to invoice when the inspection found no chargeable damage.
	if !completedEvent.TotalDamageCost.IsPositive() {
		return nil
	}

	report, err := h.service.EnsureDamageInvoice(ctx, completedEvent.AggregateID())
	if err != nil {
		h.logger.Error("damage invoice follow-up failed",
			zap.String("inspection_id", completedEvent.AggregateID().String()),
			zap.Error(err),
		)
		return err
	}

	if report.InvoiceGenerated && report.InvoiceID != nil {
		h.logger.Info("damage invoice generated from completion event",
			zap.String("inspection_id", report.InspectionID.String()),
			zap.String("invoice_id", report.InvoiceID.String()),
		)
	}
	for _, warning := range report.Warnings {
		h.logger.Warn("damage invoice follow-up",
			zap.String("inspection_id", report.InspectionID.String()),
			zap.String("warning", warning),
		)
	}

	return nil
}

// Ensure InspectionCompletedHandler implements shared.EventHandler
var _ shared.EventHandler = (*InspectionCompletedHandler)(nil)
