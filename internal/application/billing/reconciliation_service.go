package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/propman/backend/internal/domain/billing"
	"github.com/propman/backend/internal/domain/inspection"
	"github.com/propman/backend/internal/domain/metering"
	"github.com/propman/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Defaults for the bounded fixed-interval reconciliation retry. Utility
// invoice generation is asynchronous relative to the completion call, so the
// first read often sees no marked lines yet.
const (
	DefaultReconcileAttempts = 3
	DefaultReconcileDelay    = 2 * time.Second
)

// ReconciliationService is the billing engine that runs after an inspection
// completes: it submits meter readings, triggers utility and damage invoice
// generation, and reconciles the resulting totals. Every step is
// independently failable; the inspection stays COMPLETED regardless.
type ReconciliationService struct {
	gateway     billing.Gateway
	inspRepo    inspection.InspectionRepository
	meterRepo   metering.MeterRepository
	tierRepo    metering.PricingTierRepository
	logger      *zap.Logger
	maxAttempts int
	delay       time.Duration
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	gateway billing.Gateway,
	inspRepo inspection.InspectionRepository,
	meterRepo metering.MeterRepository,
	tierRepo metering.PricingTierRepository,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		gateway:     gateway,
		inspRepo:    inspRepo,
		meterRepo:   meterRepo,
		tierRepo:    tierRepo,
		logger:      logger,
		maxAttempts: DefaultReconcileAttempts,
		delay:       DefaultReconcileDelay,
	}
}

// SetRetrySchedule overrides the bounded fixed-interval reconcile schedule
func (s *ReconciliationService) SetRetrySchedule(maxAttempts int, delay time.Duration) {
	s.maxAttempts = maxAttempts
	s.delay = delay
}

// RunAfterCompletion executes the billing steps for a just-completed
// inspection. The validated readings come from the completion sweep; the
// report carries per-step outcomes and warnings for the operator.
func (s *ReconciliationService) RunAfterCompletion(ctx context.Context, insp *inspection.Inspection, readings []billing.MeterReadingSubmission) *CompletionReport {
	report := &CompletionReport{InspectionID: insp.ID}

	cycle, err := s.gateway.GetActiveCycle(ctx)
	if err != nil {
		s.warn(report, "failed to resolve active billing cycle: %v", err)
	}
	report.Cycle = cycle

	s.submitReadings(ctx, insp.ID, cycle, readings, report)
	s.exportReadings(ctx, insp.UnitID, cycle, report)
	s.ensureDamageInvoice(ctx, insp, report)

	totals, err := s.reconcileWithRetry(ctx, insp, cycle, readings)
	if err != nil {
		s.warn(report, "reconciliation did not settle: %v", err)
	}
	report.Reconciled = totals

	if len(report.Warnings) > 0 {
		s.logger.Warn("billing engine finished with warnings",
			zap.String("inspection_id", insp.ID.String()),
			zap.Strings("warnings", report.Warnings))
	} else {
		s.logger.Info("billing engine finished",
			zap.String("inspection_id", insp.ID.String()),
			zap.Int("readings_submitted", report.ReadingsSubmitted),
			zap.Int("invoices_created", report.InvoicesCreated))
	}

	return report
}

// submitReadings records every validated meter reading with the billing
// backend. Each submission carries the inspection marker in its note and no
// assignment reference: the inspected unit may fall outside any cycle
// assignment's declared scope.
func (s *ReconciliationService) submitReadings(ctx context.Context, inspectionID uuid.UUID, cycle *billing.BillingCycle, readings []billing.MeterReadingSubmission, report *CompletionReport) {
	for _, reading := range readings {
		if cycle != nil {
			reading.CycleID = &cycle.ID
		}
		reading.Note = fmt.Sprintf("%s move-out reading, inspection %s", billing.InspectionMarker, inspectionID)

		if _, err := s.gateway.CreateMeterReading(ctx, reading); err != nil {
			report.ReadingsFailed++
			s.warn(report, "meter %s reading rejected: %v", reading.MeterID, err)
			continue
		}
		report.ReadingsSubmitted++
	}
}

// exportReadings triggers WATER/ELECTRIC invoice generation for the unit in
// the active cycle
func (s *ReconciliationService) exportReadings(ctx context.Context, unitID uuid.UUID, cycle *billing.BillingCycle, report *CompletionReport) {
	if cycle == nil {
		s.warn(report, "no active billing cycle, utility invoice export skipped")
		return
	}

	result, err := s.gateway.ExportReadingsByCycle(ctx, cycle.ID, unitID)
	if err != nil {
		s.warn(report, "utility invoice export failed: %v", err)
		return
	}

	report.InvoicesCreated = result.InvoicesCreated
	report.InvoicesSkipped = result.InvoicesSkipped
	for _, msg := range result.Errors {
		s.warn(report, "utility invoice export: %s", msg)
	}
}

// ensureDamageInvoice generates and settles the damage invoice when the
// inspection found chargeable damage. When the backend's stored total lags
// the submitted item costs, a server-side recalculation is forced first.
// Generation is skipped when an invoice is already linked, which makes a
// repeated run idempotent.
func (s *ReconciliationService) ensureDamageInvoice(ctx context.Context, insp *inspection.Inspection, report *CompletionReport) {
	if insp.InvoiceID != nil {
		report.InvoiceID = insp.InvoiceID
		return
	}

	total := insp.TotalDamageCost
	if total.IsZero() && itemsCarryCosts(insp) {
		result, err := s.gateway.RecalculateDamageCost(ctx, insp.ID)
		if err != nil {
			s.warn(report, "damage cost recalculation failed: %v", err)
			return
		}
		total = result.TotalDamageCost
	}

	if !total.IsPositive() {
		return
	}

	generated, err := s.gateway.GenerateInvoice(ctx, insp.ID)
	if err != nil {
		s.warn(report, "damage invoice generation failed: %v", err)
		return
	}
	if generated.InvoiceID == nil {
		s.warn(report, "damage invoice generation returned no invoice reference")
		return
	}

	if err := insp.LinkInvoice(*generated.InvoiceID); err != nil {
		s.warn(report, "failed to link damage invoice: %v", err)
		return
	}
	if err := s.inspRepo.SaveWithLock(ctx, insp); err != nil {
		s.warn(report, "failed to persist invoice link: %v", err)
		return
	}

	// Inspections close the billing loop automatically; there is no separate
	// payment step for this flow.
	if err := s.gateway.UpdateInvoiceStatus(ctx, *generated.InvoiceID, billing.InvoiceStatusPaid); err != nil {
		s.warn(report, "failed to mark damage invoice paid: %v", err)
	}

	report.InvoiceGenerated = true
	report.InvoiceID = generated.InvoiceID
}

// EnsureDamageInvoice retries damage invoice generation for a completed
// inspection whose invoice may have failed to generate at completion time.
// Already-invoiced inspections pass through unchanged.
func (s *ReconciliationService) EnsureDamageInvoice(ctx context.Context, inspectionID uuid.UUID) (*CompletionReport, error) {
	insp, err := s.inspRepo.FindByID(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	if insp.Status != inspection.StatusCompleted {
		return nil, shared.NewDomainError("INVALID_STATE", "Damage invoices are only raised for completed inspections")
	}

	report := &CompletionReport{InspectionID: insp.ID}
	s.ensureDamageInvoice(ctx, insp, report)
	return report, nil
}

// reconcileWithRetry reconciles the inspection's payable totals on a bounded
// fixed-interval schedule, then settles for the best-effort last read when
// marked utility lines never appear.
func (s *ReconciliationService) reconcileWithRetry(ctx context.Context, insp *inspection.Inspection, cycle *billing.BillingCycle, readings []billing.MeterReadingSubmission) (*ReconciledTotals, error) {
	totals, _, err := shared.RetryUntil(ctx, s.maxAttempts, s.delay,
		func(ctx context.Context) (*ReconciledTotals, error) {
			return s.reconcile(ctx, insp, cycle, readings)
		},
		func(totals *ReconciledTotals) bool {
			return totals.Settled
		},
	)
	return totals, err
}

// reconcile computes the payable breakdown for an inspection. The damage
// figure prefers ASSET_DAMAGE invoice lines, falling back to the stored
// total. The utility figure prefers marked WATER/ELECTRIC lines; when
// generation is still in flight it falls back first to separately fetched
// utility invoices for the unit and cycle, then to the live tier estimate,
// so the result is never a silent zero.
func (s *ReconciliationService) reconcile(ctx context.Context, insp *inspection.Inspection, cycle *billing.BillingCycle, readings []billing.MeterReadingSubmission) (*ReconciledTotals, error) {
	totals := &ReconciledTotals{
		InspectionID: insp.ID,
		ComputedAt:   time.Now(),
	}

	damageSettled := s.reconcileDamage(ctx, insp, totals)
	utilitySettled, err := s.reconcileUtility(ctx, insp, cycle, readings, totals)
	if err != nil {
		return nil, err
	}

	totals.TotalPayable = totals.DamageTotal.Add(totals.UtilityTotal)
	totals.Settled = damageSettled && utilitySettled
	return totals, nil
}

func (s *ReconciliationService) reconcileDamage(ctx context.Context, insp *inspection.Inspection, totals *ReconciledTotals) bool {
	if insp.InvoiceID != nil {
		inv, err := s.gateway.GetInvoiceByID(ctx, *insp.InvoiceID)
		if err == nil && inv != nil {
			damage := billing.SumDamageLines(inv, insp.ID)
			if damage.IsPositive() {
				totals.DamageTotal = damage
				totals.DamageSource = SourceInvoiceLines
				return true
			}
		}
	}

	totals.DamageTotal = insp.TotalDamageCost
	totals.DamageSource = SourceStoredTotal
	// Stored total is settled when there is nothing to invoice
	return !insp.HasDamage()
}

func (s *ReconciliationService) reconcileUtility(ctx context.Context, insp *inspection.Inspection, cycle *billing.BillingCycle, readings []billing.MeterReadingSubmission, totals *ReconciledTotals) (bool, error) {
	if len(readings) == 0 {
		totals.UtilityTotal = decimal.Zero
		totals.UtilitySource = SourceInvoiceLines
		return true, nil
	}

	invoices, err := s.gateway.GetInvoicesByUnit(ctx, insp.UnitID, nil)
	if err != nil {
		return false, err
	}

	marked := billing.SumUtilityLines(invoices, insp.ID)
	if marked.IsPositive() {
		totals.UtilityTotal = marked
		totals.UtilitySource = SourceInvoiceLines
		return true, nil
	}

	if fetched, ok := s.sumCycleUtilityInvoices(invoices, cycle); ok {
		totals.UtilityTotal = fetched
		totals.UtilitySource = SourceFetchedInvoices
		return false, nil
	}

	estimate, err := s.estimateUtilityCost(ctx, insp.UnitID, readings)
	if err != nil {
		return false, err
	}
	totals.UtilityTotal = estimate
	totals.UtilitySource = SourceEstimate
	return false, nil
}

// sumCycleUtilityInvoices sums whole utility invoices scoped to the active
// cycle. Used only as a fallback while marked lines are still being written.
func (s *ReconciliationService) sumCycleUtilityInvoices(invoices []billing.Invoice, cycle *billing.BillingCycle) (decimal.Decimal, bool) {
	if cycle == nil {
		return decimal.Zero, false
	}

	total := decimal.Zero
	found := false
	for _, inv := range invoices {
		if inv.CycleID == nil || *inv.CycleID != cycle.ID {
			continue
		}
		for _, line := range inv.Lines {
			if line.ServiceCode.IsUtility() {
				total = total.Add(line.LineTotal)
				found = true
			}
		}
	}
	return total, found
}

// estimateUtilityCost prices the submitted readings against the live tariff
func (s *ReconciliationService) estimateUtilityCost(ctx context.Context, unitID uuid.UUID, readings []billing.MeterReadingSubmission) (decimal.Decimal, error) {
	meters, err := s.meterRepo.FindActiveByUnit(ctx, unitID)
	if err != nil {
		return decimal.Zero, err
	}

	byID := make(map[uuid.UUID]*metering.Meter, len(meters))
	for i := range meters {
		byID[meters[i].ID] = &meters[i]
	}

	total := decimal.Zero
	for _, reading := range readings {
		meter, ok := byID[reading.MeterID]
		if !ok {
			continue
		}
		tiers, err := s.tierRepo.FindActiveByService(ctx, meter.ServiceCode, time.Now())
		if err != nil {
			return decimal.Zero, err
		}
		usage := reading.CurrentIndex.Sub(reading.PreviousIndex)
		total = total.Add(metering.CalculatePrice(usage, tiers))
	}
	return total, nil
}

// Summary reconciles the payable breakdown for a past inspection on demand
func (s *ReconciliationService) Summary(ctx context.Context, inspectionID uuid.UUID) (*ReconciledTotals, error) {
	insp, err := s.inspRepo.FindByID(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	if insp.Status != inspection.StatusCompleted {
		return nil, shared.NewDomainError("INVALID_STATE", "Billing summary is only available for completed inspections")
	}

	cycle, err := s.gateway.GetActiveCycle(ctx)
	if err != nil {
		s.logger.Warn("failed to resolve active billing cycle for summary", zap.Error(err))
	}

	// Readings were submitted at completion time and cannot be replayed here,
	// so the summary falls back to fetched invoices and the stored total.
	totals := &ReconciledTotals{
		InspectionID: insp.ID,
		ComputedAt:   time.Now(),
	}
	damageSettled := s.reconcileDamage(ctx, insp, totals)

	invoices, err := s.gateway.GetInvoicesByUnit(ctx, insp.UnitID, nil)
	if err != nil {
		return nil, err
	}
	marked := billing.SumUtilityLines(invoices, insp.ID)
	if marked.IsPositive() {
		totals.UtilityTotal = marked
		totals.UtilitySource = SourceInvoiceLines
		totals.Settled = damageSettled
	} else if fetched, ok := s.sumCycleUtilityInvoices(invoices, cycle); ok {
		totals.UtilityTotal = fetched
		totals.UtilitySource = SourceFetchedInvoices
	} else {
		totals.UtilityTotal = decimal.Zero
		totals.UtilitySource = SourceFetchedInvoices
	}

	totals.TotalPayable = totals.DamageTotal.Add(totals.UtilityTotal)
	return totals, nil
}

// PreviewUtilityCost estimates the cost of a proposed reading against the
// current tariff, validating the raw index text first
func (s *ReconciliationService) PreviewUtilityCost(ctx context.Context, req UtilityPreviewRequest) (*UtilityPreviewResponse, error) {
	meter, err := s.meterRepo.FindByID(ctx, req.MeterID)
	if err != nil {
		return nil, err
	}

	current, err := metering.ValidateReading(req.Current, meter.LastReading)
	if err != nil {
		return nil, err
	}

	tiers, err := s.tierRepo.FindActiveByService(ctx, meter.ServiceCode, time.Now())
	if err != nil {
		return nil, err
	}

	usage := current.Sub(meter.LastReading)
	return &UtilityPreviewResponse{
		MeterID:       meter.ID,
		ServiceCode:   meter.ServiceCode.String(),
		PreviousIndex: meter.LastReading,
		CurrentIndex:  current,
		Usage:         usage,
		EstimatedCost: metering.CalculatePrice(usage, tiers),
	}, nil
}

func (s *ReconciliationService) warn(report *CompletionReport, format string, args ...interface{}) {
	report.Warnings = append(report.Warnings, fmt.Sprintf(format, args...))
}

func itemsCarryCosts(insp *inspection.Inspection) bool {
	for _, item := range insp.Items {
		if item.Condition == inspection.ConditionGood {
			continue
		}
		if item.DamageCost != nil && item.DamageCost.IsPositive() {
			return true
		}
	}
	return false
}
