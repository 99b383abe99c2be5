package inspection

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	billingapp "github.com/propman/backend/internal/application/billing"
	"github.com/propman/backend/internal/domain/billing"
	"github.com/propman/backend/internal/domain/inspection"
	"github.com/propman/backend/internal/domain/metering"
	"github.com/propman/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Defaults for the reload-and-compare check after cost-changing mutations.
// The backend storing totals may lag the submission, so the reload is
// retried a bounded number of times before the last read is trusted
// best-effort.
const (
	DefaultReloadAttempts = 3
	DefaultReloadDelay    = 500 * time.Millisecond
)

// BillingEngine runs the post-completion billing steps. Implemented by the
// billing reconciliation service.
type BillingEngine interface {
	RunAfterCompletion(ctx context.Context, insp *inspection.Inspection, readings []billing.MeterReadingSubmission) *billingapp.CompletionReport
}

// CompleteInspectionResult bundles the completed inspection with the billing
// engine's report
type CompleteInspectionResult struct {
	Inspection InspectionResponse           `json:"inspection"`
	Billing    *billingapp.CompletionReport `json:"billing,omitempty"`
}

// LifecycleService drives the move-out inspection state machine
type LifecycleService struct {
	inspRepo       inspection.InspectionRepository
	catalog        inspection.AssetCatalog
	meterRepo      metering.MeterRepository
	engine         BillingEngine
	eventPublisher shared.EventPublisher
	reloadAttempts int
	reloadDelay    time.Duration
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(
	inspRepo inspection.InspectionRepository,
	catalog inspection.AssetCatalog,
	meterRepo metering.MeterRepository,
	engine BillingEngine,
) *LifecycleService {
	return &LifecycleService{
		inspRepo:       inspRepo,
		catalog:        catalog,
		meterRepo:      meterRepo,
		engine:         engine,
		reloadAttempts: DefaultReloadAttempts,
		reloadDelay:    DefaultReloadDelay,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *LifecycleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetReloadSchedule overrides the reload-and-compare retry schedule
func (s *LifecycleService) SetReloadSchedule(maxAttempts int, delay time.Duration) {
	s.reloadAttempts = maxAttempts
	s.reloadDelay = delay
}

// Create schedules a new inspection for an ended contract. The checklist is
// seeded from the unit's active asset catalog.
func (s *LifecycleService) Create(ctx context.Context, req CreateInspectionRequest) (*InspectionResponse, error) {
	insp, err := inspection.NewInspection(req.ContractID, req.UnitID, req.InspectionDate)
	if err != nil {
		return nil, err
	}

	assets, err := s.catalog.FindActiveByUnit(ctx, req.UnitID)
	if err != nil {
		return nil, err
	}
	for _, asset := range assets {
		if _, err := insp.AddItem(asset.ID, asset.Name, asset.ReferencePrice); err != nil {
			return nil, err
		}
	}

	if req.InspectorID != nil {
		if err := insp.AssignInspector(*req.InspectorID, req.InspectorName); err != nil {
			return nil, err
		}
	}

	if err := s.inspRepo.Save(ctx, insp); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, insp)

	response := ToInspectionResponse(insp)
	return &response, nil
}

// GetByID retrieves an inspection by ID
func (s *LifecycleService) GetByID(ctx context.Context, inspectionID uuid.UUID) (*InspectionResponse, error) {
	insp, err := s.inspRepo.FindByID(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	response := ToInspectionResponse(insp)
	return &response, nil
}

// List retrieves inspections with filtering and pagination
func (s *LifecycleService) List(ctx context.Context, filter InspectionListFilter) ([]InspectionListItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}

	if filter.UnitID != nil {
		domainFilter.Filters["unit_id"] = *filter.UnitID
	}
	if filter.InspectorID != nil {
		domainFilter.Filters["inspector_id"] = *filter.InspectorID
	}
	if filter.Status != nil {
		domainFilter.Filters["status"] = string(*filter.Status)
	}
	if filter.StartDate != nil {
		domainFilter.Filters["start_date"] = *filter.StartDate
	}
	if filter.EndDate != nil {
		domainFilter.Filters["end_date"] = *filter.EndDate
	}

	inspections, err := s.inspRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.inspRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToInspectionListItemResponses(inspections), total, nil
}

// AssignInspector assigns an inspector to a pending inspection
func (s *LifecycleService) AssignInspector(ctx context.Context, inspectionID uuid.UUID, req AssignInspectorRequest) (*InspectionResponse, error) {
	insp, err := s.inspRepo.FindByID(ctx, inspectionID)
	if err != nil {
		return nil, err
	}

	if err := insp.AssignInspector(req.InspectorID, req.InspectorName); err != nil {
		return nil, err
	}

	if err := s.inspRepo.SaveWithLock(ctx, insp); err != nil {
		return nil, err
	}

	response := ToInspectionResponse(insp)
	return &response, nil
}

// Start transitions a pending inspection to IN_PROGRESS. Starting before the
// scheduled date fails with NOT_YET_DUE.
func (s *LifecycleService) Start(ctx context.Context, inspectionID uuid.UUID) (*InspectionResponse, error) {
	insp, err := s.inspRepo.FindByID(ctx, inspectionID)
	if err != nil {
		return nil, err
	}

	if err := insp.Start(time.Now()); err != nil {
		return nil, err
	}

	if err := s.inspRepo.SaveWithLock(ctx, insp); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, insp)

	response := ToInspectionResponse(insp)
	return &response, nil
}

// UpdateItem records the assessment of one inspection item. Because the
// store holding totals may lag the write, the mutation is followed by a
// bounded reload-and-compare before the returned state is trusted; when
// retries exhaust, the last reload is returned best-effort.
func (s *LifecycleService) UpdateItem(ctx context.Context, inspectionID, itemID uuid.UUID, req UpdateItemRequest) (*InspectionResponse, error) {
	insp, err := s.inspRepo.FindByID(ctx, inspectionID)
	if err != nil {
		return nil, err
	}

	if err := insp.UpdateItem(itemID, req.Condition, req.Cost, req.Note); err != nil {
		return nil, err
	}

	submitted := insp.FindItem(itemID)
	submittedCost := submitted.DamageCost

	if err := s.inspRepo.SaveWithLock(ctx, insp); err != nil {
		return nil, err
	}

	reloaded, _, err := shared.RetryUntil(ctx, s.reloadAttempts, s.reloadDelay,
		func(ctx context.Context) (*inspection.Inspection, error) {
			return s.inspRepo.FindByID(ctx, inspectionID)
		},
		func(candidate *inspection.Inspection) bool {
			item := candidate.FindItem(itemID)
			return item != nil && costsEqual(item.DamageCost, submittedCost)
		},
	)
	if err != nil {
		return nil, err
	}

	response := ToInspectionResponse(reloaded)
	return &response, nil
}

// Complete runs the ordered completion gates, transitions the inspection to
// COMPLETED, records the meter readings, and hands off to the billing engine.
// Billing failures never roll the completion back.
func (s *LifecycleService) Complete(ctx context.Context, inspectionID uuid.UUID, req CompleteInspectionRequest) (*CompleteInspectionResult, error) {
	insp, err := s.inspRepo.FindByID(ctx, inspectionID)
	if err != nil {
		return nil, err
	}

	if insp.Status == inspection.StatusCompleted {
		return nil, shared.NewDomainError("INVALID_STATE", "Inspection is already completed")
	}

	// Item gates first, then the meter sweep
	if err := insp.ValidateItemsForCompletion(); err != nil {
		return nil, err
	}

	meters, err := s.meterRepo.FindActiveByUnit(ctx, insp.UnitID)
	if err != nil {
		return nil, err
	}
	submissions, err := s.validateMeterSweep(meters, req.Readings)
	if err != nil {
		return nil, err
	}

	if err := insp.Complete(req.Notes); err != nil {
		return nil, err
	}

	if err := s.inspRepo.SaveWithLock(ctx, insp); err != nil {
		return nil, err
	}

	// Meter indexes advance only once the completion is durably recorded.
	// A failed completion save must leave meters untouched, or resubmitting
	// the same readings on retry would trip the sweep's no-regression rule.
	// After the commit a meter persist failure degrades to a warning like
	// any other billing step.
	var meterWarnings []string
	for i := range meters {
		for _, sub := range submissions {
			if sub.MeterID != meters[i].ID {
				continue
			}
			if err := meters[i].RecordReading(sub.CurrentIndex); err != nil {
				meterWarnings = append(meterWarnings,
					fmt.Sprintf("meter %s index not advanced: %v", meters[i].SerialNumber, err))
				continue
			}
			if err := s.meterRepo.Save(ctx, &meters[i]); err != nil {
				meterWarnings = append(meterWarnings,
					fmt.Sprintf("meter %s index not persisted: %v", meters[i].SerialNumber, err))
			}
		}
	}

	result := &CompleteInspectionResult{Inspection: ToInspectionResponse(insp)}
	if s.engine != nil {
		result.Billing = s.engine.RunAfterCompletion(ctx, insp, submissions)
		result.Inspection = ToInspectionResponse(insp)
	}
	if len(meterWarnings) > 0 {
		if result.Billing == nil {
			result.Billing = &billingapp.CompletionReport{InspectionID: insp.ID}
		}
		result.Billing.Warnings = append(meterWarnings, result.Billing.Warnings...)
	}

	// Events go out after the synchronous billing run so the completed-event
	// subscriber sees the linked invoice and only acts when the run failed.
	s.publishEvents(ctx, insp)
	return result, nil
}

// validateMeterSweep applies the reading validator to every submitted index
// and then checks that no meter was left without one. Validation of what was
// entered comes before the missing-meter check so the operator fixes bad
// input first.
func (s *LifecycleService) validateMeterSweep(meters []metering.Meter, inputs []MeterReadingInput) ([]billing.MeterReadingSubmission, error) {
	byMeter := make(map[uuid.UUID]string, len(inputs))
	for _, input := range inputs {
		byMeter[input.MeterID] = input.Current
	}

	now := time.Now()
	submissions := make([]billing.MeterReadingSubmission, 0, len(meters))
	var missing []uuid.UUID
	for i := range meters {
		raw, ok := byMeter[meters[i].ID]
		if !ok {
			missing = append(missing, meters[i].ID)
			continue
		}
		current, err := metering.ValidateReading(raw, meters[i].LastReading)
		if err != nil {
			return nil, shared.NewDomainError("METER_READING_INVALID",
				"Meter "+meters[i].SerialNumber+": "+err.Error())
		}
		submissions = append(submissions, billing.MeterReadingSubmission{
			MeterID:       meters[i].ID,
			PreviousIndex: meters[i].LastReading,
			CurrentIndex:  current,
			ReadingDate:   now,
		})
	}
	if len(missing) > 0 {
		return nil, shared.NewDomainError("METERS_MISSING_READING", "Every meter of the unit needs a current index before completion")
	}

	return submissions, nil
}

// Cancel cancels a non-terminal inspection
func (s *LifecycleService) Cancel(ctx context.Context, inspectionID uuid.UUID, req CancelInspectionRequest) (*InspectionResponse, error) {
	insp, err := s.inspRepo.FindByID(ctx, inspectionID)
	if err != nil {
		return nil, err
	}

	if err := insp.Cancel(req.Reason); err != nil {
		return nil, err
	}

	if err := s.inspRepo.SaveWithLock(ctx, insp); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, insp)

	response := ToInspectionResponse(insp)
	return &response, nil
}

// RecalculateDamageCost recomputes and persists the inspection's damage total
func (s *LifecycleService) RecalculateDamageCost(ctx context.Context, inspectionID uuid.UUID) (*InspectionResponse, error) {
	insp, err := s.inspRepo.FindByID(ctx, inspectionID)
	if err != nil {
		return nil, err
	}

	insp.RecalculateTotal()

	if err := s.inspRepo.SaveWithLock(ctx, insp); err != nil {
		return nil, err
	}

	response := ToInspectionResponse(insp)
	return &response, nil
}

func (s *LifecycleService) publishEvents(ctx context.Context, insp *inspection.Inspection) {
	if s.eventPublisher == nil {
		return
	}
	events := insp.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// Event delivery is best-effort; state is already persisted
	_ = s.eventPublisher.Publish(ctx, events...)
	insp.ClearDomainEvents()
}

func costsEqual(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
