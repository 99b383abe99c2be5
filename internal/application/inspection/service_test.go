package inspection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	billingapp "github.com/propman/backend/internal/application/billing"
	"github.com/propman/backend/internal/domain/billing"
	"github.com/propman/backend/internal/domain/inspection"
	"github.com/propman/backend/internal/domain/metering"
	"github.com/propman/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockInspectionRepository is a mock implementation of InspectionRepository
type MockInspectionRepository struct {
	mock.Mock
}

func (m *MockInspectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*inspection.Inspection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inspection.Inspection), args.Error(1)
}

func (m *MockInspectionRepository) FindByContract(ctx context.Context, contractID uuid.UUID) ([]inspection.Inspection, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inspection.Inspection), args.Error(1)
}

func (m *MockInspectionRepository) FindByUnit(ctx context.Context, unitID uuid.UUID, filter shared.Filter) ([]inspection.Inspection, error) {
	args := m.Called(ctx, unitID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inspection.Inspection), args.Error(1)
}

func (m *MockInspectionRepository) FindByStatus(ctx context.Context, status inspection.InspectionStatus, filter shared.Filter) ([]inspection.Inspection, error) {
	args := m.Called(ctx, status, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inspection.Inspection), args.Error(1)
}

func (m *MockInspectionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inspection.Inspection, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inspection.Inspection), args.Error(1)
}

func (m *MockInspectionRepository) Save(ctx context.Context, insp *inspection.Inspection) error {
	args := m.Called(ctx, insp)
	return args.Error(0)
}

func (m *MockInspectionRepository) SaveWithLock(ctx context.Context, insp *inspection.Inspection) error {
	args := m.Called(ctx, insp)
	return args.Error(0)
}

func (m *MockInspectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInspectionRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInspectionRepository) CountByStatus(ctx context.Context, status inspection.InspectionStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

// MockAssetCatalog is a mock implementation of AssetCatalog
type MockAssetCatalog struct {
	mock.Mock
}

func (m *MockAssetCatalog) FindActiveByUnit(ctx context.Context, unitID uuid.UUID) ([]inspection.CatalogAsset, error) {
	args := m.Called(ctx, unitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inspection.CatalogAsset), args.Error(1)
}

// MockMeterRepository is a mock implementation of MeterRepository
type MockMeterRepository struct {
	mock.Mock
}

func (m *MockMeterRepository) FindByID(ctx context.Context, id uuid.UUID) (*metering.Meter, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*metering.Meter), args.Error(1)
}

func (m *MockMeterRepository) FindActiveByUnit(ctx context.Context, unitID uuid.UUID) ([]metering.Meter, error) {
	args := m.Called(ctx, unitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]metering.Meter), args.Error(1)
}

func (m *MockMeterRepository) Save(ctx context.Context, meter *metering.Meter) error {
	args := m.Called(ctx, meter)
	return args.Error(0)
}

// MockBillingEngine is a mock implementation of BillingEngine
type MockBillingEngine struct {
	mock.Mock
}

func (m *MockBillingEngine) RunAfterCompletion(ctx context.Context, insp *inspection.Inspection, readings []billing.MeterReadingSubmission) *billingapp.CompletionReport {
	args := m.Called(ctx, insp, readings)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*billingapp.CompletionReport)
}

// Test helpers
var (
	testContractID = uuid.New()
	testUnitID     = uuid.New()
)

func newService(inspRepo *MockInspectionRepository, catalog *MockAssetCatalog, meterRepo *MockMeterRepository, engine *MockBillingEngine) *LifecycleService {
	var eng BillingEngine
	if engine != nil {
		eng = engine
	}
	svc := NewLifecycleService(inspRepo, catalog, meterRepo, eng)
	svc.SetReloadSchedule(1, 0)
	return svc
}

func dueInspection(t *testing.T) *inspection.Inspection {
	insp, err := inspection.NewInspection(testContractID, testUnitID, time.Now().AddDate(0, 0, -1))
	require.NoError(t, err)
	insp.ClearDomainEvents()
	return insp
}

func inProgressInspection(t *testing.T, assetName string, referencePrice float64) *inspection.Inspection {
	insp := dueInspection(t)
	price := decimal.NewFromFloat(referencePrice)
	_, err := insp.AddItem(uuid.New(), assetName, &price)
	require.NoError(t, err)
	require.NoError(t, insp.Start(time.Now()))
	insp.ClearDomainEvents()
	return insp
}

func testMeter(t *testing.T, code metering.ServiceCode, lastReading int64) *metering.Meter {
	meter, err := metering.NewMeter(testUnitID, "MT-"+string(code), code)
	require.NoError(t, err)
	meter.LastReading = decimal.NewFromInt(lastReading)
	return meter
}

func assertDomainErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
}

// ============================================
// Create Tests
// ============================================

func TestLifecycleService_Create(t *testing.T) {
	t.Run("seeds checklist from asset catalog", func(t *testing.T) {
		inspRepo := new(MockInspectionRepository)
		catalog := new(MockAssetCatalog)

		price := decimal.NewFromInt(1000000)
		catalog.On("FindActiveByUnit", mock.Anything, testUnitID).Return([]inspection.CatalogAsset{
			{ID: uuid.New(), Name: "Sofa", ReferencePrice: &price},
			{ID: uuid.New(), Name: "Curtains", ReferencePrice: nil},
		}, nil)
		inspRepo.On("Save", mock.Anything, mock.AnythingOfType("*inspection.Inspection")).Return(nil)

		svc := newService(inspRepo, catalog, new(MockMeterRepository), nil)
		resp, err := svc.Create(context.Background(), CreateInspectionRequest{
			ContractID:     testContractID,
			UnitID:         testUnitID,
			InspectionDate: time.Now(),
		})

		require.NoError(t, err)
		assert.Len(t, resp.Items, 2)
		assert.Equal(t, "PENDING", resp.Status)
		inspRepo.AssertExpectations(t)
		catalog.AssertExpectations(t)
	})

	t.Run("assigns inspector when provided", func(t *testing.T) {
		inspRepo := new(MockInspectionRepository)
		catalog := new(MockAssetCatalog)

		catalog.On("FindActiveByUnit", mock.Anything, testUnitID).Return([]inspection.CatalogAsset{}, nil)
		inspRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		inspectorID := uuid.New()
		svc := newService(inspRepo, catalog, new(MockMeterRepository), nil)
		resp, err := svc.Create(context.Background(), CreateInspectionRequest{
			ContractID:     testContractID,
			UnitID:         testUnitID,
			InspectionDate: time.Now(),
			InspectorID:    &inspectorID,
			InspectorName:  "Nguyen Van A",
		})

		require.NoError(t, err)
		require.NotNil(t, resp.InspectorID)
		assert.Equal(t, inspectorID, *resp.InspectorID)
	})

	t.Run("propagates catalog failure", func(t *testing.T) {
		inspRepo := new(MockInspectionRepository)
		catalog := new(MockAssetCatalog)

		catalog.On("FindActiveByUnit", mock.Anything, testUnitID).Return(nil, errors.New("catalog down"))

		svc := newService(inspRepo, catalog, new(MockMeterRepository), nil)
		_, err := svc.Create(context.Background(), CreateInspectionRequest{
			ContractID:     testContractID,
			UnitID:         testUnitID,
			InspectionDate: time.Now(),
		})

		assert.Error(t, err)
		inspRepo.AssertNotCalled(t, "Save")
	})
}

// ============================================
// Start Tests
// ============================================

func TestLifecycleService_Start(t *testing.T) {
	t.Run("starts a due inspection", func(t *testing.T) {
		inspRepo := new(MockInspectionRepository)
		insp := dueInspection(t)

		inspRepo.On("FindByID", mock.Anything, insp.ID).Return(insp, nil)
		inspRepo.On("SaveWithLock", mock.Anything, insp).Return(nil)

		svc := newService(inspRepo, new(MockAssetCatalog), new(MockMeterRepository), nil)
		resp, err := svc.Start(context.Background(), insp.ID)

		require.NoError(t, err)
		assert.Equal(t, "IN_PROGRESS", resp.Status)
	})

	t.Run("rejects a not yet due inspection", func(t *testing.T) {
		inspRepo := new(MockInspectionRepository)
		insp, err := inspection.NewInspection(testContractID, testUnitID, time.Now().AddDate(0, 0, 7))
		require.NoError(t, err)

		inspRepo.On("FindByID", mock.Anything, insp.ID).Return(insp, nil)

		svc := newService(inspRepo, new(MockAssetCatalog), new(MockMeterRepository), nil)
		_, err = svc.Start(context.Background(), insp.ID)

		assertDomainErrorCode(t, err, "NOT_YET_DUE")
		inspRepo.AssertNotCalled(t, "SaveWithLock")
	})

	t.Run("propagates not found", func(t *testing.T) {
		inspRepo := new(MockInspectionRepository)
		id := uuid.New()
		inspRepo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		svc := newService(inspRepo, new(MockAssetCatalog), new(MockMeterRepository), nil)
		_, err := svc.Start(context.Background(), id)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

// ============================================
// UpdateItem Tests
// ============================================

func TestLifecycleService_UpdateItem(t *testing.T) {
	t.Run("persists assessment and reloads", func(t *testing.T) {
		inspRepo := new(MockInspectionRepository)
		insp := inProgressInspection(t, "Sofa", 1000000)
		itemID := insp.Items[0].ID

		inspRepo.On("FindByID", mock.Anything, insp.ID).Return(insp, nil)
		inspRepo.On("SaveWithLock", mock.Anything, insp).Return(nil)

		svc := newService(inspRepo, new(MockAssetCatalog), new(MockMeterRepository), nil)
		resp, err := svc.UpdateItem(context.Background(), insp.ID, itemID, UpdateItemRequest{
			Condition: inspection.ConditionDamaged,
			Note:      "torn cushion",
		})

		require.NoError(t, err)
		require.NotNil(t, resp.Items[0].DamageCost)
		assert.True(t, resp.Items[0].DamageCost.Equal(decimal.NewFromInt(300000)))
		assert.True(t, resp.TotalDamageCost.Equal(decimal.NewFromInt(300000)))
		// Load, then reload after the write
		inspRepo.AssertNumberOfCalls(t, "FindByID", 2)
	})

	t.Run("reload settles once persisted cost matches", func(t *testing.T) {
		inspRepo := new(MockInspectionRepository)
		insp := inProgressInspection(t, "Sofa", 1000000)
		itemID := insp.Items[0].ID

		// Stale snapshot still carries no cost; the retry loop must keep
		// reloading until the store catches up.
		stale := inProgressInspection(t, "Sofa", 1000000)
		stale.Items[0].ID = itemID

		inspRepo.On("FindByID", mock.Anything, insp.ID).Return(insp, nil).Once()
		inspRepo.On("SaveWithLock", mock.Anything, insp).Return(nil)
		inspRepo.On("FindByID", mock.Anything, insp.ID).Return(stale, nil).Once()
		inspRepo.On("FindByID", mock.Anything, insp.ID).Return(insp, nil).Once()

		svc := newService(inspRepo, new(MockAssetCatalog), new(MockMeterRepository), nil)
		svc.SetReloadSchedule(3, 0)
		resp, err := svc.UpdateItem(context.Background(), insp.ID, itemID, UpdateItemRequest{
			Condition: inspection.ConditionDamaged,
		})

		require.NoError(t, err)
		require.NotNil(t, resp.Items[0].DamageCost)
		assert.True(t, resp.Items[0].DamageCost.Equal(decimal.NewFromInt(300000)))
		inspRepo.AssertNumberOfCalls(t, "FindByID", 3)
	})

	t.Run("exhausted reload returns last read best effort", func(t *testing.T) {
		inspRepo := new(MockInspectionRepository)
		insp := inProgressInspection(t, "Sofa", 1000000)
		itemID := insp.Items[0].ID

		stale := inProgressInspection(t, "Sofa", 1000000)
		stale.Items[0].ID = itemID

		inspRepo.On("FindByID", mock.Anything, insp.ID).Return(insp, nil).Once()
		inspRepo.On("SaveWithLock", mock.Anything, insp).Return(nil)
		inspRepo.On("FindByID", mock.Anything, insp.ID).Return(stale, nil)

		svc := newService(inspRepo, new(MockAssetCatalog), new(MockMeterRepository), nil)
		svc.SetReloadSchedule(2, 0)
		resp, err := svc.UpdateItem(context.Background(), insp.ID, itemID, UpdateItemRequest{
			Condition: inspection.ConditionDamaged,
		})

		require.NoError(t, err)
		// Best-effort: the stale snapshot is what the store last returned
		assert.Nil(t, resp.Items[0].DamageCost)
	})

	t.Run("rejects missing condition", func(t *testing.T) {
		inspRepo := new(MockInspectionRepository)
		insp := inProgressInspection(t, "Sofa", 1000000)

		inspRepo.On("FindByID", mock.Anything, insp.ID).Return(insp, nil)

		svc := newService(inspRepo, new(MockAssetCatalog), new(MockMeterRepository), nil)
		_, err := svc.UpdateItem(context.Background(), insp.ID, insp.Items[0].ID, UpdateItemRequest{})

		assertDomainErrorCode(t, err, "CONDITION_REQUIRED")
		inspRepo.AssertNotCalled(t, "SaveWithLock")
	})
}

// ============================================
// Complete Tests
// ============================================

func TestLifecycleService_Complete(t *testing.T) {
	assessAll := func(t *testing.T, insp *inspection.Inspection, condition inspection.ConditionStatus) {
		for _, item := range insp.Items {
			require.NoError(t, insp.UpdateItem(item.ID, condition, nil, ""))
		}
	}

	t.Run("completes and hands off to billing engine", func(t *testing.T) {
		inspRepo := new(MockInspectionRepository)
		meterRepo := new(MockMeterRepository)
		engine := new(MockBillingEngine)

		insp := inProgressInspection(t, "Sofa", 1000000)
		assessAll(t, insp, inspection.ConditionDamaged)

		water := testMeter(t, metering.ServiceWater, 100)
		electric := testMeter(t, metering.ServiceElectric, 2000)

		inspRepo.On("FindByID", mock.Anything, insp.ID).Return(insp, nil)
		inspRepo.On("SaveWithLock", mock.Anything, insp).Return(nil)
		meterRepo.On("FindActiveByUnit", mock.Anything, testUnitID).Return([]metering.Meter{*water, *electric}, nil)
		meterRepo.On("Save", mock.Anything, mock.AnythingOfType("*metering.Meter")).Return(nil)
		engine.On("RunAfterCompletion", mock.Anything, insp, mock.MatchedBy(func(subs []billing.MeterReadingSubmission) bool {
			return len(subs) == 2
		})).Return(&billingapp.CompletionReport{InspectionID: insp.ID, ReadingsSubmitted: 2})

		svc := newService(inspRepo, new(MockAssetCatalog), meterRepo, engine)
		result, err := svc.Complete(context.Background(), insp.ID, CompleteInspectionRequest{
			Notes: "done",
			Readings: []MeterReadingInput{
				{MeterID: water.ID, Current: "120.5"},
				{MeterID: electric.ID, Current: "2150"},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "COMPLETED", result.Inspection.Status)
		require.NotNil(t, result.Billing)
		assert.Equal(t, 2, result.Billing.ReadingsSubmitted)
		engine.AssertExpectations(t)
	})

	t.Run("item gates run before meter sweep", func(t *testing.T) {
		inspRepo := new(MockInspectionRepository)
		meterRepo := new(MockMeterRepository)

		insp := inProgressInspection(t, "Sofa", 1000000) // unassessed item
		inspRepo.On("FindByID", mock.Anything, insp.ID).Return(insp, nil)

		svc := newService(inspRepo, new(MockAssetCatalog), meterRepo, nil)
		_, err := svc.Complete(context.Background(), insp.ID, CompleteInspectionRequest{})

		assertDomainErrorCode(t, err, "ITEMS_MISSING_STATUS")
		meterRepo.AssertNotCalled(t, "FindActiveByUnit")
	})

	t.Run("invalid reading reported before missing meter", func(t *testing.T) {
		inspRepo := new(MockInspectionRepository)
		meterRepo := new(MockMeterRepository)

		insp := inProgressInspection(t, "Sofa", 1000000)
		assessAll(t, insp, inspection.ConditionGood)

		water := testMeter(t, metering.ServiceWater, 100)
		electric := testMeter(t, metering.ServiceElectric, 2000)

		inspRepo.On("FindByID", mock.Anything, insp.ID).Return(insp, nil)
		meterRepo.On("FindActiveByUnit", mock.Anything, testUnitID).Return([]metering.Meter{*water, *electric}, nil)

		svc := newService(inspRepo, new(MockAssetCatalog), meterRepo, nil)
		// Water reading below previous, electric reading absent entirely
		_, err := svc.Complete(context.Background(), insp.ID, CompleteInspectionRequest{
			Readings: []MeterReadingInput{{MeterID: water.ID, Current: "90"}},
		})

		assertDomainErrorCode(t, err, "METER_READING_INVALID")
	})

	t.Run("missing meter reading blocks completion", func(t *testing.T) {
		inspRepo := new(MockInspectionRepository)
		meterRepo := new(MockMeterRepository)

		insp := inProgressInspection(t, "Sofa", 1000000)
		assessAll(t, insp, inspection.ConditionGood)

		water := testMeter(t, metering.ServiceWater, 100)
		inspRepo.On("FindByID", mock.Anything, insp.ID).Return(insp, nil)
		meterRepo.On("FindActiveByUnit", mock.Anything, testUnitID).Return([]metering.Meter{*water}, nil)

		svc := newService(inspRepo, new(MockAssetCatalog), meterRepo, nil)
		_, err := svc.Complete(context.Background(), insp.ID, CompleteInspectionRequest{})

		assertDomainErrorCode(t, err, "METERS_MISSING_READING")
		assert.Equal(t, inspection.StatusInProgress, insp.Status)
	})

	t.Run("no usage reading rejected", func(t *testing.T) {
		inspRepo := new(MockInspectionRepository)
		meterRepo := new(MockMeterRepository)

		insp := inProgressInspection(t, "Sofa", 1000000)
		assessAll(t, insp, inspection.ConditionGood)

		water := testMeter(t, metering.ServiceWater, 100)
		inspRepo.On("FindByID", mock.Anything, insp.ID).Return(insp, nil)
		meterRepo.On("FindActiveByUnit", mock.Anything, testUnitID).Return([]metering.Meter{*water}, nil)

		svc := newService(inspRepo, new(MockAssetCatalog), meterRepo, nil)
		_, err := svc.Complete(context.Background(), insp.ID, CompleteInspectionRequest{
			Readings: []MeterReadingInput{{MeterID: water.ID, Current: "100"}},
		})

		assertDomainErrorCode(t, err, "METER_READING_INVALID")
	})

	t.Run("failed completion save leaves meters untouched", func(t *testing.T) {
		inspRepo := new(MockInspectionRepository)
		meterRepo := new(MockMeterRepository)

		insp := inProgressInspection(t, "Sofa", 1000000)
		assessAll(t, insp, inspection.ConditionGood)

		water := testMeter(t, metering.ServiceWater, 100)
		inspRepo.On("FindByID", mock.Anything, insp.ID).Return(insp, nil)
		meterRepo.On("FindActiveByUnit", mock.Anything, testUnitID).Return([]metering.Meter{*water}, nil)
		inspRepo.On("SaveWithLock", mock.Anything, insp).
			Return(shared.NewDomainError("CONCURRENT_MODIFICATION", "Inspection was modified by another user"))

		svc := newService(inspRepo, new(MockAssetCatalog), meterRepo, nil)
		_, err := svc.Complete(context.Background(), insp.ID, CompleteInspectionRequest{
			Readings: []MeterReadingInput{{MeterID: water.ID, Current: "120"}},
		})

		assertDomainErrorCode(t, err, "CONCURRENT_MODIFICATION")
		// The same readings must stay valid for the retry, so the meter
		// index cannot have been advanced or persisted.
		meterRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		assert.True(t, water.LastReading.Equal(decimal.NewFromInt(100)))
	})

	t.Run("meter persist failure after commit degrades to a warning", func(t *testing.T) {
		inspRepo := new(MockInspectionRepository)
		meterRepo := new(MockMeterRepository)

		insp := inProgressInspection(t, "Sofa", 1000000)
		assessAll(t, insp, inspection.ConditionGood)

		water := testMeter(t, metering.ServiceWater, 100)
		inspRepo.On("FindByID", mock.Anything, insp.ID).Return(insp, nil)
		meterRepo.On("FindActiveByUnit", mock.Anything, testUnitID).Return([]metering.Meter{*water}, nil)
		inspRepo.On("SaveWithLock", mock.Anything, insp).Return(nil)
		meterRepo.On("Save", mock.Anything, mock.AnythingOfType("*metering.Meter")).
			Return(errors.New("connection reset"))

		svc := newService(inspRepo, new(MockAssetCatalog), meterRepo, nil)
		result, err := svc.Complete(context.Background(), insp.ID, CompleteInspectionRequest{
			Readings: []MeterReadingInput{{MeterID: water.ID, Current: "120"}},
		})

		require.NoError(t, err)
		assert.Equal(t, "COMPLETED", result.Inspection.Status)
		require.NotNil(t, result.Billing)
		require.Len(t, result.Billing.Warnings, 1)
		assert.Contains(t, result.Billing.Warnings[0], "not persisted")
	})

	t.Run("rejects an already completed inspection", func(t *testing.T) {
		inspRepo := new(MockInspectionRepository)

		insp := inProgressInspection(t, "Sofa", 1000000)
		require.NoError(t, insp.UpdateItem(insp.Items[0].ID, inspection.ConditionGood, nil, ""))
		require.NoError(t, insp.Complete(""))

		inspRepo.On("FindByID", mock.Anything, insp.ID).Return(insp, nil)

		svc := newService(inspRepo, new(MockAssetCatalog), new(MockMeterRepository), nil)
		_, err := svc.Complete(context.Background(), insp.ID, CompleteInspectionRequest{})

		assertDomainErrorCode(t, err, "INVALID_STATE")
	})

	t.Run("completes without billing engine", func(t *testing.T) {
		inspRepo := new(MockInspectionRepository)
		meterRepo := new(MockMeterRepository)

		insp := inProgressInspection(t, "Sofa", 1000000)
		assessAll(t, insp, inspection.ConditionGood)

		inspRepo.On("FindByID", mock.Anything, insp.ID).Return(insp, nil)
		inspRepo.On("SaveWithLock", mock.Anything, insp).Return(nil)
		meterRepo.On("FindActiveByUnit", mock.Anything, testUnitID).Return([]metering.Meter{}, nil)

		svc := newService(inspRepo, new(MockAssetCatalog), meterRepo, nil)
		result, err := svc.Complete(context.Background(), insp.ID, CompleteInspectionRequest{})

		require.NoError(t, err)
		assert.Equal(t, "COMPLETED", result.Inspection.Status)
		assert.Nil(t, result.Billing)
	})
}

// ============================================
// Cancel and Recalculate Tests
// ============================================

func TestLifecycleService_Cancel(t *testing.T) {
	t.Run("cancels a pending inspection", func(t *testing.T) {
		inspRepo := new(MockInspectionRepository)
		insp := dueInspection(t)

		inspRepo.On("FindByID", mock.Anything, insp.ID).Return(insp, nil)
		inspRepo.On("SaveWithLock", mock.Anything, insp).Return(nil)

		svc := newService(inspRepo, new(MockAssetCatalog), new(MockMeterRepository), nil)
		resp, err := svc.Cancel(context.Background(), insp.ID, CancelInspectionRequest{Reason: "contract renewed"})

		require.NoError(t, err)
		assert.Equal(t, "CANCELLED", resp.Status)
		assert.Equal(t, "contract renewed", resp.CancelReason)
	})

	t.Run("rejects cancelling a completed inspection", func(t *testing.T) {
		inspRepo := new(MockInspectionRepository)
		insp := inProgressInspection(t, "Sofa", 1000000)
		require.NoError(t, insp.UpdateItem(insp.Items[0].ID, inspection.ConditionGood, nil, ""))
		require.NoError(t, insp.Complete(""))

		inspRepo.On("FindByID", mock.Anything, insp.ID).Return(insp, nil)

		svc := newService(inspRepo, new(MockAssetCatalog), new(MockMeterRepository), nil)
		_, err := svc.Cancel(context.Background(), insp.ID, CancelInspectionRequest{Reason: "x"})

		assertDomainErrorCode(t, err, "INVALID_STATE")
	})
}

func TestLifecycleService_RecalculateDamageCost(t *testing.T) {
	inspRepo := new(MockInspectionRepository)
	insp := inProgressInspection(t, "Sofa", 1000000)
	require.NoError(t, insp.UpdateItem(insp.Items[0].ID, inspection.ConditionDamaged, nil, ""))
	// Simulate a stale stored total
	insp.TotalDamageCost = decimal.Zero

	inspRepo.On("FindByID", mock.Anything, insp.ID).Return(insp, nil)
	inspRepo.On("SaveWithLock", mock.Anything, insp).Return(nil)

	svc := newService(inspRepo, new(MockAssetCatalog), new(MockMeterRepository), nil)
	resp, err := svc.RecalculateDamageCost(context.Background(), insp.ID)

	require.NoError(t, err)
	assert.True(t, resp.TotalDamageCost.Equal(decimal.NewFromInt(300000)))
}

// ============================================
// List Tests
// ============================================

func TestLifecycleService_List(t *testing.T) {
	inspRepo := new(MockInspectionRepository)
	insp := dueInspection(t)

	inspRepo.On("FindAll", mock.Anything, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 1 && f.PageSize == 20 && f.Filters["status"] == "PENDING"
	})).Return([]inspection.Inspection{*insp}, nil)
	inspRepo.On("Count", mock.Anything, mock.Anything).Return(int64(1), nil)

	status := inspection.StatusPending
	svc := newService(inspRepo, new(MockAssetCatalog), new(MockMeterRepository), nil)
	items, total, err := svc.List(context.Background(), InspectionListFilter{Status: &status})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "PENDING", items[0].Status)
}
