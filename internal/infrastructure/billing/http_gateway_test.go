package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/propman/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, handler http.Handler) *HTTPGateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gw, err := NewHTTPGateway(&Config{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	})
	require.NoError(t, err)
	return gw
}

func TestNewHTTPGateway_RequiresBaseURL(t *testing.T) {
	_, err := NewHTTPGateway(&Config{})
	assert.ErrorIs(t, err, ErrConfigMissingBaseURL)
}

func TestHTTPGateway_CreateMeterReading(t *testing.T) {
	readingID := uuid.New()
	meterID := uuid.New()

	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/meter-readings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var submission billing.MeterReadingSubmission
		require.NoError(t, json.NewDecoder(r.Body).Decode(&submission))
		assert.Equal(t, meterID, submission.MeterID)
		assert.True(t, submission.CurrentIndex.Equal(decimal.NewFromFloat(120.5)))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": readingID})
	}))

	id, err := gw.CreateMeterReading(context.Background(), billing.MeterReadingSubmission{
		MeterID:       meterID,
		PreviousIndex: decimal.NewFromInt(100),
		CurrentIndex:  decimal.NewFromFloat(120.5),
		ReadingDate:   time.Now(),
	})

	require.NoError(t, err)
	assert.Equal(t, readingID, id)
}

func TestHTTPGateway_CreateMeterReading_ClassifiesRejection(t *testing.T) {
	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"code":    "DUPLICATE",
			"message": "reading already exists for this meter and date",
		})
	}))

	_, err := gw.CreateMeterReading(context.Background(), billing.MeterReadingSubmission{MeterID: uuid.New()})

	require.Error(t, err)
	var gwErr *billing.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, billing.FieldErrorDuplicate, gwErr.Kind)
	assert.Contains(t, gwErr.Message, "already exists")
}

func TestHTTPGateway_ExportReadingsByCycle(t *testing.T) {
	cycleID := uuid.New()
	unitID := uuid.New()

	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/billing-cycles/"+cycleID.String()+"/export", r.URL.Path)
		assert.Equal(t, unitID.String(), r.URL.Query().Get("unit_id"))

		json.NewEncoder(w).Encode(billing.ExportResult{
			InvoicesCreated: 2,
			InvoicesSkipped: 1,
			Errors:          []string{"meter WATER-002: no reading in cycle"},
		})
	}))

	result, err := gw.ExportReadingsByCycle(context.Background(), cycleID, unitID)

	require.NoError(t, err)
	assert.Equal(t, 2, result.InvoicesCreated)
	assert.Equal(t, 1, result.InvoicesSkipped)
	assert.True(t, result.HasErrors())
}

func TestHTTPGateway_GenerateInvoice(t *testing.T) {
	inspectionID := uuid.New()
	invoiceID := uuid.New()

	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/inspections/"+inspectionID.String()+"/invoice", r.URL.Path)
		json.NewEncoder(w).Encode(billing.DamageCostResult{
			InspectionID:    inspectionID,
			TotalDamageCost: decimal.NewFromInt(350000),
			InvoiceID:       &invoiceID,
		})
	}))

	result, err := gw.GenerateInvoice(context.Background(), inspectionID)

	require.NoError(t, err)
	assert.Equal(t, inspectionID, result.InspectionID)
	assert.True(t, result.TotalDamageCost.Equal(decimal.NewFromInt(350000)))
	require.NotNil(t, result.InvoiceID)
	assert.Equal(t, invoiceID, *result.InvoiceID)
}

func TestHTTPGateway_UpdateInvoiceStatus(t *testing.T) {
	invoiceID := uuid.New()

	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/v1/invoices/"+invoiceID.String()+"/status", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "PAID", body["status"])

		w.WriteHeader(http.StatusNoContent)
	}))

	err := gw.UpdateInvoiceStatus(context.Background(), invoiceID, billing.InvoiceStatusPaid)
	assert.NoError(t, err)
}

func TestHTTPGateway_GetInvoicesByUnit(t *testing.T) {
	unitID := uuid.New()
	inspectionID := uuid.New()

	gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/invoices", r.URL.Path)
		assert.Equal(t, unitID.String(), r.URL.Query().Get("unit_id"))
		assert.Equal(t, "WATER", r.URL.Query().Get("service_code"))

		json.NewEncoder(w).Encode([]billing.Invoice{
			{
				ID:     uuid.New(),
				UnitID: unitID,
				Status: billing.InvoiceStatusUnpaid,
				Lines: []billing.InvoiceLine{
					{
						ServiceCode:        billing.ServiceWater,
						Description:        billing.InspectionMarker + " water usage",
						LineTotal:          decimal.NewFromInt(50000),
						SourceInspectionID: &inspectionID,
					},
				},
			},
		})
	}))

	code := billing.ServiceWater
	invoices, err := gw.GetInvoicesByUnit(context.Background(), unitID, &code)

	require.NoError(t, err)
	require.Len(t, invoices, 1)
	require.Len(t, invoices[0].Lines, 1)
	assert.True(t, invoices[0].Lines[0].BelongsToInspection(inspectionID))
}

func TestHTTPGateway_GetActiveCycle(t *testing.T) {
	t.Run("returns the open cycle", func(t *testing.T) {
		cycleID := uuid.New()
		gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/billing-cycles/active", r.URL.Path)
			json.NewEncoder(w).Encode(billing.BillingCycle{
				ID:     cycleID,
				Name:   "2026-08",
				Active: true,
			})
		}))

		cycle, err := gw.GetActiveCycle(context.Background())

		require.NoError(t, err)
		require.NotNil(t, cycle)
		assert.Equal(t, cycleID, cycle.ID)
	})

	t.Run("returns nil when no cycle is open", func(t *testing.T) {
		gw := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{
				"code":    "NOT_FOUND",
				"message": "no active billing cycle",
			})
		}))

		cycle, err := gw.GetActiveCycle(context.Background())

		require.NoError(t, err)
		assert.Nil(t, cycle)
	})
}

func TestClassifyFieldError(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected billing.FieldErrorKind
	}{
		{"structured duplicate code", "DUPLICATE", "whatever", billing.FieldErrorDuplicate},
		{"structured not found code", "NOT_FOUND", "whatever", billing.FieldErrorNotFound},
		{"structured constraint code", "CONSTRAINT_VIOLATION", "whatever", billing.FieldErrorConstraintViolation},
		{"structured reading code", "INVALID_READING", "whatever", billing.FieldErrorInvalidReading},
		{"duplicate from message", "", "duplicate key value", billing.FieldErrorDuplicate},
		{"not found from message", "", "meter not found", billing.FieldErrorNotFound},
		{"constraint from message", "", "violates foreign key constraint", billing.FieldErrorConstraintViolation},
		{"reading from message", "", "reading must exceed previous index", billing.FieldErrorInvalidReading},
		{"unknown", "", "something odd happened", billing.FieldErrorUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyFieldError(tt.code, tt.message))
		})
	}
}
