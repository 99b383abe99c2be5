package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/propman/backend/internal/domain/billing"
)

// maxResponseSize is the maximum allowed response size from the billing backend (10MB)
const maxResponseSize = 10 * 1024 * 1024

// HTTPGateway implements the billing.Gateway contract against the billing
// backend's REST API. Backend rejections come back as classified
// billing.GatewayError values; transport failures stay plain errors.
type HTTPGateway struct {
	config     *Config
	httpClient *http.Client
}

// NewHTTPGateway creates a gateway for the billing backend API
func NewHTTPGateway(config *Config) (*HTTPGateway, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &HTTPGateway{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// errorEnvelope is the backend's error response body
type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// createReadingResponse is the backend's response to a reading submission
type createReadingResponse struct {
	ID uuid.UUID `json:"id"`
}

// CreateMeterReading records a meter reading with the billing backend
func (g *HTTPGateway) CreateMeterReading(ctx context.Context, submission billing.MeterReadingSubmission) (uuid.UUID, error) {
	var resp createReadingResponse
	if err := g.doJSON(ctx, http.MethodPost, "/api/v1/meter-readings", submission, &resp); err != nil {
		return uuid.Nil, err
	}
	return resp.ID, nil
}

// ExportReadingsByCycle generates utility invoices for the unit's readings in the cycle
func (g *HTTPGateway) ExportReadingsByCycle(ctx context.Context, cycleID, unitID uuid.UUID) (billing.ExportResult, error) {
	path := fmt.Sprintf("/api/v1/billing-cycles/%s/export?unit_id=%s", cycleID, unitID)
	var result billing.ExportResult
	if err := g.doJSON(ctx, http.MethodPost, path, nil, &result); err != nil {
		return billing.ExportResult{}, err
	}
	return result, nil
}

// RecalculateDamageCost forces a server-side recomputation of the inspection's damage total
func (g *HTTPGateway) RecalculateDamageCost(ctx context.Context, inspectionID uuid.UUID) (billing.DamageCostResult, error) {
	path := fmt.Sprintf("/api/v1/inspections/%s/recalculate-damage", inspectionID)
	var result billing.DamageCostResult
	if err := g.doJSON(ctx, http.MethodPost, path, nil, &result); err != nil {
		return billing.DamageCostResult{}, err
	}
	return result, nil
}

// GenerateInvoice creates the damage invoice for a completed inspection
func (g *HTTPGateway) GenerateInvoice(ctx context.Context, inspectionID uuid.UUID) (billing.DamageCostResult, error) {
	path := fmt.Sprintf("/api/v1/inspections/%s/invoice", inspectionID)
	var result billing.DamageCostResult
	if err := g.doJSON(ctx, http.MethodPost, path, nil, &result); err != nil {
		return billing.DamageCostResult{}, err
	}
	return result, nil
}

// UpdateInvoiceStatus sets an invoice's payment status
func (g *HTTPGateway) UpdateInvoiceStatus(ctx context.Context, invoiceID uuid.UUID, status billing.InvoiceStatus) error {
	path := fmt.Sprintf("/api/v1/invoices/%s/status", invoiceID)
	body := map[string]string{"status": status.String()}
	return g.doJSON(ctx, http.MethodPatch, path, body, nil)
}

// GetInvoiceByID fetches a single invoice with its lines
func (g *HTTPGateway) GetInvoiceByID(ctx context.Context, invoiceID uuid.UUID) (*billing.Invoice, error) {
	path := fmt.Sprintf("/api/v1/invoices/%s", invoiceID)
	var invoice billing.Invoice
	if err := g.doJSON(ctx, http.MethodGet, path, nil, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// GetInvoicesByUnit fetches invoices for a unit, optionally narrowed to a service code
func (g *HTTPGateway) GetInvoicesByUnit(ctx context.Context, unitID uuid.UUID, serviceCode *billing.ServiceCode) ([]billing.Invoice, error) {
	values := url.Values{}
	values.Set("unit_id", unitID.String())
	if serviceCode != nil {
		values.Set("service_code", serviceCode.String())
	}

	var invoices []billing.Invoice
	if err := g.doJSON(ctx, http.MethodGet, "/api/v1/invoices?"+values.Encode(), nil, &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

// GetActiveCycle returns the currently active billing cycle, or nil when none is open
func (g *HTTPGateway) GetActiveCycle(ctx context.Context) (*billing.BillingCycle, error) {
	var cycle billing.BillingCycle
	err := g.doJSON(ctx, http.MethodGet, "/api/v1/billing-cycles/active", nil, &cycle)
	if err != nil {
		var gwErr *billing.GatewayError
		if errors.As(err, &gwErr) && gwErr.Kind == billing.FieldErrorNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &cycle, nil
}

// doJSON performs an authenticated request and decodes the JSON response into
// out. Backend rejections (HTTP 4xx/5xx with an error envelope) are converted
// into classified GatewayError values.
func (g *HTTPGateway) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("billing: failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.config.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("billing: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("billing backend unavailable: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("billing: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return decodeBackendError(resp.StatusCode, respBody)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("billing: failed to parse response: %w", err)
	}
	return nil
}

// decodeBackendError converts an error response into a classified GatewayError
func decodeBackendError(status int, body []byte) error {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Message == "" {
		envelope.Message = fmt.Sprintf("HTTP %d", status)
	}

	kind := ClassifyFieldError(envelope.Code, envelope.Message)
	if kind == billing.FieldErrorUnknown && status == http.StatusNotFound {
		kind = billing.FieldErrorNotFound
	}
	return billing.NewGatewayError(kind, envelope.Message)
}

// ClassifyFieldError maps a backend rejection to a FieldErrorKind. The
// structured code wins when the backend sends one; otherwise the message text
// is inspected as a fallback for older backend versions.
func ClassifyFieldError(code, message string) billing.FieldErrorKind {
	switch code {
	case "DUPLICATE", "ALREADY_EXISTS":
		return billing.FieldErrorDuplicate
	case "NOT_FOUND":
		return billing.FieldErrorNotFound
	case "CONSTRAINT_VIOLATION":
		return billing.FieldErrorConstraintViolation
	case "INVALID_READING":
		return billing.FieldErrorInvalidReading
	}

	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "duplicate"), strings.Contains(lower, "already exists"):
		return billing.FieldErrorDuplicate
	case strings.Contains(lower, "not found"):
		return billing.FieldErrorNotFound
	case strings.Contains(lower, "constraint"), strings.Contains(lower, "violates"):
		return billing.FieldErrorConstraintViolation
	case strings.Contains(lower, "reading"):
		return billing.FieldErrorInvalidReading
	}
	return billing.FieldErrorUnknown
}

// Ensure HTTPGateway implements billing.Gateway
var _ billing.Gateway = (*HTTPGateway)(nil)
