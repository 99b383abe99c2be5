package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FieldErrorKind classifies a billing backend rejection so callers can react
// to structure instead of raw message text
type FieldErrorKind string

const (
	FieldErrorUnknown             FieldErrorKind = "UNKNOWN"
	FieldErrorDuplicate           FieldErrorKind = "DUPLICATE"
	FieldErrorNotFound            FieldErrorKind = "NOT_FOUND"
	FieldErrorConstraintViolation FieldErrorKind = "CONSTRAINT_VIOLATION"
	FieldErrorInvalidReading      FieldErrorKind = "INVALID_READING"
)

// GatewayError wraps a billing backend rejection with its classified kind.
// The backend's original message is kept for the operator.
type GatewayError struct {
	Kind    FieldErrorKind
	Message string
}

// Error implements the error interface
func (e *GatewayError) Error() string {
	return fmt.Sprintf("billing backend: %s (%s)", e.Message, e.Kind)
}

// NewGatewayError creates a classified gateway error
func NewGatewayError(kind FieldErrorKind, message string) *GatewayError {
	return &GatewayError{Kind: kind, Message: message}
}

// ExportResult reports the outcome of exporting readings into invoices.
// Partial failures are expected; the caller surfaces them as warnings.
type ExportResult struct {
	InvoicesCreated int      `json:"invoices_created"`
	InvoicesSkipped int      `json:"invoices_skipped"`
	Errors          []string `json:"errors"`
}

// HasErrors reports whether any export step failed
func (r ExportResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// DamageCostResult is the backend's view of an inspection's damage total
type DamageCostResult struct {
	InspectionID    uuid.UUID       `json:"inspection_id"`
	TotalDamageCost decimal.Decimal `json:"total_damage_cost"`
	InvoiceID       *uuid.UUID      `json:"invoice_id,omitempty"`
}

// Gateway is the contract with the external billing collaborator. All errors
// it returns are classified GatewayError values where the backend rejected
// the request.
type Gateway interface {
	// CreateMeterReading records a meter reading with the billing backend
	CreateMeterReading(ctx context.Context, submission MeterReadingSubmission) (uuid.UUID, error)

	// ExportReadingsByCycle generates WATER/ELECTRIC invoices for the unit's
	// readings in the cycle
	ExportReadingsByCycle(ctx context.Context, cycleID, unitID uuid.UUID) (ExportResult, error)

	// RecalculateDamageCost forces a server-side recomputation of the
	// inspection's stored damage total
	RecalculateDamageCost(ctx context.Context, inspectionID uuid.UUID) (DamageCostResult, error)

	// GenerateInvoice creates the damage invoice for a completed inspection
	GenerateInvoice(ctx context.Context, inspectionID uuid.UUID) (DamageCostResult, error)

	// UpdateInvoiceStatus sets an invoice's payment status
	UpdateInvoiceStatus(ctx context.Context, invoiceID uuid.UUID, status InvoiceStatus) error

	// GetInvoiceByID fetches a single invoice with its lines
	GetInvoiceByID(ctx context.Context, invoiceID uuid.UUID) (*Invoice, error)

	// GetInvoicesByUnit fetches invoices for a unit, optionally narrowed to a
	// service code
	GetInvoicesByUnit(ctx context.Context, unitID uuid.UUID, serviceCode *ServiceCode) ([]Invoice, error)

	// GetActiveCycle returns the currently active billing cycle, or nil when
	// none is open
	GetActiveCycle(ctx context.Context) (*BillingCycle, error)
}
