package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/propman/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// TotalSource names where a reconciled figure came from, so callers can tell
// a settled invoice total from a provisional estimate.
type TotalSource string

const (
	SourceInvoiceLines    TotalSource = "INVOICE_LINES"
	SourceFetchedInvoices TotalSource = "FETCHED_INVOICES"
	SourceEstimate        TotalSource = "ESTIMATE"
	SourceStoredTotal     TotalSource = "STORED_TOTAL"
)

// CompletionReport summarizes what the billing engine did after an
// inspection completed. Every step is independently failable; failures land
// in Warnings and the inspection stays completed.
type CompletionReport struct {
	InspectionID      uuid.UUID             `json:"inspection_id"`
	ReadingsSubmitted int                   `json:"readings_submitted"`
	ReadingsFailed    int                   `json:"readings_failed"`
	InvoicesCreated   int                   `json:"invoices_created"`
	InvoicesSkipped   int                   `json:"invoices_skipped"`
	InvoiceGenerated  bool                  `json:"invoice_generated"`
	InvoiceID         *uuid.UUID            `json:"invoice_id,omitempty"`
	Reconciled        *ReconciledTotals     `json:"reconciled,omitempty"`
	Warnings          []string              `json:"warnings,omitempty"`
	Cycle             *billing.BillingCycle `json:"cycle,omitempty"`
}

// ReconciledTotals is the payable breakdown for one inspection
type ReconciledTotals struct {
	InspectionID  uuid.UUID       `json:"inspection_id"`
	DamageTotal   decimal.Decimal `json:"damage_total"`
	DamageSource  TotalSource     `json:"damage_source"`
	UtilityTotal  decimal.Decimal `json:"utility_total"`
	UtilitySource TotalSource     `json:"utility_source"`
	TotalPayable  decimal.Decimal `json:"total_payable"`
	Settled       bool            `json:"settled"`
	ComputedAt    time.Time       `json:"computed_at"`
}

// UtilityPreviewRequest asks for a live cost estimate of a proposed reading
type UtilityPreviewRequest struct {
	MeterID uuid.UUID `json:"meter_id" binding:"required"`
	Current string    `json:"current" binding:"required"`
}

// UtilityPreviewResponse is the live tier estimate for a proposed reading
type UtilityPreviewResponse struct {
	MeterID       uuid.UUID       `json:"meter_id"`
	ServiceCode   string          `json:"service_code"`
	PreviousIndex decimal.Decimal `json:"previous_index"`
	CurrentIndex  decimal.Decimal `json:"current_index"`
	Usage         decimal.Decimal `json:"usage"`
	EstimatedCost decimal.Decimal `json:"estimated_cost"`
}
