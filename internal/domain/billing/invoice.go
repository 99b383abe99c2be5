package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InspectionMarker is the fixed substring placed in the description of every
// invoice line produced by the move-out inspection flow. It is the
// compatibility shim for lines whose schema carries no SourceInspectionID;
// lines that do carry the ID are matched by ID alone.
const InspectionMarker = "[MOVE-OUT]"

// ServiceCode identifies what an invoice line charges for
type ServiceCode string

const (
	ServiceAssetDamage ServiceCode = "ASSET_DAMAGE"
	ServiceWater       ServiceCode = "WATER"
	ServiceElectric    ServiceCode = "ELECTRIC"
)

// IsUtility reports whether the code is a metered utility service
func (s ServiceCode) IsUtility() bool {
	return s == ServiceWater || s == ServiceElectric
}

// String returns the string representation of ServiceCode
func (s ServiceCode) String() string {
	return string(s)
}

// InvoiceStatus represents the payment state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusUnpaid    InvoiceStatus = "UNPAID"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusUnpaid, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// InvoiceLine is a single charge on an invoice. Lines are produced by the
// billing collaborator; this core only reads them.
type InvoiceLine struct {
	ID                 uuid.UUID       `json:"id"`
	InvoiceID          uuid.UUID       `json:"invoice_id"`
	ServiceCode        ServiceCode     `json:"service_code"`
	Description        string          `json:"description"`
	Quantity           decimal.Decimal `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	LineTotal          decimal.Decimal `json:"line_total"`
	SourceInspectionID *uuid.UUID      `json:"source_inspection_id,omitempty"`
}

// BelongsToInspection reports whether the line was produced by the given
// inspection. The correlation ID wins when present; otherwise the marker
// substring in the description decides.
func (l InvoiceLine) BelongsToInspection(inspectionID uuid.UUID) bool {
	if l.SourceInspectionID != nil {
		return *l.SourceInspectionID == inspectionID
	}
	return strings.Contains(l.Description, InspectionMarker)
}

// Invoice is an external billing document owned by the collaborator
type Invoice struct {
	ID          uuid.UUID       `json:"id"`
	UnitID      uuid.UUID       `json:"unit_id"`
	CycleID     *uuid.UUID      `json:"cycle_id,omitempty"`
	Status      InvoiceStatus   `json:"status"`
	Lines       []InvoiceLine   `json:"lines"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	IssuedAt    time.Time       `json:"issued_at"`
}

// SumLines sums the totals of lines matching the service code and inspection
func (inv Invoice) SumLines(code ServiceCode, inspectionID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, line := range inv.Lines {
		if line.ServiceCode != code {
			continue
		}
		if !line.BelongsToInspection(inspectionID) {
			continue
		}
		total = total.Add(line.LineTotal)
	}
	return total
}

// BillingCycle is a billing period owned by the collaborator
type BillingCycle struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Active    bool      `json:"active"`
}

// MeterReadingSubmission is the payload for recording a meter reading with
// the billing collaborator. No assignment reference is carried: the inspected
// unit may fall outside any cycle assignment's declared scope.
type MeterReadingSubmission struct {
	MeterID       uuid.UUID       `json:"meter_id"`
	PreviousIndex decimal.Decimal `json:"previous_index"`
	CurrentIndex  decimal.Decimal `json:"current_index"`
	ReadingDate   time.Time       `json:"reading_date"`
	CycleID       *uuid.UUID      `json:"cycle_id,omitempty"`
	Note          string          `json:"note"`
}

// SumDamageLines sums the ASSET_DAMAGE lines of an invoice for an inspection
func SumDamageLines(inv *Invoice, inspectionID uuid.UUID) decimal.Decimal {
	if inv == nil {
		return decimal.Zero
	}
	return inv.SumLines(ServiceAssetDamage, inspectionID)
}

// SumUtilityLines sums the WATER and ELECTRIC lines across invoices that
// belong to the inspection. The inspection filter is mandatory so unrelated
// invoices sharing the unit or cycle are never counted.
func SumUtilityLines(invoices []Invoice, inspectionID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, inv := range invoices {
		total = total.Add(inv.SumLines(ServiceWater, inspectionID))
		total = total.Add(inv.SumLines(ServiceElectric, inspectionID))
	}
	return total
}
