package metering

import (
	"time"

	"github.com/google/uuid"
	"github.com/propman/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ServiceCode identifies a metered utility service
type ServiceCode string

const (
	ServiceWater    ServiceCode = "WATER"
	ServiceElectric ServiceCode = "ELECTRIC"
)

// IsValid checks if the code is a known ServiceCode
func (s ServiceCode) IsValid() bool {
	switch s {
	case ServiceWater, ServiceElectric:
		return true
	}
	return false
}

// String returns the string representation of ServiceCode
func (s ServiceCode) String() string {
	return string(s)
}

// Meter represents a utility meter installed in a unit.
// Meters are read-mostly from this core's point of view: the billing backend
// owns them, this system records new readings against them.
type Meter struct {
	shared.BaseEntity
	UnitID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	SerialNumber string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	ServiceCode  ServiceCode     `gorm:"type:varchar(20);not null"`
	LastReading  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Active       bool            `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (Meter) TableName() string {
	return "meters"
}

// NewMeter creates a new meter for a unit
func NewMeter(unitID uuid.UUID, serialNumber string, serviceCode ServiceCode) (*Meter, error) {
	if unitID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_UNIT", "Unit ID cannot be empty")
	}
	if serialNumber == "" {
		return nil, shared.NewDomainError("INVALID_SERIAL", "Meter serial number cannot be empty")
	}
	if !serviceCode.IsValid() {
		return nil, shared.NewDomainError("INVALID_SERVICE_CODE", "Service code must be WATER or ELECTRIC")
	}

	return &Meter{
		BaseEntity:   shared.NewBaseEntity(),
		UnitID:       unitID,
		SerialNumber: serialNumber,
		ServiceCode:  serviceCode,
		LastReading:  decimal.Zero,
		Active:       true,
	}, nil
}

// RecordReading advances the meter's last known index.
// The new index must already have passed ValidateReading.
func (m *Meter) RecordReading(current decimal.Decimal) error {
	if current.LessThanOrEqual(m.LastReading) {
		return shared.NewDomainError("INVALID_READING", "New index must be greater than the last reading")
	}
	m.LastReading = current
	m.Touch()
	return nil
}

// MeterReading represents a submitted consumption reading.
// Readings are owned by the billing collaborator once submitted; this struct
// carries what the core sends and what it reads back.
type MeterReading struct {
	ID            uuid.UUID
	MeterID       uuid.UUID
	PreviousIndex decimal.Decimal
	CurrentIndex  decimal.Decimal
	ReadingDate   time.Time
	CycleID       *uuid.UUID
	Note          string
}

// Usage returns the consumption covered by this reading
func (r MeterReading) Usage() decimal.Decimal {
	return r.CurrentIndex.Sub(r.PreviousIndex)
}
