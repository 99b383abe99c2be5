package models

import (
	"github.com/google/uuid"
	"github.com/propman/backend/internal/domain/inspection"
	"github.com/shopspring/decimal"
)

// UnitAsset is the persistence model for an asset registered to a rental
// unit. Inspections seed their checklist from the active assets of a unit.
type UnitAsset struct {
	BaseModel
	UnitID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	Name           string           `gorm:"type:varchar(200);not null"`
	ReferencePrice *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Active         bool             `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (UnitAsset) TableName() string {
	return "unit_assets"
}

// ToCatalogAsset converts the model to the domain's catalog view
func (m *UnitAsset) ToCatalogAsset() inspection.CatalogAsset {
	return inspection.CatalogAsset{
		ID:             m.ID,
		Name:           m.Name,
		ReferencePrice: m.ReferencePrice,
	}
}
