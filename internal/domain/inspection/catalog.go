package inspection

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CatalogAsset is a read-only view of an asset installed in a rental unit.
// The asset catalog itself is managed elsewhere; inspections only consume it
// to build their checklist.
type CatalogAsset struct {
	ID             uuid.UUID
	Name           string
	ReferencePrice *decimal.Decimal
}

// AssetCatalog provides read access to the assets of a rental unit
type AssetCatalog interface {
	// FindActiveByUnit returns the active assets installed in a unit
	FindActiveByUnit(ctx context.Context, unitID uuid.UUID) ([]CatalogAsset, error)
}
