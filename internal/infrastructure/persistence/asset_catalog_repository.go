package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/propman/backend/internal/domain/inspection"
	"github.com/propman/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAssetCatalog implements the AssetCatalog read model using GORM
type GormAssetCatalog struct {
	db *gorm.DB
}

// NewGormAssetCatalog creates a new GormAssetCatalog
func NewGormAssetCatalog(db *gorm.DB) *GormAssetCatalog {
	return &GormAssetCatalog{db: db}
}

// FindActiveByUnit returns the active assets installed in a unit
func (r *GormAssetCatalog) FindActiveByUnit(ctx context.Context, unitID uuid.UUID) ([]inspection.CatalogAsset, error) {
	var rows []models.UnitAsset
	if err := r.db.WithContext(ctx).
		Where("unit_id = ? AND active = ?", unitID, true).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	assets := make([]inspection.CatalogAsset, len(rows))
	for i := range rows {
		assets[i] = rows[i].ToCatalogAsset()
	}
	return assets, nil
}

// Ensure GormAssetCatalog implements AssetCatalog
var _ inspection.AssetCatalog = (*GormAssetCatalog)(nil)
