package persistence

import (
	"context"
	"time"

	"github.com/propman/backend/internal/domain/metering"
	"gorm.io/gorm"
)

// GormPricingTierRepository implements PricingTierRepository using GORM
type GormPricingTierRepository struct {
	db *gorm.DB
}

// NewGormPricingTierRepository creates a new GormPricingTierRepository
func NewGormPricingTierRepository(db *gorm.DB) *GormPricingTierRepository {
	return &GormPricingTierRepository{db: db}
}

// FindActiveByService returns the tiers for a service effective at asOf,
// sorted by tier order
func (r *GormPricingTierRepository) FindActiveByService(ctx context.Context, serviceCode metering.ServiceCode, asOf time.Time) ([]metering.PricingTier, error) {
	var tiers []metering.PricingTier
	if err := r.db.WithContext(ctx).
		Where("service_code = ? AND effective_from <= ? AND (effective_to IS NULL OR effective_to > ?)",
			serviceCode, asOf, asOf).
		Order("tier_order ASC").
		Find(&tiers).Error; err != nil {
		return nil, err
	}
	return tiers, nil
}

// Ensure GormPricingTierRepository implements PricingTierRepository
var _ metering.PricingTierRepository = (*GormPricingTierRepository)(nil)
