package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/propman/backend/internal/domain/metering"
	"github.com/propman/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormMeterRepository implements MeterRepository using GORM
type GormMeterRepository struct {
	db *gorm.DB
}

// NewGormMeterRepository creates a new GormMeterRepository
func NewGormMeterRepository(db *gorm.DB) *GormMeterRepository {
	return &GormMeterRepository{db: db}
}

// FindByID finds a meter by its ID
func (r *GormMeterRepository) FindByID(ctx context.Context, id uuid.UUID) (*metering.Meter, error) {
	var meter metering.Meter
	if err := r.db.WithContext(ctx).First(&meter, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &meter, nil
}

// FindActiveByUnit finds the active meters installed in a unit
func (r *GormMeterRepository) FindActiveByUnit(ctx context.Context, unitID uuid.UUID) ([]metering.Meter, error) {
	var meters []metering.Meter
	if err := r.db.WithContext(ctx).
		Where("unit_id = ? AND active = ?", unitID, true).
		Order("serial_number ASC").
		Find(&meters).Error; err != nil {
		return nil, err
	}
	return meters, nil
}

// Save creates or updates a meter
func (r *GormMeterRepository) Save(ctx context.Context, meter *metering.Meter) error {
	return r.db.WithContext(ctx).Save(meter).Error
}

// Ensure GormMeterRepository implements MeterRepository
var _ metering.MeterRepository = (*GormMeterRepository)(nil)
