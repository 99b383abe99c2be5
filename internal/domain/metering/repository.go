package metering

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MeterRepository provides access to meter data
type MeterRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Meter, error)
	FindActiveByUnit(ctx context.Context, unitID uuid.UUID) ([]Meter, error)
	Save(ctx context.Context, meter *Meter) error
}

// PricingTierRepository provides access to pricing tier data
type PricingTierRepository interface {
	// FindActiveByService returns the tiers for a service effective at asOf,
	// sorted by tier order
	FindActiveByService(ctx context.Context, serviceCode ServiceCode, asOf time.Time) ([]PricingTier, error)
}
