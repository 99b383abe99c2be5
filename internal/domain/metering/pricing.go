package metering

import (
	"sort"
	"time"

	"github.com/propman/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PricingTier represents one consumption band of a progressive tariff.
// A nil MaxQuantity marks the unbounded final tier.
type PricingTier struct {
	shared.BaseEntity
	ServiceCode   ServiceCode      `gorm:"type:varchar(20);not null;index"`
	TierOrder     int              `gorm:"not null"`
	MaxQuantity   *decimal.Decimal `gorm:"type:decimal(18,4)"`
	UnitPrice     decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	EffectiveFrom time.Time        `gorm:"not null;index"`
	EffectiveTo   *time.Time       `gorm:"index"`
}

// TableName returns the table name for GORM
func (PricingTier) TableName() string {
	return "pricing_tiers"
}

// NewPricingTier creates a pricing tier for a service
func NewPricingTier(serviceCode ServiceCode, tierOrder int, maxQuantity *decimal.Decimal, unitPrice decimal.Decimal, effectiveFrom time.Time) (*PricingTier, error) {
	if !serviceCode.IsValid() {
		return nil, shared.NewDomainError("INVALID_SERVICE_CODE", "Service code must be WATER or ELECTRIC")
	}
	if tierOrder < 1 {
		return nil, shared.NewDomainError("INVALID_TIER_ORDER", "Tier order must be positive")
	}
	if maxQuantity != nil && maxQuantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_TIER_BOUND", "Tier max quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_UNIT_PRICE", "Tier unit price cannot be negative")
	}

	return &PricingTier{
		BaseEntity:    shared.NewBaseEntity(),
		ServiceCode:   serviceCode,
		TierOrder:     tierOrder,
		MaxQuantity:   maxQuantity,
		UnitPrice:     unitPrice,
		EffectiveFrom: effectiveFrom,
	}, nil
}

// ActiveAt reports whether the tier applies at the given date
func (t *PricingTier) ActiveAt(at time.Time) bool {
	if at.Before(t.EffectiveFrom) {
		return false
	}
	return t.EffectiveTo == nil || at.Before(*t.EffectiveTo)
}

// CalculatePrice prices a usage quantity against a progressive block tariff.
// Tiers are walked in TierOrder; each tier bills the usage that falls inside
// its band at the tier's unit price. An unbounded tier absorbs all remaining
// usage and terminates the walk. Zero usage or an empty tier set prices to
// zero. The result is independent of how the bands are cut as long as
// ordering and bounds are respected.
func CalculatePrice(usage decimal.Decimal, tiers []PricingTier) decimal.Decimal {
	if usage.LessThanOrEqual(decimal.Zero) || len(tiers) == 0 {
		return decimal.Zero
	}

	sorted := make([]PricingTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].TierOrder < sorted[j].TierOrder
	})

	total := decimal.Zero
	previousMax := decimal.Zero
	for _, tier := range sorted {
		// An unbounded tier absorbs all remaining usage
		effectiveMax := usage
		if tier.MaxQuantity != nil {
			effectiveMax = *tier.MaxQuantity
		}

		capped := decimal.Min(usage, effectiveMax)
		applicable := capped.Sub(previousMax)
		if applicable.IsPositive() {
			total = total.Add(applicable.Mul(tier.UnitPrice))
			previousMax = capped
		}

		if previousMax.GreaterThanOrEqual(usage) {
			break
		}
	}

	return total
}

// ValidateTiers checks that a tier set forms a contiguous, non-overlapping
// tariff: strictly increasing bounds, and any unbounded tier terminal.
func ValidateTiers(tiers []PricingTier) error {
	if len(tiers) == 0 {
		return nil
	}

	sorted := make([]PricingTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].TierOrder < sorted[j].TierOrder
	})

	previousMax := decimal.Zero
	for i, tier := range sorted {
		if tier.MaxQuantity == nil {
			if i != len(sorted)-1 {
				return shared.NewDomainError("INVALID_TIER_SET", "Unbounded tier must be the final tier")
			}
			continue
		}
		if tier.MaxQuantity.LessThanOrEqual(previousMax) {
			return shared.NewDomainError("INVALID_TIER_SET", "Tier bounds must be strictly increasing")
		}
		previousMax = *tier.MaxQuantity
	}
	return nil
}

// EstimateReadingCost prices the usage implied by a current/previous index
// pair. Used as the live preview while backend invoicing catches up.
func EstimateReadingCost(current, previous decimal.Decimal, tiers []PricingTier) decimal.Decimal {
	usage := current.Sub(previous)
	return CalculatePrice(usage, tiers)
}
