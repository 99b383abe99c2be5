package metering

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func tier(order int, max *decimal.Decimal, price int64) PricingTier {
	return PricingTier{
		ServiceCode: ServiceElectric,
		TierOrder:   order,
		MaxQuantity: max,
		UnitPrice:   dec(price),
	}
}

func TestCalculatePrice(t *testing.T) {
	twoTier := []PricingTier{
		tier(1, decPtr(100), 10),
		tier(2, nil, 15),
	}

	t.Run("splits usage across blocks", func(t *testing.T) {
		// 100*10 + 50*15 = 1750
		price := CalculatePrice(dec(150), twoTier)
		assert.True(t, price.Equal(dec(1750)), "got %s", price)
	})

	t.Run("usage inside first block", func(t *testing.T) {
		price := CalculatePrice(dec(60), twoTier)
		assert.True(t, price.Equal(dec(600)))
	})

	t.Run("usage exactly at block boundary", func(t *testing.T) {
		price := CalculatePrice(dec(100), twoTier)
		assert.True(t, price.Equal(dec(1000)))
	})

	t.Run("zero usage prices to zero", func(t *testing.T) {
		assert.True(t, CalculatePrice(decimal.Zero, twoTier).IsZero())
	})

	t.Run("no tiers prices to zero", func(t *testing.T) {
		assert.True(t, CalculatePrice(dec(500), nil).IsZero())
	})

	t.Run("ignores tier ordering of the input slice", func(t *testing.T) {
		shuffled := []PricingTier{
			tier(2, nil, 15),
			tier(1, decPtr(100), 10),
		}
		price := CalculatePrice(dec(150), shuffled)
		assert.True(t, price.Equal(dec(1750)))
	})

	t.Run("three block electric tariff", func(t *testing.T) {
		tariff := []PricingTier{
			tier(1, decPtr(50), 1678),
			tier(2, decPtr(100), 1734),
			tier(3, nil, 2014),
		}
		// 50*1678 + 50*1734 + 20*2014 = 83900 + 86700 + 40280 = 210880
		price := CalculatePrice(dec(120), tariff)
		assert.True(t, price.Equal(dec(210880)), "got %s", price)
	})

	t.Run("fractional usage", func(t *testing.T) {
		price := CalculatePrice(decimal.NewFromFloat(0.5), twoTier)
		assert.True(t, price.Equal(dec(5)))
	})

	t.Run("bounded final tier caps billable usage", func(t *testing.T) {
		bounded := []PricingTier{
			tier(1, decPtr(100), 10),
			tier(2, decPtr(200), 15),
		}
		// Usage past the last bound is not billed; the tariff should normally
		// end with an unbounded tier.
		price := CalculatePrice(dec(500), bounded)
		assert.True(t, price.Equal(dec(2500)))
	})

	t.Run("is monotonically non-decreasing in usage", func(t *testing.T) {
		tariff := []PricingTier{
			tier(1, decPtr(30), 5),
			tier(2, decPtr(120), 9),
			tier(3, nil, 12),
		}
		previous := decimal.Zero
		for usage := int64(0); usage <= 300; usage += 7 {
			price := CalculatePrice(dec(usage), tariff)
			assert.True(t, price.GreaterThanOrEqual(previous),
				"price regressed at usage=%d: %s < %s", usage, price, previous)
			previous = price
		}
	})

	t.Run("block quantities sum to usage", func(t *testing.T) {
		// With a flat unit price of 1 on every tier the result must equal
		// the usage itself: no gaps, no overlaps.
		flat := []PricingTier{
			tier(1, decPtr(40), 1),
			tier(2, decPtr(90), 1),
			tier(3, nil, 1),
		}
		for _, usage := range []int64{0, 1, 39, 40, 41, 90, 91, 250} {
			price := CalculatePrice(dec(usage), flat)
			assert.True(t, price.Equal(dec(usage)), "usage=%d priced %s", usage, price)
		}
	})
}

func TestValidateTiers(t *testing.T) {
	t.Run("accepts contiguous tiers with unbounded terminal", func(t *testing.T) {
		assert.NoError(t, ValidateTiers([]PricingTier{
			tier(1, decPtr(100), 10),
			tier(2, decPtr(200), 12),
			tier(3, nil, 15),
		}))
	})

	t.Run("accepts empty set", func(t *testing.T) {
		assert.NoError(t, ValidateTiers(nil))
	})

	t.Run("rejects unbounded tier in the middle", func(t *testing.T) {
		assert.Error(t, ValidateTiers([]PricingTier{
			tier(1, nil, 10),
			tier(2, decPtr(200), 12),
		}))
	})

	t.Run("rejects non-increasing bounds", func(t *testing.T) {
		assert.Error(t, ValidateTiers([]PricingTier{
			tier(1, decPtr(100), 10),
			tier(2, decPtr(100), 12),
		}))
	})
}

func TestEstimateReadingCost(t *testing.T) {
	tariff := []PricingTier{
		tier(1, decPtr(100), 10),
		tier(2, nil, 15),
	}
	// usage 150: 100*10 + 50*15 = 1750
	cost := EstimateReadingCost(dec(250), dec(100), tariff)
	assert.True(t, cost.Equal(dec(1750)))
}

func TestNewPricingTier(t *testing.T) {
	now := time.Now()

	t.Run("creates valid tier", func(t *testing.T) {
		created, err := NewPricingTier(ServiceWater, 1, decPtr(10), dec(5000), now)
		require.NoError(t, err)
		assert.Equal(t, ServiceWater, created.ServiceCode)
		assert.True(t, created.ActiveAt(now))
	})

	t.Run("rejects bad service code", func(t *testing.T) {
		_, err := NewPricingTier("GAS", 1, nil, dec(1), now)
		assert.Error(t, err)
	})

	t.Run("rejects non-positive bound", func(t *testing.T) {
		_, err := NewPricingTier(ServiceWater, 1, decPtr(0), dec(1), now)
		assert.Error(t, err)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		_, err := NewPricingTier(ServiceWater, 1, nil, dec(-1), now)
		assert.Error(t, err)
	})

	t.Run("tier with end date expires", func(t *testing.T) {
		created, err := NewPricingTier(ServiceWater, 1, nil, dec(1), now.Add(-48*time.Hour))
		require.NoError(t, err)
		end := now.Add(-24 * time.Hour)
		created.EffectiveTo = &end
		assert.False(t, created.ActiveAt(now))
	})
}
