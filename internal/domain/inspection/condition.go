package inspection

import (
	"github.com/shopspring/decimal"
)

// ConditionStatus represents the assessed condition of an inspected asset.
// The empty string means the item has not been assessed yet.
type ConditionStatus string

const (
	ConditionGood     ConditionStatus = "GOOD"
	ConditionDamaged  ConditionStatus = "DAMAGED"
	ConditionMissing  ConditionStatus = "MISSING"
	ConditionRepaired ConditionStatus = "REPAIRED"
	ConditionReplaced ConditionStatus = "REPLACED"
)

// IsValid checks if the status is a known ConditionStatus
func (s ConditionStatus) IsValid() bool {
	switch s {
	case ConditionGood, ConditionDamaged, ConditionMissing, ConditionRepaired, ConditionReplaced:
		return true
	}
	return false
}

// IsSet reports whether a condition has been assessed
func (s ConditionStatus) IsSet() bool {
	return s != ""
}

// String returns the string representation of ConditionStatus
func (s ConditionStatus) String() string {
	return string(s)
}

// Damage cost factors applied to an asset's reference price
var (
	damagedCostFactor  = decimal.NewFromFloat(0.30)
	repairedCostFactor = decimal.NewFromFloat(0.20)
)

// DefaultCost returns the default damage cost for a condition given the
// asset's reference price. GOOD costs nothing; DAMAGED and REPAIRED are a
// fraction of the reference price rounded to whole currency units; MISSING
// and REPLACED cost the full reference price. A nil result means no default
// can be derived and the operator must enter the cost manually.
func DefaultCost(condition ConditionStatus, referencePrice *decimal.Decimal) *decimal.Decimal {
	if !condition.IsSet() {
		return nil
	}
	if condition == ConditionGood {
		zero := decimal.Zero
		return &zero
	}
	if referencePrice == nil {
		return nil
	}

	var cost decimal.Decimal
	switch condition {
	case ConditionDamaged:
		cost = referencePrice.Mul(damagedCostFactor).Round(0)
	case ConditionRepaired:
		cost = referencePrice.Mul(repairedCostFactor).Round(0)
	case ConditionMissing, ConditionReplaced:
		cost = *referencePrice
	default:
		return nil
	}
	return &cost
}
