package search

import (
	"github.com/shopspring/decimal"

	"deal-scout/pkg/models"
)

var (
	half    = decimal.NewFromFloat(0.5)
	hundred = decimal.NewFromInt(100)
)

// round2 rounds half up (toward positive infinity) to two decimal places.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Shift(2).Add(half).Floor().Shift(-2)
}

// floatPtr is nil when d does not fit in a float64.
func floatPtr(d decimal.Decimal) *float64 {
	if !finite(d) {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

// ComputeStats aggregates the numeric prices of items. referenceRaw is the
// caller's comparison price in any format ToNumber accepts; the diff fields
// are set only when it parses and at least one item has a price.
func ComputeStats(items []models.Item, referenceRaw string) models.PriceStats {
	var (
		stats  models.PriceStats
		sum    decimal.Decimal
		lo, hi decimal.Decimal
	)

	for _, it := range items {
		if it.PriceNumeric == nil {
			continue
		}
		p := decimal.NewFromFloat(*it.PriceNumeric)
		if stats.Count == 0 || p.LessThan(lo) {
			lo = p
		}
		if stats.Count == 0 || p.GreaterThan(hi) {
			hi = p
		}
		sum = sum.Add(p)
		stats.Count++
	}

	if stats.Count == 0 {
		return stats
	}

	avg := round2(sum.Div(decimal.NewFromInt(int64(stats.Count))))
	stats.Min = floatPtr(lo)
	stats.Max = floatPtr(hi)
	stats.Avg = floatPtr(avg)

	ref, ok := ParseDecimal(referenceRaw)
	if !ok {
		return stats
	}

	diff := avg.Sub(ref)
	stats.ReferencePrice = floatPtr(ref)
	stats.Diff = floatPtr(round2(diff))
	if !ref.IsZero() {
		stats.DiffPercent = floatPtr(round2(diff.Div(ref).Mul(hundred)))
	}

	return stats
}
