// Package calculator holds the two pure calculations: investment return from
// the rent table, and the nightly rate needed for a monthly take-home.
package calculator

import (
	"sort"

	"rental_yield/internal/domain"
)

const (
	// CleansPerMonthAssumption is how many cleans' worth of cleaning shortfall
	// is recovered each month.
	CleansPerMonthAssumption = 7
	// BookedNightsPerMonth is the assumed monthly occupancy.
	BookedNightsPerMonth = 21

	monthsPerYear = 12
)

// Gross-up multipliers per management fee tier. These are fixed lookup
// values, not 100/(100-fee).
var feeMultipliers = map[domain.ManagementFeeTier]float64{
	10: 100.0 / 69,
	15: 100.0 / 64,
	17: 100.0 / 60,
	18: 100.0 / 59,
}

// FeeMultipliers returns a copy of the built-in multiplier table.
func FeeMultipliers() map[domain.ManagementFeeTier]float64 {
	out := make(map[domain.ManagementFeeTier]float64, len(feeMultipliers))
	for k, v := range feeMultipliers {
		out[k] = v
	}
	return out
}

// Policy carries the business assumptions both calculations depend on.
type Policy struct {
	CleansPerMonth       float64
	BookedNightsPerMonth float64
	FeeMultipliers       map[domain.ManagementFeeTier]float64

	// CarryMonthOverflow turns "X years and 12 months" into "X+1 years and
	// 0 months". Off reproduces the raw payback split.
	CarryMonthOverflow bool
}

func DefaultPolicy() Policy {
	return Policy{
		CleansPerMonth:       CleansPerMonthAssumption,
		BookedNightsPerMonth: BookedNightsPerMonth,
		FeeMultipliers:       FeeMultipliers(),
		CarryMonthOverflow:   true,
	}
}

// Tiers returns the accepted management fee tiers in ascending order.
func (p Policy) Tiers() []domain.ManagementFeeTier {
	out := make([]domain.ManagementFeeTier, 0, len(p.FeeMultipliers))
	for t := range p.FeeMultipliers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (p Policy) Multiplier(t domain.ManagementFeeTier) (float64, bool) {
	m, ok := p.FeeMultipliers[t]
	return m, ok
}
