package calculator

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"rental_yield/internal/domain"
)

// ComputeNightlyRate uses the default policy.
func ComputeNightlyRate(takeHome float64, tier domain.ManagementFeeTier, guestCleanFee, clientCleanFee, linenCharge float64) (domain.NightlyRateResult, error) {
	return DefaultPolicy().ComputeNightlyRate(domain.NightlyRateInput{
		TakeHome:       takeHome,
		ManagementFee:  tier,
		GuestCleanFee:  guestCleanFee,
		ClientCleanFee: clientCleanFee,
		LinenCharge:    linenCharge,
	})
}

// ComputeNightlyRate returns the average nightly rate needed so that, after
// the management fee and cleaning shortfall, the owner keeps in.TakeHome a
// month.
//
// Only a shortfall (client clean + linen above what the guest pays) raises
// the target; a surplus is ignored and never lowers it.
func (p Policy) ComputeNightlyRate(in domain.NightlyRateInput) (domain.NightlyRateResult, error) {
	mult, ok := p.Multiplier(in.ManagementFee)
	if !ok {
		return domain.NightlyRateResult{}, &domain.FeeError{Tier: in.ManagementFee, Allowed: p.Tiers()}
	}

	vals, err := decimals(map[string]float64{
		"take_home":        in.TakeHome,
		"guest_clean_fee":  in.GuestCleanFee,
		"client_clean_fee": in.ClientCleanFee,
		"linen_charge":     in.LinenCharge,
		"cleans_per_month": p.CleansPerMonth,
		"booked_nights":    p.BookedNightsPerMonth,
		"fee_multiplier":   mult,
	})
	if err != nil {
		return domain.NightlyRateResult{}, &domain.CalculationError{Err: err}
	}

	takeHome := vals["take_home"]
	extra := vals["client_clean_fee"].Add(vals["linen_charge"]).Sub(vals["guest_clean_fee"])
	adjusted := takeHome
	if extra.IsPositive() {
		adjusted = adjusted.Add(extra.Mul(vals["cleans_per_month"]))
	}

	rate, err := perNight(adjusted.Mul(vals["fee_multiplier"]), vals["booked_nights"])
	if err != nil {
		return domain.NightlyRateResult{}, &domain.CalculationError{Err: err}
	}

	return domain.NightlyRateResult{
		TakeHome:          in.TakeHome,
		ManagementFee:     in.ManagementFee,
		ExtraCleaningCost: extra.InexactFloat64(),
		AdjustedTakeHome:  adjusted.InexactFloat64(),
		NightlyRate:       rate.InexactFloat64(),
	}, nil
}

// decimals converts every named input, refusing NaN and infinities.
func decimals(in map[string]float64) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(in))
	for name, v := range in {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%s is not finite (%v)", name, v)
		}
		out[name] = decimal.NewFromFloat(v)
	}
	return out, nil
}

func perNight(gross, nights decimal.Decimal) (decimal.Decimal, error) {
	if nights.IsZero() {
		return decimal.Zero, errors.New("booked nights per month is zero")
	}
	return gross.Div(nights), nil
}
