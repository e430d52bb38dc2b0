package calculator

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"rental_yield/internal/domain"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(monthsPerYear)

	// payback periods beyond this do not fit the result's int fields on every platform
	maxYears = decimal.NewFromInt(math.MaxInt32)
)

// ComputeReturn uses the default policy.
func ComputeReturn(investment float64, loc domain.Location, b domain.BedroomCategory, table domain.RentTable) (domain.InvestmentResult, error) {
	return DefaultPolicy().ComputeReturn(investment, loc, b, table)
}

// ComputeReturn looks up the monthly income for (b, loc) and derives the
// yield and payback period of investment. Rounding is half away from zero.
//
// The caller validates investment > 0; a zero investment or a zero income
// row yields ErrDivision.
func (p Policy) ComputeReturn(investment float64, loc domain.Location, b domain.BedroomCategory, table domain.RentTable) (domain.InvestmentResult, error) {
	row, err := table.Lookup(b)
	if err != nil {
		return domain.InvestmentResult{}, err
	}
	income, err := row.Income(loc)
	if err != nil {
		return domain.InvestmentResult{}, err
	}
	if math.IsNaN(investment) || math.IsInf(investment, 0) || math.IsNaN(income) || math.IsInf(income, 0) {
		return domain.InvestmentResult{}, fmt.Errorf("%w: investment and income must be finite", domain.ErrInvalidInput)
	}
	if investment == 0 {
		return domain.InvestmentResult{}, fmt.Errorf("%w: investment is zero", domain.ErrDivision)
	}
	if income == 0 {
		return domain.InvestmentResult{}, fmt.Errorf("%w: monthly income for %s bed in %s is zero", domain.ErrDivision, b, loc)
	}

	inv := decimal.NewFromFloat(investment)
	monthly := decimal.NewFromFloat(income)

	yearly := monthly.Mul(twelve)
	yield := yearly.Div(inv).Mul(hundred).Round(2)

	totalMonths := inv.Div(monthly)
	wholeYears := totalMonths.Div(twelve).Floor()
	if wholeYears.Abs().GreaterThan(maxYears) {
		return domain.InvestmentResult{}, fmt.Errorf("%w: payback period exceeds %s years", domain.ErrInvalidInput, maxYears)
	}
	years := int(wholeYears.IntPart())
	months := int(totalMonths.Mod(twelve).Round(0).IntPart())
	if months == monthsPerYear && p.CarryMonthOverflow {
		years++
		months = 0
	}

	return domain.InvestmentResult{
		Bedrooms:      b,
		Location:      loc,
		Investment:    investment,
		MonthlyIncome: income,
		YieldPercent:  yield.InexactFloat64(),
		YearsToReturn: domain.YearsToReturn{Years: years, Months: months},
	}, nil
}
