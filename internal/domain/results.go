package domain

import (
	"fmt"
	"time"
)

// ManagementFeeTier is a rental manager's cut, in percent.
type ManagementFeeTier int

// YearsToReturn is the payback period split into whole years and months.
type YearsToReturn struct {
	Years  int `json:"years"`
	Months int `json:"months"`
}

func (y YearsToReturn) String() string {
	return fmt.Sprintf("%d years and %d months", y.Years, y.Months)
}

type InvestmentResult struct {
	Bedrooms      BedroomCategory `json:"bedrooms"`
	Location      Location        `json:"location"`
	Investment    float64         `json:"investment"`
	MonthlyIncome float64         `json:"monthly_income"`
	YieldPercent  float64         `json:"yield_percent"`
	YearsToReturn YearsToReturn   `json:"years_to_return"`
}

type NightlyRateInput struct {
	TakeHome       float64           `json:"take_home"`
	ManagementFee  ManagementFeeTier `json:"management_fee"`
	GuestCleanFee  float64           `json:"guest_clean_fee"`
	ClientCleanFee float64           `json:"client_clean_fee"`
	LinenCharge    float64           `json:"linen_charge"`
}

type NightlyRateResult struct {
	TakeHome          float64           `json:"take_home"`
	ManagementFee     ManagementFeeTier `json:"management_fee"`
	ExtraCleaningCost float64           `json:"extra_cleaning_cost"`
	AdjustedTakeHome  float64           `json:"adjusted_take_home"`
	NightlyRate       float64           `json:"nightly_rate"`
}

// CalculationRecord is one row of the calculation history log.
type CalculationRecord struct {
	ID         string
	Kind       string // return|nightly_rate
	InputJSON  []byte
	OutputJSON []byte
	CreatedAt  time.Time
}

const (
	KindReturn      = "return"
	KindNightlyRate = "nightly_rate"
)

// FormatGBP renders an amount the way results are displayed: £1234.50.
func FormatGBP(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-£%.2f", -v)
	}
	return fmt.Sprintf("£%.2f", v)
}
