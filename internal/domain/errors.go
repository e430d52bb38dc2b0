package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrLookup       = errors.New("rent lookup failed") // category or location outside the table
	ErrDivision     = errors.New("division by zero")   // investment or monthly income is zero
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrAccessDenied = errors.New("access denied")
)

// FeeError reports a management fee outside the allowed tiers. Its message
// is shown to the user as-is.
type FeeError struct {
	Tier    ManagementFeeTier
	Allowed []ManagementFeeTier
}

func (e *FeeError) Error() string {
	return "Invalid management fee. Please choose from " + listTiers(e.Allowed) + "."
}

func listTiers(ts []ManagementFeeTier) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = strconv.Itoa(int(t))
	}
	switch len(parts) {
	case 0:
		return "no configured tiers"
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " or " + parts[1]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + ", or " + parts[len(parts)-1]
}

// CalculationError wraps an unexpected arithmetic fault on the nightly rate path.
type CalculationError struct {
	Err error
}

func (e *CalculationError) Error() string { return fmt.Sprintf("calculation failed: %v", e.Err) }

func (e *CalculationError) Unwrap() error { return e.Err }
