package domain

import (
	"fmt"
	"math"
	"strings"
)

type BedroomCategory string

const (
	Studio   BedroomCategory = "Studio"
	OneBed   BedroomCategory = "1"
	TwoBed   BedroomCategory = "2"
	ThreeBed BedroomCategory = "3"
	FourBed  BedroomCategory = "4"
)

// BedroomCategories lists the categories in table order.
var BedroomCategories = []BedroomCategory{Studio, OneBed, TwoBed, ThreeBed, FourBed}

func (b BedroomCategory) Valid() bool {
	switch b {
	case Studio, OneBed, TwoBed, ThreeBed, FourBed:
		return true
	}
	return false
}

// ParseBedrooms accepts "Studio" (any case), "0" for studio, and "1".."4".
func ParseBedrooms(s string) (BedroomCategory, error) {
	t := strings.TrimSpace(s)
	switch strings.ToLower(t) {
	case "studio", "0":
		return Studio, nil
	}
	if b := BedroomCategory(t); b.Valid() {
		return b, nil
	}
	return "", fmt.Errorf("%w: unknown bedroom category %q", ErrLookup, s)
}

type Location string

const (
	CityCentre Location = "City Centre"
	WestEnd    Location = "West End"
)

var Locations = []Location{CityCentre, WestEnd}

func (l Location) Valid() bool { return l == CityCentre || l == WestEnd }

// ParseLocation normalises spacing, case and separators ("west_end", "WestEnd").
func ParseLocation(s string) (Location, error) {
	k := strings.ToLower(s)
	k = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(k)
	switch k {
	case "citycentre", "citycenter", "centre", "center":
		return CityCentre, nil
	case "westend", "west":
		return WestEnd, nil
	}
	return "", fmt.Errorf("%w: unknown location %q", ErrLookup, s)
}

// RentRow holds the expected monthly income (GBP) of one bedroom category
// in each location zone.
type RentRow struct {
	Bedrooms   BedroomCategory `json:"bedrooms"`
	CityCentre float64         `json:"city_centre"`
	WestEnd    float64         `json:"west_end"`
}

func (r RentRow) Income(loc Location) (float64, error) {
	switch loc {
	case CityCentre:
		return r.CityCentre, nil
	case WestEnd:
		return r.WestEnd, nil
	}
	return 0, fmt.Errorf("%w: unknown location %q", ErrLookup, loc)
}

// Validate checks the category and that both incomes are finite and not
// negative.
func (r RentRow) Validate() error {
	if !r.Bedrooms.Valid() {
		return fmt.Errorf("%w: rent row with bedrooms %q", ErrInvalidInput, r.Bedrooms)
	}
	for _, v := range []float64{r.CityCentre, r.WestEnd} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: income %v for %q", ErrInvalidInput, v, r.Bedrooms)
		}
	}
	return nil
}

// RentTable is an immutable lookup of monthly income by bedroom category.
// The zero value is an empty table; every lookup on it fails with ErrLookup.
type RentTable struct {
	rows []RentRow
}

// NewRentTable validates rows: at most one row per known category and no
// negative incomes. Row order is preserved.
func NewRentTable(rows []RentRow) (RentTable, error) {
	seen := make(map[BedroomCategory]struct{}, len(rows))
	out := make([]RentRow, 0, len(rows))
	for _, r := range rows {
		if err := r.Validate(); err != nil {
			return RentTable{}, err
		}
		if _, dup := seen[r.Bedrooms]; dup {
			return RentTable{}, fmt.Errorf("%w: duplicate rent row for %q", ErrInvalidInput, r.Bedrooms)
		}
		seen[r.Bedrooms] = struct{}{}
		out = append(out, r)
	}
	return RentTable{rows: out}, nil
}

// Lookup returns the row for b, or ErrLookup.
func (t RentTable) Lookup(b BedroomCategory) (RentRow, error) {
	for _, r := range t.rows {
		if r.Bedrooms == b {
			return r, nil
		}
	}
	return RentRow{}, fmt.Errorf("%w: no rent row for bedrooms %q", ErrLookup, b)
}

// Rows returns a copy of the table rows.
func (t RentTable) Rows() []RentRow {
	out := make([]RentRow, len(t.rows))
	copy(out, t.rows)
	return out
}

func (t RentTable) Len() int { return len(t.rows) }

// Complete reports whether every bedroom category has a row.
func (t RentTable) Complete() bool {
	for _, b := range BedroomCategories {
		if _, err := t.Lookup(b); err != nil {
			return false
		}
	}
	return true
}

var defaultRows = []RentRow{
	{Bedrooms: Studio, CityCentre: 1120, WestEnd: 1050},
	{Bedrooms: OneBed, CityCentre: 1385, WestEnd: 1290},
	{Bedrooms: TwoBed, CityCentre: 1703, WestEnd: 1610},
	{Bedrooms: ThreeBed, CityCentre: 2190, WestEnd: 2045},
	{Bedrooms: FourBed, CityCentre: 2640, WestEnd: 2480},
}

// DefaultRentTable is the built-in table: average monthly income after all
// fees, per bedroom count, for the two location zones.
func DefaultRentTable() RentTable {
	t, _ := NewRentTable(defaultRows)
	return t
}
