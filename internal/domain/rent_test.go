package domain_test

import (
	"errors"
	"math"
	"testing"

	"rental_yield/internal/domain"
)

func TestParseBedrooms(t *testing.T) {
	cases := map[string]domain.BedroomCategory{
		"Studio": domain.Studio,
		"studio": domain.Studio,
		"0":      domain.Studio,
		" 2 ":    domain.TwoBed,
		"4":      domain.FourBed,
	}
	for in, want := range cases {
		got, err := domain.ParseBedrooms(in)
		if err != nil || got != want {
			t.Fatalf("ParseBedrooms(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := domain.ParseBedrooms("5"); !errors.Is(err, domain.ErrLookup) {
		t.Fatalf("expected ErrLookup, got %v", err)
	}
}

func TestParseLocation(t *testing.T) {
	for _, in := range []string{"City Centre", "city_centre", "CityCentre", "city-center"} {
		if got, err := domain.ParseLocation(in); err != nil || got != domain.CityCentre {
			t.Fatalf("ParseLocation(%q) = %q, %v", in, got, err)
		}
	}
	for _, in := range []string{"West End", "west_end", "WESTEND"} {
		if got, err := domain.ParseLocation(in); err != nil || got != domain.WestEnd {
			t.Fatalf("ParseLocation(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := domain.ParseLocation("Southside"); !errors.Is(err, domain.ErrLookup) {
		t.Fatalf("expected ErrLookup, got %v", err)
	}
}

func TestNewRentTable_Validation(t *testing.T) {
	dup := []domain.RentRow{
		{Bedrooms: domain.OneBed, CityCentre: 1000, WestEnd: 900},
		{Bedrooms: domain.OneBed, CityCentre: 1100, WestEnd: 950},
	}
	if _, err := domain.NewRentTable(dup); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for duplicate, got %v", err)
	}
	neg := []domain.RentRow{{Bedrooms: domain.TwoBed, CityCentre: -1, WestEnd: 900}}
	if _, err := domain.NewRentTable(neg); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative income, got %v", err)
	}
	bad := []domain.RentRow{{Bedrooms: "Penthouse", CityCentre: 1, WestEnd: 1}}
	if _, err := domain.NewRentTable(bad); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown category, got %v", err)
	}
}

func TestRentRow_Validate(t *testing.T) {
	if err := (domain.RentRow{Bedrooms: domain.Studio, CityCentre: 0, WestEnd: 1050}).Validate(); err != nil {
		t.Fatalf("zero income is allowed: %v", err)
	}
	bad := map[string]domain.RentRow{
		"category": {Bedrooms: "5", CityCentre: 1, WestEnd: 1},
		"negative": {Bedrooms: domain.OneBed, CityCentre: 1, WestEnd: -1},
		"nan":      {Bedrooms: domain.OneBed, CityCentre: math.NaN(), WestEnd: 1},
		"inf":      {Bedrooms: domain.OneBed, CityCentre: 1, WestEnd: math.Inf(1)},
	}
	for name, r := range bad {
		if err := r.Validate(); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}
}

func TestDefaultRentTable(t *testing.T) {
	tbl := domain.DefaultRentTable()
	if tbl.Len() != 5 || !tbl.Complete() {
		t.Fatalf("default table incomplete: %+v", tbl.Rows())
	}
	row, err := tbl.Lookup(domain.TwoBed)
	if err != nil || row.CityCentre != 1703 {
		t.Fatalf("unexpected 2 bed row: %+v, %v", row, err)
	}

	// Rows hands out a copy.
	rows := tbl.Rows()
	rows[0].CityCentre = 1
	if again, _ := tbl.Lookup(rows[0].Bedrooms); again.CityCentre == 1 {
		t.Fatalf("table mutated through Rows()")
	}
}

func TestFeeErrorMessage(t *testing.T) {
	e := &domain.FeeError{Tier: 12, Allowed: []domain.ManagementFeeTier{10, 15}}
	if got := e.Error(); got != "Invalid management fee. Please choose from 10 or 15." {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestFormatting(t *testing.T) {
	if got := domain.FormatGBP(1703); got != "£1703.00" {
		t.Fatalf("FormatGBP: %s", got)
	}
	if got := (domain.YearsToReturn{Years: 4, Months: 11}).String(); got != "4 years and 11 months" {
		t.Fatalf("YearsToReturn: %s", got)
	}
}
