// Command calc runs both calculators once from the terminal against the
// built-in rent table.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"rental_yield/internal/adapters/observability"
	"rental_yield/internal/calculator"
	"rental_yield/internal/domain"
	"rental_yield/internal/shared"
)

type options struct {
	investment  float64
	location    string
	bedrooms    string
	fee         int
	guestClean  float64
	clientClean float64
	linen       float64
}

func main() {
	var o options
	fs := flag.NewFlagSet("calc", flag.ExitOnError)
	fs.Float64Var(&o.investment, "investment", 0, "amount invested (£)")
	fs.StringVar(&o.location, "location", "City Centre", `location zone: "City Centre" or "West End"`)
	fs.StringVar(&o.bedrooms, "bedrooms", "", "Studio, 1, 2, 3 or 4")
	fs.IntVar(&o.fee, "fee", 0, "management fee tier (10, 15, 17 or 18); 0 skips the nightly rate")
	fs.Float64Var(&o.guestClean, "guest-clean", 0, "cleaning fee charged to the guest (£)")
	fs.Float64Var(&o.clientClean, "client-clean", 0, "cleaning cost paid by the owner (£)")
	fs.Float64Var(&o.linen, "linen", 0, "linen charge per clean (£)")
	_ = fs.Parse(os.Args[1:])

	// before Load, so config warnings use the console logger
	log.Logger = observability.NewLogger("dev", "calc")
	cfg := shared.Load()

	if err := run(os.Stdout, o, cfg.Policy(), domain.DefaultRentTable()); err != nil {
		var fe *domain.FeeError
		if errors.As(err, &fe) {
			// shown to the user verbatim
			fmt.Fprintln(os.Stderr, fe.Error())
			os.Exit(2)
		}
		log.Error().Err(err).Msg("calculation failed")
		os.Exit(1)
	}
}

// run prints the investment summary and, when a fee tier is given, the
// nightly rate needed to earn that monthly income.
func run(w io.Writer, o options, p calculator.Policy, table domain.RentTable) error {
	if o.investment <= 0 {
		return fmt.Errorf("%w: -investment must be greater than zero", domain.ErrInvalidInput)
	}
	loc, err := domain.ParseLocation(o.location)
	if err != nil {
		return err
	}
	beds, err := domain.ParseBedrooms(o.bedrooms)
	if err != nil {
		return err
	}

	res, err := p.ComputeReturn(o.investment, loc, beds, table)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Investment: %s in %s, %s bedrooms\n", domain.FormatGBP(res.Investment), res.Location, res.Bedrooms)
	fmt.Fprintf(w, "Average Monthly Income After All Fees (£): %s\n", domain.FormatGBP(res.MonthlyIncome))
	fmt.Fprintf(w, "Yield (%%): %.2f%%\n", res.YieldPercent)
	fmt.Fprintf(w, "Years to Return Investment: %s\n", res.YearsToReturn)

	if o.fee == 0 {
		return nil
	}
	nr, err := p.ComputeNightlyRate(domain.NightlyRateInput{
		TakeHome:       res.MonthlyIncome,
		ManagementFee:  domain.ManagementFeeTier(o.fee),
		GuestCleanFee:  o.guestClean,
		ClientCleanFee: o.clientClean,
		LinenCharge:    o.linen,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "To achieve an average monthly income of %s, your average nightly rate should be: %s\n",
		domain.FormatGBP(nr.TakeHome), domain.FormatGBP(nr.NightlyRate))
	return nil
}
