// internal/adapters/http_server/handlers.go
package httpserver

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"rental_yield/internal/adapters/observability"
	"rental_yield/internal/app"
	"rental_yield/internal/domain"
)

const maxBodyBytes = 1 << 20

type Handlers struct{ Calc *app.CalculationService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/rent-table", h.getRentTable)
	s.mux.Get("/v1/fee-tiers", h.getFeeTiers)
	s.mux.Get("/v1/calculations/{id}", h.getCalculation)

	s.mux.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware)
		}
		r.Post("/v1/investments/return", h.postReturn)
		r.Post("/v1/nightly-rate", h.postNightlyRate)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeCalcError maps calculator and validation errors to problem documents.
func writeCalcError(w http.ResponseWriter, err error) {
	var fe *domain.FeeError
	var ce *domain.CalculationError
	switch {
	case errors.As(err, &fe):
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid management fee", fe.Error())
	case errors.As(err, &ce):
		log.Error().Err(err).Msg("nightly rate calculation failed")
		writeProblem(w, http.StatusInternalServerError, "Calculation failed", ce.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeProblem(w, http.StatusBadRequest, "Invalid input", err.Error())
	case errors.Is(err, domain.ErrLookup):
		writeProblem(w, http.StatusUnprocessableEntity, "Rent lookup failed", err.Error())
	case errors.Is(err, domain.ErrDivision):
		writeProblem(w, http.StatusUnprocessableEntity, "Division by zero", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "calculation not found")
	default:
		log.Error().Err(err).Msg("unhandled calculation error")
		writeProblem(w, http.StatusInternalServerError, "Internal error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		// Log but don't fail the whole response; return empty ETag and best-effort body.
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return false
	}
	return true
}

// flexString accepts both "2" and 2 for fields users type as numbers.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

// ---- rent table / tiers ----

func (h *Handlers) getRentTable(w http.ResponseWriter, r *http.Request) {
	rows := h.Calc.RentTable(r.Context()).Rows()
	resp := struct {
		Rows []domain.RentRow `json:"rows"`
	}{Rows: rows}

	etag, body := calcETagAndBody(resp)
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write rent table body")
	}
}

type feeTier struct {
	Tier       domain.ManagementFeeTier `json:"tier"`
	Multiplier float64                  `json:"multiplier"`
}

func (h *Handlers) getFeeTiers(w http.ResponseWriter, r *http.Request) {
	p := h.Calc.Policy()
	out := struct {
		Tiers                []feeTier `json:"tiers"`
		CleansPerMonth       float64   `json:"cleans_per_month"`
		BookedNightsPerMonth float64   `json:"booked_nights_per_month"`
	}{CleansPerMonth: p.CleansPerMonth, BookedNightsPerMonth: p.BookedNightsPerMonth}
	for _, t := range p.Tiers() {
		m, _ := p.Multiplier(t)
		out.Tiers = append(out.Tiers, feeTier{Tier: t, Multiplier: m})
	}
	writeJSON(w, http.StatusOK, out)
}

// ---- calculators ----

type returnBody struct {
	Investment *float64   `json:"investment"`
	Location   flexString `json:"location"`
	Bedrooms   flexString `json:"bedrooms"`
}

type returnDisplay struct {
	MonthlyIncome string `json:"monthly_income"`
	Yield         string `json:"yield"`
	YearsToReturn string `json:"years_to_return"`
}

func (h *Handlers) postReturn(w http.ResponseWriter, r *http.Request) {
	var in returnBody
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Investment == nil {
		writeProblem(w, http.StatusBadRequest, "Invalid input", "investment is required")
		return
	}
	// unknown names are lookup failures, same as a missing table row
	loc, err := domain.ParseLocation(string(in.Location))
	if err != nil {
		writeCalcError(w, err)
		return
	}
	beds, err := domain.ParseBedrooms(string(in.Bedrooms))
	if err != nil {
		writeCalcError(w, err)
		return
	}

	out, err := h.Calc.Return(r.Context(), app.ReturnRequest{Investment: *in.Investment, Location: loc, Bedrooms: beds})
	observability.ObserveCalculation(domain.KindReturn, err)
	if err != nil {
		writeCalcError(w, err)
		return
	}
	res := out.Result
	writeJSON(w, http.StatusOK, struct {
		app.Recorded[domain.InvestmentResult]
		Display returnDisplay `json:"display"`
	}{
		Recorded: out,
		Display: returnDisplay{
			MonthlyIncome: domain.FormatGBP(res.MonthlyIncome),
			Yield:         strconv.FormatFloat(res.YieldPercent, 'f', 2, 64) + "%",
			YearsToReturn: res.YearsToReturn.String(),
		},
	})
}

type nightlyBody struct {
	TakeHome       *float64                  `json:"take_home"`
	ManagementFee  *domain.ManagementFeeTier `json:"management_fee"`
	GuestCleanFee  float64                   `json:"guest_clean_fee"`
	ClientCleanFee float64                   `json:"client_clean_fee"`
	LinenCharge    float64                   `json:"linen_charge"`
}

type nightlyDisplay struct {
	NightlyRate string `json:"nightly_rate"`
	Summary     string `json:"summary"`
}

func (h *Handlers) postNightlyRate(w http.ResponseWriter, r *http.Request) {
	var in nightlyBody
	if !decodeBody(w, r, &in) {
		return
	}
	if in.TakeHome == nil || in.ManagementFee == nil {
		writeProblem(w, http.StatusBadRequest, "Invalid input", "take_home and management_fee are required")
		return
	}

	out, err := h.Calc.NightlyRate(r.Context(), domain.NightlyRateInput{
		TakeHome:       *in.TakeHome,
		ManagementFee:  *in.ManagementFee,
		GuestCleanFee:  in.GuestCleanFee,
		ClientCleanFee: in.ClientCleanFee,
		LinenCharge:    in.LinenCharge,
	})
	observability.ObserveCalculation(domain.KindNightlyRate, err)
	if err != nil {
		writeCalcError(w, err)
		return
	}
	res := out.Result
	rate := domain.FormatGBP(res.NightlyRate)
	writeJSON(w, http.StatusOK, struct {
		app.Recorded[domain.NightlyRateResult]
		Display nightlyDisplay `json:"display"`
	}{
		Recorded: out,
		Display: nightlyDisplay{
			NightlyRate: rate,
			Summary: fmt.Sprintf("To achieve an average monthly income of %s, your average nightly rate should be: %s",
				domain.FormatGBP(res.TakeHome), rate),
		},
	})
}

// ---- history ----

type calculationView struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Input     json.RawMessage `json:"input"`
	Output    json.RawMessage `json:"output"`
	CreatedAt time.Time       `json:"created_at"`
}

func (h *Handlers) getCalculation(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Calc.Calculation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeCalcError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, calculationView{
		ID:        rec.ID,
		Kind:      rec.Kind,
		Input:     json.RawMessage(rec.InputJSON),
		Output:    json.RawMessage(rec.OutputJSON),
		CreatedAt: rec.CreatedAt,
	})
}
