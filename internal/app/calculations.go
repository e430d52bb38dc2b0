package app

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"rental_yield/internal/calculator"
	"rental_yield/internal/domain"
)

// CalculationService is the caller side of the two calculators: it checks
// inputs, picks the rent table and keeps a history of what was computed.
type CalculationService struct {
	tables  *TableSource
	history domain.RentRepository
	policy  calculator.Policy
	now     func() time.Time
}

func NewCalculationService(t *TableSource, history domain.RentRepository, p calculator.Policy) *CalculationService {
	return &CalculationService{tables: t, history: history, policy: p, now: time.Now}
}

type ReturnRequest struct {
	Investment float64                `json:"investment"`
	Location   domain.Location        `json:"location"`
	Bedrooms   domain.BedroomCategory `json:"bedrooms"`
}

// Recorded pairs a result with the history ID it was stored under ("" when
// no history is kept or the write failed).
type Recorded[T any] struct {
	ID     string `json:"id,omitempty"`
	Result T      `json:"result"`
}

func (s *CalculationService) Policy() calculator.Policy { return s.policy }

func (s *CalculationService) RentTable(ctx context.Context) domain.RentTable {
	return s.tables.Current(ctx)
}

func (s *CalculationService) Return(ctx context.Context, req ReturnRequest) (Recorded[domain.InvestmentResult], error) {
	if !finite(req.Investment) || req.Investment <= 0 {
		return Recorded[domain.InvestmentResult]{}, fmt.Errorf("%w: investment must be greater than zero", domain.ErrInvalidInput)
	}
	res, err := s.policy.ComputeReturn(req.Investment, req.Location, req.Bedrooms, s.tables.Current(ctx))
	if err != nil {
		return Recorded[domain.InvestmentResult]{}, err
	}
	return Recorded[domain.InvestmentResult]{ID: s.record(ctx, domain.KindReturn, req, res), Result: res}, nil
}

func (s *CalculationService) NightlyRate(ctx context.Context, in domain.NightlyRateInput) (Recorded[domain.NightlyRateResult], error) {
	if !finite(in.TakeHome) || in.TakeHome < 0 {
		return Recorded[domain.NightlyRateResult]{}, fmt.Errorf("%w: take-home must be zero or more", domain.ErrInvalidInput)
	}
	fees := []struct {
		name string
		v    float64
	}{
		{"guest cleaning fee", in.GuestCleanFee},
		{"client cleaning fee", in.ClientCleanFee},
		{"linen charge", in.LinenCharge},
	}
	for _, f := range fees {
		if !finite(f.v) || f.v < 0 {
			return Recorded[domain.NightlyRateResult]{}, fmt.Errorf("%w: %s must be zero or more", domain.ErrInvalidInput, f.name)
		}
	}
	res, err := s.policy.ComputeNightlyRate(in)
	if err != nil {
		return Recorded[domain.NightlyRateResult]{}, err
	}
	return Recorded[domain.NightlyRateResult]{ID: s.record(ctx, domain.KindNightlyRate, in, res), Result: res}, nil
}

// Calculation fetches a stored history entry.
func (s *CalculationService) Calculation(ctx context.Context, id string) (domain.CalculationRecord, error) {
	if s.history == nil {
		return domain.CalculationRecord{}, domain.ErrNotFound
	}
	if _, err := uuid.Parse(id); err != nil {
		return domain.CalculationRecord{}, fmt.Errorf("%w: calculation id %q", domain.ErrInvalidInput, id)
	}
	return s.history.GetCalculation(ctx, id)
}

// record is best effort: a failed history write never fails the calculation.
func (s *CalculationService) record(ctx context.Context, kind string, in, out any) string {
	if s.history == nil {
		return ""
	}
	inJSON, err := json.Marshal(in)
	if err != nil {
		log.Error().Err(err).Str("kind", kind).Msg("marshal calculation input failed")
		return ""
	}
	outJSON, err := json.Marshal(out)
	if err != nil {
		log.Error().Err(err).Str("kind", kind).Msg("marshal calculation output failed")
		return ""
	}
	rec := domain.CalculationRecord{
		ID:         uuid.NewString(),
		Kind:       kind,
		InputJSON:  inJSON,
		OutputJSON: outJSON,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.history.SaveCalculation(ctx, rec); err != nil {
		log.Warn().Err(err).Str("kind", kind).Msg("save calculation failed")
		return ""
	}
	return rec.ID
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
