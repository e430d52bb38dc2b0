package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"rental_yield/internal/domain"
)

const rentTableKey = "rent_table:v1"

// TableSource serves the current rent table: cache first, then storage,
// with the built-in rows filling any category storage does not cover.
type TableSource struct {
	repo     domain.RentRepository
	cache    domain.Cache
	cacheTTL time.Duration
	fallback domain.RentTable
}

func NewTableSource(r domain.RentRepository, c domain.Cache, ttl time.Duration, fallback domain.RentTable) *TableSource {
	return &TableSource{repo: r, cache: c, cacheTTL: ttl, fallback: fallback}
}

func (s *TableSource) Current(ctx context.Context) domain.RentTable {
	if s.cache != nil {
		var rows []domain.RentRow
		if ok, _ := s.cache.Get(ctx, rentTableKey, &rows); ok {
			if t, err := domain.NewRentTable(rows); err == nil && t.Complete() {
				return t
			}
		}
	}
	if s.repo == nil {
		return s.fallback
	}

	stored, err := s.repo.ListRentRows(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("rent table load failed, using built-in rows")
		return s.fallback
	}
	t, err := overlay(s.fallback, stored)
	if err != nil {
		log.Warn().Err(err).Msg("stored rent rows rejected, using built-in rows")
		return s.fallback
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, rentTableKey, t.Rows(), int(s.cacheTTL.Seconds()))
	}
	return t
}

// Invalidate drops the cached table so the next read goes to storage.
func (s *TableSource) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, rentTableKey); err != nil {
		log.Warn().Err(err).Msg("rent table cache invalidation failed")
	}
}

// overlay replaces base rows with stored rows of the same category, keeping
// base order. Stored categories missing from base are appended. A stored row
// that fails validation is skipped on its own, so its category keeps the
// base row.
func overlay(base domain.RentTable, stored []domain.RentRow) (domain.RentTable, error) {
	byCat := make(map[domain.BedroomCategory]domain.RentRow, len(stored))
	valid := make([]domain.RentRow, 0, len(stored))
	for _, r := range stored {
		if err := r.Validate(); err != nil {
			log.Warn().Err(err).Str("bedrooms", string(r.Bedrooms)).Msg("skipping stored rent row")
			continue
		}
		byCat[r.Bedrooms] = r
		valid = append(valid, r)
	}
	rows := base.Rows()
	for i, r := range rows {
		if s, ok := byCat[r.Bedrooms]; ok {
			rows[i] = s
			delete(byCat, r.Bedrooms)
		}
	}
	for _, r := range valid {
		if _, ok := byCat[r.Bedrooms]; ok {
			rows = append(rows, r)
			delete(byCat, r.Bedrooms)
		}
	}
	return domain.NewRentTable(rows)
}
