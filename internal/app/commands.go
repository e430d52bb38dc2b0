package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"rental_yield/internal/domain"
)

const rateSource = "ratesapi"

type RateSyncService struct {
	rates  domain.RatesClient
	repo   domain.RentRepository
	tables *TableSource
}

func NewRateSyncService(c domain.RatesClient, r domain.RentRepository, t *TableSource) *RateSyncService {
	return &RateSyncService{rates: c, repo: r, tables: t}
}

// SyncCategory refreshes one bedroom category from the rates feed. A 404 or
// 401/403 from the feed is recorded as a miss and is not an error: the
// stored row (or the built-in one) keeps serving. An empty or unusable
// quote is recorded as a 422 miss and returned.
func (s *RateSyncService) SyncCategory(ctx context.Context, b domain.BedroomCategory) error {
	if !b.Valid() {
		return fmt.Errorf("%w: bedrooms %q", domain.ErrInvalidInput, b)
	}

	payload, err := s.rates.GetRent(ctx, b)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			_ = s.repo.LogMiss(ctx, b, 404, "not found")
			return nil
		case errors.Is(err, domain.ErrAccessDenied):
			_ = s.repo.LogMiss(ctx, b, 403, "access denied")
			return nil
		case errors.Is(err, domain.ErrInvalidInput):
			// feed answered without a usable quote (e.g. 204 or {})
			_ = s.repo.LogMiss(ctx, b, 422, "empty quote")
			return err
		}
		// network/5xx/JSON: surface it
		return err
	}

	row, err := mapRentQuote(b, payload)
	if err != nil {
		_ = s.repo.LogMiss(ctx, b, 422, "unusable quote")
		return fmt.Errorf("map rent quote for %s: %w", b, err)
	}

	if err := s.repo.UpsertRentRow(ctx, row, rateSource); err != nil {
		return fmt.Errorf("upsert rent row for %s: %w", b, err)
	}

	// New stored row: drop the cached table so readers pick it up.
	if s.tables != nil {
		s.tables.Invalidate(ctx)
	}
	return nil
}

// SyncAll refreshes every bedroom category with at most workers in flight
// and returns each category's outcome (nil on success or recorded miss).
func (s *RateSyncService) SyncAll(ctx context.Context, workers int) map[domain.BedroomCategory]error {
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		out = make(map[domain.BedroomCategory]error, len(domain.BedroomCategories))
	)
	set := func(b domain.BedroomCategory, err error) {
		mu.Lock()
		out[b] = err
		mu.Unlock()
	}

	for _, b := range domain.BedroomCategories {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			set(b, err)
			continue
		}
		wg.Add(1)
		go func(b domain.BedroomCategory) {
			defer wg.Done()
			defer sem.Release(1)
			set(b, s.SyncCategory(ctx, b))
		}(b)
	}

	wg.Wait()
	return out
}
