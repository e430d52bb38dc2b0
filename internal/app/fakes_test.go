package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"rental_yield/internal/domain"
)

// ---- fakes ----

type miss struct {
	bedrooms domain.BedroomCategory
	status   int
}

type fakeRepo struct {
	mu       sync.Mutex
	rows     []domain.RentRow
	listErr  error
	saveErr  error
	upserted []domain.RentRow
	misses   []miss
	calcs    map[string]domain.CalculationRecord
	lists    int
}

func (f *fakeRepo) UpsertRentRow(ctx context.Context, r domain.RentRow, source string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, r)
	return nil
}
func (f *fakeRepo) LogMiss(ctx context.Context, b domain.BedroomCategory, status int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.misses = append(f.misses, miss{b, status})
	return nil
}
func (f *fakeRepo) SaveCalculation(ctx context.Context, rec domain.CalculationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.calcs == nil {
		f.calcs = map[string]domain.CalculationRecord{}
	}
	f.calcs[rec.ID] = rec
	return nil
}
func (f *fakeRepo) ListRentRows(ctx context.Context) ([]domain.RentRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return append([]domain.RentRow(nil), f.rows...), f.listErr
}
func (f *fakeRepo) GetCalculation(ctx context.Context, id string) (domain.CalculationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.calcs[id]
	if !ok {
		return domain.CalculationRecord{}, domain.ErrNotFound
	}
	return rec, nil
}

// fakeCache stores JSON like the redis adapter does.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	dels  int
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	c.store[key] = b
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dels++
	delete(c.store, key)
	return nil
}

type fakeRates struct {
	payloads map[domain.BedroomCategory]map[string]any
	errs     map[domain.BedroomCategory]error
}

func (f *fakeRates) GetRent(ctx context.Context, b domain.BedroomCategory) (map[string]any, error) {
	if err := f.errs[b]; err != nil {
		return nil, err
	}
	p, ok := f.payloads[b]
	if !ok {
		return nil, errors.Join(errors.New("fake: no payload"), domain.ErrNotFound)
	}
	return p, nil
}
