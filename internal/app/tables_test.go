package app_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"rental_yield/internal/app"
	"rental_yield/internal/domain"
)

func TestTableSource_NoStorageUsesFallback(t *testing.T) {
	ts := app.NewTableSource(nil, nil, time.Minute, domain.DefaultRentTable())
	got := ts.Current(context.Background())
	if !got.Complete() {
		t.Fatalf("expected complete built-in table")
	}
	row, _ := got.Lookup(domain.TwoBed)
	if row.CityCentre != 1703 {
		t.Fatalf("unexpected 2-bed row: %+v", row)
	}
}

func TestTableSource_OverlayThenCache(t *testing.T) {
	repo := &fakeRepo{rows: []domain.RentRow{{Bedrooms: domain.TwoBed, CityCentre: 1800, WestEnd: 1700}}}
	cache := &fakeCache{}
	ts := app.NewTableSource(repo, cache, time.Minute, domain.DefaultRentTable())

	// Miss (first time, populates cache)
	got := ts.Current(context.Background())
	row, _ := got.Lookup(domain.TwoBed)
	if row.CityCentre != 1800 {
		t.Fatalf("stored row not applied: %+v", row)
	}
	studio, _ := got.Lookup(domain.Studio)
	if studio.CityCentre != 1120 {
		t.Fatalf("built-in row lost: %+v", studio)
	}
	if got.Rows()[0].Bedrooms != domain.Studio {
		t.Fatalf("table order changed: %+v", got.Rows())
	}

	// Mutate repo to ensure second read indeed comes from cache
	repo.rows[0].CityCentre = 9999
	got = ts.Current(context.Background())
	row, _ = got.Lookup(domain.TwoBed)
	if row.CityCentre != 1800 || repo.lists != 1 {
		t.Fatalf("expected cached table, got %+v after %d loads", row, repo.lists)
	}

	// Invalidate -> storage again
	ts.Invalidate(context.Background())
	row, _ = ts.Current(context.Background()).Lookup(domain.TwoBed)
	if row.CityCentre != 9999 {
		t.Fatalf("expected fresh row after invalidation, got %+v", row)
	}
}

func TestTableSource_StorageFailureFallsBack(t *testing.T) {
	repo := &fakeRepo{listErr: errors.New("db down")}
	ts := app.NewTableSource(repo, &fakeCache{}, time.Minute, domain.DefaultRentTable())
	row, err := ts.Current(context.Background()).Lookup(domain.TwoBed)
	if err != nil || row.CityCentre != 1703 {
		t.Fatalf("expected built-in row, got %+v (%v)", row, err)
	}
}

func TestTableSource_BadStoredRowsFallBack(t *testing.T) {
	repo := &fakeRepo{rows: []domain.RentRow{{Bedrooms: domain.OneBed, CityCentre: -5, WestEnd: 10}}}
	ts := app.NewTableSource(repo, nil, time.Minute, domain.DefaultRentTable())
	row, _ := ts.Current(context.Background()).Lookup(domain.OneBed)
	if row.CityCentre != 1385 {
		t.Fatalf("negative stored income must be rejected, got %+v", row)
	}
}

func TestTableSource_BadStoredRowSkippedAlone(t *testing.T) {
	repo := &fakeRepo{rows: []domain.RentRow{
		{Bedrooms: "Penthouse", CityCentre: 9000, WestEnd: 8000},
		{Bedrooms: domain.TwoBed, CityCentre: 1800, WestEnd: 1700},
		{Bedrooms: domain.ThreeBed, CityCentre: math.NaN(), WestEnd: 1},
	}}
	cache := &fakeCache{}
	ts := app.NewTableSource(repo, cache, time.Minute, domain.DefaultRentTable())

	got := ts.Current(context.Background())
	if !got.Complete() || got.Len() != 5 {
		t.Fatalf("expected the full table, got %+v", got.Rows())
	}
	if row, _ := got.Lookup(domain.TwoBed); row.CityCentre != 1800 {
		t.Fatalf("valid stored row not applied: %+v", row)
	}
	if row, _ := got.Lookup(domain.ThreeBed); row.CityCentre != 2190 {
		t.Fatalf("bad stored row must leave the built-in one: %+v", row)
	}
	if _, err := got.Lookup("Penthouse"); !errors.Is(err, domain.ErrLookup) {
		t.Fatalf("unknown category must not be served, got %v", err)
	}
	if len(cache.store) != 1 {
		t.Fatalf("overlaid table should be cached, got %d keys", len(cache.store))
	}
}
