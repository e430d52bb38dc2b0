package domain

import "context"

type RentRepository interface {
	// Write paths
	UpsertRentRow(ctx context.Context, r RentRow, source string) error
	LogMiss(ctx context.Context, bedrooms BedroomCategory, status int, reason string) error
	SaveCalculation(ctx context.Context, rec CalculationRecord) error

	// Read paths
	ListRentRows(ctx context.Context) ([]RentRow, error)
	GetCalculation(ctx context.Context, id string) (CalculationRecord, error)
}

type RatesClient interface {
	GetRent(ctx context.Context, bedrooms BedroomCategory) (map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
