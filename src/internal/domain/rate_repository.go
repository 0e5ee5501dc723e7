package domain

import "context"

type RateRepository interface {
	GetRates(ctx context.Context, limit int, offset int) ([]Rate, error)
	GetLatestRate(ctx context.Context, fromCurrency string, toCurrency string) (Rate, error)
}
