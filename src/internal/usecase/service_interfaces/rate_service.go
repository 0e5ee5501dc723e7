package service_interfaces

import (
	"context"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

type RateService interface {
	GetRates(ctx context.Context, limit int, offset int) ([]domain.Rate, error)
	GetRate(ctx context.Context, fromCurrency string, toCurrency string) (domain.Rate, error)
	Quote(ctx context.Context, amount decimal.Decimal, fromCurrency string, toCurrency string) (domain.FXQuote, error)
}

type FXService interface {
	Convert(ctx context.Context, req domain.ConvertRequest) (domain.ConvertResult, error)
}
