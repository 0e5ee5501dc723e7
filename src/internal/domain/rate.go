package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const SyntheticRateProvider = "synthetic"

type Rate struct {
	ID           int64
	FromCurrency string
	ToCurrency   string
	Rate         decimal.Decimal
	Provider     string
	Timestamp    time.Time
}

// UnitRate is the rate for a same-currency pair. It is never persisted.
func UnitRate(currency string, at time.Time) Rate {
	return Rate{
		FromCurrency: currency,
		ToCurrency:   currency,
		Rate:         decimal.NewFromInt(1),
		Provider:     SyntheticRateProvider,
		Timestamp:    at,
	}
}

type FXTransaction struct {
	TransactionID string
	AmountFrom    decimal.Decimal
	AmountTo      decimal.Decimal
	CurrencyFrom  string
	CurrencyTo    string
	Route         string
	Rate          decimal.Decimal
	Fee           decimal.Decimal
	CreatedAt     time.Time
}
