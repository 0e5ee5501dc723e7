package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/api-sage/fcy-ledger/src/internal/logger"
)

var _ domain.RateRepository = (*RateRepository)(nil)

type RateRepository struct {
	db *sql.DB
}

func NewRateRepository(db *sql.DB) *RateRepository {
	return &RateRepository{db: db}
}

// EnsureDefaultRates seeds the given reference rates when the table is empty.
func (r *RateRepository) EnsureDefaultRates(ctx context.Context, defaults []domain.Rate) error {
	logger.Info("rate repository ensure default rates", nil)

	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM rates`).Scan(&count); err != nil {
		logger.Error("rate repository ensure default rates failed", err, nil)
		return fmt.Errorf("count rates: %w", err)
	}
	if count > 0 {
		return nil
	}

	const query = `
INSERT INTO rates (from_currency, to_currency, rate, provider)
VALUES ($1, $2, $3::numeric, $4)`

	for _, rate := range defaults {
		if _, err := r.db.ExecContext(ctx, query, rate.FromCurrency, rate.ToCurrency, rate.Rate.String(), rate.Provider); err != nil {
			logger.Error("rate repository ensure default rates failed", err, logger.Fields{
				"fromCurrency": rate.FromCurrency,
				"toCurrency":   rate.ToCurrency,
			})
			return fmt.Errorf("ensure default rates: %w", err)
		}
	}

	logger.Info("rate repository ensure default rates success", logger.Fields{
		"count": len(defaults),
	})
	return nil
}

func (r *RateRepository) GetRates(ctx context.Context, limit int, offset int) ([]domain.Rate, error) {
	logger.Info("rate repository get rates", nil)

	const query = `
SELECT id, from_currency, to_currency, rate, provider, observed_at
FROM rates
ORDER BY observed_at DESC, from_currency ASC, to_currency ASC
LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limitArg(limit), offset)
	if err != nil {
		logger.Error("rate repository get rates failed", err, nil)
		return nil, fmt.Errorf("get rates: %w", err)
	}
	defer rows.Close()

	rates := make([]domain.Rate, 0)
	for rows.Next() {
		var rate domain.Rate
		if err := rows.Scan(&rate.ID, &rate.FromCurrency, &rate.ToCurrency, &rate.Rate, &rate.Provider, &rate.Timestamp); err != nil {
			logger.Error("rate repository scan rate failed", err, nil)
			return nil, fmt.Errorf("scan rate: %w", err)
		}
		rates = append(rates, rate)
	}

	if err := rows.Err(); err != nil {
		logger.Error("rate repository iterate rates failed", err, nil)
		return nil, fmt.Errorf("iterate rates: %w", err)
	}

	logger.Info("rate repository get rates success", logger.Fields{
		"count": len(rates),
	})
	return rates, nil
}

func (r *RateRepository) GetLatestRate(ctx context.Context, fromCurrency string, toCurrency string) (domain.Rate, error) {
	const query = `
SELECT id, from_currency, to_currency, rate, provider, observed_at
FROM rates
WHERE from_currency = $1
  AND to_currency = $2
ORDER BY observed_at DESC, id DESC
LIMIT 1`

	var rate domain.Rate
	if err := r.db.QueryRowContext(ctx, query, fromCurrency, toCurrency).Scan(
		&rate.ID,
		&rate.FromCurrency,
		&rate.ToCurrency,
		&rate.Rate,
		&rate.Provider,
		&rate.Timestamp,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Info("rate repository record not found", logger.Fields{
				"fromCurrency": fromCurrency,
				"toCurrency":   toCurrency,
			})
			return domain.Rate{}, domain.ErrRecordNotFound
		}
		logger.Error("rate repository get rate failed", err, logger.Fields{
			"fromCurrency": fromCurrency,
			"toCurrency":   toCurrency,
		})
		return domain.Rate{}, fmt.Errorf("get rate: %w", err)
	}

	return rate, nil
}
