package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/api-sage/fcy-ledger/src/internal/adapter/cache"
	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/api-sage/fcy-ledger/src/internal/logger"
	"github.com/api-sage/fcy-ledger/src/internal/metrics"
	"github.com/api-sage/fcy-ledger/src/internal/usecase/service_interfaces"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// Verify that RateService implements the service_interfaces.RateService interface
var _ service_interfaces.RateService = (*RateService)(nil)

type RateConfig struct {
	CacheTTL time.Duration
	FeeRate  decimal.Decimal
}

type RateService struct {
	rateRepo domain.RateRepository
	cache    domain.Cache
	metrics  *metrics.Metrics
	cfg      RateConfig
	group    singleflight.Group
	now      func() time.Time
}

func NewRateService(rateRepo domain.RateRepository, rateCache domain.Cache, m *metrics.Metrics, cfg RateConfig) *RateService {
	if rateCache == nil {
		rateCache = cache.Noop{}
	}
	return &RateService{
		rateRepo: rateRepo,
		cache:    rateCache,
		metrics:  m,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *RateService) GetRates(ctx context.Context, limit int, offset int) ([]domain.Rate, error) {
	logger.Info("rate service get rates request", logger.Fields{
		"limit":  limit,
		"offset": offset,
	})

	rates, err := s.rateRepo.GetRates(ctx, limit, offset)
	if err != nil {
		logger.Error("rate service get rates failed", err, nil)
		return nil, err
	}

	logger.Info("rate service get rates success", logger.Fields{
		"count": len(rates),
	})
	return rates, nil
}

// GetRate resolves the latest rate for a pair. Same-currency pairs never
// reach the cache or the store.
func (s *RateService) GetRate(ctx context.Context, fromCurrency string, toCurrency string) (domain.Rate, error) {
	from, err := normalizeCurrency(fromCurrency)
	if err != nil {
		return domain.Rate{}, err
	}
	to, err := normalizeCurrency(toCurrency)
	if err != nil {
		return domain.Rate{}, err
	}
	if from == to {
		return domain.UnitRate(from, s.now()), nil
	}

	key := rateCacheKey(from, to)
	if raw, ok := s.cache.Get(ctx, key); ok {
		var cached domain.Rate
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			s.metrics.CacheLookup("rate", true)
			return cached, nil
		}
	}
	s.metrics.CacheLookup("rate", false)

	v, err, _ := s.group.Do(key, func() (any, error) {
		rate, err := s.rateRepo.GetLatestRate(ctx, from, to)
		if err != nil {
			return domain.Rate{}, err
		}
		if raw, err := json.Marshal(rate); err == nil {
			s.cache.Set(ctx, key, string(raw), s.cfg.CacheTTL)
		}
		return rate, nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			logger.Info("rate service rate not found", logger.Fields{
				"fromCurrency": from,
				"toCurrency":   to,
			})
			return domain.Rate{}, fmt.Errorf("%w: %s/%s", domain.ErrRateNotFound, from, to)
		}
		logger.Error("rate service get rate failed", err, logger.Fields{
			"fromCurrency": from,
			"toCurrency":   to,
		})
		return domain.Rate{}, err
	}

	return v.(domain.Rate), nil
}

// Quote previews a conversion with the same fee and rounding as a real one.
func (s *RateService) Quote(ctx context.Context, amount decimal.Decimal, fromCurrency string, toCurrency string) (domain.FXQuote, error) {
	if err := validateAmount(amount); err != nil {
		return domain.FXQuote{}, err
	}
	from, err := normalizeCurrency(fromCurrency)
	if err != nil {
		return domain.FXQuote{}, err
	}
	to, err := normalizeCurrency(toCurrency)
	if err != nil {
		return domain.FXQuote{}, err
	}
	if from == to {
		return domain.FXQuote{}, fmt.Errorf("%w: cannot convert %s to itself", domain.ErrInvalidArgument, from)
	}

	rate, err := s.GetRate(ctx, from, to)
	if err != nil {
		return domain.FXQuote{}, err
	}

	fee, afterFee, amountTo := convertAmounts(amount, s.cfg.FeeRate, rate.Rate)
	return domain.FXQuote{
		FromCurrency:   from,
		ToCurrency:     to,
		Amount:         amount,
		Fee:            fee,
		AmountAfterFee: afterFee,
		AmountTo:       amountTo,
		Rate:           rate.Rate,
		RateTimestamp:  rate.Timestamp,
	}, nil
}

func rateCacheKey(from, to string) string {
	return "fx:rate:" + from + ":" + to
}
