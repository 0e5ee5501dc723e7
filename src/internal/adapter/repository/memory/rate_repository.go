package memory

import (
	"context"
	"sort"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
)

var _ domain.RateRepository = (*RateRepository)(nil)

type RateRepository struct {
	store *Store
}

// Put records a new observation for a currency pair.
func (r *RateRepository) Put(_ context.Context, rate domain.Rate) domain.Rate {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rate.ID = s.rateSeq.Add(1)
	if rate.Timestamp.IsZero() {
		rate.Timestamp = s.now()
	}
	s.rates = append(s.rates, rate)
	return rate
}

// EnsureDefaultRates seeds the given reference rates when no rate exists yet.
func (r *RateRepository) EnsureDefaultRates(ctx context.Context, defaults []domain.Rate) {
	s := r.store
	s.mu.RLock()
	seeded := len(s.rates) > 0
	s.mu.RUnlock()
	if seeded {
		return
	}

	for _, rate := range defaults {
		r.Put(ctx, rate)
	}
}

func (r *RateRepository) GetRates(_ context.Context, limit int, offset int) ([]domain.Rate, error) {
	s := r.store
	s.mu.RLock()
	out := make([]domain.Rate, len(s.rates))
	copy(out, s.rates)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		if out[i].FromCurrency != out[j].FromCurrency {
			return out[i].FromCurrency < out[j].FromCurrency
		}
		return out[i].ToCurrency < out[j].ToCurrency
	})
	return page(out, limit, offset), nil
}

func (r *RateRepository) GetLatestRate(_ context.Context, fromCurrency string, toCurrency string) (domain.Rate, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		latest domain.Rate
		found  bool
	)
	for _, rate := range s.rates {
		if rate.FromCurrency != fromCurrency || rate.ToCurrency != toCurrency {
			continue
		}
		if !found || !rate.Timestamp.Before(latest.Timestamp) {
			latest = rate
			found = true
		}
	}
	if !found {
		return domain.Rate{}, domain.ErrRecordNotFound
	}
	return latest, nil
}
