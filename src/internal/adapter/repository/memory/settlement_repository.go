package memory

import (
	"context"
	"time"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/google/uuid"
)

var _ domain.SettlementRepository = (*SettlementRepository)(nil)

type SettlementRepository struct {
	store *Store
}

func (r *SettlementRepository) Create(_ context.Context, settlement domain.Settlement) (domain.Settlement, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if settlement.IdempotencyKey != nil {
		if _, taken := s.settlementByKey[*settlement.IdempotencyKey]; taken {
			return domain.Settlement{}, domain.ErrConflict
		}
	}

	if settlement.ID == "" {
		settlement.ID = uuid.NewString()
	}
	now := s.now()
	settlement.CreatedAt = now
	settlement.UpdatedAt = now

	s.settlements[settlement.ID] = settlement
	s.settlementOrder = append(s.settlementOrder, settlement.ID)
	if settlement.IdempotencyKey != nil {
		s.settlementByKey[*settlement.IdempotencyKey] = settlement.ID
	}
	if settlement.ProviderReference != "" {
		s.settlementByRef[refKey(settlement.BankID, settlement.ProviderReference)] = settlement.ID
	}
	return settlement, nil
}

func (r *SettlementRepository) GetByID(_ context.Context, id string) (domain.Settlement, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.settlements[id]
	if !ok {
		return domain.Settlement{}, domain.ErrRecordNotFound
	}
	return st, nil
}

func (r *SettlementRepository) GetByIdempotencyKey(_ context.Context, key string) (domain.Settlement, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.settlementByKey[key]
	if !ok {
		return domain.Settlement{}, domain.ErrRecordNotFound
	}
	return s.settlements[id], nil
}

func (r *SettlementRepository) GetByProviderReference(_ context.Context, bankID string, reference string) (domain.Settlement, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.settlementByRef[refKey(bankID, reference)]
	if !ok {
		return domain.Settlement{}, domain.ErrRecordNotFound
	}
	return s.settlements[id], nil
}

// List returns newest first. An empty walletID lists every settlement.
func (r *SettlementRepository) List(_ context.Context, walletID string, limit int, offset int) ([]domain.Settlement, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Settlement, 0)
	for i := len(s.settlementOrder) - 1; i >= 0; i-- {
		st := s.settlements[s.settlementOrder[i]]
		if walletID == "" || st.WalletID == walletID {
			out = append(out, st)
		}
	}
	return page(out, limit, offset), nil
}

func (r *SettlementRepository) ListLogs(_ context.Context, settlementID string) ([]domain.ReconciliationLog, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ReconciliationLog, 0)
	for _, entry := range s.logs {
		if entry.SettlementID == settlementID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *SettlementRepository) Summarize(_ context.Context, from time.Time, to time.Time, staleBefore time.Time) (domain.ReconciliationSummary, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := domain.ReconciliationSummary{
		Date:        from,
		ByStatus:    make(map[domain.SettlementStatus]domain.StatusTotal),
		StaleBefore: staleBefore,
	}

	for _, st := range s.settlements {
		if !st.CreatedAt.Before(from) && st.CreatedAt.Before(to) {
			total := summary.ByStatus[st.Status]
			total.Count++
			total.Amount = total.Amount.Add(st.Amount)
			summary.ByStatus[st.Status] = total
		}

		open := st.Status == domain.SettlementStatusProcessing || st.Status == domain.SettlementStatusPending
		if open && st.UpdatedAt.Before(staleBefore) {
			summary.StaleCount++
		}
	}

	return summary, nil
}
