package memory

import (
	"context"
	"time"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
)

var (
	_ domain.TransactionRepository = (*TransactionRepository)(nil)
	_ domain.AMLRepository         = (*AMLRepository)(nil)
)

type TransactionRepository struct {
	store *Store
}

// ListByWallet returns newest first.
func (r *TransactionRepository) ListByWallet(_ context.Context, walletID string, limit int, offset int) ([]domain.Transaction, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.Transaction, 0)
	for i := len(s.transactions) - 1; i >= 0; i-- {
		if s.transactions[i].WalletID == walletID {
			matched = append(matched, s.transactions[i])
		}
	}
	return page(matched, limit, offset), nil
}

func (r *TransactionRepository) ListLedgerEntries(_ context.Context, walletID string, limit int, offset int) ([]domain.LedgerEntry, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.LedgerEntry, 0)
	for _, e := range s.entries {
		if e.WalletID == walletID {
			matched = append(matched, e)
		}
	}
	return page(matched, limit, offset), nil
}

func (r *TransactionRepository) GetFXTransaction(_ context.Context, transactionID string) (domain.FXTransaction, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	fx, ok := s.fx[transactionID]
	if !ok {
		return domain.FXTransaction{}, domain.ErrRecordNotFound
	}
	return fx, nil
}

type AMLRepository struct {
	store *Store
}

func (r *AMLRepository) ListUnalertedCompleted(_ context.Context, since time.Time) ([]domain.Transaction, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, 0)
	for _, txn := range s.transactions {
		if txn.Status != domain.TransactionStatusCompleted || txn.CreatedAt.Before(since) {
			continue
		}
		if _, alerted := s.alertByTxn[txn.ID]; alerted {
			continue
		}
		out = append(out, txn)
	}
	return out, nil
}

func (r *AMLRepository) CountCompletedByWalletSince(_ context.Context, since time.Time) (map[string]int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, txn := range s.transactions {
		if txn.Status == domain.TransactionStatusCompleted && !txn.CreatedAt.Before(since) {
			counts[txn.WalletID]++
		}
	}
	return counts, nil
}

func (r *AMLRepository) InsertAlert(_ context.Context, alert domain.AMLAlert) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertAlertLocked(newAlert(alert, s.now())), nil
}

// ListAlerts returns newest first.
func (r *AMLRepository) ListAlerts(_ context.Context, limit int, offset int) ([]domain.AMLAlert, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.AMLAlert, 0, len(s.alerts))
	for i := len(s.alerts) - 1; i >= 0; i-- {
		out = append(out, s.alerts[i])
	}
	return page(out, limit, offset), nil
}
