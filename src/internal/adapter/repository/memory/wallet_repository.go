package memory

import (
	"context"
	"sort"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/google/uuid"
)

var _ domain.WalletRepository = (*WalletRepository)(nil)

type WalletRepository struct {
	store *Store
}

func (r *WalletRepository) Create(_ context.Context, wallet domain.Wallet) (domain.Wallet, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ownerKey(wallet.OwnerID, wallet.Currency)
	if _, exists := s.walletByOwner[key]; exists {
		return domain.Wallet{}, domain.ErrConflict
	}

	if wallet.ID == "" {
		wallet.ID = uuid.NewString()
	}
	now := s.now()
	wallet.CreatedAt = now
	wallet.UpdatedAt = now

	s.wallets[wallet.ID] = wallet
	s.walletByOwner[key] = wallet.ID
	return wallet, nil
}

func (r *WalletRepository) GetByID(_ context.Context, id string) (domain.Wallet, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.wallets[id]
	if !ok {
		return domain.Wallet{}, domain.ErrRecordNotFound
	}
	return w, nil
}

func (r *WalletRepository) GetByOwnerAndCurrency(_ context.Context, ownerID string, currency string) (domain.Wallet, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.walletByOwner[ownerKey(ownerID, currency)]
	if !ok {
		return domain.Wallet{}, domain.ErrRecordNotFound
	}
	return s.wallets[id], nil
}

func (r *WalletRepository) ListByOwner(_ context.Context, ownerID string) ([]domain.Wallet, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Wallet, 0)
	for _, w := range s.wallets {
		if w.OwnerID == ownerID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out, nil
}
