package memory

import (
	"context"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
)

var _ domain.BankRepository = (*BankRepository)(nil)

// BankRepository is a fixed directory of settlement partner banks.
type BankRepository struct {
	banks []domain.Bank
}

func NewBankRepository(banks []domain.Bank) *BankRepository {
	out := make([]domain.Bank, len(banks))
	copy(out, banks)
	return &BankRepository{banks: out}
}

func (r *BankRepository) GetAll(_ context.Context) ([]domain.Bank, error) {
	out := make([]domain.Bank, len(r.banks))
	copy(out, r.banks)
	return out, nil
}

func (r *BankRepository) GetByID(_ context.Context, id string) (domain.Bank, error) {
	for _, b := range r.banks {
		if b.ID == id {
			return b, nil
		}
	}
	return domain.Bank{}, domain.ErrRecordNotFound
}
