package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/api-sage/fcy-ledger/src/internal/usecase/service_interfaces"
)

var _ service_interfaces.CollectionService = (*CollectionService)(nil)

var collectionRails = map[string]struct{}{
	"nip":   {},
	"swift": {},
	"sepa":  {},
	"ach":   {},
	"fps":   {},
}

type CollectionService struct {
	ledger *LedgerService
}

func NewCollectionService(ledger *LedgerService) *CollectionService {
	return &CollectionService{ledger: ledger}
}

// Receive credits an inbound payment to its wallet.
func (s *CollectionService) Receive(ctx context.Context, receipt domain.CollectionReceipt) (domain.LedgerResult, error) {
	rail := strings.ToLower(strings.TrimSpace(receipt.Rail))
	if _, ok := collectionRails[rail]; !ok {
		return domain.LedgerResult{}, fmt.Errorf("%w: unsupported rail %q", domain.ErrInvalidArgument, receipt.Rail)
	}
	reference := strings.TrimSpace(receipt.Reference)
	if reference == "" {
		return domain.LedgerResult{}, fmt.Errorf("%w: reference is required", domain.ErrInvalidArgument)
	}

	return s.ledger.Deposit(ctx, receipt.WalletID, receipt.Amount, map[string]any{
		"reason":    "collection",
		"rail":      rail,
		"reference": reference,
	})
}
