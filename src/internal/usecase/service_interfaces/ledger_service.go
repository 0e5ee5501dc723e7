package service_interfaces

import (
	"context"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

type LedgerService interface {
	CreateWallet(ctx context.Context, ownerID string, currency string) (domain.Wallet, error)
	GetWallet(ctx context.Context, walletID string) (domain.Wallet, error)
	ListWallets(ctx context.Context, ownerID string) ([]domain.Wallet, error)
	GetBalance(ctx context.Context, walletID string) (domain.Wallet, error)
	ListTransactions(ctx context.Context, walletID string, limit int, offset int) ([]domain.Transaction, error)
	ListLedgerEntries(ctx context.Context, walletID string, limit int, offset int) ([]domain.LedgerEntry, error)
	VerifyLedger(ctx context.Context, walletID string) (domain.LedgerVerification, error)
	Deposit(ctx context.Context, walletID string, amount decimal.Decimal, metadata map[string]any) (domain.LedgerResult, error)
	Withdraw(ctx context.Context, walletID string, amount decimal.Decimal, metadata map[string]any) (domain.LedgerResult, error)
	Transfer(ctx context.Context, sourceID string, destinationID string, amount decimal.Decimal, metadata map[string]any) (domain.TransferResult, error)
}

type CardChargeService interface {
	Charge(ctx context.Context, charge domain.CardCharge) (domain.LedgerResult, error)
}

type CollectionService interface {
	Receive(ctx context.Context, receipt domain.CollectionReceipt) (domain.LedgerResult, error)
}
