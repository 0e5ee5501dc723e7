package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// UnitOfWork runs fn inside one atomic storage transaction. A non-nil error
// from fn, a panic or a cancelled context rolls every write back.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error
}

// LedgerTx is the write surface available inside an atomic unit.
// LockWallet and LockSettlement hold an exclusive lease on the row until the
// unit ends; locking the same row twice in one unit is a no-op.
type LedgerTx interface {
	LockWallet(ctx context.Context, walletID string) (Wallet, error)
	SetWalletBalance(ctx context.Context, walletID string, balance decimal.Decimal) error
	InsertTransaction(ctx context.Context, txn Transaction) (Transaction, error)
	InsertLedgerEntry(ctx context.Context, entry LedgerEntry) (LedgerEntry, error)
	InsertFXTransaction(ctx context.Context, fx FXTransaction) (FXTransaction, error)
	// InsertAMLAlert returns the stored alert and false when one already
	// exists for the transaction.
	InsertAMLAlert(ctx context.Context, alert AMLAlert) (AMLAlert, bool, error)

	LockSettlement(ctx context.Context, settlementID string) (Settlement, error)
	UpdateSettlement(ctx context.Context, settlement Settlement) (Settlement, error)
	AppendReconciliationLog(ctx context.Context, entry ReconciliationLog) error
}
