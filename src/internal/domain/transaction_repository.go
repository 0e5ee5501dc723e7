package domain

import (
	"context"
	"time"
)

type TransactionRepository interface {
	ListByWallet(ctx context.Context, walletID string, limit int, offset int) ([]Transaction, error)
	// ListLedgerEntries returns entries in commit order. limit <= 0 means all entries.
	ListLedgerEntries(ctx context.Context, walletID string, limit int, offset int) ([]LedgerEntry, error)
	GetFXTransaction(ctx context.Context, transactionID string) (FXTransaction, error)
}

type AMLRepository interface {
	ListUnalertedCompleted(ctx context.Context, since time.Time) ([]Transaction, error)
	CountCompletedByWalletSince(ctx context.Context, since time.Time) (map[string]int, error)
	// InsertAlert reports false when the transaction already carries an alert.
	InsertAlert(ctx context.Context, alert AMLAlert) (bool, error)
	ListAlerts(ctx context.Context, limit int, offset int) ([]AMLAlert, error)
}
