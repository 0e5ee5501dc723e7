package domain

import (
	"context"
	"time"
)

type SettlementRepository interface {
	// Create returns ErrConflict when the idempotency key is already taken.
	Create(ctx context.Context, settlement Settlement) (Settlement, error)
	GetByID(ctx context.Context, id string) (Settlement, error)
	GetByIdempotencyKey(ctx context.Context, key string) (Settlement, error)
	GetByProviderReference(ctx context.Context, bankID string, reference string) (Settlement, error)
	List(ctx context.Context, walletID string, limit int, offset int) ([]Settlement, error)
	ListLogs(ctx context.Context, settlementID string) ([]ReconciliationLog, error)
	// Summarize aggregates settlements created in [from, to) and counts every
	// processing/pending row last touched before staleBefore.
	Summarize(ctx context.Context, from time.Time, to time.Time, staleBefore time.Time) (ReconciliationSummary, error)
}

type BankRepository interface {
	GetAll(ctx context.Context) ([]Bank, error)
	GetByID(ctx context.Context, id string) (Bank, error)
}
