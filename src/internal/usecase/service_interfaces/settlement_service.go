package service_interfaces

import (
	"context"
	"time"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
)

type SettlementService interface {
	Initiate(ctx context.Context, req domain.InitiateSettlementRequest) (domain.Settlement, error)
	HandleBankCallback(ctx context.Context, bankID string, cb domain.BankCallback) (domain.Settlement, error)
	Retry(ctx context.Context, settlementID string) (domain.Settlement, error)
	Get(ctx context.Context, settlementID string) (domain.Settlement, error)
	List(ctx context.Context, walletID string, limit int, offset int) ([]domain.Settlement, error)
	ListLogs(ctx context.Context, settlementID string) ([]domain.ReconciliationLog, error)
	Reconciliation(ctx context.Context, date time.Time) (domain.ReconciliationSummary, error)
}
