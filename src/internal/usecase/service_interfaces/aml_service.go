package service_interfaces

import (
	"context"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
)

type AMLService interface {
	Scan(ctx context.Context, lookbackMinutes int) (domain.ScanResult, error)
	ListAlerts(ctx context.Context, limit int, offset int) ([]domain.AMLAlert, error)
}
