package services

import (
	"context"
	"fmt"
	"time"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/api-sage/fcy-ledger/src/internal/logger"
	"github.com/api-sage/fcy-ledger/src/internal/metrics"
	"github.com/api-sage/fcy-ledger/src/internal/usecase/service_interfaces"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var _ service_interfaces.AMLService = (*AMLService)(nil)

const (
	rapidSuccessionWindow = 5 * time.Minute
	rapidSuccessionLimit  = 5
)

// AMLThresholds classifies single amounts. Both bounds are exclusive.
type AMLThresholds struct {
	Medium decimal.Decimal
	High   decimal.Decimal
}

func (t AMLThresholds) Classify(amount decimal.Decimal) (domain.AlertSeverity, bool) {
	switch {
	case amount.GreaterThan(t.High):
		return domain.AlertSeverityHigh, true
	case amount.GreaterThan(t.Medium):
		return domain.AlertSeverityMedium, true
	default:
		return "", false
	}
}

type AMLService struct {
	repo       domain.AMLRepository
	thresholds AMLThresholds
	publisher  domain.EventPublisher
	metrics    *metrics.Metrics
	now        func() time.Time
}

func NewAMLService(repo domain.AMLRepository, thresholds AMLThresholds, publisher domain.EventPublisher, m *metrics.Metrics) *AMLService {
	return &AMLService{
		repo:       repo,
		thresholds: thresholds,
		publisher:  publisher,
		metrics:    m,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the clock that anchors the scan windows.
func (s *AMLService) WithClock(now func() time.Time) *AMLService {
	s.now = now
	return s
}

func (s *AMLService) ClassifyWithdrawal(amount decimal.Decimal) (domain.AlertSeverity, bool) {
	return s.thresholds.Classify(amount)
}

// Scan flags completed transactions in the lookback window that carry no
// alert yet. A failed insert is logged and the scan moves on.
func (s *AMLService) Scan(ctx context.Context, lookbackMinutes int) (domain.ScanResult, error) {
	if lookbackMinutes <= 0 {
		return domain.ScanResult{}, fmt.Errorf("%w: lookback must be positive", domain.ErrInvalidArgument)
	}

	logger.Info("aml service scan request", logger.Fields{"lookbackMinutes": lookbackMinutes})

	now := s.now()
	var (
		candidates []domain.Transaction
		recent     map[string]int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		candidates, err = s.repo.ListUnalertedCompleted(gctx, now.Add(-time.Duration(lookbackMinutes)*time.Minute))
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.repo.CountCompletedByWalletSince(gctx, now.Add(-rapidSuccessionWindow))
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Error("aml service scan failed", err, nil)
		return domain.ScanResult{}, err
	}

	result := domain.ScanResult{Scanned: len(candidates)}
	for _, txn := range candidates {
		alertType, severity, flagged := s.classifyScanned(txn, recent[txn.WalletID])
		if !flagged {
			continue
		}

		created, err := s.RecordAlert(ctx, domain.AMLAlert{
			TransactionID: txn.ID,
			Type:          alertType,
			Severity:      severity,
			Status:        domain.AlertStatusPending,
		})
		if err != nil {
			logger.Error("aml service scan insert alert failed", err, logger.Fields{"transactionId": txn.ID})
			continue
		}
		if created {
			result.AlertsCreated++
		}
	}

	logger.Info("aml service scan success", logger.Fields{
		"scanned":       result.Scanned,
		"alertsCreated": result.AlertsCreated,
	})
	return result, nil
}

func (s *AMLService) classifyScanned(txn domain.Transaction, recentCount int) (string, domain.AlertSeverity, bool) {
	if severity, ok := s.thresholds.Classify(txn.Amount); ok {
		return domain.AlertTypeLargeTransaction, severity, true
	}
	if recentCount > rapidSuccessionLimit {
		return domain.AlertTypeRapidSuccession, domain.AlertSeverityLow, true
	}
	return "", "", false
}

// RecordAlert stores an alert outside any ledger unit. It reports false when
// the transaction is already covered.
func (s *AMLService) RecordAlert(ctx context.Context, alert domain.AMLAlert) (bool, error) {
	created, err := s.repo.InsertAlert(ctx, alert)
	if err != nil {
		return false, err
	}
	if !created {
		return false, nil
	}

	s.metrics.AMLAlert(alert.Type, string(alert.Severity))
	publish(ctx, s.publisher, domain.EventAMLAlertCreated, alert.TransactionID, map[string]any{
		"transaction_id": alert.TransactionID,
		"type":           alert.Type,
		"severity":       string(alert.Severity),
	})
	return true, nil
}

func (s *AMLService) ListAlerts(ctx context.Context, limit int, offset int) ([]domain.AMLAlert, error) {
	return s.repo.ListAlerts(ctx, limit, offset)
}
