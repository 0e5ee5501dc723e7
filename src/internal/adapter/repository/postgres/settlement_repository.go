package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/api-sage/fcy-ledger/src/internal/logger"
)

var _ domain.SettlementRepository = (*SettlementRepository)(nil)

type SettlementRepository struct {
	db *sql.DB
}

func NewSettlementRepository(db *sql.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

const settlementColumns = `
SELECT id, wallet_id, bank_id, amount, currency, status, provider_reference, idempotency_key, failure_reason, created_at, updated_at`

func (r *SettlementRepository) Create(ctx context.Context, settlement domain.Settlement) (domain.Settlement, error) {
	logger.Info("settlement repository create", logger.Fields{
		"walletId": settlement.WalletID,
		"bankId":   settlement.BankID,
		"status":   settlement.Status,
	})

	const query = `
INSERT INTO settlements (
	wallet_id,
	bank_id,
	amount,
	currency,
	status,
	provider_reference,
	idempotency_key,
	failure_reason
) VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8)
RETURNING id, created_at, updated_at`

	if err := r.db.QueryRowContext(
		ctx,
		query,
		settlement.WalletID,
		settlement.BankID,
		settlement.Amount.String(),
		settlement.Currency,
		settlement.Status,
		settlement.ProviderReference,
		nullString(settlement.IdempotencyKey),
		nullString(settlement.FailureReason),
	).Scan(&settlement.ID, &settlement.CreatedAt, &settlement.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.Settlement{}, domain.ErrConflict
		}
		logger.Error("settlement repository create failed", err, logger.Fields{
			"walletId": settlement.WalletID,
		})
		return domain.Settlement{}, fmt.Errorf("create settlement: %w", err)
	}

	logger.Info("settlement repository create success", logger.Fields{
		"settlementId": settlement.ID,
	})
	return settlement, nil
}

func (r *SettlementRepository) GetByID(ctx context.Context, id string) (domain.Settlement, error) {
	return r.getOne(ctx, settlementColumns+`
FROM settlements
WHERE id = $1`, id)
}

func (r *SettlementRepository) GetByIdempotencyKey(ctx context.Context, key string) (domain.Settlement, error) {
	return r.getOne(ctx, settlementColumns+`
FROM settlements
WHERE idempotency_key = $1`, key)
}

func (r *SettlementRepository) GetByProviderReference(ctx context.Context, bankID string, reference string) (domain.Settlement, error) {
	return r.getOne(ctx, settlementColumns+`
FROM settlements
WHERE bank_id = $1
  AND provider_reference = $2
ORDER BY created_at DESC
LIMIT 1`, bankID, reference)
}

func (r *SettlementRepository) getOne(ctx context.Context, query string, args ...any) (domain.Settlement, error) {
	st, err := scanSettlement(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Settlement{}, domain.ErrRecordNotFound
		}
		logger.Error("settlement repository get failed", err, nil)
		return domain.Settlement{}, fmt.Errorf("get settlement: %w", err)
	}
	return st, nil
}

func (r *SettlementRepository) List(ctx context.Context, walletID string, limit int, offset int) ([]domain.Settlement, error) {
	query := settlementColumns + `
FROM settlements
WHERE ($1 = '' OR wallet_id::text = $1)
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, walletID, limitArg(limit), offset)
	if err != nil {
		logger.Error("settlement repository list failed", err, logger.Fields{"walletId": walletID})
		return nil, fmt.Errorf("list settlements: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Settlement, 0)
	for rows.Next() {
		st, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan settlement: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settlements: %w", err)
	}
	return out, nil
}

func (r *SettlementRepository) ListLogs(ctx context.Context, settlementID string) ([]domain.ReconciliationLog, error) {
	const query = `
SELECT id, settlement_id, action, note, created_at
FROM reconciliation_logs
WHERE settlement_id = $1
ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, settlementID)
	if err != nil {
		logger.Error("settlement repository list logs failed", err, logger.Fields{"settlementId": settlementID})
		return nil, fmt.Errorf("list reconciliation logs: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ReconciliationLog, 0)
	for rows.Next() {
		var entry domain.ReconciliationLog
		if err := rows.Scan(&entry.ID, &entry.SettlementID, &entry.Action, &entry.Note, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reconciliation log: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reconciliation logs: %w", err)
	}
	return out, nil
}

func (r *SettlementRepository) Summarize(ctx context.Context, from time.Time, to time.Time, staleBefore time.Time) (domain.ReconciliationSummary, error) {
	summary := domain.ReconciliationSummary{
		Date:        from,
		ByStatus:    make(map[domain.SettlementStatus]domain.StatusTotal),
		StaleBefore: staleBefore,
	}

	const byStatus = `
SELECT status, COUNT(1), COALESCE(SUM(amount), 0)
FROM settlements
WHERE created_at >= $1
  AND created_at < $2
GROUP BY status`

	rows, err := r.db.QueryContext(ctx, byStatus, from, to)
	if err != nil {
		logger.Error("settlement repository summarize failed", err, nil)
		return domain.ReconciliationSummary{}, fmt.Errorf("summarize settlements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status domain.SettlementStatus
			total  domain.StatusTotal
		)
		if err := rows.Scan(&status, &total.Count, &total.Amount); err != nil {
			return domain.ReconciliationSummary{}, fmt.Errorf("scan settlement summary: %w", err)
		}
		summary.ByStatus[status] = total
	}
	if err := rows.Err(); err != nil {
		return domain.ReconciliationSummary{}, fmt.Errorf("iterate settlement summary: %w", err)
	}

	const stale = `
SELECT COUNT(1)
FROM settlements
WHERE status IN ('processing', 'pending')
  AND updated_at < $1`

	if err := r.db.QueryRowContext(ctx, stale, staleBefore).Scan(&summary.StaleCount); err != nil {
		return domain.ReconciliationSummary{}, fmt.Errorf("count stale settlements: %w", err)
	}

	return summary, nil
}

func scanSettlement(row rowScanner) (domain.Settlement, error) {
	var (
		st             domain.Settlement
		idempotencyKey sql.NullString
		failureReason  sql.NullString
	)
	if err := row.Scan(
		&st.ID,
		&st.WalletID,
		&st.BankID,
		&st.Amount,
		&st.Currency,
		&st.Status,
		&st.ProviderReference,
		&idempotencyKey,
		&failureReason,
		&st.CreatedAt,
		&st.UpdatedAt,
	); err != nil {
		return domain.Settlement{}, err
	}
	st.IdempotencyKey = stringPtr(idempotencyKey)
	st.FailureReason = stringPtr(failureReason)
	return st, nil
}
