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

var (
	_ domain.TransactionRepository = (*TransactionRepository)(nil)
	_ domain.AMLRepository         = (*AMLRepository)(nil)
)

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `
SELECT id, wallet_id, type, amount, currency, status, metadata, created_at`

func (r *TransactionRepository) ListByWallet(ctx context.Context, walletID string, limit int, offset int) ([]domain.Transaction, error) {
	query := transactionColumns + `
FROM transactions
WHERE wallet_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, walletID, limitArg(limit), offset)
	if err != nil {
		logger.Error("transaction repository list failed", err, logger.Fields{"walletId": walletID})
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return collectTransactions(rows)
}

func (r *TransactionRepository) ListLedgerEntries(ctx context.Context, walletID string, limit int, offset int) ([]domain.LedgerEntry, error) {
	const query = `
SELECT id, transaction_id, wallet_id, entry_type, amount, balance_after, created_at
FROM ledger_entries
WHERE wallet_id = $1
ORDER BY id ASC
LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, walletID, limitArg(limit), offset)
	if err != nil {
		logger.Error("transaction repository list ledger entries failed", err, logger.Fields{"walletId": walletID})
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.LedgerEntry, 0)
	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(&e.ID, &e.TransactionID, &e.WalletID, &e.EntryType, &e.Amount, &e.BalanceAfter, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return entries, nil
}

func (r *TransactionRepository) GetFXTransaction(ctx context.Context, transactionID string) (domain.FXTransaction, error) {
	const query = `
SELECT transaction_id, amount_from, amount_to, currency_from, currency_to, route, rate, fee, created_at
FROM fx_transactions
WHERE transaction_id = $1`

	var fx domain.FXTransaction
	if err := r.db.QueryRowContext(ctx, query, transactionID).Scan(
		&fx.TransactionID,
		&fx.AmountFrom,
		&fx.AmountTo,
		&fx.CurrencyFrom,
		&fx.CurrencyTo,
		&fx.Route,
		&fx.Rate,
		&fx.Fee,
		&fx.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.FXTransaction{}, domain.ErrRecordNotFound
		}
		return domain.FXTransaction{}, fmt.Errorf("get fx transaction: %w", err)
	}
	return fx, nil
}

type AMLRepository struct {
	db *sql.DB
}

func NewAMLRepository(db *sql.DB) *AMLRepository {
	return &AMLRepository{db: db}
}

func (r *AMLRepository) ListUnalertedCompleted(ctx context.Context, since time.Time) ([]domain.Transaction, error) {
	const query = `
SELECT t.id, t.wallet_id, t.type, t.amount, t.currency, t.status, t.metadata, t.created_at
FROM transactions t
LEFT JOIN aml_alerts a ON a.transaction_id = t.id
WHERE t.status = 'completed'
  AND t.created_at >= $1
  AND a.id IS NULL
ORDER BY t.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		logger.Error("aml repository list candidates failed", err, nil)
		return nil, fmt.Errorf("list aml candidates: %w", err)
	}
	return collectTransactions(rows)
}

func (r *AMLRepository) CountCompletedByWalletSince(ctx context.Context, since time.Time) (map[string]int, error) {
	const query = `
SELECT wallet_id, COUNT(1)
FROM transactions
WHERE status = 'completed'
  AND created_at >= $1
GROUP BY wallet_id`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		logger.Error("aml repository count recent failed", err, nil)
		return nil, fmt.Errorf("count recent transactions: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			walletID string
			count    int
		)
		if err := rows.Scan(&walletID, &count); err != nil {
			return nil, fmt.Errorf("scan recent count: %w", err)
		}
		counts[walletID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent counts: %w", err)
	}
	return counts, nil
}

func (r *AMLRepository) InsertAlert(ctx context.Context, alert domain.AMLAlert) (bool, error) {
	_, created, err := insertAlert(ctx, r.db, alert)
	return created, err
}

func (r *AMLRepository) ListAlerts(ctx context.Context, limit int, offset int) ([]domain.AMLAlert, error) {
	const query = `
SELECT id, transaction_id, type, severity, status, created_at
FROM aml_alerts
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limitArg(limit), offset)
	if err != nil {
		logger.Error("aml repository list alerts failed", err, nil)
		return nil, fmt.Errorf("list aml alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]domain.AMLAlert, 0)
	for rows.Next() {
		var a domain.AMLAlert
		if err := rows.Scan(&a.ID, &a.TransactionID, &a.Type, &a.Severity, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan aml alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aml alerts: %w", err)
	}
	return alerts, nil
}

func collectTransactions(rows *sql.Rows) ([]domain.Transaction, error) {
	defer rows.Close()

	out := make([]domain.Transaction, 0)
	for rows.Next() {
		var (
			txn      domain.Transaction
			metadata []byte
		)
		if err := rows.Scan(&txn.ID, &txn.WalletID, &txn.Type, &txn.Amount, &txn.Currency, &txn.Status, &metadata, &txn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		decoded, err := decodeMetadata(metadata)
		if err != nil {
			return nil, err
		}
		txn.Metadata = decoded
		out = append(out, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// limitArg maps "no limit" onto a NULL LIMIT, which postgres treats as ALL.
func limitArg(limit int) sql.NullInt64 {
	if limit <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(limit), Valid: true}
}
