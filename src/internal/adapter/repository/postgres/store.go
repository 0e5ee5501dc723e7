package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/api-sage/fcy-ledger/src/internal/logger"
	"github.com/shopspring/decimal"
)

var _ domain.UnitOfWork = (*Store)(nil)

// Store is the postgres storage adapter. Row leases are SELECT ... FOR UPDATE
// inside a READ COMMITTED transaction.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Wallets() *WalletRepository           { return &WalletRepository{db: s.db} }
func (s *Store) Transactions() *TransactionRepository { return &TransactionRepository{db: s.db} }
func (s *Store) AML() *AMLRepository                  { return &AMLRepository{db: s.db} }
func (s *Store) Settlements() *SettlementRepository   { return &SettlementRepository{db: s.db} }
func (s *Store) Rates() *RateRepository               { return &RateRepository{db: s.db} }
func (s *Store) Banks() *BankRepository               { return &BankRepository{db: s.db} }

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.LedgerTx) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("store begin tx failed", err, nil)
		return fmt.Errorf("begin ledger transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	if err = fn(ctx, &pgTx{tx: sqlTx, locked: make(map[string]struct{})}); err != nil {
		return err
	}

	if err = sqlTx.Commit(); err != nil {
		logger.Error("store commit tx failed", err, nil)
		return fmt.Errorf("commit ledger transaction: %w", err)
	}
	return nil
}

type pgTx struct {
	tx     *sql.Tx
	locked map[string]struct{}
}

func (t *pgTx) LockWallet(ctx context.Context, walletID string) (domain.Wallet, error) {
	const query = `
SELECT id, owner_id, currency, balance, created_at, updated_at
FROM wallets
WHERE id = $1
FOR UPDATE`

	w, err := scanWallet(t.tx.QueryRowContext(ctx, query, walletID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Wallet{}, domain.ErrRecordNotFound
		}
		return domain.Wallet{}, fmt.Errorf("lock wallet: %w", err)
	}
	t.locked["wallet:"+walletID] = struct{}{}
	return w, nil
}

func (t *pgTx) SetWalletBalance(ctx context.Context, walletID string, balance decimal.Decimal) error {
	if _, ok := t.locked["wallet:"+walletID]; !ok {
		return fmt.Errorf("set wallet balance: wallet %s is not locked in this unit", walletID)
	}
	if balance.IsNegative() {
		return fmt.Errorf("set wallet balance: %w", domain.ErrInsufficientBalance)
	}

	const query = `
UPDATE wallets
SET balance = $2::numeric,
    updated_at = NOW()
WHERE id = $1`

	if err := execRequiredRows(ctx, t.tx, query, walletID, balance.String()); err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("set wallet balance: %w", domain.ErrInsufficientBalance)
		}
		return fmt.Errorf("set wallet balance: %w", err)
	}
	return nil
}

func (t *pgTx) InsertTransaction(ctx context.Context, txn domain.Transaction) (domain.Transaction, error) {
	metadata, err := encodeMetadata(txn.Metadata)
	if err != nil {
		return domain.Transaction{}, err
	}

	const query = `
INSERT INTO transactions (
	wallet_id,
	type,
	amount,
	currency,
	status,
	metadata
) VALUES ($1, $2, $3::numeric, $4, $5, $6)
RETURNING id, created_at`

	if err := t.tx.QueryRowContext(
		ctx,
		query,
		txn.WalletID,
		txn.Type,
		txn.Amount.String(),
		txn.Currency,
		txn.Status,
		metadata,
	).Scan(&txn.ID, &txn.CreatedAt); err != nil {
		return domain.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return txn, nil
}

func (t *pgTx) InsertLedgerEntry(ctx context.Context, entry domain.LedgerEntry) (domain.LedgerEntry, error) {
	if _, ok := t.locked["wallet:"+entry.WalletID]; !ok {
		return domain.LedgerEntry{}, fmt.Errorf("insert ledger entry: wallet %s is not locked in this unit", entry.WalletID)
	}

	const query = `
INSERT INTO ledger_entries (
	transaction_id,
	wallet_id,
	entry_type,
	amount,
	balance_after
) VALUES ($1, $2, $3, $4::numeric, $5::numeric)
RETURNING id, created_at`

	if err := t.tx.QueryRowContext(
		ctx,
		query,
		entry.TransactionID,
		entry.WalletID,
		entry.EntryType,
		entry.Amount.String(),
		entry.BalanceAfter.String(),
	).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("insert ledger entry: %w", err)
	}
	return entry, nil
}

func (t *pgTx) InsertFXTransaction(ctx context.Context, fx domain.FXTransaction) (domain.FXTransaction, error) {
	const query = `
INSERT INTO fx_transactions (
	transaction_id,
	amount_from,
	amount_to,
	currency_from,
	currency_to,
	route,
	rate,
	fee
) VALUES ($1, $2::numeric, $3::numeric, $4, $5, $6, $7::numeric, $8::numeric)
RETURNING created_at`

	if err := t.tx.QueryRowContext(
		ctx,
		query,
		fx.TransactionID,
		fx.AmountFrom.String(),
		fx.AmountTo.String(),
		fx.CurrencyFrom,
		fx.CurrencyTo,
		fx.Route,
		fx.Rate.String(),
		fx.Fee.String(),
	).Scan(&fx.CreatedAt); err != nil {
		return domain.FXTransaction{}, fmt.Errorf("insert fx transaction: %w", err)
	}
	return fx, nil
}

func (t *pgTx) InsertAMLAlert(ctx context.Context, alert domain.AMLAlert) (domain.AMLAlert, bool, error) {
	return insertAlert(ctx, t.tx, alert)
}

func (t *pgTx) LockSettlement(ctx context.Context, settlementID string) (domain.Settlement, error) {
	query := settlementColumns + `
FROM settlements
WHERE id = $1
FOR UPDATE`

	st, err := scanSettlement(t.tx.QueryRowContext(ctx, query, settlementID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Settlement{}, domain.ErrRecordNotFound
		}
		return domain.Settlement{}, fmt.Errorf("lock settlement: %w", err)
	}
	t.locked["settlement:"+settlementID] = struct{}{}
	return st, nil
}

func (t *pgTx) UpdateSettlement(ctx context.Context, settlement domain.Settlement) (domain.Settlement, error) {
	if _, ok := t.locked["settlement:"+settlement.ID]; !ok {
		return domain.Settlement{}, fmt.Errorf("update settlement: settlement %s is not locked in this unit", settlement.ID)
	}

	const query = `
UPDATE settlements
SET status = $2,
    provider_reference = $3,
    failure_reason = $4,
    updated_at = NOW()
WHERE id = $1
RETURNING updated_at`

	if err := t.tx.QueryRowContext(
		ctx,
		query,
		settlement.ID,
		settlement.Status,
		settlement.ProviderReference,
		nullString(settlement.FailureReason),
	).Scan(&settlement.UpdatedAt); err != nil {
		return domain.Settlement{}, fmt.Errorf("update settlement: %w", err)
	}
	return settlement, nil
}

func (t *pgTx) AppendReconciliationLog(ctx context.Context, entry domain.ReconciliationLog) error {
	const query = `
INSERT INTO reconciliation_logs (settlement_id, action, note)
VALUES ($1, $2, $3)`

	if _, err := t.tx.ExecContext(ctx, query, entry.SettlementID, entry.Action, entry.Note); err != nil {
		return fmt.Errorf("append reconciliation log: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func execRequiredRows(ctx context.Context, db execer, query string, args ...any) error {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertAlert(ctx context.Context, db rowQuerier, alert domain.AMLAlert) (domain.AMLAlert, bool, error) {
	if alert.Status == "" {
		alert.Status = domain.AlertStatusPending
	}

	const query = `
INSERT INTO aml_alerts (transaction_id, type, severity, status)
VALUES ($1, $2, $3, $4)
ON CONFLICT (transaction_id) DO NOTHING
RETURNING id, created_at`

	err := db.QueryRowContext(ctx, query, alert.TransactionID, alert.Type, alert.Severity, alert.Status).Scan(&alert.ID, &alert.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AMLAlert{}, false, nil
	}
	if err != nil {
		return domain.AMLAlert{}, false, fmt.Errorf("insert aml alert: %w", err)
	}
	return alert, true, nil
}

func encodeMetadata(metadata map[string]any) (any, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("encode transaction metadata: %w", err)
	}
	return string(raw), nil
}

func decodeMetadata(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode transaction metadata: %w", err)
	}
	return out, nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}
