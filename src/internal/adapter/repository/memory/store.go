// Package memory is an in-process storage adapter. It honours the same
// atomic-unit and row-lock contract as the postgres adapter and backs the
// "memory" storage driver and the service tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var _ domain.UnitOfWork = (*Store)(nil)

type Option func(*Store)

// WithClock overrides the clock used to stamp created_at/updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

type Store struct {
	mu sync.RWMutex

	wallets       map[string]domain.Wallet
	walletByOwner map[string]string

	transactions []domain.Transaction
	entries      []domain.LedgerEntry
	fx           map[string]domain.FXTransaction

	alerts     []domain.AMLAlert
	alertByTxn map[string]struct{}

	settlements     map[string]domain.Settlement
	settlementOrder []string
	settlementByKey map[string]string
	settlementByRef map[string]string
	logs            []domain.ReconciliationLog

	rates []domain.Rate

	lockMu   sync.Mutex
	rowLocks map[string]chan struct{}

	entrySeq atomic.Int64
	logSeq   atomic.Int64
	rateSeq  atomic.Int64

	now func() time.Time
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		wallets:         make(map[string]domain.Wallet),
		walletByOwner:   make(map[string]string),
		fx:              make(map[string]domain.FXTransaction),
		alertByTxn:      make(map[string]struct{}),
		settlements:     make(map[string]domain.Settlement),
		settlementByKey: make(map[string]string),
		settlementByRef: make(map[string]string),
		rowLocks:        make(map[string]chan struct{}),
		now:             func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Wallets() *WalletRepository           { return &WalletRepository{store: s} }
func (s *Store) Transactions() *TransactionRepository { return &TransactionRepository{store: s} }
func (s *Store) AML() *AMLRepository                  { return &AMLRepository{store: s} }
func (s *Store) Settlements() *SettlementRepository   { return &SettlementRepository{store: s} }
func (s *Store) Rates() *RateRepository               { return &RateRepository{store: s} }

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.LedgerTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{
		store:       s,
		held:        make(map[string]chan struct{}),
		wallets:     make(map[string]domain.Wallet),
		settlements: make(map[string]domain.Settlement),
		alertTxns:   make(map[string]struct{}),
	}
	defer tx.release()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	// A unit whose deadline passed before commit is rolled back.
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	for _, op := range tx.ops {
		op(s)
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) acquire(ctx context.Context, key string) (chan struct{}, error) {
	s.lockMu.Lock()
	ch, ok := s.rowLocks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.rowLocks[key] = ch
	}
	s.lockMu.Unlock()

	select {
	case ch <- struct{}{}:
		return ch, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type memTx struct {
	store *Store
	held  map[string]chan struct{}
	ops   []func(*Store)

	wallets     map[string]domain.Wallet
	settlements map[string]domain.Settlement
	alertTxns   map[string]struct{}
}

func (t *memTx) release() {
	for _, ch := range t.held {
		<-ch
	}
	t.held = nil
}

func (t *memTx) lock(ctx context.Context, key string) error {
	if _, ok := t.held[key]; ok {
		return nil
	}
	ch, err := t.store.acquire(ctx, key)
	if err != nil {
		return err
	}
	t.held[key] = ch
	return nil
}

func (t *memTx) LockWallet(ctx context.Context, walletID string) (domain.Wallet, error) {
	if w, ok := t.wallets[walletID]; ok {
		return w, nil
	}

	t.store.mu.RLock()
	_, exists := t.store.wallets[walletID]
	t.store.mu.RUnlock()
	if !exists {
		return domain.Wallet{}, domain.ErrRecordNotFound
	}

	if err := t.lock(ctx, "wallet:"+walletID); err != nil {
		return domain.Wallet{}, fmt.Errorf("lock wallet: %w", err)
	}

	t.store.mu.RLock()
	w := t.store.wallets[walletID]
	t.store.mu.RUnlock()

	t.wallets[walletID] = w
	return w, nil
}

func (t *memTx) SetWalletBalance(_ context.Context, walletID string, balance decimal.Decimal) error {
	w, ok := t.wallets[walletID]
	if !ok {
		return fmt.Errorf("set wallet balance: wallet %s is not locked in this unit", walletID)
	}
	if balance.IsNegative() {
		return fmt.Errorf("set wallet balance: %w", domain.ErrInsufficientBalance)
	}

	w.Balance = balance
	w.UpdatedAt = t.store.now()
	t.wallets[walletID] = w

	t.ops = append(t.ops, func(s *Store) {
		current := s.wallets[walletID]
		current.Balance = w.Balance
		current.UpdatedAt = w.UpdatedAt
		s.wallets[walletID] = current
	})
	return nil
}

func (t *memTx) InsertTransaction(_ context.Context, txn domain.Transaction) (domain.Transaction, error) {
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	txn.CreatedAt = t.store.now()
	txn.Metadata = copyMetadata(txn.Metadata)

	t.ops = append(t.ops, func(s *Store) {
		s.transactions = append(s.transactions, txn)
	})
	return txn, nil
}

func (t *memTx) InsertLedgerEntry(_ context.Context, entry domain.LedgerEntry) (domain.LedgerEntry, error) {
	if _, ok := t.wallets[entry.WalletID]; !ok {
		return domain.LedgerEntry{}, fmt.Errorf("insert ledger entry: wallet %s is not locked in this unit", entry.WalletID)
	}
	entry.ID = t.store.entrySeq.Add(1)
	entry.CreatedAt = t.store.now()

	t.ops = append(t.ops, func(s *Store) {
		s.entries = append(s.entries, entry)
	})
	return entry, nil
}

func (t *memTx) InsertFXTransaction(_ context.Context, fx domain.FXTransaction) (domain.FXTransaction, error) {
	fx.CreatedAt = t.store.now()
	t.ops = append(t.ops, func(s *Store) {
		s.fx[fx.TransactionID] = fx
	})
	return fx, nil
}

func (t *memTx) InsertAMLAlert(_ context.Context, alert domain.AMLAlert) (domain.AMLAlert, bool, error) {
	if _, staged := t.alertTxns[alert.TransactionID]; staged {
		return domain.AMLAlert{}, false, nil
	}
	t.store.mu.RLock()
	_, exists := t.store.alertByTxn[alert.TransactionID]
	t.store.mu.RUnlock()
	if exists {
		return domain.AMLAlert{}, false, nil
	}

	alert = newAlert(alert, t.store.now())
	t.alertTxns[alert.TransactionID] = struct{}{}
	t.ops = append(t.ops, func(s *Store) {
		s.insertAlertLocked(alert)
	})
	return alert, true, nil
}

func (t *memTx) LockSettlement(ctx context.Context, settlementID string) (domain.Settlement, error) {
	if st, ok := t.settlements[settlementID]; ok {
		return st, nil
	}

	t.store.mu.RLock()
	_, exists := t.store.settlements[settlementID]
	t.store.mu.RUnlock()
	if !exists {
		return domain.Settlement{}, domain.ErrRecordNotFound
	}

	if err := t.lock(ctx, "settlement:"+settlementID); err != nil {
		return domain.Settlement{}, fmt.Errorf("lock settlement: %w", err)
	}

	t.store.mu.RLock()
	st := t.store.settlements[settlementID]
	t.store.mu.RUnlock()

	t.settlements[settlementID] = st
	return st, nil
}

func (t *memTx) UpdateSettlement(_ context.Context, settlement domain.Settlement) (domain.Settlement, error) {
	if _, ok := t.settlements[settlement.ID]; !ok {
		return domain.Settlement{}, fmt.Errorf("update settlement: settlement %s is not locked in this unit", settlement.ID)
	}
	settlement.UpdatedAt = t.store.now()
	t.settlements[settlement.ID] = settlement

	t.ops = append(t.ops, func(s *Store) {
		s.settlements[settlement.ID] = settlement
		if settlement.ProviderReference != "" {
			s.settlementByRef[refKey(settlement.BankID, settlement.ProviderReference)] = settlement.ID
		}
	})
	return settlement, nil
}

func (t *memTx) AppendReconciliationLog(_ context.Context, entry domain.ReconciliationLog) error {
	entry.ID = t.store.logSeq.Add(1)
	entry.CreatedAt = t.store.now()
	t.ops = append(t.ops, func(s *Store) {
		s.logs = append(s.logs, entry)
	})
	return nil
}

func (s *Store) insertAlertLocked(alert domain.AMLAlert) bool {
	if _, exists := s.alertByTxn[alert.TransactionID]; exists {
		return false
	}
	s.alertByTxn[alert.TransactionID] = struct{}{}
	s.alerts = append(s.alerts, alert)
	return true
}

func newAlert(alert domain.AMLAlert, now time.Time) domain.AMLAlert {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.Status == "" {
		alert.Status = domain.AlertStatusPending
	}
	alert.CreatedAt = now
	return alert
}

func copyMetadata(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func refKey(bankID, reference string) string {
	return bankID + "|" + reference
}

func ownerKey(ownerID, currency string) string {
	return ownerID + "|" + currency
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]T, end-offset)
	copy(out, items[offset:end])
	return out
}
