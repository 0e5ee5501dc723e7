package services_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/api-sage/fcy-ledger/src/internal/adapter/repository/memory"
	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/api-sage/fcy-ledger/src/internal/usecase/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerServiceCreateWalletValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.CreateWallet(ctx, "", "USD")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.ledger.CreateWallet(ctx, "owner-1", "US")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	w, err := f.ledger.CreateWallet(ctx, "owner-1", "usd")
	require.NoError(t, err)
	assert.Equal(t, "USD", w.Currency)
	assert.True(t, w.Balance.IsZero())

	_, err = f.ledger.CreateWallet(ctx, "owner-1", "USD")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestLedgerServiceDepositAndWithdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.fundedWallet(t, "owner-1", "USD", 100)

	res, err := f.ledger.Withdraw(ctx, w.ID, decimal.NewFromInt(30), map[string]any{"note": "rent"})
	require.NoError(t, err)
	assert.True(t, res.Wallet.Balance.Equal(decimal.NewFromInt(70)))
	assert.Equal(t, domain.TransactionTypeWithdrawal, res.Transaction.Type)
	assert.Nil(t, res.Alert)

	txns, err := f.ledger.ListTransactions(ctx, w.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, res.Transaction.ID, txns[0].ID)

	entries, err := f.ledger.ListLedgerEntries(ctx, w.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.LedgerEntryCredit, entries[0].EntryType)
	assert.Equal(t, domain.LedgerEntryDebit, entries[1].EntryType)
	assert.True(t, entries[1].BalanceAfter.Equal(decimal.NewFromInt(70)))

	f.requireConsistent(t, w.ID)
}

func TestLedgerServiceRejectsInvalidAmounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.fundedWallet(t, "owner-1", "USD", 0)

	_, err := f.ledger.Deposit(ctx, w.ID, decimal.Zero, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.ledger.Withdraw(ctx, w.ID, decimal.NewFromInt(-5), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.ledger.Deposit(ctx, "missing", decimal.NewFromInt(1), nil)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestLedgerServiceRejectsSubMinorPrecision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.fundedWallet(t, "owner-1", "USD", 10)
	other := f.fundedWallet(t, "owner-2", "USD", 0)

	_, err := f.ledger.Deposit(ctx, w.ID, decimal.RequireFromString("0.00015"), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.ledger.Withdraw(ctx, w.ID, decimal.RequireFromString("1.00001"), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.ledger.Transfer(ctx, w.ID, other.ID, decimal.RequireFromString("0.12345"), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	assert.True(t, f.balance(t, w.ID).Equal(decimal.NewFromInt(10)))
	assert.True(t, f.balance(t, other.ID).IsZero())

	res, err := f.ledger.Deposit(ctx, w.ID, decimal.RequireFromString("10.5000"), nil)
	require.NoError(t, err)
	assert.True(t, res.Wallet.Balance.Equal(decimal.RequireFromString("20.5")))

	_, err = f.ledger.Withdraw(ctx, w.ID, decimal.RequireFromString("0.0001"), nil)
	require.NoError(t, err)
	f.requireConsistent(t, w.ID)
}

func TestLedgerServiceWithdrawInsufficientBalanceLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.fundedWallet(t, "owner-1", "USD", 50)

	_, err := f.ledger.Withdraw(ctx, w.ID, decimal.NewFromInt(51), nil)
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	assert.True(t, f.balance(t, w.ID).Equal(decimal.NewFromInt(50)))
	txns, err := f.ledger.ListTransactions(ctx, w.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestLedgerServiceConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	w := f.fundedWallet(t, "owner-1", "USD", 100)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		rejected  atomic.Int32
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.Withdraw(ctx, w.ID, decimal.NewFromInt(10), nil)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, domain.ErrInsufficientBalance):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 10, succeeded.Load())
	assert.EqualValues(t, 30, rejected.Load())
	assert.True(t, f.balance(t, w.ID).IsZero())
	f.requireConsistent(t, w.ID)
}

func TestLedgerServiceConcurrentTransfersNeverOverdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	source := f.fundedWallet(t, "owner-1", "USD", 100)
	destination := f.fundedWallet(t, "owner-2", "USD", 0)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		rejected  atomic.Int32
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.Transfer(ctx, source.ID, destination.ID, decimal.NewFromInt(10), nil)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, domain.ErrInsufficientBalance):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 10, succeeded.Load())
	assert.EqualValues(t, 30, rejected.Load())
	assert.True(t, f.balance(t, source.ID).IsZero())
	assert.True(t, f.balance(t, destination.ID).Equal(decimal.NewFromInt(100)))
	f.requireConsistent(t, source.ID)
	f.requireConsistent(t, destination.ID)
}

func TestLedgerServiceTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	source := f.fundedWallet(t, "owner-1", "USD", 100)
	destination := f.fundedWallet(t, "owner-2", "USD", 0)

	res, err := f.ledger.Transfer(ctx, source.ID, destination.ID, decimal.NewFromInt(40), nil)
	require.NoError(t, err)
	assert.True(t, res.Source.Balance.Equal(decimal.NewFromInt(60)))
	assert.True(t, res.Destination.Balance.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, destination.ID, res.Transaction.Metadata["destination_wallet_id"])

	f.requireConsistent(t, source.ID)
	f.requireConsistent(t, destination.ID)
}

func TestLedgerServiceTransferValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	usd := f.fundedWallet(t, "owner-1", "USD", 100)
	ngn := f.fundedWallet(t, "owner-1", "NGN", 0)

	_, err := f.ledger.Transfer(ctx, usd.ID, usd.ID, decimal.NewFromInt(1), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.ledger.Transfer(ctx, usd.ID, ngn.ID, decimal.NewFromInt(1), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	other := f.fundedWallet(t, "owner-2", "USD", 0)
	_, err = f.ledger.Transfer(ctx, usd.ID, other.ID, decimal.NewFromInt(101), nil)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.True(t, f.balance(t, usd.ID).Equal(decimal.NewFromInt(100)))
	assert.True(t, f.balance(t, other.ID).IsZero())
}

func TestLedgerServiceOpposingTransfersDoNotDeadlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.fundedWallet(t, "owner-1", "USD", 1000)
	b := f.fundedWallet(t, "owner-2", "USD", 1000)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.ledger.Transfer(ctx, a.ID, b.ID, decimal.NewFromInt(5), nil)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := f.ledger.Transfer(ctx, b.ID, a.ID, decimal.NewFromInt(5), nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	total := f.balance(t, a.ID).Add(f.balance(t, b.ID))
	assert.True(t, total.Equal(decimal.NewFromInt(2000)))
	f.requireConsistent(t, a.ID)
	f.requireConsistent(t, b.ID)
}

func TestLedgerServiceWithdrawAMLThresholds(t *testing.T) {
	cases := []struct {
		name     string
		amount   string
		flagged  bool
		severity domain.AlertSeverity
	}{
		{name: "exactly medium", amount: "10000", flagged: false},
		{name: "one unit above medium", amount: "10001", flagged: true, severity: domain.AlertSeverityMedium},
		{name: "exactly high", amount: "50000", flagged: true, severity: domain.AlertSeverityMedium},
		{name: "above high", amount: "50000.01", flagged: true, severity: domain.AlertSeverityHigh},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			w := f.fundedWallet(t, "owner-1", "USD", 100000)

			res, err := f.ledger.Withdraw(context.Background(), w.ID, decimal.RequireFromString(tc.amount), nil)
			require.NoError(t, err)

			alerts, err := f.aml.ListAlerts(context.Background(), 0, 0)
			require.NoError(t, err)

			if !tc.flagged {
				assert.Nil(t, res.Alert)
				assert.Empty(t, alerts)
				return
			}
			require.NotNil(t, res.Alert)
			assert.Equal(t, tc.severity, res.Alert.Severity)
			assert.Equal(t, domain.AlertTypeLargeWithdrawal, res.Alert.Type)
			require.Len(t, alerts, 1)
			assert.Equal(t, res.Transaction.ID, alerts[0].TransactionID)
			assert.NotEmpty(t, res.Alert.ID)
			assert.Equal(t, alerts[0].ID, res.Alert.ID)
			assert.False(t, res.Alert.CreatedAt.IsZero())
			assert.True(t, alerts[0].CreatedAt.Equal(res.Alert.CreatedAt))
		})
	}
}

func TestLedgerServiceBalanceCacheInvalidatedOnMutation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	balances := newMapCache()
	ledger := services.NewLedgerService(store, store.Wallets(), store.Transactions(), balances, nil, services.LedgerConfig{
		AML:             testThresholds,
		BalanceCacheTTL: time.Minute,
	})

	w, err := ledger.CreateWallet(ctx, "owner-1", "EUR")
	require.NoError(t, err)

	got, err := ledger.GetBalance(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero())
	_, cached := balances.Get(ctx, "wallet:balance:"+w.ID)
	require.True(t, cached)

	_, err = ledger.Deposit(ctx, w.ID, decimal.NewFromInt(25), nil)
	require.NoError(t, err)
	_, cached = balances.Get(ctx, "wallet:balance:"+w.ID)
	assert.False(t, cached)

	got, err = ledger.GetBalance(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(25)))
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]string)}
}

func (c *mapCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, key string, value string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

func (c *mapCache) Delete(_ context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
}
