package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/api-sage/fcy-ledger/src/internal/adapter/repository/memory"
	"github.com/api-sage/fcy-ledger/src/internal/adapter/repository/seed"
	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/api-sage/fcy-ledger/src/internal/usecase/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) ofType(eventType string) []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.Event
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	store       *memory.Store
	clock       *fakeClock
	publisher   *recordingPublisher
	ledger      *services.LedgerService
	rates       *services.RateService
	fx          *services.FXService
	aml         *services.AMLService
	settlements *services.SettlementService
	cards       *services.CardChargeService
	collections *services.CollectionService
}

var testThresholds = services.AMLThresholds{
	Medium: decimal.NewFromInt(10000),
	High:   decimal.NewFromInt(50000),
}

var testFeeRate = decimal.RequireFromString("0.005")

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := newFakeClock()
	store := memory.NewStore(memory.WithClock(clock.Now))
	store.Rates().EnsureDefaultRates(context.Background(), seed.Rates())

	banks, err := seed.Banks("webhook-secret")
	require.NoError(t, err)

	publisher := &recordingPublisher{}
	ledger := services.NewLedgerService(store, store.Wallets(), store.Transactions(), nil, nil, services.LedgerConfig{
		AML:             testThresholds,
		BalanceCacheTTL: 10 * time.Second,
	})
	rates := services.NewRateService(store.Rates(), nil, nil, services.RateConfig{
		CacheTTL: 30 * time.Second,
		FeeRate:  testFeeRate,
	})
	aml := services.NewAMLService(store.AML(), testThresholds, publisher, nil).WithClock(clock.Now)
	settlements := services.NewSettlementService(
		store,
		store.Settlements(),
		memory.NewBankRepository(banks),
		ledger,
		publisher,
		nil,
		services.SettlementConfig{CompletionWindow: 2 * time.Minute, StaleAfter: 24 * time.Hour},
	).WithClock(clock.Now)

	return &fixture{
		store:       store,
		clock:       clock,
		publisher:   publisher,
		ledger:      ledger,
		rates:       rates,
		fx:          services.NewFXService(store, ledger, rates, publisher, nil, testFeeRate),
		aml:         aml,
		settlements: settlements,
		cards:       services.NewCardChargeService(ledger, aml),
		collections: services.NewCollectionService(ledger),
	}
}

func (f *fixture) fundedWallet(t *testing.T, owner string, currency string, balance int64) domain.Wallet {
	t.Helper()
	ctx := context.Background()

	w, err := f.ledger.CreateWallet(ctx, owner, currency)
	require.NoError(t, err)
	if balance == 0 {
		return w
	}
	res, err := f.ledger.Deposit(ctx, w.ID, decimal.NewFromInt(balance), nil)
	require.NoError(t, err)
	return res.Wallet
}

func (f *fixture) balance(t *testing.T, walletID string) decimal.Decimal {
	t.Helper()
	w, err := f.ledger.GetWallet(context.Background(), walletID)
	require.NoError(t, err)
	return w.Balance
}

func (f *fixture) requireConsistent(t *testing.T, walletID string) {
	t.Helper()
	v, err := f.ledger.VerifyLedger(context.Background(), walletID)
	require.NoError(t, err)
	require.True(t, v.Consistent, "ledger replay %s does not match balance %s", v.ReplayedBalance, v.Balance)
}
