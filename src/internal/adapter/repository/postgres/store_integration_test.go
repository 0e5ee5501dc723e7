package postgres_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/api-sage/fcy-ledger/src/internal/adapter/repository/postgres"
	"github.com/api-sage/fcy-ledger/src/internal/adapter/repository/seed"
	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("LEDGER_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("LEDGER_TEST_DATABASE_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := postgres.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, file, _, _ := runtime.Caller(0)
	migrations := filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "migrations")
	require.NoError(t, postgres.RunMigrations(ctx, db, migrations))
	return db
}

func TestStoreDepositAndRollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := postgres.NewStore(db)

	w, err := store.Wallets().Create(ctx, domain.Wallet{OwnerID: "it-" + uuid.NewString(), Currency: "USD", Balance: decimal.Zero})
	require.NoError(t, err)

	err = store.WithinTx(ctx, func(ctx context.Context, tx domain.LedgerTx) error {
		locked, err := tx.LockWallet(ctx, w.ID)
		if err != nil {
			return err
		}
		txn, err := tx.InsertTransaction(ctx, domain.Transaction{
			WalletID: w.ID,
			Type:     domain.TransactionTypeDeposit,
			Amount:   decimal.NewFromInt(25),
			Currency: "USD",
			Status:   domain.TransactionStatusCompleted,
			Metadata: map[string]any{"reason": "integration"},
		})
		if err != nil {
			return err
		}
		next := locked.Balance.Add(decimal.NewFromInt(25))
		if _, err := tx.InsertLedgerEntry(ctx, domain.LedgerEntry{TransactionID: txn.ID, WalletID: w.ID, EntryType: domain.LedgerEntryCredit, Amount: decimal.NewFromInt(25), BalanceAfter: next}); err != nil {
			return err
		}
		return tx.SetWalletBalance(ctx, w.ID, next)
	})
	require.NoError(t, err)

	err = store.WithinTx(ctx, func(ctx context.Context, tx domain.LedgerTx) error {
		if _, err := tx.LockWallet(ctx, w.ID); err != nil {
			return err
		}
		return tx.SetWalletBalance(ctx, w.ID, decimal.NewFromInt(-1))
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	got, err := store.Wallets().GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(25)))

	txns, err := store.Transactions().ListByWallet(ctx, w.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "integration", txns[0].Metadata["reason"])

	_, err = store.Wallets().Create(ctx, domain.Wallet{OwnerID: w.OwnerID, Currency: "USD"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestStoreSeedsReferenceData(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := postgres.NewStore(db)

	require.NoError(t, store.Rates().EnsureDefaultRates(ctx, seed.Rates()))
	rate, err := store.Rates().GetLatestRate(ctx, "USD", "NGN")
	require.NoError(t, err)
	assert.True(t, rate.Rate.IsPositive())

	banks, err := seed.Banks("integration-secret")
	require.NoError(t, err)
	require.NoError(t, store.Banks().EnsureBanks(ctx, banks))

	bank, err := store.Banks().GetByID(ctx, "044001")
	require.NoError(t, err)
	assert.Equal(t, "NG", bank.Country)
}
