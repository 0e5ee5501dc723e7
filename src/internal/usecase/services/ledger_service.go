package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/api-sage/fcy-ledger/src/internal/adapter/cache"
	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/api-sage/fcy-ledger/src/internal/logger"
	"github.com/api-sage/fcy-ledger/src/internal/metrics"
	"github.com/api-sage/fcy-ledger/src/internal/usecase/service_interfaces"
	"github.com/shopspring/decimal"
)

var _ service_interfaces.LedgerService = (*LedgerService)(nil)

type LedgerConfig struct {
	AML             AMLThresholds
	BalanceCacheTTL time.Duration
}

// LedgerService is the only component that mutates wallet balances.
type LedgerService struct {
	uow          domain.UnitOfWork
	wallets      domain.WalletRepository
	transactions domain.TransactionRepository
	cache        domain.Cache
	metrics      *metrics.Metrics
	cfg          LedgerConfig
}

func NewLedgerService(
	uow domain.UnitOfWork,
	wallets domain.WalletRepository,
	transactions domain.TransactionRepository,
	balanceCache domain.Cache,
	m *metrics.Metrics,
	cfg LedgerConfig,
) *LedgerService {
	if balanceCache == nil {
		balanceCache = cache.Noop{}
	}
	return &LedgerService{
		uow:          uow,
		wallets:      wallets,
		transactions: transactions,
		cache:        balanceCache,
		metrics:      m,
		cfg:          cfg,
	}
}

func (s *LedgerService) CreateWallet(ctx context.Context, ownerID string, currency string) (domain.Wallet, error) {
	ownerID = strings.TrimSpace(ownerID)
	currency, err := normalizeCurrency(currency)
	if err != nil {
		return domain.Wallet{}, err
	}
	if ownerID == "" {
		return domain.Wallet{}, fmt.Errorf("%w: owner id is required", domain.ErrInvalidArgument)
	}

	logger.Info("ledger service create wallet request", logger.Fields{
		"ownerId":  ownerID,
		"currency": currency,
	})

	wallet, err := s.wallets.Create(ctx, domain.Wallet{OwnerID: ownerID, Currency: currency, Balance: decimal.Zero})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.Wallet{}, fmt.Errorf("%w: wallet already exists for %s", domain.ErrConflict, currency)
		}
		logger.Error("ledger service create wallet failed", err, logger.Fields{"ownerId": ownerID})
		return domain.Wallet{}, err
	}

	logger.Info("ledger service create wallet success", logger.Fields{"walletId": wallet.ID})
	return wallet, nil
}

func (s *LedgerService) GetWallet(ctx context.Context, walletID string) (domain.Wallet, error) {
	wallet, err := s.wallets.GetByID(ctx, walletID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.Wallet{}, fmt.Errorf("%w: wallet %s", domain.ErrRecordNotFound, walletID)
		}
		return domain.Wallet{}, err
	}
	return wallet, nil
}

func (s *LedgerService) FindWallet(ctx context.Context, ownerID string, currency string) (domain.Wallet, error) {
	return s.wallets.GetByOwnerAndCurrency(ctx, ownerID, currency)
}

func (s *LedgerService) ListWallets(ctx context.Context, ownerID string) ([]domain.Wallet, error) {
	return s.wallets.ListByOwner(ctx, ownerID)
}

// GetBalance serves a possibly stale snapshot from the balance cache. It is
// never consulted by a mutating operation.
func (s *LedgerService) GetBalance(ctx context.Context, walletID string) (domain.Wallet, error) {
	key := balanceCacheKey(walletID)
	if raw, ok := s.cache.Get(ctx, key); ok {
		var cached domain.Wallet
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			s.metrics.CacheLookup("balance", true)
			return cached, nil
		}
	}
	s.metrics.CacheLookup("balance", false)

	wallet, err := s.GetWallet(ctx, walletID)
	if err != nil {
		return domain.Wallet{}, err
	}

	if raw, err := json.Marshal(wallet); err == nil {
		s.cache.Set(ctx, key, string(raw), s.cfg.BalanceCacheTTL)
	}
	return wallet, nil
}

func (s *LedgerService) ListTransactions(ctx context.Context, walletID string, limit int, offset int) ([]domain.Transaction, error) {
	if _, err := s.GetWallet(ctx, walletID); err != nil {
		return nil, err
	}
	return s.transactions.ListByWallet(ctx, walletID, limit, offset)
}

func (s *LedgerService) ListLedgerEntries(ctx context.Context, walletID string, limit int, offset int) ([]domain.LedgerEntry, error) {
	if _, err := s.GetWallet(ctx, walletID); err != nil {
		return nil, err
	}
	return s.transactions.ListLedgerEntries(ctx, walletID, limit, offset)
}

// VerifyLedger replays every entry of the wallet while holding its lock and
// compares the result with the stored balance.
func (s *LedgerService) VerifyLedger(ctx context.Context, walletID string) (domain.LedgerVerification, error) {
	if _, err := s.GetWallet(ctx, walletID); err != nil {
		return domain.LedgerVerification{}, err
	}

	var result domain.LedgerVerification
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx domain.LedgerTx) error {
		wallet, err := tx.LockWallet(ctx, walletID)
		if err != nil {
			return err
		}

		entries, err := s.transactions.ListLedgerEntries(ctx, walletID, 0, 0)
		if err != nil {
			return err
		}

		replayed := decimal.Zero
		for _, entry := range entries {
			replayed = replayed.Add(entry.Signed())
			if result.FirstMismatchEntryID == 0 && !replayed.Equal(entry.BalanceAfter) {
				result.FirstMismatchEntryID = entry.ID
			}
		}

		result.WalletID = walletID
		result.Balance = wallet.Balance
		result.ReplayedBalance = replayed
		result.EntryCount = len(entries)
		result.Consistent = replayed.Equal(wallet.Balance) && result.FirstMismatchEntryID == 0
		return nil
	})
	if err != nil {
		logger.Error("ledger service verify failed", err, logger.Fields{"walletId": walletID})
		return domain.LedgerVerification{}, err
	}

	if !result.Consistent {
		logger.Warn("ledger service verify mismatch", logger.Fields{
			"walletId": walletID,
			"balance":  result.Balance.String(),
			"replayed": result.ReplayedBalance.String(),
		})
	}
	return result, nil
}

func (s *LedgerService) Deposit(ctx context.Context, walletID string, amount decimal.Decimal, metadata map[string]any) (result domain.LedgerResult, err error) {
	defer func() { s.metrics.LedgerOperation("deposit", err) }()

	logger.Info("ledger service deposit request", logger.Fields{
		"walletId": walletID,
		"amount":   amount.String(),
	})

	if err := validateAmount(amount); err != nil {
		return domain.LedgerResult{}, err
	}
	wallet, err := s.GetWallet(ctx, walletID)
	if err != nil {
		return domain.LedgerResult{}, err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx domain.LedgerTx) error {
		if _, err := tx.LockWallet(ctx, wallet.ID); err != nil {
			return err
		}

		txn, err := tx.InsertTransaction(ctx, domain.Transaction{
			WalletID: wallet.ID,
			Type:     domain.TransactionTypeDeposit,
			Amount:   amount,
			Currency: wallet.Currency,
			Status:   domain.TransactionStatusCompleted,
			Metadata: metadata,
		})
		if err != nil {
			return err
		}

		updated, err := s.Credit(ctx, tx, wallet.ID, txn.ID, amount)
		if err != nil {
			return err
		}

		result = domain.LedgerResult{Transaction: txn, Wallet: updated}
		return nil
	})
	if err != nil {
		logger.Error("ledger service deposit failed", err, logger.Fields{"walletId": walletID})
		return domain.LedgerResult{}, err
	}

	s.InvalidateBalances(ctx, wallet.ID)

	logger.Info("ledger service deposit success", logger.Fields{
		"walletId":      walletID,
		"transactionId": result.Transaction.ID,
	})
	return result, nil
}

func (s *LedgerService) Withdraw(ctx context.Context, walletID string, amount decimal.Decimal, metadata map[string]any) (result domain.LedgerResult, err error) {
	defer func() { s.metrics.LedgerOperation("withdraw", err) }()

	logger.Info("ledger service withdraw request", logger.Fields{
		"walletId": walletID,
		"amount":   amount.String(),
	})

	if err := validateAmount(amount); err != nil {
		return domain.LedgerResult{}, err
	}
	wallet, err := s.GetWallet(ctx, walletID)
	if err != nil {
		return domain.LedgerResult{}, err
	}
	if !wallet.CanCover(amount) {
		return domain.LedgerResult{}, insufficientBalance(wallet.ID)
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx domain.LedgerTx) error {
		locked, err := tx.LockWallet(ctx, wallet.ID)
		if err != nil {
			return err
		}
		if !locked.CanCover(amount) {
			return insufficientBalance(wallet.ID)
		}

		txn, err := tx.InsertTransaction(ctx, domain.Transaction{
			WalletID: wallet.ID,
			Type:     domain.TransactionTypeWithdrawal,
			Amount:   amount,
			Currency: wallet.Currency,
			Status:   domain.TransactionStatusCompleted,
			Metadata: metadata,
		})
		if err != nil {
			return err
		}

		updated, err := s.Debit(ctx, tx, wallet.ID, txn.ID, amount)
		if err != nil {
			return err
		}
		result = domain.LedgerResult{Transaction: txn, Wallet: updated}

		severity, flagged := s.cfg.AML.Classify(amount)
		if !flagged {
			return nil
		}
		alert := domain.AMLAlert{
			TransactionID: txn.ID,
			Type:          domain.AlertTypeLargeWithdrawal,
			Severity:      severity,
			Status:        domain.AlertStatusPending,
		}
		stored, created, err := tx.InsertAMLAlert(ctx, alert)
		if err != nil {
			return err
		}
		if created {
			result.Alert = &stored
		}
		return nil
	})
	if err != nil {
		logger.Error("ledger service withdraw failed", err, logger.Fields{"walletId": walletID})
		return domain.LedgerResult{}, err
	}

	s.InvalidateBalances(ctx, wallet.ID)
	if result.Alert != nil {
		s.metrics.AMLAlert(result.Alert.Type, string(result.Alert.Severity))
		logger.Warn("ledger service withdraw flagged", logger.Fields{
			"walletId":      walletID,
			"transactionId": result.Transaction.ID,
			"severity":      result.Alert.Severity,
		})
	}

	logger.Info("ledger service withdraw success", logger.Fields{
		"walletId":      walletID,
		"transactionId": result.Transaction.ID,
	})
	return result, nil
}

func (s *LedgerService) Transfer(ctx context.Context, sourceID string, destinationID string, amount decimal.Decimal, metadata map[string]any) (result domain.TransferResult, err error) {
	defer func() { s.metrics.LedgerOperation("transfer", err) }()

	logger.Info("ledger service transfer request", logger.Fields{
		"sourceWalletId":      sourceID,
		"destinationWalletId": destinationID,
		"amount":              amount.String(),
	})

	if err := validateAmount(amount); err != nil {
		return domain.TransferResult{}, err
	}
	if sourceID == destinationID {
		return domain.TransferResult{}, fmt.Errorf("%w: source and destination wallet are the same", domain.ErrInvalidArgument)
	}

	source, err := s.GetWallet(ctx, sourceID)
	if err != nil {
		return domain.TransferResult{}, err
	}
	destination, err := s.GetWallet(ctx, destinationID)
	if err != nil {
		return domain.TransferResult{}, err
	}
	if source.Currency != destination.Currency {
		return domain.TransferResult{}, fmt.Errorf("%w: cross-currency transfer %s to %s must be converted", domain.ErrInvalidArgument, source.Currency, destination.Currency)
	}
	if !source.CanCover(amount) {
		return domain.TransferResult{}, insufficientBalance(source.ID)
	}

	txMetadata := copyMetadata(metadata)
	txMetadata["destination_wallet_id"] = destination.ID

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx domain.LedgerTx) error {
		locked, err := s.LockWallets(ctx, tx, source.ID, destination.ID)
		if err != nil {
			return err
		}
		if !locked[source.ID].CanCover(amount) {
			return insufficientBalance(source.ID)
		}

		txn, err := tx.InsertTransaction(ctx, domain.Transaction{
			WalletID: source.ID,
			Type:     domain.TransactionTypeTransfer,
			Amount:   amount,
			Currency: source.Currency,
			Status:   domain.TransactionStatusCompleted,
			Metadata: txMetadata,
		})
		if err != nil {
			return err
		}

		debited, err := s.Debit(ctx, tx, source.ID, txn.ID, amount)
		if err != nil {
			return err
		}
		credited, err := s.Credit(ctx, tx, destination.ID, txn.ID, amount)
		if err != nil {
			return err
		}

		result = domain.TransferResult{Transaction: txn, Source: debited, Destination: credited}
		return nil
	})
	if err != nil {
		logger.Error("ledger service transfer failed", err, logger.Fields{
			"sourceWalletId":      sourceID,
			"destinationWalletId": destinationID,
		})
		return domain.TransferResult{}, err
	}

	s.InvalidateBalances(ctx, source.ID, destination.ID)

	logger.Info("ledger service transfer success", logger.Fields{
		"transactionId": result.Transaction.ID,
	})
	return result, nil
}

// LockWallets leases every wallet in ascending id order so two units that
// touch the same pair can never deadlock.
func (s *LedgerService) LockWallets(ctx context.Context, tx domain.LedgerTx, walletIDs ...string) (map[string]domain.Wallet, error) {
	ordered := append([]string(nil), walletIDs...)
	sort.Strings(ordered)

	locked := make(map[string]domain.Wallet, len(ordered))
	for _, id := range ordered {
		if _, done := locked[id]; done {
			continue
		}
		w, err := tx.LockWallet(ctx, id)
		if err != nil {
			return nil, err
		}
		locked[id] = w
	}
	return locked, nil
}

// Debit lowers the wallet balance inside the caller's unit and records the
// matching ledger entry. The locked balance is authoritative.
func (s *LedgerService) Debit(ctx context.Context, tx domain.LedgerTx, walletID string, transactionID string, amount decimal.Decimal) (domain.Wallet, error) {
	wallet, err := tx.LockWallet(ctx, walletID)
	if err != nil {
		return domain.Wallet{}, err
	}
	if !wallet.CanCover(amount) {
		return domain.Wallet{}, insufficientBalance(walletID)
	}
	return s.post(ctx, tx, wallet, transactionID, domain.LedgerEntryDebit, amount)
}

// Credit raises the wallet balance inside the caller's unit and records the
// matching ledger entry.
func (s *LedgerService) Credit(ctx context.Context, tx domain.LedgerTx, walletID string, transactionID string, amount decimal.Decimal) (domain.Wallet, error) {
	wallet, err := tx.LockWallet(ctx, walletID)
	if err != nil {
		return domain.Wallet{}, err
	}
	return s.post(ctx, tx, wallet, transactionID, domain.LedgerEntryCredit, amount)
}

func (s *LedgerService) post(ctx context.Context, tx domain.LedgerTx, wallet domain.Wallet, transactionID string, entryType domain.LedgerEntryType, amount decimal.Decimal) (domain.Wallet, error) {
	if err := validateAmount(amount); err != nil {
		return domain.Wallet{}, err
	}

	entry := domain.LedgerEntry{
		TransactionID: transactionID,
		WalletID:      wallet.ID,
		EntryType:     entryType,
		Amount:        amount,
	}
	next := wallet.Balance.Add(entry.Signed())
	entry.BalanceAfter = next

	if err := tx.SetWalletBalance(ctx, wallet.ID, next); err != nil {
		return domain.Wallet{}, err
	}
	if _, err := tx.InsertLedgerEntry(ctx, entry); err != nil {
		return domain.Wallet{}, err
	}

	wallet.Balance = next
	return wallet, nil
}

// InvalidateBalances drops cached balance snapshots. Failures are ignored.
func (s *LedgerService) InvalidateBalances(ctx context.Context, walletIDs ...string) {
	keys := make([]string, 0, len(walletIDs))
	for _, id := range walletIDs {
		keys = append(keys, balanceCacheKey(id))
	}
	s.cache.Delete(ctx, keys...)
}

func balanceCacheKey(walletID string) string {
	return "wallet:balance:" + walletID
}

func insufficientBalance(walletID string) error {
	return fmt.Errorf("%w: wallet %s", domain.ErrInsufficientBalance, walletID)
}
