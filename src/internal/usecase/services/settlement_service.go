package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/api-sage/fcy-ledger/src/internal/logger"
	"github.com/api-sage/fcy-ledger/src/internal/metrics"
	"github.com/api-sage/fcy-ledger/src/internal/usecase/service_interfaces"
	"github.com/oklog/ulid/v2"
)

var _ service_interfaces.SettlementService = (*SettlementService)(nil)

const defaultBankFailureReason = "reported failed by bank"

type SettlementConfig struct {
	// CompletionWindow is how long a pending settlement may wait for a bank
	// callback before it is treated as completed.
	CompletionWindow time.Duration
	StaleAfter       time.Duration
}

type SettlementService struct {
	uow         domain.UnitOfWork
	settlements domain.SettlementRepository
	banks       domain.BankRepository
	ledger      *LedgerService
	publisher   domain.EventPublisher
	metrics     *metrics.Metrics
	cfg         SettlementConfig
	now         func() time.Time
}

func NewSettlementService(
	uow domain.UnitOfWork,
	settlements domain.SettlementRepository,
	banks domain.BankRepository,
	ledger *LedgerService,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
	cfg SettlementConfig,
) *SettlementService {
	return &SettlementService{
		uow:         uow,
		settlements: settlements,
		banks:       banks,
		ledger:      ledger,
		publisher:   publisher,
		metrics:     m,
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the clock used for auto-completion and reconciliation.
func (s *SettlementService) WithClock(now func() time.Time) *SettlementService {
	s.now = now
	return s
}

func (s *SettlementService) Initiate(ctx context.Context, req domain.InitiateSettlementRequest) (domain.Settlement, error) {
	logger.Info("settlement service initiate request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := validateAmount(req.Amount); err != nil {
		return domain.Settlement{}, err
	}

	key := strings.TrimSpace(req.IdempotencyKey)
	if key != "" {
		existing, err := s.settlements.GetByIdempotencyKey(ctx, key)
		if err == nil {
			logger.Info("settlement service initiate replay", logger.Fields{"settlementId": existing.ID})
			return existing, nil
		}
		if !errors.Is(err, domain.ErrRecordNotFound) {
			return domain.Settlement{}, err
		}
	}

	wallet, err := s.ledger.GetWallet(ctx, req.WalletID)
	if err != nil {
		return domain.Settlement{}, err
	}
	bank, err := s.resolveBank(ctx, strings.TrimSpace(req.BankID), wallet.Currency)
	if err != nil {
		return domain.Settlement{}, err
	}

	row := domain.Settlement{
		WalletID: wallet.ID,
		BankID:   bank.ID,
		Amount:   req.Amount,
		Currency: wallet.Currency,
		Status:   domain.SettlementStatusProcessing,
	}
	if key != "" {
		row.IdempotencyKey = &key
	}

	settlement, err := s.settlements.Create(ctx, row)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) && key != "" {
			return s.settlements.GetByIdempotencyKey(ctx, key)
		}
		logger.Error("settlement service create failed", err, logger.Fields{"walletId": wallet.ID})
		return domain.Settlement{}, err
	}
	s.metrics.SettlementTransition(string(domain.SettlementStatusProcessing))

	debit, err := s.ledger.Withdraw(ctx, wallet.ID, req.Amount, map[string]any{
		"reason":        "settlement",
		"settlement_id": settlement.ID,
		"bank_id":       bank.ID,
	})
	if err != nil {
		failed, markErr := s.markDebitFailed(ctx, settlement.ID, err)
		if markErr != nil {
			logger.Error("settlement service mark failed errored", markErr, logger.Fields{"settlementId": settlement.ID})
			return settlement, err
		}
		return failed, err
	}

	var pending domain.Settlement
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx domain.LedgerTx) error {
		locked, err := tx.LockSettlement(ctx, settlement.ID)
		if err != nil {
			return err
		}
		locked.Status = domain.SettlementStatusPending
		locked.ProviderReference = ulid.Make().String()
		locked.FailureReason = nil

		pending, err = tx.UpdateSettlement(ctx, locked)
		if err != nil {
			return err
		}
		return tx.AppendReconciliationLog(ctx, domain.ReconciliationLog{
			SettlementID: settlement.ID,
			Action:       domain.ReconciliationActionInitiated,
			Note:         "debited by transaction " + debit.Transaction.ID,
		})
	})
	if err != nil {
		logger.Error("settlement service move to pending failed", err, logger.Fields{
			"settlementId":  settlement.ID,
			"transactionId": debit.Transaction.ID,
		})
		s.noteStuckDebit(ctx, settlement.ID, debit.Transaction.ID, err)
		return settlement, err
	}

	s.transitioned(ctx, pending, domain.SettlementStatusProcessing)

	logger.Info("settlement service initiate success", logger.Fields{
		"settlementId":      pending.ID,
		"providerReference": pending.ProviderReference,
	})
	return pending, nil
}

// noteStuckDebit records that the wallet was debited while the settlement
// stayed in processing, so reconciliation can find the row.
func (s *SettlementService) noteStuckDebit(ctx context.Context, settlementID string, transactionID string, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx domain.LedgerTx) error {
		return tx.AppendReconciliationLog(ctx, domain.ReconciliationLog{
			SettlementID: settlementID,
			Action:       domain.ReconciliationActionInitiated,
			Note:         fmt.Sprintf("debited by transaction %s; pending transition failed: %v", transactionID, cause),
		})
	})
	if err != nil {
		logger.Error("settlement service stuck debit note failed", err, logger.Fields{"settlementId": settlementID})
	}
}

// resolveBank returns the requested bank when it is active. With no bank
// requested it routes to an active bank in the currency's country, falling
// back to any active bank.
func (s *SettlementService) resolveBank(ctx context.Context, bankID string, currency string) (domain.Bank, error) {
	if bankID != "" {
		bank, err := s.banks.GetByID(ctx, bankID)
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				return domain.Bank{}, fmt.Errorf("%w: bank %s", domain.ErrRecordNotFound, bankID)
			}
			return domain.Bank{}, err
		}
		if bank.Status != domain.BankStatusActive {
			return domain.Bank{}, fmt.Errorf("%w: bank %s is not active", domain.ErrInvalidArgument, bankID)
		}
		return bank, nil
	}

	banks, err := s.banks.GetAll(ctx)
	if err != nil {
		return domain.Bank{}, err
	}

	country := currencyCountry(currency)
	var fallback *domain.Bank
	for i := range banks {
		if banks[i].Status != domain.BankStatusActive {
			continue
		}
		if banks[i].Country == country {
			return banks[i], nil
		}
		if fallback == nil {
			fallback = &banks[i]
		}
	}
	if fallback == nil {
		return domain.Bank{}, fmt.Errorf("%w: no active bank", domain.ErrRecordNotFound)
	}
	return *fallback, nil
}

func currencyCountry(currency string) string {
	switch currency {
	case "EUR":
		return "EU"
	case "":
		return ""
	default:
		return currency[:2]
	}
}

func (s *SettlementService) markDebitFailed(ctx context.Context, settlementID string, cause error) (domain.Settlement, error) {
	// The debit may have failed because ctx expired; the failure itself must
	// still be recorded.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	reason := cause.Error()
	var failed domain.Settlement
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx domain.LedgerTx) error {
		locked, err := tx.LockSettlement(ctx, settlementID)
		if err != nil {
			return err
		}
		locked.Status = domain.SettlementStatusFailed
		locked.FailureReason = &reason

		failed, err = tx.UpdateSettlement(ctx, locked)
		if err != nil {
			return err
		}
		return tx.AppendReconciliationLog(ctx, domain.ReconciliationLog{
			SettlementID: settlementID,
			Action:       domain.ReconciliationActionDebitFailed,
			Note:         reason,
		})
	})
	if err != nil {
		return domain.Settlement{}, err
	}

	s.transitioned(ctx, failed, domain.SettlementStatusProcessing)
	return failed, nil
}

// HandleBankCallback applies a bank's status report. Callbacks against a
// terminal settlement are acknowledged without side effects.
func (s *SettlementService) HandleBankCallback(ctx context.Context, bankID string, cb domain.BankCallback) (domain.Settlement, error) {
	logger.Info("settlement service bank callback request", logger.Fields{
		"bankId":  bankID,
		"payload": logger.SanitizePayload(cb),
	})

	status := strings.ToLower(strings.TrimSpace(cb.Status))
	switch status {
	case domain.BankCallbackPending, domain.BankCallbackCompleted, domain.BankCallbackFailed, domain.BankCallbackReversed:
	default:
		return domain.Settlement{}, fmt.Errorf("%w: unknown callback status %q", domain.ErrInvalidArgument, cb.Status)
	}

	target, err := s.lookupForBank(ctx, bankID, cb)
	if err != nil {
		return domain.Settlement{}, err
	}

	var (
		result   domain.Settlement
		previous domain.SettlementStatus
		reversed bool
	)
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx domain.LedgerTx) error {
		locked, err := tx.LockSettlement(ctx, target.ID)
		if err != nil {
			return err
		}
		previous = locked.Status
		result = locked

		if locked.Status.IsTerminal() {
			return nil
		}
		if locked.Status == domain.SettlementStatusProcessing {
			return fmt.Errorf("%w: settlement %s debit is still in flight", domain.ErrConflict, locked.ID)
		}

		note := status
		switch status {
		case domain.BankCallbackPending:
		case domain.BankCallbackCompleted:
			locked.Status = domain.SettlementStatusCompleted
			locked.FailureReason = nil
		default:
			reason := strings.TrimSpace(cb.FailureReason)
			if reason == "" {
				reason = defaultBankFailureReason
			}
			if err := s.reverseDebit(ctx, tx, locked, reason); err != nil {
				return err
			}
			locked.Status = domain.SettlementStatusFailed
			locked.FailureReason = &reason
			note = status + ": " + reason
			reversed = true
		}

		result, err = tx.UpdateSettlement(ctx, locked)
		if err != nil {
			return err
		}

		action := domain.ReconciliationActionCallback
		if reversed {
			action = domain.ReconciliationActionReversed
		}
		return tx.AppendReconciliationLog(ctx, domain.ReconciliationLog{
			SettlementID: locked.ID,
			Action:       action,
			Note:         note,
		})
	})
	if err != nil {
		logger.Error("settlement service bank callback failed", err, logger.Fields{
			"bankId":       bankID,
			"settlementId": target.ID,
		})
		return domain.Settlement{}, err
	}

	if reversed {
		s.ledger.InvalidateBalances(ctx, result.WalletID)
	}
	if result.Status != previous {
		s.transitioned(ctx, result, previous)
	}

	logger.Info("settlement service bank callback success", logger.Fields{
		"settlementId": result.ID,
		"status":       result.Status,
	})
	return result, nil
}

func (s *SettlementService) lookupForBank(ctx context.Context, bankID string, cb domain.BankCallback) (domain.Settlement, error) {
	id := strings.TrimSpace(cb.SettlementID)
	reference := strings.TrimSpace(cb.ProviderReference)

	switch {
	case id != "":
		st, err := s.settlements.GetByID(ctx, id)
		if err != nil {
			return domain.Settlement{}, err
		}
		if st.BankID != bankID {
			return domain.Settlement{}, fmt.Errorf("%w: settlement %s", domain.ErrRecordNotFound, id)
		}
		if reference != "" && st.ProviderReference != reference {
			return domain.Settlement{}, fmt.Errorf("%w: provider reference does not match settlement", domain.ErrInvalidArgument)
		}
		return st, nil
	case reference != "":
		return s.settlements.GetByProviderReference(ctx, bankID, reference)
	default:
		return domain.Settlement{}, fmt.Errorf("%w: settlement id or provider reference is required", domain.ErrInvalidArgument)
	}
}

// reverseDebit credits the settled amount back to the wallet inside the
// callback's unit.
func (s *SettlementService) reverseDebit(ctx context.Context, tx domain.LedgerTx, st domain.Settlement, reason string) error {
	txn, err := tx.InsertTransaction(ctx, domain.Transaction{
		WalletID: st.WalletID,
		Type:     domain.TransactionTypeDeposit,
		Amount:   st.Amount,
		Currency: st.Currency,
		Status:   domain.TransactionStatusCompleted,
		Metadata: map[string]any{
			"reason":        "settlement_reversal",
			"settlement_id": st.ID,
			"note":          reason,
		},
	})
	if err != nil {
		return err
	}
	_, err = s.ledger.Credit(ctx, tx, st.WalletID, txn.ID, st.Amount)
	return err
}

// Retry re-arms bank-side resolution for a failed settlement. The original
// debit is treated as still outstanding, so the ledger is not touched.
func (s *SettlementService) Retry(ctx context.Context, settlementID string) (domain.Settlement, error) {
	logger.Info("settlement service retry request", logger.Fields{"settlementId": settlementID})

	var result domain.Settlement
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx domain.LedgerTx) error {
		locked, err := tx.LockSettlement(ctx, settlementID)
		if err != nil {
			return err
		}
		if locked.Status != domain.SettlementStatusFailed {
			return fmt.Errorf("%w: only failed settlements can be retried, settlement is %s", domain.ErrConflict, locked.Status)
		}

		if locked.ProviderReference == "" {
			locked.ProviderReference = ulid.Make().String()
		}
		previous := "none"
		if locked.FailureReason != nil {
			previous = *locked.FailureReason
		}
		locked.Status = domain.SettlementStatusPending
		locked.FailureReason = nil

		result, err = tx.UpdateSettlement(ctx, locked)
		if err != nil {
			return err
		}
		return tx.AppendReconciliationLog(ctx, domain.ReconciliationLog{
			SettlementID: locked.ID,
			Action:       domain.ReconciliationActionRetry,
			Note:         "retried after failure: " + previous,
		})
	})
	if err != nil {
		logger.Error("settlement service retry failed", err, logger.Fields{"settlementId": settlementID})
		return domain.Settlement{}, err
	}

	s.transitioned(ctx, result, domain.SettlementStatusFailed)
	logger.Info("settlement service retry success", logger.Fields{
		"settlementId":      result.ID,
		"providerReference": result.ProviderReference,
	})
	return result, nil
}

func (s *SettlementService) Get(ctx context.Context, settlementID string) (domain.Settlement, error) {
	st, err := s.settlements.GetByID(ctx, settlementID)
	if err != nil {
		return domain.Settlement{}, err
	}
	return s.autoResolve(ctx, st)
}

func (s *SettlementService) List(ctx context.Context, walletID string, limit int, offset int) ([]domain.Settlement, error) {
	rows, err := s.settlements.List(ctx, walletID, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		resolved, err := s.autoResolve(ctx, rows[i])
		if err != nil {
			return nil, err
		}
		rows[i] = resolved
	}
	return rows, nil
}

func (s *SettlementService) ListLogs(ctx context.Context, settlementID string) ([]domain.ReconciliationLog, error) {
	if _, err := s.settlements.GetByID(ctx, settlementID); err != nil {
		return nil, err
	}
	return s.settlements.ListLogs(ctx, settlementID)
}

func (s *SettlementService) overdue(st domain.Settlement) bool {
	return st.Status == domain.SettlementStatusPending &&
		st.UpdatedAt.Before(s.now().Add(-s.cfg.CompletionWindow))
}

// autoResolve completes a pending settlement that outlived the completion
// window. The check is repeated under the row lock so only one reader
// persists the transition.
func (s *SettlementService) autoResolve(ctx context.Context, st domain.Settlement) (domain.Settlement, error) {
	if !s.overdue(st) {
		return st, nil
	}

	result := st
	changed := false
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx domain.LedgerTx) error {
		locked, err := tx.LockSettlement(ctx, st.ID)
		if err != nil {
			return err
		}
		result = locked
		if !s.overdue(locked) {
			return nil
		}

		locked.Status = domain.SettlementStatusCompleted
		locked.FailureReason = nil
		result, err = tx.UpdateSettlement(ctx, locked)
		if err != nil {
			return err
		}
		changed = true
		return tx.AppendReconciliationLog(ctx, domain.ReconciliationLog{
			SettlementID: locked.ID,
			Action:       domain.ReconciliationActionAutoCompleted,
			Note:         fmt.Sprintf("no bank confirmation within %s", s.cfg.CompletionWindow),
		})
	})
	if err != nil {
		logger.Error("settlement service auto complete failed", err, logger.Fields{"settlementId": st.ID})
		return domain.Settlement{}, err
	}

	if changed {
		s.transitioned(ctx, result, domain.SettlementStatusPending)
	}
	return result, nil
}

// Reconciliation summarises the settlements created on date's UTC day.
func (s *SettlementService) Reconciliation(ctx context.Context, date time.Time) (domain.ReconciliationSummary, error) {
	day := date.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	summary, err := s.settlements.Summarize(ctx, start, start.Add(24*time.Hour), s.now().Add(-s.cfg.StaleAfter))
	if err != nil {
		logger.Error("settlement service reconciliation failed", err, logger.Fields{"date": start.Format("2006-01-02")})
		return domain.ReconciliationSummary{}, err
	}
	return summary, nil
}

func (s *SettlementService) transitioned(ctx context.Context, st domain.Settlement, from domain.SettlementStatus) {
	s.metrics.SettlementTransition(string(st.Status))

	payload := map[string]any{
		"settlement_id":      st.ID,
		"wallet_id":          st.WalletID,
		"bank_id":            st.BankID,
		"from":               string(from),
		"to":                 string(st.Status),
		"amount":             st.Amount.String(),
		"currency":           st.Currency,
		"provider_reference": st.ProviderReference,
	}
	if st.FailureReason != nil {
		payload["failure_reason"] = *st.FailureReason
	}
	publish(ctx, s.publisher, domain.EventSettlementStatusChanged, st.ID, payload)
}
