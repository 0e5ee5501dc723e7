package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/api-sage/fcy-ledger/src/internal/logger"
	"github.com/api-sage/fcy-ledger/src/internal/metrics"
	"github.com/api-sage/fcy-ledger/src/internal/usecase/service_interfaces"
	"github.com/shopspring/decimal"
)

var _ service_interfaces.FXService = (*FXService)(nil)

const fxRouteInternal = "internal"

type rateResolver interface {
	GetRate(ctx context.Context, fromCurrency string, toCurrency string) (domain.Rate, error)
}

type FXService struct {
	uow       domain.UnitOfWork
	ledger    *LedgerService
	rates     rateResolver
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
	feeRate   decimal.Decimal
}

func NewFXService(uow domain.UnitOfWork, ledger *LedgerService, rates rateResolver, publisher domain.EventPublisher, m *metrics.Metrics, feeRate decimal.Decimal) *FXService {
	return &FXService{
		uow:       uow,
		ledger:    ledger,
		rates:     rates,
		publisher: publisher,
		metrics:   m,
		feeRate:   feeRate,
	}
}

// convertAmounts applies the fee and rate, rounding every step to four places.
func convertAmounts(amount, feeRate, rate decimal.Decimal) (fee, afterFee, amountTo decimal.Decimal) {
	fee = amount.Mul(feeRate).Round(moneyPlaces)
	afterFee = amount.Sub(fee).Round(moneyPlaces)
	amountTo = afterFee.Mul(rate).Round(moneyPlaces)
	return fee, afterFee, amountTo
}

func (s *FXService) Convert(ctx context.Context, req domain.ConvertRequest) (domain.ConvertResult, error) {
	logger.Info("fx service convert request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := validateAmount(req.Amount); err != nil {
		return domain.ConvertResult{}, err
	}
	from := strings.ToUpper(strings.TrimSpace(req.FromCurrency))
	to := strings.ToUpper(strings.TrimSpace(req.ToCurrency))
	if from == to {
		return domain.ConvertResult{}, fmt.Errorf("%w: cannot convert %s to itself", domain.ErrInvalidArgument, from)
	}
	if _, err := normalizeCurrency(from); err != nil {
		return domain.ConvertResult{}, err
	}
	if _, err := normalizeCurrency(to); err != nil {
		return domain.ConvertResult{}, err
	}

	source, err := s.ledger.GetWallet(ctx, req.SourceWalletID)
	if err != nil {
		return domain.ConvertResult{}, err
	}
	owner := strings.TrimSpace(req.OwnerID)
	if owner == "" {
		owner = source.OwnerID
	}
	if source.OwnerID != owner {
		return domain.ConvertResult{}, fmt.Errorf("%w: wallet %s does not belong to caller", domain.ErrUnauthorized, source.ID)
	}
	if source.Currency != from {
		return domain.ConvertResult{}, fmt.Errorf("%w: source wallet currency %s does not match %s", domain.ErrInvalidArgument, source.Currency, from)
	}

	target, created, err := s.resolveTarget(ctx, owner, req.TargetWalletID, to)
	if err != nil {
		return domain.ConvertResult{}, err
	}

	rate, err := s.rates.GetRate(ctx, from, to)
	if err != nil {
		return domain.ConvertResult{}, err
	}

	fee, _, amountTo := convertAmounts(req.Amount, s.feeRate, rate.Rate)
	if !amountTo.IsPositive() {
		return domain.ConvertResult{}, fmt.Errorf("%w: amount too small to convert", domain.ErrInvalidArgument)
	}
	if !source.CanCover(req.Amount) {
		return domain.ConvertResult{}, insufficientBalance(source.ID)
	}

	result := domain.ConvertResult{Fee: fee, Rate: rate.Rate, TargetCreated: created}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx domain.LedgerTx) error {
		if _, err := s.ledger.LockWallets(ctx, tx, source.ID, target.ID); err != nil {
			return err
		}

		txn, err := tx.InsertTransaction(ctx, domain.Transaction{
			WalletID: source.ID,
			Type:     domain.TransactionTypeFX,
			Amount:   req.Amount,
			Currency: from,
			Status:   domain.TransactionStatusCompleted,
			Metadata: map[string]any{
				"target_wallet_id": target.ID,
				"rate":             rate.Rate.String(),
				"fee":              fee.String(),
				"amount_to":        amountTo.String(),
			},
		})
		if err != nil {
			return err
		}

		debited, err := s.ledger.Debit(ctx, tx, source.ID, txn.ID, req.Amount)
		if err != nil {
			return err
		}
		credited, err := s.ledger.Credit(ctx, tx, target.ID, txn.ID, amountTo)
		if err != nil {
			return err
		}

		fx, err := tx.InsertFXTransaction(ctx, domain.FXTransaction{
			TransactionID: txn.ID,
			AmountFrom:    req.Amount,
			AmountTo:      amountTo,
			CurrencyFrom:  from,
			CurrencyTo:    to,
			Route:         fxRouteInternal,
			Rate:          rate.Rate,
			Fee:           fee,
		})
		if err != nil {
			return err
		}

		result.Transaction = txn
		result.FX = fx
		result.Source = debited
		result.Target = credited
		return nil
	})
	if err != nil {
		logger.Error("fx service convert failed", err, logger.Fields{
			"sourceWalletId": source.ID,
			"targetWalletId": target.ID,
		})
		return domain.ConvertResult{}, err
	}

	s.ledger.InvalidateBalances(ctx, source.ID, target.ID)
	s.metrics.FXConversion(from, to)
	publish(ctx, s.publisher, domain.EventFXConverted, source.ID, map[string]any{
		"transaction_id":   result.Transaction.ID,
		"source_wallet_id": source.ID,
		"target_wallet_id": target.ID,
		"amount_from":      req.Amount.String(),
		"amount_to":        amountTo.String(),
		"rate":             rate.Rate.String(),
		"fee":              fee.String(),
	})

	logger.Info("fx service convert success", logger.Fields{
		"transactionId": result.Transaction.ID,
		"amountTo":      amountTo.String(),
	})
	return result, nil
}

func (s *FXService) resolveTarget(ctx context.Context, owner string, targetID string, currency string) (domain.Wallet, bool, error) {
	if targetID != "" {
		target, err := s.ledger.GetWallet(ctx, targetID)
		if err != nil {
			return domain.Wallet{}, false, err
		}
		if target.Currency != currency {
			return domain.Wallet{}, false, fmt.Errorf("%w: target wallet currency %s does not match %s", domain.ErrInvalidArgument, target.Currency, currency)
		}
		if target.OwnerID != owner {
			return domain.Wallet{}, false, fmt.Errorf("%w: target wallet belongs to another owner", domain.ErrInvalidArgument)
		}
		return target, false, nil
	}

	existing, err := s.ledger.FindWallet(ctx, owner, currency)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrRecordNotFound) {
		return domain.Wallet{}, false, err
	}

	created, err := s.ledger.CreateWallet(ctx, owner, currency)
	if err == nil {
		return created, true, nil
	}
	if errors.Is(err, domain.ErrConflict) {
		existing, err := s.ledger.FindWallet(ctx, owner, currency)
		return existing, false, err
	}
	return domain.Wallet{}, false, err
}
