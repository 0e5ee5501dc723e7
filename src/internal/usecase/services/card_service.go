package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/api-sage/fcy-ledger/src/internal/logger"
	"github.com/api-sage/fcy-ledger/src/internal/usecase/service_interfaces"
	"github.com/shopspring/decimal"
)

var _ service_interfaces.CardChargeService = (*CardChargeService)(nil)

var cardLimitUsageRatio = decimal.RequireFromString("0.8")

type alertRecorder interface {
	RecordAlert(ctx context.Context, alert domain.AMLAlert) (bool, error)
}

type CardChargeService struct {
	ledger *LedgerService
	alerts alertRecorder
}

func NewCardChargeService(ledger *LedgerService, alerts alertRecorder) *CardChargeService {
	return &CardChargeService{ledger: ledger, alerts: alerts}
}

// Charge debits the card's funding wallet. A charge above 80% of the card
// limit is flagged after the debit commits; a failed flag never undoes it.
func (s *CardChargeService) Charge(ctx context.Context, charge domain.CardCharge) (domain.LedgerResult, error) {
	cardID := strings.TrimSpace(charge.CardID)
	if cardID == "" {
		return domain.LedgerResult{}, fmt.Errorf("%w: card id is required", domain.ErrInvalidArgument)
	}
	if charge.CardLimit.IsNegative() {
		return domain.LedgerResult{}, fmt.Errorf("%w: card limit cannot be negative", domain.ErrInvalidArgument)
	}

	result, err := s.ledger.Withdraw(ctx, charge.WalletID, charge.Amount, map[string]any{
		"reason":   "card_charge",
		"card_id":  cardID,
		"merchant": strings.TrimSpace(charge.Merchant),
	})
	if err != nil {
		return domain.LedgerResult{}, err
	}

	if !charge.CardLimit.IsPositive() || s.alerts == nil {
		return result, nil
	}
	if !charge.Amount.GreaterThan(charge.CardLimit.Mul(cardLimitUsageRatio)) {
		return result, nil
	}

	alert := domain.AMLAlert{
		TransactionID: result.Transaction.ID,
		Type:          domain.AlertTypeCardLimitUsage,
		Severity:      domain.AlertSeverityMedium,
		Status:        domain.AlertStatusPending,
	}
	created, err := s.alerts.RecordAlert(ctx, alert)
	if err != nil {
		logger.Error("card charge service record alert failed", err, logger.Fields{
			"cardId":        cardID,
			"transactionId": result.Transaction.ID,
		})
		return result, nil
	}
	if created {
		result.Alert = &alert
	}
	return result, nil
}
