package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SettlementStatus string

const (
	SettlementStatusProcessing SettlementStatus = "processing"
	SettlementStatusPending    SettlementStatus = "pending"
	SettlementStatusCompleted  SettlementStatus = "completed"
	SettlementStatusFailed     SettlementStatus = "failed"
)

// IsTerminal reports whether a callback may no longer move the settlement.
func (s SettlementStatus) IsTerminal() bool {
	return s == SettlementStatusCompleted || s == SettlementStatusFailed
}

type Settlement struct {
	ID                string
	WalletID          string
	BankID            string
	Amount            decimal.Decimal
	Currency          string
	Status            SettlementStatus
	ProviderReference string
	IdempotencyKey    *string
	FailureReason     *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type ReconciliationAction string

const (
	ReconciliationActionInitiated     ReconciliationAction = "initiated"
	ReconciliationActionDebitFailed   ReconciliationAction = "debit_failed"
	ReconciliationActionCallback      ReconciliationAction = "callback"
	ReconciliationActionReversed      ReconciliationAction = "reversed"
	ReconciliationActionRetry         ReconciliationAction = "retry"
	ReconciliationActionAutoCompleted ReconciliationAction = "auto_completed"
)

type ReconciliationLog struct {
	ID           int64
	SettlementID string
	Action       ReconciliationAction
	Note         string
	CreatedAt    time.Time
}

type StatusTotal struct {
	Count  int
	Amount decimal.Decimal
}

type ReconciliationSummary struct {
	Date        time.Time
	ByStatus    map[SettlementStatus]StatusTotal
	StaleCount  int
	StaleBefore time.Time
}
