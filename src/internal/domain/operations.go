package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerResult is the outcome of a single-wallet ledger operation.
type LedgerResult struct {
	Transaction Transaction
	Wallet      Wallet
	Alert       *AMLAlert
}

type TransferResult struct {
	Transaction Transaction
	Source      Wallet
	Destination Wallet
}

type LedgerVerification struct {
	WalletID        string
	Balance         decimal.Decimal
	ReplayedBalance decimal.Decimal
	EntryCount      int
	Consistent      bool
	// FirstMismatchEntryID is the first entry whose BalanceAfter disagrees
	// with the running total, or zero.
	FirstMismatchEntryID int64
}

type ConvertRequest struct {
	OwnerID        string
	SourceWalletID string
	TargetWalletID string
	Amount         decimal.Decimal
	FromCurrency   string
	ToCurrency     string
}

type ConvertResult struct {
	Transaction   Transaction
	FX            FXTransaction
	Source        Wallet
	Target        Wallet
	Fee           decimal.Decimal
	Rate          decimal.Decimal
	TargetCreated bool
}

type FXQuote struct {
	FromCurrency   string
	ToCurrency     string
	Amount         decimal.Decimal
	Fee            decimal.Decimal
	AmountAfterFee decimal.Decimal
	AmountTo       decimal.Decimal
	Rate           decimal.Decimal
	RateTimestamp  time.Time
}

type InitiateSettlementRequest struct {
	WalletID       string
	BankID         string
	Amount         decimal.Decimal
	IdempotencyKey string
}

// BankCallback is a bank's report on a settlement. Either SettlementID or
// ProviderReference identifies the settlement.
type BankCallback struct {
	SettlementID      string
	ProviderReference string
	Status            string
	FailureReason     string
}

const (
	BankCallbackPending   = "pending"
	BankCallbackCompleted = "completed"
	BankCallbackFailed    = "failed"
	BankCallbackReversed  = "reversed"
)

type ScanResult struct {
	Scanned       int
	AlertsCreated int
}

type CardCharge struct {
	CardID    string
	WalletID  string
	Amount    decimal.Decimal
	Merchant  string
	CardLimit decimal.Decimal
}

type CollectionReceipt struct {
	WalletID  string
	Amount    decimal.Decimal
	Rail      string
	Reference string
}
