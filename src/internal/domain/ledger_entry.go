package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type LedgerEntryType string

const (
	LedgerEntryDebit  LedgerEntryType = "debit"
	LedgerEntryCredit LedgerEntryType = "credit"
)

// LedgerEntry is one immutable movement against a single wallet.
type LedgerEntry struct {
	ID            int64
	TransactionID string
	WalletID      string
	EntryType     LedgerEntryType
	Amount        decimal.Decimal
	BalanceAfter  decimal.Decimal
	CreatedAt     time.Time
}

// Signed returns the entry amount as a balance delta.
func (e LedgerEntry) Signed() decimal.Decimal {
	if e.EntryType == LedgerEntryDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}
