package models

import (
	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

type CreateWalletRequest struct {
	Currency string `json:"currency"`
}

func (r CreateWalletRequest) Validate() error {
	var v validator
	v.currency(r.Currency, "currency")
	return v.err()
}

type AmountRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Metadata map[string]any  `json:"metadata,omitempty"`
}

func (r AmountRequest) Validate() error {
	var v validator
	v.positive(r.Amount, "amount")
	return v.err()
}

type WalletResponse struct {
	ID        string `json:"id"`
	OwnerID   string `json:"ownerId"`
	Currency  string `json:"currency"`
	Balance   string `json:"balance"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func NewWalletResponse(w domain.Wallet) WalletResponse {
	return WalletResponse{
		ID:        w.ID,
		OwnerID:   w.OwnerID,
		Currency:  w.Currency,
		Balance:   w.Balance.String(),
		CreatedAt: formatTime(w.CreatedAt),
		UpdatedAt: formatTime(w.UpdatedAt),
	}
}

func NewWalletResponses(wallets []domain.Wallet) []WalletResponse {
	out := make([]WalletResponse, 0, len(wallets))
	for _, w := range wallets {
		out = append(out, NewWalletResponse(w))
	}
	return out
}

type TransactionResponse struct {
	ID        string         `json:"id"`
	WalletID  string         `json:"walletId"`
	Type      string         `json:"type"`
	Amount    string         `json:"amount"`
	Currency  string         `json:"currency"`
	Status    string         `json:"status"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt string         `json:"createdAt"`
}

func NewTransactionResponse(t domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:        t.ID,
		WalletID:  t.WalletID,
		Type:      string(t.Type),
		Amount:    t.Amount.String(),
		Currency:  t.Currency,
		Status:    string(t.Status),
		Metadata:  t.Metadata,
		CreatedAt: formatTime(t.CreatedAt),
	}
}

func NewTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, NewTransactionResponse(t))
	}
	return out
}

type LedgerEntryResponse struct {
	ID            int64  `json:"id"`
	TransactionID string `json:"transactionId"`
	EntryType     string `json:"entryType"`
	Amount        string `json:"amount"`
	BalanceAfter  string `json:"balanceAfter"`
	CreatedAt     string `json:"createdAt"`
}

func NewLedgerEntryResponses(entries []domain.LedgerEntry) []LedgerEntryResponse {
	out := make([]LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, LedgerEntryResponse{
			ID:            e.ID,
			TransactionID: e.TransactionID,
			EntryType:     string(e.EntryType),
			Amount:        e.Amount.String(),
			BalanceAfter:  e.BalanceAfter.String(),
			CreatedAt:     formatTime(e.CreatedAt),
		})
	}
	return out
}

type LedgerResultResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Wallet      WalletResponse      `json:"wallet"`
	Alert       *AlertResponse      `json:"alert,omitempty"`
}

func NewLedgerResultResponse(res domain.LedgerResult) LedgerResultResponse {
	out := LedgerResultResponse{
		Transaction: NewTransactionResponse(res.Transaction),
		Wallet:      NewWalletResponse(res.Wallet),
	}
	if res.Alert != nil {
		alert := NewAlertResponse(*res.Alert)
		out.Alert = &alert
	}
	return out
}

type VerificationResponse struct {
	WalletID             string `json:"walletId"`
	Balance              string `json:"balance"`
	ReplayedBalance      string `json:"replayedBalance"`
	EntryCount           int    `json:"entryCount"`
	Consistent           bool   `json:"consistent"`
	FirstMismatchEntryID int64  `json:"firstMismatchEntryId,omitempty"`
}

func NewVerificationResponse(v domain.LedgerVerification) VerificationResponse {
	return VerificationResponse{
		WalletID:             v.WalletID,
		Balance:              v.Balance.String(),
		ReplayedBalance:      v.ReplayedBalance.String(),
		EntryCount:           v.EntryCount,
		Consistent:           v.Consistent,
		FirstMismatchEntryID: v.FirstMismatchEntryID,
	}
}

type TransferRequest struct {
	SourceWalletID      string          `json:"sourceWalletId"`
	DestinationWalletID string          `json:"destinationWalletId"`
	Amount              decimal.Decimal `json:"amount"`
	Narration           string          `json:"narration,omitempty"`
}

func (r TransferRequest) Validate() error {
	var v validator
	v.require(r.SourceWalletID, "sourceWalletId")
	v.require(r.DestinationWalletID, "destinationWalletId")
	v.positive(r.Amount, "amount")
	return v.err()
}

type TransferResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Source      WalletResponse      `json:"source"`
	Destination WalletResponse      `json:"destination"`
}

func NewTransferResponse(res domain.TransferResult) TransferResponse {
	return TransferResponse{
		Transaction: NewTransactionResponse(res.Transaction),
		Source:      NewWalletResponse(res.Source),
		Destination: NewWalletResponse(res.Destination),
	}
}
