package models

import (
	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

type InitiateSettlementRequest struct {
	WalletID       string          `json:"walletId"`
	BankID         string          `json:"bankId,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey string          `json:"idempotencyKey,omitempty"`
}

func (r InitiateSettlementRequest) Validate() error {
	var v validator
	v.require(r.WalletID, "walletId")
	v.positive(r.Amount, "amount")
	return v.err()
}

func (r InitiateSettlementRequest) ToDomain() domain.InitiateSettlementRequest {
	return domain.InitiateSettlementRequest{
		WalletID:       r.WalletID,
		BankID:         r.BankID,
		Amount:         r.Amount,
		IdempotencyKey: r.IdempotencyKey,
	}
}

type SettlementResponse struct {
	ID                string  `json:"id"`
	WalletID          string  `json:"walletId"`
	BankID            string  `json:"bankId"`
	Amount            string  `json:"amount"`
	Currency          string  `json:"currency"`
	Status            string  `json:"status"`
	ProviderReference string  `json:"providerReference,omitempty"`
	IdempotencyKey    *string `json:"idempotencyKey,omitempty"`
	FailureReason     *string `json:"failureReason,omitempty"`
	CreatedAt         string  `json:"createdAt"`
	UpdatedAt         string  `json:"updatedAt"`
}

func NewSettlementResponse(s domain.Settlement) SettlementResponse {
	return SettlementResponse{
		ID:                s.ID,
		WalletID:          s.WalletID,
		BankID:            s.BankID,
		Amount:            s.Amount.String(),
		Currency:          s.Currency,
		Status:            string(s.Status),
		ProviderReference: s.ProviderReference,
		IdempotencyKey:    s.IdempotencyKey,
		FailureReason:     s.FailureReason,
		CreatedAt:         formatTime(s.CreatedAt),
		UpdatedAt:         formatTime(s.UpdatedAt),
	}
}

func NewSettlementResponses(rows []domain.Settlement) []SettlementResponse {
	out := make([]SettlementResponse, 0, len(rows))
	for _, s := range rows {
		out = append(out, NewSettlementResponse(s))
	}
	return out
}

type ReconciliationLogResponse struct {
	ID        int64  `json:"id"`
	Action    string `json:"action"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func NewReconciliationLogResponses(logs []domain.ReconciliationLog) []ReconciliationLogResponse {
	out := make([]ReconciliationLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, ReconciliationLogResponse{
			ID:        l.ID,
			Action:    string(l.Action),
			Note:      l.Note,
			CreatedAt: formatTime(l.CreatedAt),
		})
	}
	return out
}

type StatusTotalResponse struct {
	Count  int    `json:"count"`
	Amount string `json:"amount"`
}

type ReconciliationResponse struct {
	Date        string                         `json:"date"`
	ByStatus    map[string]StatusTotalResponse `json:"byStatus"`
	StaleCount  int                            `json:"staleCount"`
	StaleBefore string                         `json:"staleBefore"`
}

func NewReconciliationResponse(s domain.ReconciliationSummary) ReconciliationResponse {
	byStatus := make(map[string]StatusTotalResponse, len(s.ByStatus))
	for status, total := range s.ByStatus {
		byStatus[string(status)] = StatusTotalResponse{Count: total.Count, Amount: total.Amount.String()}
	}
	return ReconciliationResponse{
		Date:        s.Date.UTC().Format("2006-01-02"),
		ByStatus:    byStatus,
		StaleCount:  s.StaleCount,
		StaleBefore: formatTime(s.StaleBefore),
	}
}

type BankCallbackRequest struct {
	SettlementID      string `json:"settlementId,omitempty"`
	ProviderReference string `json:"providerReference,omitempty"`
	Status            string `json:"status"`
	FailureReason     string `json:"failureReason,omitempty"`
}

func (r BankCallbackRequest) Validate() error {
	var v validator
	if r.SettlementID == "" && r.ProviderReference == "" {
		v.errs = append(v.errs, "settlementId or providerReference is required")
	}
	v.require(r.Status, "status")
	return v.err()
}

func (r BankCallbackRequest) ToDomain() domain.BankCallback {
	return domain.BankCallback{
		SettlementID:      r.SettlementID,
		ProviderReference: r.ProviderReference,
		Status:            r.Status,
		FailureReason:     r.FailureReason,
	}
}
