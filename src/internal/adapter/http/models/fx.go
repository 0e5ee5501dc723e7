package models

import (
	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

type RateResponse struct {
	ID           int64  `json:"id,omitempty"`
	FromCurrency string `json:"fromCurrency"`
	ToCurrency   string `json:"toCurrency"`
	Rate         string `json:"rate"`
	Provider     string `json:"provider"`
	Timestamp    string `json:"timestamp"`
}

func NewRateResponse(r domain.Rate) RateResponse {
	return RateResponse{
		ID:           r.ID,
		FromCurrency: r.FromCurrency,
		ToCurrency:   r.ToCurrency,
		Rate:         r.Rate.String(),
		Provider:     r.Provider,
		Timestamp:    formatTime(r.Timestamp),
	}
}

func NewRateResponses(rates []domain.Rate) []RateResponse {
	out := make([]RateResponse, 0, len(rates))
	for _, r := range rates {
		out = append(out, NewRateResponse(r))
	}
	return out
}

type QuoteResponse struct {
	FromCurrency   string `json:"fromCurrency"`
	ToCurrency     string `json:"toCurrency"`
	Amount         string `json:"amount"`
	Fee            string `json:"fee"`
	AmountAfterFee string `json:"amountAfterFee"`
	AmountTo       string `json:"amountTo"`
	Rate           string `json:"rate"`
	RateTimestamp  string `json:"rateTimestamp"`
}

func NewQuoteResponse(q domain.FXQuote) QuoteResponse {
	return QuoteResponse{
		FromCurrency:   q.FromCurrency,
		ToCurrency:     q.ToCurrency,
		Amount:         q.Amount.String(),
		Fee:            q.Fee.String(),
		AmountAfterFee: q.AmountAfterFee.String(),
		AmountTo:       q.AmountTo.String(),
		Rate:           q.Rate.String(),
		RateTimestamp:  formatTime(q.RateTimestamp),
	}
}

type ConvertRequest struct {
	SourceWalletID string          `json:"sourceWalletId"`
	TargetWalletID string          `json:"targetWalletId,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	FromCurrency   string          `json:"fromCurrency"`
	ToCurrency     string          `json:"toCurrency"`
}

func (r ConvertRequest) Validate() error {
	var v validator
	v.require(r.SourceWalletID, "sourceWalletId")
	v.positive(r.Amount, "amount")
	v.currency(r.FromCurrency, "fromCurrency")
	v.currency(r.ToCurrency, "toCurrency")
	return v.err()
}

func (r ConvertRequest) ToDomain(ownerID string) domain.ConvertRequest {
	return domain.ConvertRequest{
		OwnerID:        ownerID,
		SourceWalletID: r.SourceWalletID,
		TargetWalletID: r.TargetWalletID,
		Amount:         r.Amount,
		FromCurrency:   r.FromCurrency,
		ToCurrency:     r.ToCurrency,
	}
}

type ConvertResponse struct {
	TransactionID string         `json:"transactionId"`
	AmountFrom    string         `json:"amountFrom"`
	AmountTo      string         `json:"amountTo"`
	Fee           string         `json:"fee"`
	Rate          string         `json:"rate"`
	Route         string         `json:"route"`
	Source        WalletResponse `json:"source"`
	Target        WalletResponse `json:"target"`
	TargetCreated bool           `json:"targetCreated"`
}

func NewConvertResponse(res domain.ConvertResult) ConvertResponse {
	return ConvertResponse{
		TransactionID: res.Transaction.ID,
		AmountFrom:    res.FX.AmountFrom.String(),
		AmountTo:      res.FX.AmountTo.String(),
		Fee:           res.Fee.String(),
		Rate:          res.Rate.String(),
		Route:         res.FX.Route,
		Source:        NewWalletResponse(res.Source),
		Target:        NewWalletResponse(res.Target),
		TargetCreated: res.TargetCreated,
	}
}
