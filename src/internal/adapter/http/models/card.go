package models

import (
	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

type CardChargeRequest struct {
	WalletID  string          `json:"walletId"`
	Amount    decimal.Decimal `json:"amount"`
	Merchant  string          `json:"merchant"`
	CardLimit decimal.Decimal `json:"cardLimit"`
}

func (r CardChargeRequest) Validate() error {
	var v validator
	v.require(r.WalletID, "walletId")
	v.require(r.Merchant, "merchant")
	v.positive(r.Amount, "amount")
	if r.CardLimit.IsNegative() {
		v.errs = append(v.errs, "cardLimit cannot be negative")
	}
	return v.err()
}

func (r CardChargeRequest) ToDomain(cardID string) domain.CardCharge {
	return domain.CardCharge{
		CardID:    cardID,
		WalletID:  r.WalletID,
		Amount:    r.Amount,
		Merchant:  r.Merchant,
		CardLimit: r.CardLimit,
	}
}

type CollectionReceiptRequest struct {
	WalletID  string          `json:"walletId"`
	Amount    decimal.Decimal `json:"amount"`
	Rail      string          `json:"rail"`
	Reference string          `json:"reference"`
}

func (r CollectionReceiptRequest) Validate() error {
	var v validator
	v.require(r.WalletID, "walletId")
	v.require(r.Rail, "rail")
	v.require(r.Reference, "reference")
	v.positive(r.Amount, "amount")
	return v.err()
}

func (r CollectionReceiptRequest) ToDomain() domain.CollectionReceipt {
	return domain.CollectionReceipt{
		WalletID:  r.WalletID,
		Amount:    r.Amount,
		Rail:      r.Rail,
		Reference: r.Reference,
	}
}
