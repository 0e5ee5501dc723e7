package services_test

import (
	"context"
	"testing"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/api-sage/fcy-ledger/src/internal/usecase/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) putRate(from string, to string, rate string) {
	f.store.Rates().Put(context.Background(), domain.Rate{
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         decimal.RequireFromString(rate),
		Provider:     "test",
	})
}

func TestFXServiceSameCurrencyRejectedWithoutStorage(t *testing.T) {
	svc := services.NewFXService(nil, nil, nil, nil, nil, testFeeRate)

	_, err := svc.Convert(context.Background(), domain.ConvertRequest{
		SourceWalletID: "any",
		Amount:         decimal.NewFromInt(10),
		FromCurrency:   "USD",
		ToCurrency:     "usd",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestFXServiceConvertRoundsFeeAndAmount(t *testing.T) {
	f := newFixture(t)
	f.putRate("USD", "JPY", "134.5")
	source := f.fundedWallet(t, "owner-1", "USD", 2000)

	res, err := f.fx.Convert(context.Background(), domain.ConvertRequest{
		OwnerID:        "owner-1",
		SourceWalletID: source.ID,
		Amount:         decimal.NewFromInt(1000),
		FromCurrency:   "USD",
		ToCurrency:     "JPY",
	})
	require.NoError(t, err)

	assert.True(t, res.Fee.Equal(decimal.NewFromInt(5)))
	assert.True(t, res.FX.AmountTo.Equal(decimal.RequireFromString("133827.5")))
	assert.True(t, res.Source.Balance.Equal(decimal.NewFromInt(1000)))
	assert.True(t, res.Target.Balance.Equal(decimal.RequireFromString("133827.5")))
	assert.True(t, res.TargetCreated)
	assert.Equal(t, "JPY", res.Target.Currency)
	assert.Equal(t, domain.TransactionTypeFX, res.Transaction.Type)

	stored, err := f.store.Transactions().GetFXTransaction(context.Background(), res.Transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, "internal", stored.Route)
	assert.True(t, stored.Fee.Equal(decimal.NewFromInt(5)))

	f.requireConsistent(t, source.ID)
	f.requireConsistent(t, res.Target.ID)
	assert.Len(t, f.publisher.ofType(domain.EventFXConverted), 1)
}

func TestFXServiceConvertReusesExistingTargetWallet(t *testing.T) {
	f := newFixture(t)
	source := f.fundedWallet(t, "owner-1", "USD", 100)
	target := f.fundedWallet(t, "owner-1", "NGN", 0)

	res, err := f.fx.Convert(context.Background(), domain.ConvertRequest{
		OwnerID:        "owner-1",
		SourceWalletID: source.ID,
		Amount:         decimal.NewFromInt(10),
		FromCurrency:   "USD",
		ToCurrency:     "NGN",
	})
	require.NoError(t, err)
	assert.False(t, res.TargetCreated)
	assert.Equal(t, target.ID, res.Target.ID)
}

func TestFXServiceConvertRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	source := f.fundedWallet(t, "owner-1", "USD", 100)
	foreign := f.fundedWallet(t, "owner-2", "NGN", 0)

	cases := []struct {
		name string
		req  domain.ConvertRequest
		want error
	}{
		{
			name: "other owner",
			req:  domain.ConvertRequest{OwnerID: "owner-2", SourceWalletID: source.ID, Amount: decimal.NewFromInt(1), FromCurrency: "USD", ToCurrency: "NGN"},
			want: domain.ErrUnauthorized,
		},
		{
			name: "currency mismatch",
			req:  domain.ConvertRequest{OwnerID: "owner-1", SourceWalletID: source.ID, Amount: decimal.NewFromInt(1), FromCurrency: "EUR", ToCurrency: "NGN"},
			want: domain.ErrInvalidArgument,
		},
		{
			name: "target belongs to another owner",
			req:  domain.ConvertRequest{OwnerID: "owner-1", SourceWalletID: source.ID, TargetWalletID: foreign.ID, Amount: decimal.NewFromInt(1), FromCurrency: "USD", ToCurrency: "NGN"},
			want: domain.ErrInvalidArgument,
		},
		{
			name: "missing rate",
			req:  domain.ConvertRequest{OwnerID: "owner-1", SourceWalletID: source.ID, Amount: decimal.NewFromInt(1), FromCurrency: "USD", ToCurrency: "CHF"},
			want: domain.ErrRateNotFound,
		},
		{
			name: "insufficient balance",
			req:  domain.ConvertRequest{OwnerID: "owner-1", SourceWalletID: source.ID, Amount: decimal.NewFromInt(101), FromCurrency: "USD", ToCurrency: "NGN"},
			want: domain.ErrInsufficientBalance,
		},
		{
			name: "missing source",
			req:  domain.ConvertRequest{OwnerID: "owner-1", SourceWalletID: "missing", Amount: decimal.NewFromInt(1), FromCurrency: "USD", ToCurrency: "NGN"},
			want: domain.ErrRecordNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.fx.Convert(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	assert.True(t, f.balance(t, source.ID).Equal(decimal.NewFromInt(100)))
	f.requireConsistent(t, source.ID)
}
