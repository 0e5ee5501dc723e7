package models_test

import (
	"testing"

	"github.com/api-sage/fcy-ledger/src/internal/adapter/http/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountRequestValidate(t *testing.T) {
	cases := []struct {
		name    string
		amount  string
		wantErr string
	}{
		{name: "whole", amount: "25"},
		{name: "four places", amount: "0.0001"},
		{name: "trailing zeros", amount: "10.50000"},
		{name: "zero", amount: "0", wantErr: "amount must be greater than zero"},
		{name: "negative", amount: "-1", wantErr: "amount must be greater than zero"},
		{name: "five places", amount: "0.00001", wantErr: "amount must have at most 4 decimal places"},
		{name: "sub-minor remainder", amount: "12.34567", wantErr: "amount must have at most 4 decimal places"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := models.AmountRequest{Amount: decimal.RequireFromString(tc.amount)}.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.wantErr, err.Error())
		})
	}
}

func TestTransferRequestValidateRejectsSubMinorAmount(t *testing.T) {
	err := models.TransferRequest{
		SourceWalletID:      "src",
		DestinationWalletID: "dst",
		Amount:              decimal.RequireFromString("5.00005"),
	}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decimal places")
}
