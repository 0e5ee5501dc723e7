// Package seed holds the reference data both storage drivers start from.
package seed

import (
	"fmt"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const referenceRateProvider = "reference"

func Rates() []domain.Rate {
	seed := []struct {
		from, to, rate string
	}{
		{"USD", "NGN", "1338.38005900"},
		{"NGN", "USD", "0.00074717"},
		{"EUR", "NGN", "1580.48135373"},
		{"NGN", "EUR", "0.00063272"},
		{"GBP", "NGN", "1810.06486117"},
		{"NGN", "GBP", "0.00055247"},
		{"EUR", "USD", "1.18450000"},
		{"USD", "EUR", "0.84423808"},
		{"EUR", "GBP", "0.87240000"},
		{"GBP", "EUR", "1.14626318"},
		{"GBP", "USD", "1.35774874"},
		{"USD", "GBP", "0.73651330"},
	}

	out := make([]domain.Rate, 0, len(seed))
	for _, item := range seed {
		out = append(out, domain.Rate{
			FromCurrency: item.from,
			ToCurrency:   item.to,
			Rate:         decimal.RequireFromString(item.rate),
			Provider:     referenceRateProvider,
		})
	}
	return out
}

// Banks returns the partner bank directory, every bank sharing the given
// webhook secret.
func Banks(webhookSecret string) ([]domain.Bank, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(webhookSecret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash bank webhook secret: %w", err)
	}

	banks := []domain.Bank{
		{ID: "044001", Name: "Access Bank", Country: "NG", Status: domain.BankStatusActive},
		{ID: "011001", Name: "First Bank of Nigeria", Country: "NG", Status: domain.BankStatusActive},
		{ID: "058001", Name: "Guaranty Trust Bank", Country: "NG", Status: domain.BankStatusActive},
		{ID: "033001", Name: "United Bank for Africa", Country: "NG", Status: domain.BankStatusActive},
		{ID: "057001", Name: "Zenith Bank", Country: "NG", Status: domain.BankStatusActive},
		{ID: "032001", Name: "Union Bank", Country: "NG", Status: domain.BankStatusInactive},
		{ID: "US0001", Name: "Lakeside Clearing Bank", Country: "US", Status: domain.BankStatusActive},
		{ID: "GB0001", Name: "Thames Settlement Bank", Country: "GB", Status: domain.BankStatusActive},
		{ID: "EU0001", Name: "Rhine Payments Bank", Country: "EU", Status: domain.BankStatusActive},
	}
	for i := range banks {
		banks[i].WebhookSecretHash = string(hash)
	}
	return banks, nil
}
