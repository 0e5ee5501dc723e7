package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// moneyPlaces matches the NUMERIC(20,4) money columns.
const moneyPlaces = 4

type validator struct {
	errs []string
}

func (v *validator) require(value string, field string) {
	if strings.TrimSpace(value) == "" {
		v.errs = append(v.errs, field+" is required")
	}
}

func (v *validator) positive(amount decimal.Decimal, field string) {
	if !amount.IsPositive() {
		v.errs = append(v.errs, field+" must be greater than zero")
		return
	}
	if !amount.Equal(amount.Truncate(moneyPlaces)) {
		v.errs = append(v.errs, fmt.Sprintf("%s must have at most %d decimal places", field, moneyPlaces))
	}
}

func (v *validator) currency(value string, field string) {
	ccy := strings.TrimSpace(value)
	switch {
	case ccy == "":
		v.errs = append(v.errs, field+" is required")
	case len(ccy) != 3:
		v.errs = append(v.errs, field+" must be 3 characters")
	}
}

func (v *validator) err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return errors.New(strings.Join(v.errs, "; "))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
