package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/api-sage/fcy-ledger/src/internal/logger"
	"github.com/shopspring/decimal"
)

const moneyPlaces = 4

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", domain.ErrInvalidArgument)
	}
	if !amount.Equal(amount.Truncate(moneyPlaces)) {
		return fmt.Errorf("%w: amount must have at most %d decimal places", domain.ErrInvalidArgument, moneyPlaces)
	}
	return nil
}

func normalizeCurrency(currency string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(currency))
	if len(c) != 3 {
		return "", fmt.Errorf("%w: currency must be a 3 letter code", domain.ErrInvalidArgument)
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: currency must be a 3 letter code", domain.ErrInvalidArgument)
		}
	}
	return c, nil
}

func copyMetadata(metadata map[string]any) map[string]any {
	out := make(map[string]any, len(metadata)+2)
	for k, v := range metadata {
		out[k] = v
	}
	return out
}

// publish delivers an event without letting a publisher failure leak into
// the caller's result.
func publish(ctx context.Context, publisher domain.EventPublisher, eventType string, key string, payload map[string]any) {
	if publisher == nil {
		return
	}
	event := domain.Event{
		Type:       eventType,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Error("event publish failed", err, logger.Fields{
			"eventType": eventType,
			"key":       key,
		})
	}
}
