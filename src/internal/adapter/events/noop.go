package events

import (
	"context"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/api-sage/fcy-ledger/src/internal/logger"
)

var _ domain.EventPublisher = LogPublisher{}

// LogPublisher writes events to the log. It stands in for kafka when no
// brokers are configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, event domain.Event) error {
	logger.Info("event", logger.Fields{
		"type":    event.Type,
		"key":     event.Key,
		"payload": event.Payload,
	})
	return nil
}
