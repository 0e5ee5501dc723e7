package domain

import (
	"context"
	"time"
)

const (
	EventSettlementStatusChanged = "settlement.status_changed"
	EventAMLAlertCreated         = "aml.alert_created"
	EventFXConverted             = "fx.converted"
)

type Event struct {
	Type       string         `json:"type"`
	Key        string         `json:"key"`
	OccurredAt time.Time      `json:"occurredAt"`
	Payload    map[string]any `json:"payload"`
}

// EventPublisher delivers events best-effort; callers never roll back on a
// publish failure.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
