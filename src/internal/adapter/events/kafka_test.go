package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type writerStub struct {
	messages []kafka.Message
	err      error
}

func (w *writerStub) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *writerStub) Close() error { return nil }

func TestKafkaPublisherKeysByEventKey(t *testing.T) {
	stub := &writerStub{}
	p := &KafkaPublisher{writer: stub, topic: "ledger-events"}

	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	err := p.Publish(context.Background(), domain.Event{
		Type:       domain.EventSettlementStatusChanged,
		Key:        "settlement-1",
		OccurredAt: at,
		Payload:    map[string]any{"status": "completed"},
	})
	require.NoError(t, err)
	require.Len(t, stub.messages, 1)

	msg := stub.messages[0]
	assert.Equal(t, "settlement-1", string(msg.Key))
	assert.Equal(t, domain.EventSettlementStatusChanged, string(msg.Headers[0].Value))

	var decoded domain.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "completed", decoded.Payload["status"])
}

func TestKafkaPublisherWrapsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := &KafkaPublisher{writer: &writerStub{err: boom}, topic: "ledger-events"}

	err := p.Publish(context.Background(), domain.Event{Type: domain.EventFXConverted, Key: "w"})
	assert.ErrorIs(t, err, boom)
}
