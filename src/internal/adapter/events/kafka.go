package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/api-sage/fcy-ledger/src/internal/domain"
	"github.com/api-sage/fcy-ledger/src/internal/logger"
	"github.com/segmentio/kafka-go"
)

var _ domain.EventPublisher = (*KafkaPublisher)(nil)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            3,
		WriteTimeout:           5 * time.Second,
	}

	logger.Info("kafka publisher created", logger.Fields{
		"brokers": brokers,
		"topic":   topic,
	})
	return &KafkaPublisher{writer: writer, topic: topic}
}

// Publish keys messages by event key so every event of one settlement or
// wallet lands on the same partition.
func (p *KafkaPublisher) Publish(ctx context.Context, event domain.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Key),
		Value: body,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logger.Error("kafka publish failed", err, logger.Fields{
			"topic":     p.topic,
			"eventType": event.Type,
			"key":       event.Key,
		})
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
