// Package kafka publishes identity lifecycle events for downstream
// consumers (notification fan-out, audit pipelines).
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/fomomon/admin/internal/application"
)

// Producer wraps the franz-go Kafka client and implements
// application.Publisher.
type Producer struct {
	client *kgo.Client
	topic  string
}

// envelope is the wire format consumers dispatch on.
type envelope struct {
	EventType  string         `json:"eventType"`
	EventID    string         `json:"eventId"`
	TenantKey  string         `json:"tenantKey"`
	OccurredAt time.Time      `json:"occurredAt"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// NewProducer creates a Producer publishing to the given topic.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, err
	}
	return &Producer{client: client, topic: topic}, nil
}

// Publish emits the event asynchronously. Delivery is best-effort: a
// produce failure is logged and never surfaced to the operation that
// raised the event.
func (p *Producer) Publish(ctx context.Context, event application.Event) {
	value, err := json.Marshal(envelope{
		EventType:  event.Type,
		EventID:    uuid.NewString(),
		TenantKey:  event.TenantKey,
		OccurredAt: time.Now().UTC(),
		Payload:    event.Payload,
	})
	if err != nil {
		log.Error().Err(err).Str("type", event.Type).Msg("failed to encode event")
		return
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.TenantKey),
		Value: value,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			log.Error().Err(err).Str("type", event.Type).Msg("failed to publish event")
		}
	})
}

// Close flushes pending records and releases the client.
func (p *Producer) Close() {
	p.client.Close()
}
