package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/vanfit-commerce/shipping-service/pkg/logging"
)

// EventEnvelope wraps a domain event payload with the metadata consumers
// need for routing and tracing.
type EventEnvelope struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Source        string    `json:"source"`
	Subject       string    `json:"subject"`
	Time          time.Time `json:"time"`
	CorrelationID string    `json:"correlationId,omitempty"`
	Data          any       `json:"data"`
}

// NewEventEnvelope builds an envelope for a domain event payload
func NewEventEnvelope(eventType, source, subject string, data any) *EventEnvelope {
	return &EventEnvelope{
		ID:      uuid.New().String(),
		Type:    eventType,
		Source:  source,
		Subject: subject,
		Time:    time.Now().UTC(),
		Data:    data,
	}
}

// NewEventEnvelopeFromContext builds an envelope that carries the request's
// correlation ID when one is present on the context, so consumers can tie
// the event back to the HTTP request that raised it.
func NewEventEnvelopeFromContext(ctx context.Context, eventType, source, subject string, data any) *EventEnvelope {
	envelope := NewEventEnvelope(eventType, source, subject, data)
	envelope.CorrelationID = logging.CorrelationIDFromContext(ctx)
	return envelope
}

// Producer handles publishing messages to Kafka topics. Writers are
// created lazily per topic and reused for the life of the producer.
type Producer struct {
	mu      sync.Mutex
	writers map[string]*kafka.Writer
	config  *Config
}

func NewProducer(config *Config) *Producer {
	return &Producer{
		config:  config,
		writers: make(map[string]*kafka.Writer),
	}
}

func (p *Producer) getWriter(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.writers[topic]; ok {
		return w
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(p.config.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    p.config.BatchSize,
		BatchTimeout: p.config.BatchTimeout,
		RequiredAcks: kafka.RequiredAcks(p.config.RequiredAcks),
		Async:        false,
	}
	p.writers[topic] = w
	return w
}

// PublishEvent publishes an event envelope to the specified topic. Messages
// are keyed by subject so all events for one cart land on one partition.
func (p *Producer) PublishEvent(ctx context.Context, topic string, event *EventEnvelope) error {
	msg, err := toMessage(event)
	if err != nil {
		return err
	}

	if err := p.getWriter(topic).WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

func toMessage(event *EventEnvelope) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event %s: %w", event.ID, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Subject),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
			{Key: "event-source", Value: []byte(event.Source)},
			{Key: "event-id", Value: []byte(event.ID)},
			{Key: "event-time", Value: []byte(event.Time.Format(time.RFC3339))},
			{Key: "content-type", Value: []byte("application/json")},
		},
		Time: event.Time,
	}

	if event.CorrelationID != "" {
		msg.Headers = append(msg.Headers, kafka.Header{
			Key:   "correlation-id",
			Value: []byte(event.CorrelationID),
		})
	}

	return msg, nil
}

// Close closes every topic writer, returning the last error seen
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var lastErr error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			lastErr = fmt.Errorf("close writer for %s: %w", topic, err)
		}
	}
	return lastErr
}
