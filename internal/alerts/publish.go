package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// EventType labels alert events on the topic.
const EventType = "alert.created"

// Event is the JSON body published for every newly created alert.
type Event struct {
	EventID     string    `json:"event_id"`
	Type        string    `json:"type"`
	PublishedAt time.Time `json:"published_at"`
	Alert       Record    `json:"alert"`
}

// KafkaPublisher produces alert events to a Kafka topic.
// It implements Publisher.
type KafkaPublisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewKafkaPublisher creates a producer for the alerts topic.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		WriteTimeout: 10 * time.Second,
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{writer: w, logger: logger}
}

// Publish writes one event keyed by the alert's dedup key, so every event
// for a key lands on the same partition.
func (p *KafkaPublisher) Publish(ctx context.Context, rec Record) error {
	msg, err := serializeEvent(rec, time.Now().UTC())
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish alert %s: %w", rec.DedupKey(), err)
	}
	p.logger.Debug("Alert event published", "key", string(msg.Key), "topic", p.writer.Topic)
	return nil
}

// Close flushes pending writes and closes the producer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// serializeEvent marshals an alert into a Kafka message.
func serializeEvent(rec Record, at time.Time) (kafkago.Message, error) {
	ev := Event{
		EventID:     uuid.NewString(),
		Type:        EventType,
		PublishedAt: at,
		Alert:       rec,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.DedupKey()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(EventType)},
			{Key: "risk_level", Value: []byte(rec.RiskLevel)},
			{Key: "published_at", Value: []byte(at.Format(time.RFC3339))},
		},
	}, nil
}
