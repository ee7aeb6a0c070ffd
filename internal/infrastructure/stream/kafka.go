package stream

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// Publisher mirrors processed outbox events onto a Kafka topic so external
// analytics pipelines can consume call events. It is optional: when
// KAFKA_BROKERS is unset the publisher is nil and publishing is a no-op.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher builds a Kafka publisher from environment configuration.
// Returns nil when no brokers are configured.
func NewPublisher() *Publisher {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		return nil
	}

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "voxhub.events"
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(brokers, ",")...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}

	log.Printf("✅ Kafka event stream enabled (brokers=%s topic=%s)", brokers, topic)
	return &Publisher{writer: writer}
}

// Publish sends one event keyed by event type. Safe to call on a nil
// publisher.
func (p *Publisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	if p == nil {
		return nil
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(eventType),
		Value: value,
		Time:  time.Now(),
	})
}

// Close flushes and closes the writer. Safe on nil.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
