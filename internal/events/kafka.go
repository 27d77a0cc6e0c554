package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes stock events to a Kafka topic, keyed by batch ID.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Compression:  kafka.Snappy,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event *StockEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling stock event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.BatchID),
		Value: data,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing stock event to kafka: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
