package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fridgemap/internal/models"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Type names a fridge lifecycle event.
type Type string

const (
	FridgeCreated Type = "fridge.created"
	FridgeUpdated Type = "fridge.updated"
)

// Event is published after a fridge record changes.
type Event struct {
	Type       Type           `json:"type"`
	FridgeID   string         `json:"fridge_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Fridge     *models.Fridge `json:"fridge"`
}

// Publisher delivers fridge events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Writer is the part of *kafka.Writer used by KafkaPublisher, so tests can replace it.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON messages keyed by fridge ID, so that all
// events of one fridge land on the same partition in order.
type KafkaPublisher struct {
	writer Writer
	log    zerolog.Logger
}

// NewKafkaPublisher creates a publisher writing to topic on the given brokers.
func NewKafkaPublisher(brokers []string, topic string, log zerolog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
	return NewKafkaPublisherWithWriter(writer, log)
}

// NewKafkaPublisherWithWriter creates a publisher on top of an existing writer.
func NewKafkaPublisherWithWriter(writer Writer, log zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, log: log}
}

// Publish encodes the event and writes it synchronously.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: failed to encode %s event: %w", event.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.FridgeID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
		Time: event.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("events: failed to write %s event: %w", event.Type, err)
	}

	p.log.Debug().Str("type", string(event.Type)).Str("fridge_id", event.FridgeID).Msg("event published")
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. It is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
