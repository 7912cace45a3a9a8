// Package events publishes to-do lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	ActionCreated  = "todo.created"
	ActionUpdated  = "todo.updated"
	ActionDeleted  = "todo.deleted"
	ActionImported = "todo.imported"
)

type Event struct {
	Action string     `json:"action"`
	ID     *uuid.UUID `json:"id,omitempty"`
	Count  int        `json:"count,omitempty"`
	At     time.Time  `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(broker, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(broker),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *Producer) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	key := []byte(event.Action)
	if event.ID != nil {
		key = []byte(event.ID.String())
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
		Time:  event.At,
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
