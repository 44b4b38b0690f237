// Package events publishes booking lifecycle events to RabbitMQ after a
// mutation has committed.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	BookingCreated = "booking.created"
	BookingUpdated = "booking.updated"
	BookingDeleted = "booking.deleted"

	DefaultQueue = "booking.events"
)

// BookingEvent is the message body consumers receive.
type BookingEvent struct {
	Type           string    `json:"type"`
	BookingID      int64     `json:"booking_id"`
	BookingCode    string    `json:"booking_code"`
	ClientID       int64     `json:"client_id,omitempty"`
	ContainerCount int       `json:"container_count,omitempty"`
	ContainerRows  int       `json:"container_rows"`
	ActorID        int64     `json:"actor_id"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev BookingEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, BookingEvent) error { return nil }

// AMQPPublisher dials the broker per publish and writes persistent JSON messages
// to a durable queue on the default exchange.
type AMQPPublisher struct {
	URL   string
	Queue string
}

func NewAMQPPublisher(url string) Publisher {
	if url == "" {
		return NopPublisher{}
	}
	return AMQPPublisher{URL: url, Queue: DefaultQueue}
}

func (p AMQPPublisher) Publish(ctx context.Context, ev BookingEvent) error {
	queue := p.Queue
	if queue == "" {
		queue = DefaultQueue
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.OccurredAt,
		Type:         ev.Type,
		Body:         body,
	})
}
