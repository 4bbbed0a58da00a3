package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultQueue is the durable queue lifecycle events are routed to.
const DefaultQueue = "reservation.events"

// Publisher delivers lifecycle events.  Repositories publish after a
// mutation has been applied and never fail the mutation because of a
// publish error.
type Publisher interface {
	Publish(ctx context.Context, event ReservationEvent) error
}

// NopPublisher drops every event.  It is the default when events are
// disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ReservationEvent) error { return nil }

// AMQPPublisher publishes events to a RabbitMQ queue through the default
// exchange.  Each Publish dials its own connection.
type AMQPPublisher struct {
	URL   string
	Queue string
}

// NewAMQPPublisher returns a publisher for url, routing to queue (or
// DefaultQueue when empty).
func NewAMQPPublisher(url, queue string) *AMQPPublisher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &AMQPPublisher{URL: url, Queue: queue}
}

// Publish sends event as a persistent JSON message.  Errors are returned
// with a "rabbitmq:" prefix and left to the caller to log.
func (p *AMQPPublisher) Publish(ctx context.Context, event ReservationEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return fmt.Errorf("rabbitmq: dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq: channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Durable so events survive broker restarts.
	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: queue declare: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         string(event.Type),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}
