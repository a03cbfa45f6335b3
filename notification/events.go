package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Event mirrors one dispatched notification for external consumers
// (analytics, digest builders). It carries enough context to avoid a
// database round trip.
type Event struct {
	UserID          string         `json:"user_id"`
	Type            Type           `json:"type"`
	Title           string         `json:"title"`
	Message         string         `json:"message"`
	RelatedDocument *string        `json:"related_document,omitempty"`
	RelatedReview   *string        `json:"related_review,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	DispatchedAt    time.Time      `json:"dispatched_at"`
}

// EventPublisher pushes dispatched notifications to a message broker.
// Publishing is best-effort; the notifier logs and ignores failures.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

const eventQueue = "notification.dispatched"

// AMQPPublisher publishes events to a durable RabbitMQ queue. A fresh
// connection per publish keeps the implementation robust against broker
// restarts at the cost of throughput, which is acceptable for this volume.
type AMQPPublisher struct {
	URL string
}

func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{URL: url}
}

func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return fmt.Errorf("notification: amqp dial: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("notification: amqp channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(eventQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("notification: amqp queue declare: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("notification: marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", eventQueue, false, false, pub); err != nil {
		return fmt.Errorf("notification: amqp publish: %w", err)
	}
	return nil
}
