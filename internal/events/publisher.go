package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// OrderCreated is the envelope published after a successful checkout, for
// downstream consumers (fulfillment, notifications).
type OrderCreated struct {
	OrderID       int64     `json:"order_id"`
	TotalAmount   float64   `json:"total_amount"`
	PaymentMethod string    `json:"payment_method"`
	PaymentStatus string    `json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
}

type Publisher interface {
	PublishOrderCreated(ctx context.Context, event OrderCreated) error
}

// AMQPPublisher pushes order events onto a RabbitMQ queue.
type AMQPPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewAMQPPublisher(url, queueName string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("events: failed to connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("events: failed to open channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("events: failed to declare queue %q: %w", queueName, err)
	}

	log.Info().Str("queue", queueName).Msg("Connected to RabbitMQ")
	return &AMQPPublisher{conn: conn, queueName: queueName}, nil
}

func (p *AMQPPublisher) PublishOrderCreated(ctx context.Context, event OrderCreated) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("events: failed to open channel: %w", err)
	}
	defer ch.Close()

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = ch.PublishWithContext(ctx,
		"",          // exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("events: failed to publish order created: %w", err)
	}

	log.Debug().Int64("order_id", event.OrderID).Msg("events: order created published")
	return nil
}

func (p *AMQPPublisher) Close() error {
	return p.conn.Close()
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderCreated(ctx context.Context, event OrderCreated) error {
	return nil
}
