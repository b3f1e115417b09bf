package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultQueue is the queue confirmations are published to when no explicit
// name is configured.
const DefaultQueue = "reservations.confirmations"

// AMQPNotifier publishes confirmations as JSON messages on a durable queue.
type AMQPNotifier struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// DialAMQP connects to the broker at url and declares the confirmation queue.
func DialAMQP(url, queue string) (*AMQPNotifier, error) {
	if queue == "" {
		queue = DefaultQueue
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("notify: failed to connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("notify: failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("notify: failed to declare queue %q: %w", queue, err)
	}

	return &AMQPNotifier{conn: conn, ch: ch, queue: queue}, nil
}

// ReservationConfirmed publishes the confirmation. A fresh message ID is
// assigned when the caller did not set one.
func (n *AMQPNotifier) ReservationConfirmed(ctx context.Context, confirmation Confirmation) error {
	if confirmation.MessageID == "" {
		confirmation.MessageID = uuid.NewString()
	}

	body, err := json.Marshal(confirmation)
	if err != nil {
		return fmt.Errorf("notify: failed to encode confirmation: %w", err)
	}

	err = n.ch.PublishWithContext(ctx,
		"",      // default exchange
		n.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    confirmation.MessageID,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("notify: failed to publish confirmation: %w", err)
	}

	return nil
}

// Close releases the channel and connection.
func (n *AMQPNotifier) Close() error {
	if n.ch != nil {
		if err := n.ch.Close(); err != nil {
			n.conn.Close()
			return err
		}
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
