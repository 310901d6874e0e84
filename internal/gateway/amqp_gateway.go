package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"
)

// AMQPGateway publishes each message to a durable queue with publisher
// confirms. A broker ack is acceptance; a nack or timeout is a failure.
type AMQPGateway struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	queue    string
	confirms chan amqp.Confirmation
	log      *slog.Logger

	// mu serializes publish+confirm so delivery tags line up.
	mu      sync.Mutex
	nextTag uint64
}

func DialAMQP(url, queue string, log *slog.Logger) (*AMQPGateway, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	return &AMQPGateway{
		conn:     conn,
		ch:       ch,
		queue:    queue,
		confirms: ch.NotifyPublish(make(chan amqp.Confirmation, 64)),
		log:      log,
	}, nil
}

func (g *AMQPGateway) Deliver(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal sms job: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.ch.Publish(
		"",      // default exchange
		g.queue, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.DeliveryID,
			Body:         body,
		},
	); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	g.nextTag++
	tag := g.nextTag

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for broker confirm: %w", ctx.Err())
		case c, ok := <-g.confirms:
			if !ok {
				return fmt.Errorf("amqp channel closed before confirm")
			}
			// Confirms for earlier publishes that timed out are stale.
			if c.DeliveryTag < tag {
				continue
			}
			if !c.Ack {
				return fmt.Errorf("broker nacked delivery %s", msg.DeliveryID)
			}
			return nil
		}
	}
}

func (g *AMQPGateway) Close() error {
	if err := g.ch.Close(); err != nil {
		g.log.Warn("closing amqp channel", "error", err)
	}
	return g.conn.Close()
}
