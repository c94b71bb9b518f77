package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
)

const mimeApplicationJSON = "application/json"

type AMQPPublisher struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	queue   string
}

// NewAMQPPublisher dials url and declares a durable queue.
func NewAMQPPublisher(url, queue string) (*AMQPPublisher, error) {
	const op = "notify.NewAMQPPublisher"

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%s: dial: %w", op, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: channel: %w", op, err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: declare %s: %w", op, queue, err)
	}

	return &AMQPPublisher{conn: conn, channel: ch, queue: queue}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, msg PushMessage) error {
	const op = "notify.AMQPPublisher.Publish"

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = p.channel.PublishWithContext(ctx, "", p.queue, false, false, amqp091.Publishing{
		ContentType:  mimeApplicationJSON,
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		Headers: amqp091.Table{
			"message_type": "JSON",
			"kind":         string(msg.Kind),
		},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (p *AMQPPublisher) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}

	if p.channel != nil {
		_ = p.channel.Close()
	}

	return p.conn.Close()
}
