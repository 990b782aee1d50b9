package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	NotificationExchange = "leadflow.notifications"
	notificationKey      = "notification."
)

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier publishes each notification as a persistent JSON message on a
// topic exchange, routed by trigger event.
type AMQPNotifier struct {
	conn    *amqp.Connection
	channel publisher
}

func NewAMQPNotifier(url string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AMQP broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("failed to open AMQP channel: %w", err)
	}

	err = ch.ExchangeDeclare(NotificationExchange, "topic", true, false, false, false, nil)
	if err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("failed to declare exchange %s: %w", NotificationExchange, err)
	}

	return &AMQPNotifier{conn: conn, channel: ch}, nil
}

func (n *AMQPNotifier) Notify(ctx context.Context, notification Notification) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	err = n.channel.PublishWithContext(ctx,
		NotificationExchange,
		notificationKey+notification.Trigger,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	return nil
}

func (n *AMQPNotifier) Close() error {
	if n.conn == nil {
		return nil
	}

	return n.conn.Close()
}
