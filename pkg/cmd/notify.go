package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/leadflow/pkg/eventbus"
	"github.com/dukex/leadflow/pkg/notify"
)

// SMTPConfig configures outgoing mail. An empty Host logs emails instead.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Closer releases resources held by a sink.
type Closer func() error

func noopCloser() error { return nil }

// NewNotifier builds the notification sink selected by kind: log, eventbus
// or amqp. bus is required for eventbus.
func NewNotifier(kind, amqpURL string, bus eventbus.EventPublisher, logger *slog.Logger) (notify.Notifier, Closer, error) {
	switch kind {
	case "", "log":
		return notify.NewLogNotifier(logger), noopCloser, nil
	case "eventbus":
		if bus == nil {
			return nil, nil, fmt.Errorf("eventbus notifier requires an event bus")
		}

		return notify.NewBusNotifier(bus), noopCloser, nil
	case "amqp":
		notifier, err := notify.NewAMQPNotifier(amqpURL)
		if err != nil {
			return nil, nil, err
		}

		return notifier, notifier.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported notifier: %s", kind)
	}
}

// NewMailer returns an SMTP mailer when a host is configured, otherwise a
// mailer that logs.
func NewMailer(ctx context.Context, config SMTPConfig, logger *slog.Logger) notify.Mailer {
	if config.Host == "" {
		logger.InfoContext(ctx, "SMTP not configured, emails will be logged")

		return notify.NewLogMailer(logger)
	}

	return notify.NewSMTPMailer(config.Host, config.Port, config.User, config.Password, config.From)
}
