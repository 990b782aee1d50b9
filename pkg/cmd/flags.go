package cmd

import (
	"context"
	"time"

	"github.com/dukex/leadflow/pkg/eventbus"
	"github.com/dukex/leadflow/pkg/log"
	"github.com/dukex/leadflow/pkg/notify"
	"github.com/dukex/leadflow/pkg/workflow"
	"github.com/urfave/cli/v3"
)

func DatabaseFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "database-url",
			Usage:    "Database connection URL for persistence (postgres://... or a directory)",
			Required: true,
			Sources:  cli.EnvVars("DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Redis URL; enables the workflow definition cache",
			Sources: cli.EnvVars("REDIS_URL"),
		},
		&cli.DurationFlag{
			Name:    "cache-ttl",
			Usage:   "How long cached workflow lookups are served",
			Value:   5 * time.Minute,
			Sources: cli.EnvVars("CACHE_TTL"),
		},
	}
}

func LogFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "Log format (text, json)",
			Value:   "text",
			Sources: cli.EnvVars("LOG_FORMAT"),
		},
	}
}

func EventBusFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus type (gochannel, kafka)",
			Value:   "gochannel",
			Sources: cli.EnvVars("EVENT_BUS_TYPE"),
		},
		&cli.StringFlag{
			Name:    "kafka-brokers",
			Usage:   "Comma separated Kafka brokers",
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
	}
}

// DeliveryFlags configure where notifications and emails go.
func DeliveryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "notifier",
			Usage:   "Notification sink (log, eventbus, amqp)",
			Value:   "log",
			Sources: cli.EnvVars("NOTIFIER"),
		},
		&cli.StringFlag{
			Name:    "amqp-url",
			Usage:   "AMQP URL for the amqp notifier",
			Sources: cli.EnvVars("AMQP_URL"),
		},
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP host; emails are logged when empty",
			Sources: cli.EnvVars("SMTP_HOST"),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Sources: cli.EnvVars("SMTP_PORT"),
		},
		&cli.StringFlag{
			Name:    "smtp-user",
			Sources: cli.EnvVars("SMTP_USER"),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Sources: cli.EnvVars("SMTP_PASSWORD"),
		},
		&cli.StringFlag{
			Name:    "mail-from",
			Usage:   "Sender address of outgoing emails",
			Value:   "noreply@leadflow.local",
			Sources: cli.EnvVars("MAIL_FROM"),
		},
	}
}

func EngineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:    "action-timeout",
			Usage:   "Upper bound for a single workflow action",
			Value:   workflow.DefaultActionTimeout,
			Sources: cli.EnvVars("ACTION_TIMEOUT"),
		},
		&cli.BoolFlag{
			Name:    "tracing",
			Usage:   "Export OpenTelemetry traces over OTLP/HTTP",
			Sources: cli.EnvVars("OTEL_ENABLED"),
		},
	}
}

// Flags concatenates flag groups.
func Flags(groups ...[]cli.Flag) []cli.Flag {
	flags := make([]cli.Flag, 0)
	for _, group := range groups {
		flags = append(flags, group...)
	}

	return flags
}

func SMTPConfigFrom(command *cli.Command) SMTPConfig {
	return SMTPConfig{
		Host:     command.String("smtp-host"),
		Port:     command.Int("smtp-port"),
		User:     command.String("smtp-user"),
		Password: command.String("smtp-password"),
		From:     command.String("mail-from"),
	}
}

// EngineConfigFrom builds the engine sinks from DeliveryFlags and
// EngineFlags. With the eventbus notifier emails go to the bus as well.
func EngineConfigFrom(ctx context.Context, command *cli.Command, bus eventbus.EventPublisher) (EngineConfig, Closer, error) {
	logger := log.WithModule("delivery")

	notifier, closer, err := NewNotifier(command.String("notifier"), command.String("amqp-url"), bus, logger)
	if err != nil {
		return EngineConfig{}, nil, err
	}

	config := EngineConfig{
		Notifier:      notifier,
		Mailer:        NewMailer(ctx, SMTPConfigFrom(command), logger),
		ActionTimeout: command.Duration("action-timeout"),
	}

	if mailer, ok := notifier.(*notify.BusNotifier); ok {
		config.Mailer = mailer
	}

	return config, closer, nil
}
