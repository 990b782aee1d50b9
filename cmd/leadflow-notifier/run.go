package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/leadflow/pkg/cmd"
	"github.com/dukex/leadflow/pkg/log"
	"github.com/dukex/leadflow/pkg/notify"
	"github.com/urfave/cli/v3"
)

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"), command.String("log-format"))

	logger := log.WithModule("notifier")

	bus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := bus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	kind := "log"
	if command.String("amqp-url") != "" {
		kind = "amqp"
	}

	notifier, closeNotifier, err := cmd.NewNotifier(kind, command.String("amqp-url"), nil, logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := closeNotifier(); err != nil {
			logger.ErrorContext(ctx, "Failed to close notifier", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	worker := notify.NewWorker(logger, bus, notifier, cmd.NewMailer(ctx, cmd.SMTPConfigFrom(command), logger))

	err = worker.Start(ctx)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Notifier worker started", "event_bus", command.String("event-bus"), "sink", kind)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	sig := <-signals
	logger.InfoContext(ctx, "Shutting down gracefully...", "signal", sig)

	return nil
}
