package main

import (
	"context"
	"fmt"

	"github.com/dukex/leadflow/pkg/cmd"
	"github.com/dukex/leadflow/pkg/eventbus"
	"github.com/dukex/leadflow/pkg/log"
	"github.com/dukex/leadflow/pkg/notify"
	"github.com/dukex/leadflow/pkg/workflow"
	"github.com/urfave/cli/v3"
)

func RunAPICommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Start the API server",
		Flags: cmd.Flags(
			[]cli.Flag{
				&cli.IntFlag{
					Name:    "port",
					Aliases: []string{"p"},
					Usage:   "Port to run the API server on",
					Value:   defaultPort,
					Sources: cli.EnvVars("PORT"),
				},
				&cli.DurationFlag{
					Name:    "inactivity-window",
					Usage:   "Idle time after which a lead counts as inactive",
					Value:   workflow.DefaultInactivityWindow,
					Sources: cli.EnvVars("INACTIVITY_WINDOW"),
				},
			},
			cmd.DatabaseFlags(),
			cmd.LogFlags(),
			cmd.EventBusFlags(),
			cmd.DeliveryFlags(),
			cmd.EngineFlags(),
		),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger := log.WithModule("api")

			logger.InfoContext(ctx, "Initializing Leadflow API")

			shutdown := cmd.NewTracing(ctx, logger, command.Bool("tracing"), "leadflow-api")
			defer func() {
				if err := shutdown(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
				}
			}()

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			persistence, err = cmd.WithCache(ctx, logger, persistence, command.String("redis-url"), command.Duration("cache-ttl"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			var bus eventbus.EventBus

			if command.String("notifier") == "eventbus" {
				bus, err = cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), logger)
				if err != nil {
					return err
				}

				defer func() {
					if err := bus.Close(); err != nil {
						logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
					}
				}()

				// gochannel only reaches this process, so deliver here.
				if command.String("event-bus") == "gochannel" {
					worker := notify.NewWorker(logger, bus,
						notify.NewLogNotifier(logger),
						cmd.NewMailer(ctx, cmd.SMTPConfigFrom(command), logger))

					err = worker.Start(ctx)
					if err != nil {
						return err
					}
				}
			}

			engine, closeSinks, err := cmd.EngineConfigFrom(ctx, command, bus)
			if err != nil {
				return err
			}

			defer func() {
				if err := closeSinks(); err != nil {
					logger.ErrorContext(ctx, "Failed to close notifier", "error", err)
				}
			}()

			dispatcher := cmd.NewDispatcher(logger, persistence, engine)
			scanner := workflow.NewInactivityScanner(logger, persistence.LeadRepository(), dispatcher, command.Duration("inactivity-window"))

			api := NewAPI(logger, persistence, dispatcher, scanner)

			err = api.Start(command.Int("port"))
			if err != nil {
				return fmt.Errorf("failed to start api server: %w", err)
			}

			return nil
		},
	}
}
