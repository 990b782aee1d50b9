package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukex/leadflow/pkg/cmd"
	"github.com/dukex/leadflow/pkg/eventbus"
	"github.com/dukex/leadflow/pkg/log"
	"github.com/dukex/leadflow/pkg/scheduler"
	"github.com/dukex/leadflow/pkg/workflow"
	"github.com/urfave/cli/v3"
)

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"), command.String("log-format"))

	logger := log.WithModule("scanner")

	shutdown := cmd.NewTracing(ctx, logger, command.Bool("tracing"), "leadflow-scanner")
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

	if command.Bool("once") {
		fired, err := scanner.ScanAndFire(ctx)
		if err != nil {
			return err
		}

		logger.InfoContext(ctx, "Inactivity scan finished", "fired", fired)

		return nil
	}

	job := scheduler.NewInactivityJob(logger, scanner, command.String("schedule"))

	err = job.Start(ctx)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Waiting for the next scan", "next", job.Next())

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	sig := <-signals
	logger.InfoContext(ctx, "Shutting down gracefully...", "signal", sig)

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	return job.Stop(stopCtx)
}
