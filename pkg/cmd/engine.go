// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukex/leadflow/pkg/notify"
	"github.com/dukex/leadflow/pkg/otelhelper"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/dukex/leadflow/pkg/workflow"
)

// EngineConfig wires the workflow engine's sinks and limits.
type EngineConfig struct {
	Notifier      notify.Notifier
	Mailer        notify.Mailer
	ActionTimeout time.Duration
}

// NewDispatcher builds the executor and dispatcher over p.
func NewDispatcher(logger *slog.Logger, p persistence.Persistence, config EngineConfig) *workflow.Dispatcher {
	opts := []workflow.ExecutorOption{
		workflow.WithActionTimeout(config.ActionTimeout),
	}

	if config.Notifier != nil {
		opts = append(opts, workflow.WithNotifier(config.Notifier))
	}

	if config.Mailer != nil {
		opts = append(opts, workflow.WithMailer(config.Mailer))
	}

	executor := workflow.NewExecutor(logger, p, opts...)

	return workflow.NewDispatcher(logger, p.WorkflowRepository(), executor)
}

// NewTracing installs the OTLP tracer provider when enabled. The returned
// shutdown is always safe to call.
func NewTracing(ctx context.Context, logger *slog.Logger, enabled bool, service string) otelhelper.Shutdown {
	noop := func(context.Context) error { return nil }

	if !enabled {
		return noop
	}

	_, shutdown, err := otelhelper.NewTracer(ctx, service)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize tracer, continuing without tracing", "error", err)

		return noop
	}

	return shutdown
}
