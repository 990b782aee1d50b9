package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/dukex/leadflow/pkg/metrics"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/otelhelper"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Trigger fires an event for a record. Domain operations depend on this
// rather than on the Dispatcher.
type Trigger interface {
	Trigger(ctx context.Context, event models.TriggerEvent, record models.Record)
}

// Dispatcher fans an event out to every active workflow definition listening
// for it. Definitions run sequentially and independently of each other.
type Dispatcher struct {
	workflows persistence.WorkflowRepository
	evaluator *Evaluator
	executor  *Executor
	tracer    trace.Tracer
	logger    *slog.Logger
}

func NewDispatcher(logger *slog.Logger, workflows persistence.WorkflowRepository, executor *Executor) *Dispatcher {
	return &Dispatcher{
		workflows: workflows,
		evaluator: NewEvaluator(logger),
		executor:  executor,
		tracer:    executor.tracer,
		logger:    logger.With("module", "workflow_dispatcher"),
	}
}

// Trigger never fails: listing, evaluation and execution errors are logged.
func (d *Dispatcher) Trigger(ctx context.Context, event models.TriggerEvent, record models.Record) {
	recordID, _ := record.ID()

	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "workflow.trigger",
		attribute.String(otelhelper.EventKey, string(event)),
		attribute.Int64(otelhelper.RecordIDKey, recordID),
	)
	defer span.End()

	metrics.RecordTrigger(string(event))

	active := true

	definitions, err := d.workflows.List(ctx, persistence.WorkflowFilter{TriggerEvent: event, IsActive: &active})
	if err != nil {
		otelhelper.SetError(span, err, attribute.String(otelhelper.EventKey, string(event)))
		d.logger.ErrorContext(ctx, "failed to list workflows", "event", string(event), "record_id", recordID, "error", err)

		return
	}

	span.SetAttributes(attribute.Int(otelhelper.MatchedCountKey, len(definitions)))

	if len(definitions) == 0 {
		return
	}

	var matched, skipped, failed int

	for _, definition := range definitions {
		if definition == nil || !definition.IsActive || definition.TriggerEvent != event {
			continue
		}

		switch d.dispatch(ctx, event, definition, maps.Clone(record)) {
		case metrics.OutcomeMatched:
			matched++
		case metrics.OutcomeSkipped:
			skipped++
		default:
			failed++
		}
	}

	d.logger.InfoContext(ctx, "trigger processed",
		"event", string(event),
		"record_id", recordID,
		"workflows", len(definitions),
		"matched", matched,
		"skipped", skipped,
		"failed", failed)
}

func (d *Dispatcher) dispatch(ctx context.Context, event models.TriggerEvent, definition *models.Workflow, record models.Record) (outcome string) {
	run := Run{ID: uuid.New().String(), WorkflowID: definition.ID, Event: event}

	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "workflow.run",
		attribute.String(otelhelper.WorkflowIDKey, run.WorkflowID),
		attribute.String(otelhelper.RunIDKey, run.ID),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("workflow panicked: %v", r)
			otelhelper.SetError(span, err, attribute.String(otelhelper.WorkflowIDKey, run.WorkflowID))
			d.logger.ErrorContext(ctx, "workflow run failed",
				"event", string(event), "workflow_id", run.WorkflowID, "run_id", run.ID, "error", err)

			outcome = metrics.OutcomeFailed
		}

		metrics.RecordRun(string(event), outcome)
	}()

	if !d.evaluator.Evaluate(ctx, definition, record) {
		d.logger.DebugContext(ctx, "conditions not met",
			"event", string(event), "workflow_id", run.WorkflowID, "run_id", run.ID)

		return metrics.OutcomeSkipped
	}

	summary := d.executor.Execute(ctx, run, definition.Actions, record)
	if summary.Failed > 0 {
		return metrics.OutcomeFailed
	}

	return metrics.OutcomeMatched
}
