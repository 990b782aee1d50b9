package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/leadflow/pkg/metrics"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/notify"
	"github.com/dukex/leadflow/pkg/otelhelper"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/dukex/leadflow/pkg/template"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultActionTimeout   = 10 * time.Second
	DefaultActivitySummary = "Auto-generated activity"
	DefaultNotification    = "Notification sent"
	DefaultEmailSubject    = "Notification"
)

var (
	ErrRecordWithoutID = errors.New("record has no id")
	ErrActionTimeout   = errors.New("action timed out")
	ErrNotALead        = errors.New("action requires a lead record")
)

// Run identifies one evaluation of one workflow definition.
type Run struct {
	ID         string
	WorkflowID string
	Event      models.TriggerEvent
}

// Summary counts the outcome of each action of a run.
type Summary struct {
	Succeeded int
	Failed    int
	Skipped   int
}

// Executor applies workflow actions to the record store. Each action is
// isolated: failures are logged and counted, never returned.
type Executor struct {
	leads      persistence.LeadRepository
	clients    persistence.ClientRepository
	activities persistence.ActivityRepository
	notifier   notify.Notifier
	mailer     notify.Mailer
	timeout    time.Duration
	tracer     trace.Tracer
	logger     *slog.Logger
	now        func() time.Time
}

type ExecutorOption func(*Executor)

func WithNotifier(notifier notify.Notifier) ExecutorOption {
	return func(e *Executor) { e.notifier = notifier }
}

func WithMailer(mailer notify.Mailer) ExecutorOption {
	return func(e *Executor) { e.mailer = mailer }
}

// WithActionTimeout bounds every action. Non-positive values keep the default.
func WithActionTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

func WithTracer(tracer trace.Tracer) ExecutorOption {
	return func(e *Executor) { e.tracer = tracer }
}

func NewExecutor(logger *slog.Logger, store persistence.Persistence, opts ...ExecutorOption) *Executor {
	e := &Executor{
		leads:      store.LeadRepository(),
		clients:    store.ClientRepository(),
		activities: store.ActivityRepository(),
		notifier:   notify.NewLogNotifier(logger),
		mailer:     notify.NewLogMailer(logger),
		timeout:    DefaultActionTimeout,
		tracer:     otelhelper.Tracer("leadflow/workflow"),
		logger:     logger.With("module", "workflow_executor"),
		now:        func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Execute runs actions in declared order against record.
func (e *Executor) Execute(ctx context.Context, run Run, actions models.Actions, record models.Record) Summary {
	var summary Summary

	for i, action := range actions {
		logger := e.logger.With(
			"event", string(run.Event),
			"workflow_id", run.WorkflowID,
			"run_id", run.ID,
			"action", i,
			"action_type", string(actionType(action)),
		)

		err := validate(action)
		if err != nil {
			logger.WarnContext(ctx, "skipping action", "error", err)
			metrics.RecordAction(string(actionType(action)), metrics.OutcomeSkipped, 0)

			summary.Skipped++

			continue
		}

		started := time.Now()
		err = e.run(ctx, run, i, action, record)
		took := time.Since(started)

		if err != nil {
			logger.ErrorContext(ctx, "action failed", "error", err, "duration", took)
			metrics.RecordAction(string(action.Type()), metrics.OutcomeFailed, took)

			summary.Failed++

			continue
		}

		logger.DebugContext(ctx, "action executed", "duration", took)
		metrics.RecordAction(string(action.Type()), metrics.OutcomeOK, took)

		summary.Succeeded++
	}

	return summary
}

func actionType(action models.Action) models.ActionType {
	if action == nil {
		return "unknown"
	}

	return action.Type()
}

func validate(action models.Action) error {
	if action == nil {
		return models.ErrUnknownAction
	}

	return action.Validate()
}

// run applies one action under the action timeout, converting panics into
// errors. A timed out action keeps running in the background, but its context
// is cancelled before run returns and the stores refuse writes on a cancelled
// context, so a late write cannot land after the next action's.
func (e *Executor) run(ctx context.Context, run Run, index int, action models.Action, record models.Record) error {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.action",
		attribute.String(otelhelper.WorkflowIDKey, run.WorkflowID),
		attribute.String(otelhelper.RunIDKey, run.ID),
		attribute.String(otelhelper.ActionTypeKey, string(action.Type())),
		attribute.Int(otelhelper.ActionIndexKey, index),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	done := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("action panicked: %v", r)
			}
		}()

		done <- e.apply(ctx, run, action, record)
	}()

	var err error

	select {
	case err = <-done:
	case <-ctx.Done():
		err = fmt.Errorf("%w after %s", ErrActionTimeout, e.timeout)
	}

	if err != nil {
		otelhelper.SetError(span, err, attribute.String(otelhelper.ActionTypeKey, string(action.Type())))
	}

	return err
}

func (e *Executor) apply(ctx context.Context, run Run, action models.Action, record models.Record) error {
	id, ok := record.ID()
	if !ok {
		return ErrRecordWithoutID
	}

	switch a := action.(type) {
	case models.UpdateStatus:
		_, err := e.leads.UpdateFields(ctx, id, map[string]any{"status": a.Status})

		return err
	case models.AssignUser:
		_, err := e.leads.UpdateFields(ctx, id, map[string]any{"assigned_to": string(a.UserID)})

		return err
	case models.UpdateField:
		return e.updateField(ctx, id, a, record)
	case models.CreateActivity:
		return e.createActivity(ctx, id, a, record)
	case models.AutoConvert:
		return e.autoConvert(ctx, id, run, record)
	case models.SendNotification:
		return e.sendNotification(ctx, id, run, a, record)
	case models.SendEmail:
		return e.sendEmail(ctx, run, a, record)
	default:
		return fmt.Errorf("%w: %s", models.ErrUnknownAction, action.Type())
	}
}

func (e *Executor) updateField(ctx context.Context, id int64, action models.UpdateField, record models.Record) error {
	fields := map[string]any{action.Field: action.Value}

	if record.Entity() == models.EntityClient {
		_, err := e.clients.UpdateFields(ctx, id, fields)

		return err
	}

	_, err := e.leads.UpdateFields(ctx, id, fields)

	return err
}

func (e *Executor) createActivity(ctx context.Context, id int64, action models.CreateActivity, record models.Record) error {
	parentType := models.ParentLead
	if record.Entity() == models.EntityClient {
		parentType = models.ParentClient
	}

	summary := action.Summary
	if summary == "" {
		summary = DefaultActivitySummary
	}

	return e.activities.Create(ctx, &models.Activity{
		ParentType: parentType,
		ParentID:   id,
		Type:       action.ActivityType,
		Summary:    template.Render(summary, record),
		Date:       e.now(),
	})
}

func (e *Executor) autoConvert(ctx context.Context, id int64, run Run, record models.Record) error {
	if record.Entity() != models.EntityLead {
		return ErrNotALead
	}

	if converted, ok := record["converted_to_client_id"]; ok && converted != nil {
		e.logger.DebugContext(ctx, "lead already converted", "run_id", run.ID, "lead_id", id)

		return nil
	}

	client, err := e.leads.ConvertToClient(ctx, id)
	if err != nil {
		if persistence.IsLeadAlreadyConverted(err) {
			e.logger.DebugContext(ctx, "lead already converted", "run_id", run.ID, "lead_id", id)

			return nil
		}

		return err
	}

	e.logger.InfoContext(ctx, "lead converted", "run_id", run.ID, "lead_id", id, "client_id", client.ID)

	return nil
}

func (e *Executor) sendNotification(ctx context.Context, id int64, run Run, action models.SendNotification, record models.Record) error {
	message := action.Message
	if message == "" {
		message = DefaultNotification
	}

	return e.notifier.Notify(ctx, notify.Notification{
		WorkflowID: run.WorkflowID,
		RunID:      run.ID,
		Trigger:    string(run.Event),
		Entity:     string(record.Entity()),
		RecordID:   id,
		Message:    template.Render(message, record),
	})
}

func (e *Executor) sendEmail(ctx context.Context, run Run, action models.SendEmail, record models.Record) error {
	// An address left with an unresolved placeholder counts as unset.
	to := template.Render(action.To, record)
	if to == "" || template.HasPlaceholders(to) {
		to = record.String("email")
	}

	if to == "" {
		return notify.ErrNoRecipient
	}

	subject := action.Subject
	if subject == "" {
		subject = DefaultEmailSubject
	}

	return e.mailer.Send(ctx, notify.Email{
		WorkflowID: run.WorkflowID,
		RunID:      run.ID,
		To:         to,
		Subject:    template.Render(subject, record),
		Body:       template.Render(action.Message, record),
	})
}
