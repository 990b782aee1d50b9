package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/leadflow/pkg/eventbus"
	"github.com/dukex/leadflow/pkg/events"
)

// BusNotifier hands notifications and emails to the event bus for delivery
// by the notifier worker. It implements both Notifier and Mailer.
type BusNotifier struct {
	bus eventbus.EventPublisher
}

func NewBusNotifier(bus eventbus.EventPublisher) *BusNotifier {
	return &BusNotifier{bus: bus}
}

func (n *BusNotifier) Notify(ctx context.Context, notification Notification) error {
	event := events.NotificationRequested{
		BaseEvent: events.NewBaseEvent(events.NotificationRequestedEvent, notification.WorkflowID, notification.RunID),
		Trigger:   notification.Trigger,
		Entity:    notification.Entity,
		RecordID:  notification.RecordID,
		Message:   notification.Message,
	}

	err := n.bus.Publish(ctx, notification.WorkflowID, event)
	if err != nil {
		return fmt.Errorf("failed to publish notification event: %w", err)
	}

	return nil
}

func (n *BusNotifier) Send(ctx context.Context, email Email) error {
	if email.To == "" {
		return ErrNoRecipient
	}

	event := events.EmailRequested{
		BaseEvent: events.NewBaseEvent(events.EmailRequestedEvent, email.WorkflowID, email.RunID),
		To:        email.To,
		Subject:   email.Subject,
		Body:      email.Body,
	}

	err := n.bus.Publish(ctx, email.WorkflowID, event)
	if err != nil {
		return fmt.Errorf("failed to publish email event: %w", err)
	}

	return nil
}

// Worker consumes bus events and delivers them through concrete sinks.
type Worker struct {
	bus      eventbus.EventSubscriber
	notifier Notifier
	mailer   Mailer
	logger   *slog.Logger
}

func NewWorker(logger *slog.Logger, bus eventbus.EventSubscriber, notifier Notifier, mailer Mailer) *Worker {
	return &Worker{
		bus:      bus,
		notifier: notifier,
		mailer:   mailer,
		logger:   logger.With("module", "notifier_worker"),
	}
}

// Start registers the handlers and begins consuming. It returns once the
// subscription is established.
func (w *Worker) Start(ctx context.Context) error {
	err := w.bus.Handle(events.NotificationRequestedEvent, w.handleNotification)
	if err != nil {
		return fmt.Errorf("failed to register notification handler: %w", err)
	}

	err = w.bus.Handle(events.EmailRequestedEvent, w.handleEmail)
	if err != nil {
		return fmt.Errorf("failed to register email handler: %w", err)
	}

	return w.bus.Subscribe(ctx)
}

func (w *Worker) handleNotification(ctx context.Context, event any) error {
	requested, ok := event.(*events.NotificationRequested)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}

	err := w.notifier.Notify(ctx, Notification{
		WorkflowID: requested.WorkflowID,
		RunID:      requested.RunID,
		Trigger:    requested.Trigger,
		Entity:     requested.Entity,
		RecordID:   requested.RecordID,
		Message:    requested.Message,
	})
	if err != nil {
		// Failed deliveries are dropped, not redelivered.
		w.logger.ErrorContext(ctx, "failed to deliver notification",
			"workflow_id", requested.WorkflowID, "run_id", requested.RunID, "error", err)
	}

	return nil
}

func (w *Worker) handleEmail(ctx context.Context, event any) error {
	requested, ok := event.(*events.EmailRequested)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}

	err := w.mailer.Send(ctx, Email{
		WorkflowID: requested.WorkflowID,
		RunID:      requested.RunID,
		To:         requested.To,
		Subject:    requested.Subject,
		Body:       requested.Body,
	})
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to deliver email",
			"workflow_id", requested.WorkflowID, "run_id", requested.RunID, "error", err)
	}

	return nil
}
