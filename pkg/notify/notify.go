// Package notify delivers the side-channel output of workflow actions:
// notifications and emails.
package notify

import (
	"context"
	"errors"
	"log/slog"
)

var ErrNoRecipient = errors.New("email has no recipient")

// Notification is the rendered output of a send_notification action.
type Notification struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`
	Trigger    string `json:"trigger"`
	Entity     string `json:"entity"`
	RecordID   int64  `json:"record_id"`
	Message    string `json:"message"`
}

// Email is the rendered output of a send_email action.
type Email struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`
	To         string `json:"to"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
}

type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// LogNotifier writes notifications to the log. It is the default sink.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("module", "log_notifier")}
}

func (n *LogNotifier) Notify(ctx context.Context, notification Notification) error {
	n.logger.InfoContext(ctx, "notification",
		"workflow_id", notification.WorkflowID,
		"run_id", notification.RunID,
		"event", notification.Trigger,
		"entity", notification.Entity,
		"record_id", notification.RecordID,
		"message", notification.Message)

	return nil
}

// LogMailer writes emails to the log instead of delivering them.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger.With("module", "log_mailer")}
}

func (m *LogMailer) Send(ctx context.Context, email Email) error {
	if email.To == "" {
		return ErrNoRecipient
	}

	m.logger.InfoContext(ctx, "email",
		"workflow_id", email.WorkflowID,
		"run_id", email.RunID,
		"to", email.To,
		"subject", email.Subject,
		"body", email.Body)

	return nil
}
