// Package events defines the messages workflow runs publish on the event bus.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const Topic = "leadflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	NotificationRequestedEvent EventType = "notification.requested"
	EmailRequestedEvent        EventType = "email.requested"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	RunID      string         `json:"run_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NotificationRequested is published by a send_notification action when the
// notifier is backed by the event bus.
type NotificationRequested struct {
	BaseEvent

	Trigger  string `json:"trigger"`
	Entity   string `json:"entity"`
	RecordID int64  `json:"record_id"`
	Message  string `json:"message"`
}

func (n NotificationRequested) GetType() EventType {
	return NotificationRequestedEvent
}

// EmailRequested carries a rendered email for delivery by the notifier worker.
type EmailRequested struct {
	BaseEvent

	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (e EmailRequested) GetType() EventType {
	return EmailRequestedEvent
}

func NewBaseEvent(eventType EventType, workflowID, runID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		RunID:      runID,
		Metadata:   make(map[string]any),
	}
}
