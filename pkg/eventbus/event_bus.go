// Package eventbus carries workflow side-channel messages between the engine
// and the notifier worker.
package eventbus

import (
	"context"
	"errors"

	"github.com/dukex/leadflow/pkg/events"
)

// ErrUnknownEventType is returned for messages whose event_type metadata
// names no known event.
var ErrUnknownEventType = errors.New("unknown event type")

type Event interface {
	GetType() events.EventType
}

// EventHandler receives a pointer to the decoded event, such as
// *events.EmailRequested. A non-nil error nacks the message.
type EventHandler func(ctx context.Context, event any) error

type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
}

// decode allocates the concrete event for eventType and fills it from payload.
func decode(eventType events.EventType, payload []byte, unmarshal func([]byte, any) error) (any, error) {
	var event any

	switch eventType {
	case events.NotificationRequestedEvent:
		event = &events.NotificationRequested{}
	case events.EmailRequestedEvent:
		event = &events.EmailRequested{}
	default:
		return nil, ErrUnknownEventType
	}

	if err := unmarshal(payload, event); err != nil {
		return nil, err
	}

	return event, nil
}
