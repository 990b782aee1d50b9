package models

import "time"

// TriggerEvent names the domain event that activates a workflow.
type TriggerEvent string

const (
	TriggerLeadCreated     TriggerEvent = "lead_created"
	TriggerStatusUpdated   TriggerEvent = "status_updated"
	TriggerLeadConverted   TriggerEvent = "lead_converted"
	TriggerNoActivity7Days TriggerEvent = "no_activity_7_days"
)

// KnownTriggers lists the events fired by the record store and the scanner.
// Definitions may use other names; they simply never match.
func KnownTriggers() []TriggerEvent {
	return []TriggerEvent{
		TriggerLeadCreated,
		TriggerStatusUpdated,
		TriggerLeadConverted,
		TriggerNoActivity7Days,
	}
}

// Workflow associates a trigger event with a conjunction of conditions and an
// ordered list of actions.
type Workflow struct {
	ID           string       `json:"id"`
	TriggerEvent TriggerEvent `json:"trigger_event"`
	Conditions   Conditions   `json:"conditions"`
	Actions      Actions      `json:"actions"`
	IsActive     bool         `json:"is_active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
