// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/dukex/leadflow/pkg/models"
	"github.com/google/uuid"
)

// CreateTestLead creates a test Lead with default values that can be overridden.
func CreateTestLead(overrides ...func(*models.Lead)) *models.Lead {
	lead := &models.Lead{
		Name:   "Acme",
		Email:  "ops@acme.test",
		Status: models.LeadStatusNew,
		Source: "website",
	}

	for _, override := range overrides {
		override(lead)
	}

	return lead
}

// WithConvertedLead marks the lead as already converted to clientID.
func WithConvertedLead(clientID int64) func(*models.Lead) {
	return func(l *models.Lead) {
		l.ConvertedToClientID = &clientID
		l.Status = models.LeadStatusConverted
	}
}

// CreateTestWorkflow creates an active workflow with a fresh ID for event.
func CreateTestWorkflow(event models.TriggerEvent, actions ...models.Action) *models.Workflow {
	return &models.Workflow{
		ID:           uuid.New().String(),
		TriggerEvent: event,
		Actions:      models.Actions(actions),
		IsActive:     true,
	}
}

// WithConditions sets the workflow conditions and returns it.
func WithConditions(workflow *models.Workflow, conditions ...models.Condition) *models.Workflow {
	workflow.Conditions = models.Conditions(conditions)

	return workflow
}
