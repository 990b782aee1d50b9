package services

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"strings"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/xeipuuv/gojsonschema"
)

var (
	// ErrWorkflowNotFound is returned when a workflow is not found.
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound
)

type Workflow struct {
	persistence persistence.Persistence
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence) *Workflow {
	return &Workflow{
		persistence: persistence,
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

type workflowPayload struct {
	TriggerEvent *models.TriggerEvent `json:"trigger_event"`
	Conditions   *models.Conditions   `json:"conditions"`
	Actions      *models.Actions      `json:"actions"`
	IsActive     *bool                `json:"is_active"`
}

func (w *Workflow) List(ctx context.Context, filter persistence.WorkflowFilter) ([]*models.Workflow, error) {
	workflows, err := w.persistence.WorkflowRepository().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	return w.persistence.WorkflowRepository().GetByID(ctx, id)
}

// Validate checks a workflow document as Create would, without storing it.
func (w *Workflow) Validate(document map[string]any) error {
	_, err := decodeWorkflow("ValidateWorkflow", document, true)

	return err
}

// Create stores a new definition. is_active defaults to true.
func (w *Workflow) Create(ctx context.Context, document map[string]any) (*models.Workflow, error) {
	payload, err := decodeWorkflow("CreateWorkflow", document, true)
	if err != nil {
		return nil, err
	}

	workflow := &models.Workflow{
		TriggerEvent: *payload.TriggerEvent,
		Actions:      *payload.Actions,
		IsActive:     true,
	}

	if payload.Conditions != nil {
		workflow.Conditions = *payload.Conditions
	}

	if payload.IsActive != nil {
		workflow.IsActive = *payload.IsActive
	}

	err = w.persistence.WorkflowRepository().Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	return workflow, nil
}

// Update replaces the properties present in document. Conditions and actions
// are stored together in a single Save.
func (w *Workflow) Update(ctx context.Context, id string, document map[string]any) (*models.Workflow, error) {
	payload, err := decodeWorkflow("UpdateWorkflow", document, false)
	if err != nil {
		return nil, err
	}

	repo := w.persistence.WorkflowRepository()

	workflow, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload.TriggerEvent != nil {
		workflow.TriggerEvent = *payload.TriggerEvent
	}

	if payload.Conditions != nil {
		workflow.Conditions = *payload.Conditions
	}

	if payload.Actions != nil {
		workflow.Actions = *payload.Actions
	}

	if payload.IsActive != nil {
		workflow.IsActive = *payload.IsActive
	}

	err = repo.Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	return workflow, nil
}

func (w *Workflow) Delete(ctx context.Context, id string) error {
	return w.persistence.WorkflowRepository().Delete(ctx, id)
}

// decodeWorkflow checks document against the workflow schema and decodes it.
// A null property is treated as omitted.
func decodeWorkflow(op string, document map[string]any, create bool) (*workflowPayload, error) {
	if document == nil {
		return nil, NewValidationError(op, "INVALID_REQUEST", "workflow body is required", ErrInvalidRequest)
	}

	document = maps.Clone(document)
	maps.DeleteFunc(document, func(_ string, value any) bool { return value == nil })

	event, hasEvent := document["trigger_event"]
	if (create && !hasEvent) || (hasEvent && event == "") {
		return nil, NewValidationError(op, "TRIGGER_EVENT_REQUIRED", "trigger_event is required", ErrTriggerEventRequired)
	}

	actions, hasActions := document["actions"]
	if (create && !hasActions) || (hasActions && isEmptyList(actions)) {
		return nil, NewValidationError(op, "ACTIONS_REQUIRED", "workflow must have at least one action", ErrActionsRequired)
	}

	schema := models.WorkflowUpdateSchema()
	if create {
		schema = models.WorkflowSchema()
	}

	err := validateJSONSchema(document, schema)
	if err != nil {
		return nil, NewValidationError(op, "INVALID_WORKFLOW", err.Error(), ErrInvalidWorkflowPayload)
	}

	encoded, err := json.Marshal(document)
	if err != nil {
		return nil, NewValidationError(op, "INVALID_WORKFLOW", err.Error(), ErrInvalidWorkflowPayload)
	}

	var payload workflowPayload

	err = json.Unmarshal(encoded, &payload)
	if err != nil {
		return nil, NewValidationError(op, "INVALID_WORKFLOW", err.Error(), ErrInvalidWorkflowPayload)
	}

	if payload.Actions != nil {
		for i, action := range *payload.Actions {
			if err := action.Validate(); err != nil {
				return nil, NewValidationError(op, "INVALID_ACTION",
					fmt.Sprintf("actions[%d]: %v", i, err), ErrInvalidWorkflowPayload)
			}
		}
	}

	if payload.Conditions != nil {
		for i, condition := range *payload.Conditions {
			if !condition.Operator.Known() {
				return nil, NewValidationError(op, "INVALID_CONDITION",
					fmt.Sprintf("conditions[%d]: unknown operator '%s'", i, condition.Operator), ErrInvalidWorkflowPayload)
			}
		}
	}

	return &payload, nil
}

func isEmptyList(value any) bool {
	list, ok := value.([]any)

	return ok && len(list) == 0
}

func validateJSONSchema(document map[string]any, schema *models.JSONSchema) error {
	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		var errors []string
		for _, desc := range result.Errors() {
			errors = append(errors, desc.String())
		}

		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}
