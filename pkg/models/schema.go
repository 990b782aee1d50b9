package models

// JSONSchema is the subset of JSON Schema used to validate workflow payloads.
type JSONSchema struct {
	Schema      string               `json:"$schema,omitempty"`
	Type        string               `json:"type"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
	Title       string               `json:"title,omitempty"`
	Description string               `json:"description,omitempty"`
}

type Property struct {
	Type        string               `json:"type,omitempty"`
	Description string               `json:"description,omitempty"`
	Enum        []any                `json:"enum,omitempty"`
	MinLength   *int                 `json:"minLength,omitempty"`
	MinItems    *int                 `json:"minItems,omitempty"`
	Items       *Property            `json:"items,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
}

func intPtr(v int) *int {
	return &v
}

// WorkflowSchema describes the JSON shape accepted when a workflow definition
// is created or replaced.
func WorkflowSchema() *JSONSchema {
	actionTypes := []any{
		string(ActionUpdateStatus),
		string(ActionAssignUser),
		string(ActionCreateActivity),
		string(ActionAutoConvert),
		string(ActionSendNotification),
		string(ActionUpdateField),
		string(ActionSendEmail),
	}

	return &JSONSchema{
		Schema: "http://json-schema.org/draft-07/schema#",
		Type:   "object",
		Title:  "Workflow",
		Properties: map[string]*Property{
			"trigger_event": {
				Type:        "string",
				Description: "Domain event that activates the workflow",
				MinLength:   intPtr(1),
			},
			"conditions": {
				Type:        "array",
				Description: "Conditions combined with AND",
				Items: &Property{
					Type:     "object",
					Required: []string{"field", "operator"},
					Properties: map[string]*Property{
						"field":    {Type: "string", MinLength: intPtr(1)},
						"operator": {Type: "string", MinLength: intPtr(1)},
					},
				},
			},
			"actions": {
				Type:        "array",
				Description: "Actions executed in order when the conditions hold",
				MinItems:    intPtr(1),
				Items: &Property{
					Type:     "object",
					Required: []string{"type"},
					Properties: map[string]*Property{
						"type": {Type: "string", Enum: actionTypes},
					},
				},
			},
			"is_active": {
				Type: "boolean",
			},
		},
		Required: []string{"trigger_event", "actions"},
	}
}

// WorkflowUpdateSchema is WorkflowSchema with every property optional;
// omitted properties keep their stored values.
func WorkflowUpdateSchema() *JSONSchema {
	schema := WorkflowSchema()
	schema.Title = "WorkflowUpdate"
	schema.Required = nil

	return schema
}
