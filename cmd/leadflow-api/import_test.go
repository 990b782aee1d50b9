package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/leadflow/pkg/config"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/dukex/leadflow/pkg/persistence/file"
	"github.com/dukex/leadflow/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const definitionsYAML = `
workflows:
  - trigger_event: lead_created
    conditions:
      - field: source
        operator: equals
        value: website
    actions:
      - type: send_notification
        message: "New lead {{name}}"
  - trigger_event: no_activity_7_days
    actions:
      - type: create_activity
        activity_type: task
        description: Follow up with {{name}}
`

func writeDefinitions(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "workflows.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestImportDefinitions(t *testing.T) {
	store := file.NewPersistence(t.TempDir())
	service := services.NewWorkflow(store)

	definitions, err := config.LoadDefinitions(writeDefinitions(t, definitionsYAML))
	require.NoError(t, err)

	var out bytes.Buffer

	created, err := importDefinitions(t.Context(), service, definitions, &out)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Contains(t, out.String(), "Created workflow")

	workflows, err := service.List(t.Context(), persistence.WorkflowFilter{})
	require.NoError(t, err)
	assert.Len(t, workflows, 2)
}

func TestImportDefinitions_RejectsWholeFile(t *testing.T) {
	store := file.NewPersistence(t.TempDir())
	service := services.NewWorkflow(store)

	definitions, err := config.LoadDefinitions(writeDefinitions(t, definitionsYAML+`
  - trigger_event: lead_converted
    actions: []
`))
	require.NoError(t, err)

	var out bytes.Buffer

	_, err = importDefinitions(t.Context(), service, definitions, &out)
	require.ErrorIs(t, err, ErrInvalidDefinitions)
	assert.Contains(t, out.String(), "[2] lead_converted")

	workflows, err := service.List(t.Context(), persistence.WorkflowFilter{})
	require.NoError(t, err)
	assert.Empty(t, workflows)
}

func TestValidateDefinitions(t *testing.T) {
	definitions := []map[string]any{
		{"trigger_event": "lead_created", "actions": []any{map[string]any{"type": "auto_convert"}}},
		{"trigger_event": "lead_created", "actions": []any{map[string]any{"type": "send_fax"}}},
	}

	var out bytes.Buffer

	invalid := validateDefinitions(services.NewWorkflow(nil), definitions, &out)
	assert.Equal(t, 1, invalid)
	assert.Contains(t, out.String(), "[0] lead_created: ok")
}
