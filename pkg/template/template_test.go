package template

import (
	"testing"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	t.Parallel()

	record := models.Record{
		"id":          int64(7),
		"name":        "Acme",
		"email":       "ops@acme.test",
		"assigned_to": nil,
		"created_at":  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		"tags":        []any{"a"},
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single placeholder", "Lead qualified: {{name}}", "Lead qualified: Acme"},
		{"spaces inside braces", "Hi {{ name }}", "Hi Acme"},
		{"several placeholders", "{{name}} <{{email}}> #{{id}}", "Acme <ops@acme.test> #7"},
		{"unknown placeholder kept", "Hello {{nickname}}", "Hello {{nickname}}"},
		{"nil value renders empty", "owner={{assigned_to}}", "owner="},
		{"time value", "since {{created_at}}", "since 2024-01-02T03:04:05Z"},
		{"nested value kept", "{{tags}}", "{{tags}}"},
		{"no placeholders", "plain text", "plain text"},
		{"unbalanced braces", "{{name}", "{{name}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, Render(tt.input, record))
		})
	}
}

func TestRender_NilRecord(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Hi {{name}}", Render("Hi {{name}}", nil))
}

func TestHasPlaceholders(t *testing.T) {
	t.Parallel()

	assert.True(t, HasPlaceholders("{{email}}"))
	assert.True(t, HasPlaceholders("to: {{ owner.email }}"))
	assert.False(t, HasPlaceholders("ops@acme.test"))
	assert.False(t, HasPlaceholders("{single}"))
	assert.False(t, HasPlaceholders(""))
}
