// Package template substitutes {{field}} placeholders with record values.
package template

import (
	"regexp"

	"github.com/dukex/leadflow/pkg/models"
)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`)

// Render replaces each {{field}} with the stringified scalar stored under
// field in record. Placeholders naming an absent field, or a field holding a
// nested value, are left verbatim.
func Render(input string, record models.Record) string {
	if record == nil {
		return input
	}

	return placeholder.ReplaceAllStringFunc(input, func(match string) string {
		name := placeholder.FindStringSubmatch(match)[1]

		value, ok := record[name]
		if !ok || !isScalar(value) {
			return match
		}

		return models.Stringify(value)
	})
}

func isScalar(value any) bool {
	switch value.(type) {
	case map[string]any, []any, models.Record:
		return false
	default:
		return true
	}
}

// HasPlaceholders reports whether input still contains a {{field}}
// placeholder, typically one Render could not resolve.
func HasPlaceholders(input string) bool {
	return placeholder.MatchString(input)
}
