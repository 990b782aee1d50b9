package models

import (
	"encoding/json"
	"strings"
)

// Operator names a comparison between a record field and a literal.
type Operator string

const (
	OperatorEquals         Operator = "equals"
	OperatorNotEquals      Operator = "not_equals"
	OperatorContains       Operator = "contains"
	OperatorNotContains    Operator = "not_contains"
	OperatorStartsWith     Operator = "starts_with"
	OperatorEndsWith       Operator = "ends_with"
	OperatorGreaterThan    Operator = "greater_than"
	OperatorLessThan       Operator = "less_than"
	OperatorGreaterOrEqual Operator = "greater_or_equal"
	OperatorLessOrEqual    Operator = "less_or_equal"
)

var operatorAliases = map[string]Operator{
	"=":  OperatorEquals,
	"==": OperatorEquals,
	"!=": OperatorNotEquals,
	">":  OperatorGreaterThan,
	">=": OperatorGreaterOrEqual,
	"<":  OperatorLessThan,
	"<=": OperatorLessOrEqual,
}

// Canonical resolves symbolic aliases and casing. Unknown operators are
// returned unchanged.
func (o Operator) Canonical() Operator {
	s := strings.ToLower(strings.TrimSpace(string(o)))
	if alias, ok := operatorAliases[s]; ok {
		return alias
	}

	return Operator(s)
}

// Known reports whether the operator, after alias resolution, is supported.
func (o Operator) Known() bool {
	switch o.Canonical() {
	case OperatorEquals, OperatorNotEquals,
		OperatorContains, OperatorNotContains,
		OperatorStartsWith, OperatorEndsWith,
		OperatorGreaterThan, OperatorLessThan,
		OperatorGreaterOrEqual, OperatorLessOrEqual:
		return true
	default:
		return false
	}
}

type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// Conditions decodes element by element: an entry that is not a condition
// object becomes a zero Condition, which never matches.
type Conditions []Condition

func (c *Conditions) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage

	err := json.Unmarshal(data, &raws)
	if err != nil {
		return err
	}

	if raws == nil {
		*c = nil

		return nil
	}

	conditions := make(Conditions, 0, len(raws))

	for _, raw := range raws {
		var condition Condition

		err := json.Unmarshal(raw, &condition)
		if err != nil {
			condition = Condition{}
		}

		conditions = append(conditions, condition)
	}

	*c = conditions

	return nil
}
