// Package workflow evaluates workflow definitions against triggering records
// and executes their actions.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/leadflow/pkg/models"
)

var (
	ErrMalformedCondition = errors.New("condition is missing field or operator")
	ErrUnknownOperator    = errors.New("unknown operator")
	ErrFieldAbsent        = errors.New("field is absent from record")
)

// Evaluate reports whether every condition holds for record. Empty or nil
// conditions always hold. A condition that cannot be evaluated does not hold.
func Evaluate(conditions models.Conditions, record models.Record) bool {
	for _, condition := range conditions {
		ok, err := Match(condition, record)
		if err != nil || !ok {
			return false
		}
	}

	return true
}

// Match evaluates a single condition. The error explains why a condition
// could not be evaluated at all; such a condition never holds.
func Match(condition models.Condition, record models.Record) (bool, error) {
	if condition.Field == "" || condition.Operator == "" {
		return false, ErrMalformedCondition
	}

	operator := condition.Operator.Canonical()
	if !operator.Known() {
		return false, fmt.Errorf("%w: %s", ErrUnknownOperator, condition.Operator)
	}

	actual, ok := record[condition.Field]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrFieldAbsent, condition.Field)
	}

	expected := condition.Value

	switch operator {
	case models.OperatorEquals:
		return looseEqual(actual, expected), nil
	case models.OperatorNotEquals:
		return !looseEqual(actual, expected), nil
	case models.OperatorContains:
		return strings.Contains(lower(actual), lower(expected)), nil
	case models.OperatorNotContains:
		return !strings.Contains(lower(actual), lower(expected)), nil
	case models.OperatorStartsWith:
		return strings.HasPrefix(lower(actual), lower(expected)), nil
	case models.OperatorEndsWith:
		return strings.HasSuffix(lower(actual), lower(expected)), nil
	case models.OperatorGreaterThan:
		return compare(actual, expected) > 0, nil
	case models.OperatorLessThan:
		return compare(actual, expected) < 0, nil
	case models.OperatorGreaterOrEqual:
		return compare(actual, expected) >= 0, nil
	case models.OperatorLessOrEqual:
		return compare(actual, expected) <= 0, nil
	}

	return false, fmt.Errorf("%w: %s", ErrUnknownOperator, condition.Operator)
}

// looseEqual treats two numeric operands as numbers and compares everything
// else by its text form, so "5" equals 5 and "Acme" does not equal "acme".
func looseEqual(a, b any) bool {
	x, xNumeric := models.ToFloat(a)
	y, yNumeric := models.ToFloat(b)

	if xNumeric && yNumeric {
		return x == y
	}

	return models.Stringify(a) == models.Stringify(b)
}

func compare(a, b any) int {
	x, xNumeric := models.ToFloat(a)
	y, yNumeric := models.ToFloat(b)

	if xNumeric && yNumeric {
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		default:
			return 0
		}
	}

	return strings.Compare(models.Stringify(a), models.Stringify(b))
}

func lower(value any) string {
	return strings.ToLower(models.Stringify(value))
}

// Evaluator wraps Evaluate with diagnostics for conditions that cannot be
// evaluated.
type Evaluator struct {
	logger *slog.Logger
}

func NewEvaluator(logger *slog.Logger) *Evaluator {
	return &Evaluator{logger: logger.With("module", "workflow_evaluator")}
}

// Evaluate is the logging form of the package-level Evaluate.
func (e *Evaluator) Evaluate(ctx context.Context, workflow *models.Workflow, record models.Record) bool {
	for i, condition := range workflow.Conditions {
		ok, err := Match(condition, record)
		if err != nil {
			level := slog.LevelDebug
			if !errors.Is(err, ErrFieldAbsent) {
				level = slog.LevelWarn
			}

			e.logger.Log(ctx, level, "condition could not be evaluated",
				"workflow_id", workflow.ID,
				"condition", i,
				"field", condition.Field,
				"operator", string(condition.Operator),
				"error", err)

			return false
		}

		if !ok {
			e.logger.DebugContext(ctx, "condition not met",
				"workflow_id", workflow.ID,
				"condition", i,
				"field", condition.Field,
				"operator", string(condition.Operator))

			return false
		}
	}

	return true
}
