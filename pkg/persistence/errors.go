// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrLeadNotFound indicates no live lead exists with the given id.
	ErrLeadNotFound = errors.New("lead not found")

	// ErrClientNotFound indicates no live client exists with the given id.
	ErrClientNotFound = errors.New("client not found")

	// ErrActivityNotFound indicates no live activity exists with the given id.
	ErrActivityNotFound = errors.New("activity not found")

	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrLeadAlreadyConverted indicates a conversion was requested for a lead
	// that already has a client.
	ErrLeadAlreadyConverted = errors.New("lead already converted")

	// ErrUnknownField indicates a field update targeted a column outside the
	// entity's editable set.
	ErrUnknownField = errors.New("unknown field")
)

// RecordError wraps record-store errors with the operation and target.
type RecordError struct {
	Op     string // Operation being performed (e.g., "GetByID", "Update", "Convert")
	Entity string // lead, client, activity or workflow
	ID     string // Target id if applicable
	Err    error  // Underlying error
}

func (e *RecordError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s operation failed for %s: %v", e.Op, e.Entity, e.Err)
	}

	return fmt.Sprintf("%s operation failed for %s %s: %v", e.Op, e.Entity, e.ID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for record errors.
func (e *RecordError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewRecordError creates a new record error with context.
func NewRecordError(op, entity string, id any, err error) *RecordError {
	return &RecordError{
		Op:     op,
		Entity: entity,
		ID:     fmt.Sprint(id),
		Err:    err,
	}
}

// IsNotFound checks if an error indicates any kind of record was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrLeadNotFound) ||
		errors.Is(err, ErrClientNotFound) ||
		errors.Is(err, ErrActivityNotFound) ||
		errors.Is(err, ErrWorkflowNotFound)
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsLeadAlreadyConverted checks if an error indicates a repeated conversion.
func IsLeadAlreadyConverted(err error) bool {
	return errors.Is(err, ErrLeadAlreadyConverted)
}
