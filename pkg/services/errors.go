// Package services implements the record store operations and fires workflow
// triggers at their fixed points.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/leadflow/pkg/persistence"
)

// Validation Errors (400 Bad Request).
var (
	ErrInvalidRequest         = errors.New("invalid request")
	ErrNameRequired           = errors.New("name is required")
	ErrEmailRequired          = errors.New("email is required")
	ErrInvalidParentType      = errors.New("parent_type must be lead or client")
	ErrParentRequired         = errors.New("parent_id is required")
	ErrActivityTypeRequired   = errors.New("activity type is required")
	ErrTriggerEventRequired   = errors.New("trigger_event is required")
	ErrActionsRequired        = errors.New("workflow must have at least one action")
	ErrInvalidWorkflowPayload = errors.New("invalid workflow payload")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrNameRequired) ||
		errors.Is(err, ErrEmailRequired) ||
		errors.Is(err, ErrInvalidParentType) ||
		errors.Is(err, ErrParentRequired) ||
		errors.Is(err, ErrActivityTypeRequired) ||
		errors.Is(err, ErrTriggerEventRequired) ||
		errors.Is(err, ErrActionsRequired) ||
		errors.Is(err, ErrInvalidWorkflowPayload) ||
		errors.Is(err, persistence.ErrLeadAlreadyConverted) ||
		errors.Is(err, persistence.ErrUnknownField)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
