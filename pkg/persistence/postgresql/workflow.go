package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/google/uuid"
)

const workflowColumns = `id, trigger_event, conditions, actions, is_active, created_at, updated_at`

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

func scanWorkflow(row rowScanner) (*models.Workflow, error) {
	var (
		workflow   models.Workflow
		conditions []byte
		actions    []byte
	)

	err := row.Scan(
		&workflow.ID,
		&workflow.TriggerEvent,
		&conditions,
		&actions,
		&workflow.IsActive,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(conditions) > 0 {
		err = json.Unmarshal(conditions, &workflow.Conditions)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal conditions: %w", err)
		}
	}

	err = json.Unmarshal(actions, &workflow.Actions)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal actions: %w", err)
	}

	return &workflow, nil
}

func workflowError(op, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.NewRecordError(op, "workflow", id, persistence.ErrWorkflowNotFound)
	}

	return persistence.NewRecordError(op, "workflow", id, err)
}

func buildWorkflowListQuery(filter persistence.WorkflowFilter) (string, []any) {
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 2)

	if filter.TriggerEvent != "" {
		args = append(args, string(filter.TriggerEvent))
		clauses = append(clauses, "trigger_event = $"+strconv.Itoa(len(args)))
	}

	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		clauses = append(clauses, "is_active = $"+strconv.Itoa(len(args)))
	}

	query := "SELECT " + workflowColumns + " FROM workflows"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY created_at ASC, id ASC"

	return query, args
}

// List returns workflow definitions matching filter in creation order,
// oldest first.
func (r *WorkflowRepository) List(ctx context.Context, filter persistence.WorkflowFilter) ([]*models.Workflow, error) {
	query, args := buildWorkflowListQuery(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

// GetByID retrieves a workflow by its ID.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, workflowError("GetByID", id, sql.ErrNoRows)
	}

	query := "SELECT " + workflowColumns + " FROM workflows WHERE id = $1"

	workflow, err := scanWorkflow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, workflowError("GetByID", id, err)
	}

	return workflow, nil
}

// Save inserts the workflow or replaces the stored definition with the same ID.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		workflow.ID = id.String()
	}

	// Empty condition lists are stored as NULL.
	var conditions any

	if len(workflow.Conditions) > 0 {
		encoded, err := json.Marshal(workflow.Conditions)
		if err != nil {
			return fmt.Errorf("failed to marshal conditions: %w", err)
		}

		conditions = string(encoded)
	}

	actions, err := json.Marshal(workflow.Actions)
	if err != nil {
		return fmt.Errorf("failed to marshal actions: %w", err)
	}

	query := `
		INSERT INTO workflows (id, trigger_event, conditions, actions, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			trigger_event = EXCLUDED.trigger_event,
			conditions = EXCLUDED.conditions,
			actions = EXCLUDED.actions,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at
	`

	err = r.db.QueryRowContext(ctx, query,
		workflow.ID,
		string(workflow.TriggerEvent),
		conditions,
		string(actions),
		workflow.IsActive,
		workflow.CreatedAt,
		workflow.UpdatedAt,
	).Scan(&workflow.CreatedAt)
	if err != nil {
		return workflowError("Save", workflow.ID, fmt.Errorf("failed to save workflow: %w", err))
	}

	return nil
}

// Delete removes a workflow definition permanently.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return workflowError("Delete", id, sql.ErrNoRows)
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM workflows WHERE id = $1", id)
	if err != nil {
		return workflowError("Delete", id, fmt.Errorf("failed to delete workflow: %w", err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return workflowError("Delete", id, fmt.Errorf("failed to get rows affected: %w", err))
	}

	if rowsAffected == 0 {
		return workflowError("Delete", id, sql.ErrNoRows)
	}

	return nil
}
