package file

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/google/uuid"
)

// WorkflowRepository handles workflow-related file operations.
type WorkflowRepository struct {
	p *Persistence
}

// List returns workflows matching filter in creation order, oldest first.
func (wr *WorkflowRepository) List(_ context.Context, filter persistence.WorkflowFilter) ([]*models.Workflow, error) {
	wr.p.mu.Lock()
	defer wr.p.mu.Unlock()

	all, err := readAll[models.Workflow](wr.p, workflowsDir)
	if err != nil {
		return nil, err
	}

	workflows := make([]*models.Workflow, 0, len(all))

	for _, workflow := range all {
		if filter.TriggerEvent != "" && workflow.TriggerEvent != filter.TriggerEvent {
			continue
		}

		if filter.IsActive != nil && workflow.IsActive != *filter.IsActive {
			continue
		}

		workflows = append(workflows, workflow)
	}

	sort.SliceStable(workflows, func(i, j int) bool {
		if workflows[i].CreatedAt.Equal(workflows[j].CreatedAt) {
			return workflows[i].ID < workflows[j].ID
		}

		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})

	return workflows, nil
}

// GetByID retrieves a workflow by its ID from the file system.
func (wr *WorkflowRepository) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	if !safeID(id) {
		return nil, persistence.NewRecordError("GetByID", "workflow", id, persistence.ErrWorkflowNotFound)
	}

	wr.p.mu.Lock()
	defer wr.p.mu.Unlock()

	workflow, err := readOne[models.Workflow](wr.p, workflowsDir, id)
	if err != nil {
		return nil, persistence.NewRecordError("GetByID", "workflow", id, err)
	}

	if workflow == nil {
		return nil, persistence.NewRecordError("GetByID", "workflow", id, persistence.ErrWorkflowNotFound)
	}

	return workflow, nil
}

// Save saves a workflow to the file system.
func (wr *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	wr.p.mu.Lock()
	defer wr.p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

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

	return wr.p.write(workflowsDir, workflow.ID, workflow)
}

// Delete removes a workflow by its ID.
func (wr *WorkflowRepository) Delete(ctx context.Context, id string) error {
	if !safeID(id) {
		return persistence.NewRecordError("Delete", "workflow", id, persistence.ErrWorkflowNotFound)
	}

	wr.p.mu.Lock()
	defer wr.p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	existing, err := readOne[models.Workflow](wr.p, workflowsDir, id)
	if err != nil {
		return persistence.NewRecordError("Delete", "workflow", id, err)
	}

	if existing == nil {
		return persistence.NewRecordError("Delete", "workflow", id, persistence.ErrWorkflowNotFound)
	}

	return wr.p.remove(workflowsDir, id)
}
