package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
)

// ActivityInput describes a new activity. A zero Date means now.
type ActivityInput struct {
	ParentType models.ParentType
	ParentID   int64
	Type       string
	Summary    string
	Date       time.Time
}

type Activity struct {
	persistence persistence.Persistence
}

func NewActivity(persistence persistence.Persistence) *Activity {
	return &Activity{persistence: persistence}
}

func (a *Activity) List(ctx context.Context, filter persistence.ActivityFilter) ([]*models.Activity, error) {
	activities, err := a.persistence.ActivityRepository().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	return activities, nil
}

// Create checks that the parent record exists before storing the activity.
func (a *Activity) Create(ctx context.Context, input ActivityInput) (*models.Activity, error) {
	if !input.ParentType.Valid() {
		return nil, NewValidationError("CreateActivity", "INVALID_PARENT_TYPE",
			fmt.Sprintf("invalid parent_type '%s'", input.ParentType), ErrInvalidParentType)
	}

	if input.ParentID <= 0 {
		return nil, NewValidationError("CreateActivity", "PARENT_REQUIRED", "parent_id is required", ErrParentRequired)
	}

	if strings.TrimSpace(input.Type) == "" {
		return nil, NewValidationError("CreateActivity", "TYPE_REQUIRED", "type is required", ErrActivityTypeRequired)
	}

	var err error

	switch input.ParentType {
	case models.ParentLead:
		_, err = a.persistence.LeadRepository().GetByID(ctx, input.ParentID)
	case models.ParentClient:
		_, err = a.persistence.ClientRepository().GetByID(ctx, input.ParentID)
	}

	if err != nil {
		return nil, err
	}

	activity := &models.Activity{
		ParentType: input.ParentType,
		ParentID:   input.ParentID,
		Type:       input.Type,
		Summary:    input.Summary,
		Date:       input.Date,
	}

	err = a.persistence.ActivityRepository().Create(ctx, activity)
	if err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	return activity, nil
}

func (a *Activity) Delete(ctx context.Context, id int64) error {
	return a.persistence.ActivityRepository().Delete(ctx, id)
}
