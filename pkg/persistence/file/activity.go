package file

import (
	"context"
	"sort"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
)

// ActivityRepository handles activity-related file operations.
type ActivityRepository struct {
	p *Persistence
}

func (r *ActivityRepository) List(_ context.Context, filter persistence.ActivityFilter) ([]*models.Activity, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	all, err := readAll[models.Activity](r.p, activitiesDir)
	if err != nil {
		return nil, err
	}

	activities := make([]*models.Activity, 0, len(all))

	for _, activity := range all {
		if activity.DeletedAt != nil {
			continue
		}

		if filter.ParentType != "" && activity.ParentType != filter.ParentType {
			continue
		}

		if filter.ParentID != nil && activity.ParentID != *filter.ParentID {
			continue
		}

		if filter.Type != "" && activity.Type != filter.Type {
			continue
		}

		activities = append(activities, activity)
	}

	sort.Slice(activities, func(i, j int) bool {
		if activities[i].Date.Equal(activities[j].Date) {
			return activities[i].ID > activities[j].ID
		}

		return activities[i].Date.After(activities[j].Date)
	})

	return activities, nil
}

func (r *ActivityRepository) GetByID(_ context.Context, id int64) (*models.Activity, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	return r.get("GetByID", id)
}

func (r *ActivityRepository) get(op string, id int64) (*models.Activity, error) {
	activity, err := readOne[models.Activity](r.p, activitiesDir, formatID(id))
	if err != nil {
		return nil, persistence.NewRecordError(op, "activity", id, err)
	}

	if activity == nil || activity.DeletedAt != nil {
		return nil, persistence.NewRecordError(op, "activity", id, persistence.ErrActivityNotFound)
	}

	return activity, nil
}

func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	id, err := r.p.nextID(activitiesDir)
	if err != nil {
		return persistence.NewRecordError("Create", "activity", "", err)
	}

	now := time.Now().UTC()
	activity.ID = id
	activity.CreatedAt = now

	if activity.Date.IsZero() {
		activity.Date = now
	}

	return r.p.write(activitiesDir, formatID(id), activity)
}

func (r *ActivityRepository) Delete(ctx context.Context, id int64) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	activity, err := r.get("Delete", id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	activity.DeletedAt = &now

	return r.p.write(activitiesDir, formatID(id), activity)
}
