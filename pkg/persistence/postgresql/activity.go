package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
)

const activityColumns = `id, parent_type, parent_id, type, summary, date, created_at, deleted_at`

// ActivityRepository handles activity-related database operations.
type ActivityRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewActivityRepository creates a new activity repository.
func NewActivityRepository(db *sql.DB, logger *slog.Logger) *ActivityRepository {
	return &ActivityRepository{db: db, logger: logger}
}

func scanActivity(row rowScanner) (*models.Activity, error) {
	var (
		activity  models.Activity
		deletedAt sql.NullTime
	)

	err := row.Scan(
		&activity.ID,
		&activity.ParentType,
		&activity.ParentID,
		&activity.Type,
		&activity.Summary,
		&activity.Date,
		&activity.CreatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if deletedAt.Valid {
		activity.DeletedAt = &deletedAt.Time
	}

	return &activity, nil
}

func activityError(op string, id int64, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.NewRecordError(op, "activity", id, persistence.ErrActivityNotFound)
	}

	return persistence.NewRecordError(op, "activity", id, err)
}

func buildActivityListQuery(filter persistence.ActivityFilter) (string, []any) {
	clauses := []string{"deleted_at IS NULL"}
	args := make([]any, 0, 3)

	if filter.ParentType != "" {
		args = append(args, string(filter.ParentType))
		clauses = append(clauses, "parent_type = $"+strconv.Itoa(len(args)))
	}

	if filter.ParentID != nil {
		args = append(args, *filter.ParentID)
		clauses = append(clauses, "parent_id = $"+strconv.Itoa(len(args)))
	}

	if filter.Type != "" {
		args = append(args, filter.Type)
		clauses = append(clauses, "type = $"+strconv.Itoa(len(args)))
	}

	query := "SELECT " + activityColumns + " FROM activities WHERE " +
		strings.Join(clauses, " AND ") +
		" ORDER BY date DESC, id DESC"

	return query, args
}

func (r *ActivityRepository) List(ctx context.Context, filter persistence.ActivityFilter) ([]*models.Activity, error) {
	query, args := buildActivityListQuery(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	activities := make([]*models.Activity, 0)

	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}

		activities = append(activities, activity)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}

	return activities, nil
}

func (r *ActivityRepository) GetByID(ctx context.Context, id int64) (*models.Activity, error) {
	query := "SELECT " + activityColumns + " FROM activities WHERE id = $1 AND deleted_at IS NULL"

	activity, err := scanActivity(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, activityError("GetByID", id, err)
	}

	return activity, nil
}

func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if activity.Date.IsZero() {
		activity.Date = time.Now().UTC()
	}

	query := `
		INSERT INTO activities (parent_type, parent_id, type, summary, date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		string(activity.ParentType),
		activity.ParentID,
		activity.Type,
		activity.Summary,
		activity.Date,
	).Scan(&activity.ID, &activity.CreatedAt)
	if err != nil {
		return persistence.NewRecordError("Create", "activity", "", fmt.Errorf("failed to insert activity: %w", err))
	}

	return nil
}

func (r *ActivityRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE activities SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL", id)
	if err != nil {
		return activityError("Delete", id, fmt.Errorf("failed to delete activity: %w", err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return activityError("Delete", id, fmt.Errorf("failed to get rows affected: %w", err))
	}

	if rowsAffected == 0 {
		return activityError("Delete", id, sql.ErrNoRows)
	}

	return nil
}
