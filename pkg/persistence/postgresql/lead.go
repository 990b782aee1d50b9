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

const leadColumns = `id, name, company, email, phone, status, source, assigned_to,
	converted_to_client_id, created_at, updated_at, deleted_at`

// LeadRepository handles lead-related database operations.
type LeadRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewLeadRepository creates a new lead repository.
func NewLeadRepository(db *sql.DB, logger *slog.Logger) *LeadRepository {
	return &LeadRepository{db: db, logger: logger}
}

func scanLead(row rowScanner) (*models.Lead, error) {
	var (
		lead        models.Lead
		convertedTo sql.NullInt64
		deletedAt   sql.NullTime
	)

	err := row.Scan(
		&lead.ID,
		&lead.Name,
		&lead.Company,
		&lead.Email,
		&lead.Phone,
		&lead.Status,
		&lead.Source,
		&lead.AssignedTo,
		&convertedTo,
		&lead.CreatedAt,
		&lead.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if convertedTo.Valid {
		lead.ConvertedToClientID = &convertedTo.Int64
	}

	if deletedAt.Valid {
		lead.DeletedAt = &deletedAt.Time
	}

	return &lead, nil
}

func buildLeadListQuery(filter persistence.LeadFilter) (string, []any) {
	clauses := []string{"deleted_at IS NULL"}
	args := make([]any, 0, 3)

	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, "status = $"+strconv.Itoa(len(args)))
	}

	if filter.Source != "" {
		args = append(args, filter.Source)
		clauses = append(clauses, "source = $"+strconv.Itoa(len(args)))
	}

	if filter.Search != "" {
		args = append(args, likePattern(filter.Search))
		n := "$" + strconv.Itoa(len(args))
		clauses = append(clauses, "(name ILIKE "+n+" OR company ILIKE "+n+" OR email ILIKE "+n+")")
	}

	query := "SELECT " + leadColumns + " FROM leads WHERE " +
		strings.Join(clauses, " AND ") +
		" ORDER BY created_at DESC, id DESC"

	return query, args
}

func (r *LeadRepository) List(ctx context.Context, filter persistence.LeadFilter) ([]*models.Lead, error) {
	query, args := buildLeadListQuery(filter)

	return r.query(ctx, "List", query, args...)
}

func (r *LeadRepository) query(ctx context.Context, op, query string, args ...any) ([]*models.Lead, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistence.NewRecordError(op, "lead", "", fmt.Errorf("failed to query leads: %w", err))
	}

	defer closeRows(ctx, r.logger, rows)

	leads := make([]*models.Lead, 0)

	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}

		leads = append(leads, lead)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating leads: %w", err)
	}

	return leads, nil
}

func (r *LeadRepository) GetByID(ctx context.Context, id int64) (*models.Lead, error) {
	query := "SELECT " + leadColumns + " FROM leads WHERE id = $1 AND deleted_at IS NULL"

	lead, err := scanLead(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, leadError("GetByID", id, err)
	}

	return lead, nil
}

func leadError(op string, id int64, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.NewRecordError(op, "lead", id, persistence.ErrLeadNotFound)
	}

	return persistence.NewRecordError(op, "lead", id, err)
}

func (r *LeadRepository) Create(ctx context.Context, lead *models.Lead) error {
	query := `
		INSERT INTO leads (name, company, email, phone, status, source, assigned_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		lead.Name,
		lead.Company,
		lead.Email,
		lead.Phone,
		lead.Status,
		lead.Source,
		lead.AssignedTo,
	).Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return persistence.NewRecordError("Create", "lead", "", fmt.Errorf("failed to insert lead: %w", err))
	}

	return nil
}

func (r *LeadRepository) Update(ctx context.Context, lead *models.Lead) error {
	query := `
		UPDATE leads SET
			name = $2,
			company = $3,
			email = $4,
			phone = $5,
			status = $6,
			source = $7,
			assigned_to = $8,
			updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + leadColumns

	updated, err := scanLead(r.db.QueryRowContext(ctx, query,
		lead.ID,
		lead.Name,
		lead.Company,
		lead.Email,
		lead.Phone,
		lead.Status,
		lead.Source,
		lead.AssignedTo,
	))
	if err != nil {
		return leadError("Update", lead.ID, err)
	}

	*lead = *updated

	return nil
}

// buildUpdateFieldsQuery builds an UPDATE for validated columns. Column names
// come from the allowlist, values are always bound.
func buildUpdateFieldsQuery(table, returning string, id int64, columns map[string]string) (string, []any) {
	keys := persistence.SortedKeys(columns)
	sets := make([]string, 0, len(keys)+1)
	args := []any{id}

	for _, key := range keys {
		args = append(args, columns[key])
		sets = append(sets, key+" = $"+strconv.Itoa(len(args)))
	}

	sets = append(sets, "updated_at = NOW()")

	query := "UPDATE " + table + " SET " + strings.Join(sets, ", ") +
		" WHERE id = $1 AND deleted_at IS NULL RETURNING " + returning

	return query, args
}

func (r *LeadRepository) UpdateFields(ctx context.Context, id int64, fields map[string]any) (*models.Lead, error) {
	columns, err := persistence.LeadColumns(fields)
	if err != nil {
		return nil, persistence.NewRecordError("UpdateFields", "lead", id, err)
	}

	if len(columns) == 0 {
		return r.GetByID(ctx, id)
	}

	query, args := buildUpdateFieldsQuery("leads", leadColumns, id, columns)

	lead, err := scanLead(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, leadError("UpdateFields", id, err)
	}

	return lead, nil
}

func (r *LeadRepository) Delete(ctx context.Context, id int64) error {
	return softDelete(ctx, r.db, "leads", id, func(err error) error { return leadError("Delete", id, err) })
}

func softDelete(ctx context.Context, db *sql.DB, table string, id int64, wrap func(error) error) error {
	result, err := db.ExecContext(ctx, "UPDATE "+table+" SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL", id)
	if err != nil {
		return wrap(fmt.Errorf("failed to delete: %w", err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return wrap(fmt.Errorf("failed to get rows affected: %w", err))
	}

	if rowsAffected == 0 {
		return wrap(sql.ErrNoRows)
	}

	return nil
}

func (r *LeadRepository) ConvertToClient(ctx context.Context, id int64) (*models.Client, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, persistence.NewRecordError("ConvertToClient", "lead", id, fmt.Errorf("failed to begin transaction: %w", err))
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	lead, err := scanLead(tx.QueryRowContext(ctx,
		"SELECT "+leadColumns+" FROM leads WHERE id = $1 AND deleted_at IS NULL FOR UPDATE", id))
	if err != nil {
		return nil, leadError("ConvertToClient", id, err)
	}

	if lead.IsConverted() {
		err = persistence.ErrLeadAlreadyConverted

		return nil, persistence.NewRecordError("ConvertToClient", "lead", id, err)
	}

	client, err := scanClient(tx.QueryRowContext(ctx, `
		INSERT INTO clients (name, company, email, phone, converted_from_lead_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+clientColumns,
		lead.Name, lead.Company, lead.Email, lead.Phone, lead.ID,
	))
	if err != nil {
		return nil, persistence.NewRecordError("ConvertToClient", "lead", id, fmt.Errorf("failed to insert client: %w", err))
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE leads SET converted_to_client_id = $2, status = $3, updated_at = NOW()
		WHERE id = $1
	`, id, client.ID, models.LeadStatusConverted)
	if err != nil {
		return nil, persistence.NewRecordError("ConvertToClient", "lead", id, fmt.Errorf("failed to mark lead converted: %w", err))
	}

	err = tx.Commit()
	if err != nil {
		return nil, persistence.NewRecordError("ConvertToClient", "lead", id, fmt.Errorf("failed to commit transaction: %w", err))
	}

	return client, nil
}

func (r *LeadRepository) ListInactive(ctx context.Context, cutoff time.Time) ([]*models.Lead, error) {
	query := `
		SELECT
			l.id
		  , l.name
		  , l.company
		  , l.email
		  , l.phone
		  , l.status
		  , l.source
		  , l.assigned_to
		  , l.converted_to_client_id
		  , l.created_at
		  , l.updated_at
		  , l.deleted_at
		FROM leads l
		LEFT JOIN activities a
			ON a.parent_type = 'lead'
			AND a.parent_id = l.id
			AND a.deleted_at IS NULL
		WHERE l.deleted_at IS NULL
			AND l.converted_to_client_id IS NULL
		GROUP BY l.id
		HAVING MAX(a.created_at) IS NULL OR MAX(a.created_at) < $1
		ORDER BY l.id
	`

	return r.query(ctx, "ListInactive", query, cutoff)
}
