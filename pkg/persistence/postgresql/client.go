package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
)

const clientColumns = `id, name, company, email, phone, converted_from_lead_id,
	created_at, updated_at, deleted_at`

// ClientRepository handles client-related database operations.
type ClientRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewClientRepository creates a new client repository.
func NewClientRepository(db *sql.DB, logger *slog.Logger) *ClientRepository {
	return &ClientRepository{db: db, logger: logger}
}

func scanClient(row rowScanner) (*models.Client, error) {
	var (
		client        models.Client
		convertedFrom sql.NullInt64
		deletedAt     sql.NullTime
	)

	err := row.Scan(
		&client.ID,
		&client.Name,
		&client.Company,
		&client.Email,
		&client.Phone,
		&convertedFrom,
		&client.CreatedAt,
		&client.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if convertedFrom.Valid {
		client.ConvertedFromLeadID = &convertedFrom.Int64
	}

	if deletedAt.Valid {
		client.DeletedAt = &deletedAt.Time
	}

	return &client, nil
}

func clientError(op string, id int64, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.NewRecordError(op, "client", id, persistence.ErrClientNotFound)
	}

	return persistence.NewRecordError(op, "client", id, err)
}

func (r *ClientRepository) List(ctx context.Context, filter persistence.ClientFilter) ([]*models.Client, error) {
	query := "SELECT " + clientColumns + " FROM clients WHERE deleted_at IS NULL"
	args := make([]any, 0, 1)

	if filter.Search != "" {
		args = append(args, likePattern(filter.Search))
		query += " AND (name ILIKE $1 OR company ILIKE $1 OR email ILIKE $1)"
	}

	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	clients := make([]*models.Client, 0)

	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}

		clients = append(clients, client)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating clients: %w", err)
	}

	return clients, nil
}

func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	query := "SELECT " + clientColumns + " FROM clients WHERE id = $1 AND deleted_at IS NULL"

	client, err := scanClient(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, clientError("GetByID", id, err)
	}

	return client, nil
}

func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	query := `
		INSERT INTO clients (name, company, email, phone, converted_from_lead_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		client.Name,
		client.Company,
		client.Email,
		client.Phone,
		client.ConvertedFromLeadID,
	).Scan(&client.ID, &client.CreatedAt, &client.UpdatedAt)
	if err != nil {
		return persistence.NewRecordError("Create", "client", "", fmt.Errorf("failed to insert client: %w", err))
	}

	return nil
}

func (r *ClientRepository) Update(ctx context.Context, client *models.Client) error {
	query := `
		UPDATE clients SET
			name = $2,
			company = $3,
			email = $4,
			phone = $5,
			updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + clientColumns

	updated, err := scanClient(r.db.QueryRowContext(ctx, query,
		client.ID,
		client.Name,
		client.Company,
		client.Email,
		client.Phone,
	))
	if err != nil {
		return clientError("Update", client.ID, err)
	}

	*client = *updated

	return nil
}

func (r *ClientRepository) UpdateFields(ctx context.Context, id int64, fields map[string]any) (*models.Client, error) {
	columns, err := persistence.ClientColumns(fields)
	if err != nil {
		return nil, persistence.NewRecordError("UpdateFields", "client", id, err)
	}

	if len(columns) == 0 {
		return r.GetByID(ctx, id)
	}

	query, args := buildUpdateFieldsQuery("clients", clientColumns, id, columns)

	client, err := scanClient(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, clientError("UpdateFields", id, err)
	}

	return client, nil
}

func (r *ClientRepository) Delete(ctx context.Context, id int64) error {
	return softDelete(ctx, r.db, "clients", id, func(err error) error { return clientError("Delete", id, err) })
}
