package file

import (
	"context"
	"sort"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
)

// ClientRepository handles client-related file operations.
type ClientRepository struct {
	p *Persistence
}

func (r *ClientRepository) List(_ context.Context, filter persistence.ClientFilter) ([]*models.Client, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	all, err := readAll[models.Client](r.p, clientsDir)
	if err != nil {
		return nil, err
	}

	clients := make([]*models.Client, 0, len(all))

	for _, client := range all {
		if client.DeletedAt != nil {
			continue
		}

		if filter.Search != "" &&
			!containsFold(client.Name, filter.Search) &&
			!containsFold(client.Company, filter.Search) &&
			!containsFold(client.Email, filter.Search) {
			continue
		}

		clients = append(clients, client)
	}

	sort.Slice(clients, func(i, j int) bool {
		if clients[i].CreatedAt.Equal(clients[j].CreatedAt) {
			return clients[i].ID > clients[j].ID
		}

		return clients[i].CreatedAt.After(clients[j].CreatedAt)
	})

	return clients, nil
}

func (r *ClientRepository) GetByID(_ context.Context, id int64) (*models.Client, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	return r.get("GetByID", id)
}

func (r *ClientRepository) get(op string, id int64) (*models.Client, error) {
	client, err := readOne[models.Client](r.p, clientsDir, formatID(id))
	if err != nil {
		return nil, persistence.NewRecordError(op, "client", id, err)
	}

	if client == nil || client.DeletedAt != nil {
		return nil, persistence.NewRecordError(op, "client", id, persistence.ErrClientNotFound)
	}

	return client, nil
}

func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	id, err := r.p.nextID(clientsDir)
	if err != nil {
		return persistence.NewRecordError("Create", "client", "", err)
	}

	now := time.Now().UTC()
	client.ID = id
	client.CreatedAt = now
	client.UpdatedAt = now

	return r.p.write(clientsDir, formatID(id), client)
}

func (r *ClientRepository) Update(ctx context.Context, client *models.Client) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	existing, err := r.get("Update", client.ID)
	if err != nil {
		return err
	}

	existing.Name = client.Name
	existing.Company = client.Company
	existing.Email = client.Email
	existing.Phone = client.Phone
	existing.UpdatedAt = time.Now().UTC()

	err = r.p.write(clientsDir, formatID(existing.ID), existing)
	if err != nil {
		return persistence.NewRecordError("Update", "client", client.ID, err)
	}

	*client = *existing

	return nil
}

func (r *ClientRepository) UpdateFields(ctx context.Context, id int64, fields map[string]any) (*models.Client, error) {
	columns, err := persistence.ClientColumns(fields)
	if err != nil {
		return nil, persistence.NewRecordError("UpdateFields", "client", id, err)
	}

	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, err := r.get("UpdateFields", id)
	if err != nil {
		return nil, err
	}

	persistence.ApplyClientColumns(client, columns)
	client.UpdatedAt = time.Now().UTC()

	err = r.p.write(clientsDir, formatID(id), client)
	if err != nil {
		return nil, persistence.NewRecordError("UpdateFields", "client", id, err)
	}

	return client, nil
}

func (r *ClientRepository) Delete(ctx context.Context, id int64) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	client, err := r.get("Delete", id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	client.DeletedAt = &now

	return r.p.write(clientsDir, formatID(id), client)
}
