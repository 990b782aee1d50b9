package file

import (
	"context"
	"sort"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
)

// LeadRepository handles lead-related file operations.
type LeadRepository struct {
	p *Persistence
}

func (r *LeadRepository) List(_ context.Context, filter persistence.LeadFilter) ([]*models.Lead, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	all, err := readAll[models.Lead](r.p, leadsDir)
	if err != nil {
		return nil, err
	}

	leads := make([]*models.Lead, 0, len(all))

	for _, lead := range all {
		if lead.DeletedAt != nil {
			continue
		}

		if filter.Status != "" && lead.Status != filter.Status {
			continue
		}

		if filter.Source != "" && lead.Source != filter.Source {
			continue
		}

		if filter.Search != "" &&
			!containsFold(lead.Name, filter.Search) &&
			!containsFold(lead.Company, filter.Search) &&
			!containsFold(lead.Email, filter.Search) {
			continue
		}

		leads = append(leads, lead)
	}

	sort.Slice(leads, func(i, j int) bool {
		if leads[i].CreatedAt.Equal(leads[j].CreatedAt) {
			return leads[i].ID > leads[j].ID
		}

		return leads[i].CreatedAt.After(leads[j].CreatedAt)
	})

	return leads, nil
}

func (r *LeadRepository) GetByID(_ context.Context, id int64) (*models.Lead, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	return r.get("GetByID", id)
}

func (r *LeadRepository) get(op string, id int64) (*models.Lead, error) {
	lead, err := readOne[models.Lead](r.p, leadsDir, formatID(id))
	if err != nil {
		return nil, persistence.NewRecordError(op, "lead", id, err)
	}

	if lead == nil || lead.DeletedAt != nil {
		return nil, persistence.NewRecordError(op, "lead", id, persistence.ErrLeadNotFound)
	}

	return lead, nil
}

func (r *LeadRepository) Create(ctx context.Context, lead *models.Lead) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	id, err := r.p.nextID(leadsDir)
	if err != nil {
		return persistence.NewRecordError("Create", "lead", "", err)
	}

	now := time.Now().UTC()
	lead.ID = id
	lead.CreatedAt = now
	lead.UpdatedAt = now

	return r.p.write(leadsDir, formatID(id), lead)
}

func (r *LeadRepository) Update(ctx context.Context, lead *models.Lead) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	existing, err := r.get("Update", lead.ID)
	if err != nil {
		return err
	}

	existing.Name = lead.Name
	existing.Company = lead.Company
	existing.Email = lead.Email
	existing.Phone = lead.Phone
	existing.Status = lead.Status
	existing.Source = lead.Source
	existing.AssignedTo = lead.AssignedTo
	existing.UpdatedAt = time.Now().UTC()

	err = r.p.write(leadsDir, formatID(existing.ID), existing)
	if err != nil {
		return persistence.NewRecordError("Update", "lead", lead.ID, err)
	}

	*lead = *existing

	return nil
}

func (r *LeadRepository) UpdateFields(ctx context.Context, id int64, fields map[string]any) (*models.Lead, error) {
	columns, err := persistence.LeadColumns(fields)
	if err != nil {
		return nil, persistence.NewRecordError("UpdateFields", "lead", id, err)
	}

	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lead, err := r.get("UpdateFields", id)
	if err != nil {
		return nil, err
	}

	persistence.ApplyLeadColumns(lead, columns)
	lead.UpdatedAt = time.Now().UTC()

	err = r.p.write(leadsDir, formatID(id), lead)
	if err != nil {
		return nil, persistence.NewRecordError("UpdateFields", "lead", id, err)
	}

	return lead, nil
}

func (r *LeadRepository) Delete(ctx context.Context, id int64) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	lead, err := r.get("Delete", id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	lead.DeletedAt = &now

	return r.p.write(leadsDir, formatID(id), lead)
}

func (r *LeadRepository) ConvertToClient(ctx context.Context, id int64) (*models.Client, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lead, err := r.get("ConvertToClient", id)
	if err != nil {
		return nil, err
	}

	if lead.IsConverted() {
		return nil, persistence.NewRecordError("ConvertToClient", "lead", id, persistence.ErrLeadAlreadyConverted)
	}

	clientID, err := r.p.nextID(clientsDir)
	if err != nil {
		return nil, persistence.NewRecordError("ConvertToClient", "lead", id, err)
	}

	now := time.Now().UTC()
	leadID := lead.ID
	client := &models.Client{
		ID:                  clientID,
		Name:                lead.Name,
		Company:             lead.Company,
		Email:               lead.Email,
		Phone:               lead.Phone,
		ConvertedFromLeadID: &leadID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	err = r.p.write(clientsDir, formatID(clientID), client)
	if err != nil {
		return nil, persistence.NewRecordError("ConvertToClient", "lead", id, err)
	}

	lead.ConvertedToClientID = &clientID
	lead.Status = models.LeadStatusConverted
	lead.UpdatedAt = now

	err = r.p.write(leadsDir, formatID(id), lead)
	if err != nil {
		_ = r.p.remove(clientsDir, formatID(clientID))

		return nil, persistence.NewRecordError("ConvertToClient", "lead", id, err)
	}

	return client, nil
}

func (r *LeadRepository) ListInactive(_ context.Context, cutoff time.Time) ([]*models.Lead, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	leads, err := readAll[models.Lead](r.p, leadsDir)
	if err != nil {
		return nil, err
	}

	activities, err := readAll[models.Activity](r.p, activitiesDir)
	if err != nil {
		return nil, err
	}

	latest := make(map[int64]time.Time)

	for _, activity := range activities {
		if activity.DeletedAt != nil || activity.ParentType != models.ParentLead {
			continue
		}

		if at, ok := latest[activity.ParentID]; !ok || activity.CreatedAt.After(at) {
			latest[activity.ParentID] = activity.CreatedAt
		}
	}

	inactive := make([]*models.Lead, 0)

	for _, lead := range leads {
		if lead.DeletedAt != nil || lead.IsConverted() {
			continue
		}

		at, ok := latest[lead.ID]
		if !ok || at.Before(cutoff) {
			inactive = append(inactive, lead)
		}
	}

	sort.Slice(inactive, func(i, j int) bool { return inactive[i].ID < inactive[j].ID })

	return inactive, nil
}
