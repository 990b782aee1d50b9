package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPersistence(t *testing.T) {
	persistence := NewPersistence("/tmp/test")
	assert.Equal(t, "/tmp/test", persistence.root)

	persistence = NewPersistence("file:///tmp/test")
	assert.Equal(t, "/tmp/test", persistence.root)
}

func TestPersistence_Close(t *testing.T) {
	persistence := NewPersistence("./test-data")
	err := persistence.Close(t.Context())
	assert.NoError(t, err)
}

func TestPersistence_HealthCheck(t *testing.T) {
	p := NewPersistence(t.TempDir())
	assert.NoError(t, p.HealthCheck(t.Context()))

	missing := NewPersistence(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, missing.HealthCheck(t.Context()), os.ErrNotExist)
}

func TestLeadRepository_CRUD(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.LeadRepository()
	ctx := t.Context()

	lead := &models.Lead{Name: "Acme", Email: "ops@acme.test", Status: models.LeadStatusNew, Source: "web"}
	require.NoError(t, repo.Create(ctx, lead))
	assert.Equal(t, int64(1), lead.ID)
	assert.False(t, lead.CreatedAt.IsZero())

	second := &models.Lead{Name: "Globex", Email: "hi@globex.test", Status: "qualified", Source: "referral"}
	require.NoError(t, repo.Create(ctx, second))
	assert.Equal(t, int64(2), second.ID)

	fetched, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Acme", fetched.Name)

	fetched.Status = "contacted"
	require.NoError(t, repo.Update(ctx, fetched))

	fetched, err = repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "contacted", fetched.Status)

	updated, err := repo.UpdateFields(ctx, 1, map[string]any{"assigned_to": 9})
	require.NoError(t, err)
	assert.Equal(t, "9", updated.AssignedTo)

	_, err = repo.UpdateFields(ctx, 1, map[string]any{"converted_to_client_id": 4})
	assert.ErrorIs(t, err, persistence.ErrUnknownField)

	require.NoError(t, repo.Delete(ctx, 1))

	_, err = repo.GetByID(ctx, 1)
	assert.ErrorIs(t, err, persistence.ErrLeadNotFound)

	leads, err := repo.List(ctx, persistence.LeadFilter{})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, int64(2), leads[0].ID)

	next := &models.Lead{Name: "Initech", Email: "a@initech.test"}
	require.NoError(t, repo.Create(ctx, next))
	assert.Equal(t, int64(3), next.ID, "soft-deleted ids are not reused")
}

func TestLeadRepository_ListFilters(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.LeadRepository()
	ctx := t.Context()

	for _, lead := range []*models.Lead{
		{Name: "Alice", Company: "Acme", Email: "alice@acme.test", Status: "new", Source: "web"},
		{Name: "Bob", Company: "Globex", Email: "bob@globex.test", Status: "qualified", Source: "web"},
		{Name: "Carol", Company: "Initech", Email: "carol@initech.test", Status: "new", Source: "referral"},
	} {
		require.NoError(t, repo.Create(ctx, lead))
	}

	tests := []struct {
		name     string
		filter   persistence.LeadFilter
		expected []string
	}{
		{"no filter newest first", persistence.LeadFilter{}, []string{"Carol", "Bob", "Alice"}},
		{"status", persistence.LeadFilter{Status: "new"}, []string{"Carol", "Alice"}},
		{"source", persistence.LeadFilter{Source: "web"}, []string{"Bob", "Alice"}},
		{"search company case-insensitive", persistence.LeadFilter{Search: "GLOBEX"}, []string{"Bob"}},
		{"search email", persistence.LeadFilter{Search: "initech.test"}, []string{"Carol"}},
		{"combined", persistence.LeadFilter{Status: "new", Source: "web"}, []string{"Alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leads, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)

			names := make([]string, 0, len(leads))
			for _, lead := range leads {
				names = append(names, lead.Name)
			}

			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestLeadRepository_ConvertToClient(t *testing.T) {
	p := NewPersistence(t.TempDir())
	ctx := t.Context()

	lead := &models.Lead{Name: "Acme", Company: "Acme Inc", Email: "ops@acme.test", Phone: "555", Status: "qualified"}
	require.NoError(t, p.LeadRepository().Create(ctx, lead))

	client, err := p.LeadRepository().ConvertToClient(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", client.Name)
	assert.Equal(t, "Acme Inc", client.Company)
	assert.Equal(t, "ops@acme.test", client.Email)
	assert.Equal(t, "555", client.Phone)
	require.NotNil(t, client.ConvertedFromLeadID)
	assert.Equal(t, lead.ID, *client.ConvertedFromLeadID)

	converted, err := p.LeadRepository().GetByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusConverted, converted.Status)
	require.NotNil(t, converted.ConvertedToClientID)
	assert.Equal(t, client.ID, *converted.ConvertedToClientID)

	_, err = p.LeadRepository().ConvertToClient(ctx, lead.ID)
	assert.ErrorIs(t, err, persistence.ErrLeadAlreadyConverted)

	clients, err := p.ClientRepository().List(ctx, persistence.ClientFilter{})
	require.NoError(t, err)
	assert.Len(t, clients, 1)

	_, err = p.LeadRepository().ConvertToClient(ctx, 99)
	assert.ErrorIs(t, err, persistence.ErrLeadNotFound)
}

func TestLeadRepository_ListInactive(t *testing.T) {
	p := NewPersistence(t.TempDir())
	ctx := t.Context()
	leads := p.LeadRepository()
	activities := p.ActivityRepository()

	fresh := &models.Lead{Name: "Fresh", Email: "f@x.test"}
	stale := &models.Lead{Name: "Stale", Email: "s@x.test"}
	silent := &models.Lead{Name: "Silent", Email: "n@x.test"}
	converted := &models.Lead{Name: "Converted", Email: "c@x.test"}
	deleted := &models.Lead{Name: "Deleted", Email: "d@x.test"}

	for _, lead := range []*models.Lead{fresh, stale, silent, converted, deleted} {
		require.NoError(t, leads.Create(ctx, lead))
	}

	require.NoError(t, activities.Create(ctx, &models.Activity{ParentType: models.ParentLead, ParentID: fresh.ID, Type: "call"}))
	require.NoError(t, activities.Create(ctx, &models.Activity{ParentType: models.ParentLead, ParentID: stale.ID, Type: "call"}))

	removed := &models.Activity{ParentType: models.ParentLead, ParentID: silent.ID, Type: "call"}
	require.NoError(t, activities.Create(ctx, removed))
	require.NoError(t, activities.Delete(ctx, removed.ID))

	_, err := leads.ConvertToClient(ctx, converted.ID)
	require.NoError(t, err)
	require.NoError(t, leads.Delete(ctx, deleted.ID))

	// Age the stale lead's only activity past the window.
	staleActivity, err := activities.GetByID(ctx, 2)
	require.NoError(t, err)
	staleActivity.CreatedAt = time.Now().UTC().Add(-10 * 24 * time.Hour)
	require.NoError(t, p.write(activitiesDir, formatID(staleActivity.ID), staleActivity))

	inactive, err := leads.ListInactive(ctx, time.Now().UTC().Add(-7*24*time.Hour))
	require.NoError(t, err)

	names := make([]string, 0, len(inactive))
	for _, lead := range inactive {
		names = append(names, lead.Name)
	}

	assert.Equal(t, []string{"Stale", "Silent"}, names)
}

func TestClientRepository_CRUD(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.ClientRepository()
	ctx := t.Context()

	client := &models.Client{Name: "Acme", Email: "ops@acme.test"}
	require.NoError(t, repo.Create(ctx, client))
	assert.Equal(t, int64(1), client.ID)

	updated, err := repo.UpdateFields(ctx, client.ID, map[string]any{"phone": "555-0100"})
	require.NoError(t, err)
	assert.Equal(t, "555-0100", updated.Phone)

	_, err = repo.UpdateFields(ctx, client.ID, map[string]any{"status": "won"})
	assert.ErrorIs(t, err, persistence.ErrUnknownField)

	updated.Company = "Acme Inc"
	require.NoError(t, repo.Update(ctx, updated))
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	found, err := repo.List(ctx, persistence.ClientFilter{Search: "acme inc"})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	require.NoError(t, repo.Delete(ctx, client.ID))

	_, err = repo.GetByID(ctx, client.ID)
	assert.ErrorIs(t, err, persistence.ErrClientNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, client.ID), persistence.ErrClientNotFound)
}

func TestActivityRepository_ListFilters(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.ActivityRepository()
	ctx := t.Context()

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &models.Activity{ParentType: models.ParentLead, ParentID: 1, Type: "call", Date: day}))
	require.NoError(t, repo.Create(ctx, &models.Activity{ParentType: models.ParentLead, ParentID: 2, Type: "note", Date: day.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &models.Activity{ParentType: models.ParentClient, ParentID: 1, Type: "call", Date: day.Add(2 * time.Hour)}))

	leadOne := int64(1)

	all, err := repo.List(ctx, persistence.ActivityFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(3), all[0].ID, "newest date first")

	byParent, err := repo.List(ctx, persistence.ActivityFilter{ParentType: models.ParentLead, ParentID: &leadOne})
	require.NoError(t, err)
	require.Len(t, byParent, 1)
	assert.Equal(t, int64(1), byParent[0].ID)

	calls, err := repo.List(ctx, persistence.ActivityFilter{Type: "call"})
	require.NoError(t, err)
	assert.Len(t, calls, 2)

	undated := &models.Activity{ParentType: models.ParentLead, ParentID: 1, Type: "email"}
	require.NoError(t, repo.Create(ctx, undated))
	assert.False(t, undated.Date.IsZero(), "date defaults to now")
}

func TestWritesRefuseCancelledContext(t *testing.T) {
	p := NewPersistence(t.TempDir())

	lead := &models.Lead{Name: "Acme", Email: "ops@acme.test", Status: models.LeadStatusNew}
	require.NoError(t, p.LeadRepository().Create(t.Context(), lead))

	cancelled, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := p.LeadRepository().UpdateFields(cancelled, lead.ID, map[string]any{"status": "late"})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = p.LeadRepository().ConvertToClient(cancelled, lead.ID)
	assert.ErrorIs(t, err, context.Canceled)

	err = p.ActivityRepository().Create(cancelled, &models.Activity{ParentType: models.ParentLead, ParentID: lead.ID, Type: "note"})
	assert.ErrorIs(t, err, context.Canceled)

	err = p.WorkflowRepository().Save(cancelled, &models.Workflow{TriggerEvent: models.TriggerLeadCreated})
	assert.ErrorIs(t, err, context.Canceled)

	stored, err := p.LeadRepository().GetByID(t.Context(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusNew, stored.Status)
	assert.False(t, stored.IsConverted())

	activities, err := p.ActivityRepository().List(t.Context(), persistence.ActivityFilter{})
	require.NoError(t, err)
	assert.Empty(t, activities)
}
