// Package persistence provides the record store abstraction for leads,
// clients, activities and workflow definitions.
package persistence

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/dukex/leadflow/pkg/models"
)

type Persistence interface {
	LeadRepository() LeadRepository
	ClientRepository() ClientRepository
	ActivityRepository() ActivityRepository
	WorkflowRepository() WorkflowRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// LeadFilter narrows a lead listing. Search matches name, company or email
// case-insensitively.
type LeadFilter struct {
	Status string
	Source string
	Search string
}

type ClientFilter struct {
	Search string
}

type ActivityFilter struct {
	ParentType models.ParentType
	ParentID   *int64
	Type       string
}

// WorkflowFilter selects definitions; zero values match everything.
type WorkflowFilter struct {
	TriggerEvent models.TriggerEvent
	IsActive     *bool
}

// LeadRepository stores leads. Soft-deleted leads are invisible to every
// method.
type LeadRepository interface {
	List(ctx context.Context, filter LeadFilter) ([]*models.Lead, error)
	GetByID(ctx context.Context, id int64) (*models.Lead, error)
	Create(ctx context.Context, lead *models.Lead) error
	Update(ctx context.Context, lead *models.Lead) error
	UpdateFields(ctx context.Context, id int64, fields map[string]any) (*models.Lead, error)
	Delete(ctx context.Context, id int64) error

	// ConvertToClient creates a client from the lead and marks the lead as
	// converted in one step. It fails with ErrLeadAlreadyConverted when the
	// lead already has a client.
	ConvertToClient(ctx context.Context, id int64) (*models.Client, error)

	// ListInactive returns unconverted leads whose latest live activity was
	// created before cutoff, or which have no live activity at all.
	ListInactive(ctx context.Context, cutoff time.Time) ([]*models.Lead, error)
}

type ClientRepository interface {
	List(ctx context.Context, filter ClientFilter) ([]*models.Client, error)
	GetByID(ctx context.Context, id int64) (*models.Client, error)
	Create(ctx context.Context, client *models.Client) error
	Update(ctx context.Context, client *models.Client) error
	UpdateFields(ctx context.Context, id int64, fields map[string]any) (*models.Client, error)
	Delete(ctx context.Context, id int64) error
}

type ActivityRepository interface {
	List(ctx context.Context, filter ActivityFilter) ([]*models.Activity, error)
	GetByID(ctx context.Context, id int64) (*models.Activity, error)
	Create(ctx context.Context, activity *models.Activity) error
	Delete(ctx context.Context, id int64) error
}

// WorkflowRepository stores workflow definitions. Save inserts or replaces
// the whole definition, so conditions and actions change atomically.
type WorkflowRepository interface {
	List(ctx context.Context, filter WorkflowFilter) ([]*models.Workflow, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error
}

var (
	leadColumns   = []string{"name", "company", "email", "phone", "status", "source", "assigned_to"}
	clientColumns = []string{"name", "company", "email", "phone"}
)

// LeadColumns validates fields against the editable lead columns and
// normalizes each value to its stored text form.
func LeadColumns(fields map[string]any) (map[string]string, error) {
	return columnsFor(fields, leadColumns)
}

// ClientColumns is LeadColumns for clients.
func ClientColumns(fields map[string]any) (map[string]string, error) {
	return columnsFor(fields, clientColumns)
}

func columnsFor(fields map[string]any, allowed []string) (map[string]string, error) {
	columns := make(map[string]string, len(fields))

	for field, value := range fields {
		if !slices.Contains(allowed, field) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
		}

		columns[field] = models.Stringify(value)
	}

	return columns, nil
}

// SortedKeys returns the column names in a stable order for query building.
func SortedKeys(columns map[string]string) []string {
	keys := make([]string, 0, len(columns))
	for key := range columns {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// ApplyLeadColumns copies validated column values onto lead.
func ApplyLeadColumns(lead *models.Lead, columns map[string]string) {
	for column, value := range columns {
		switch column {
		case "name":
			lead.Name = value
		case "company":
			lead.Company = value
		case "email":
			lead.Email = value
		case "phone":
			lead.Phone = value
		case "status":
			lead.Status = value
		case "source":
			lead.Source = value
		case "assigned_to":
			lead.AssignedTo = value
		}
	}
}

// ApplyClientColumns copies validated column values onto client.
func ApplyClientColumns(client *models.Client, columns map[string]string) {
	for column, value := range columns {
		switch column {
		case "name":
			client.Name = value
		case "company":
			client.Company = value
		case "email":
			client.Email = value
		case "phone":
			client.Phone = value
		}
	}
}
