package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/dukex/leadflow/pkg/workflow"
)

// LeadInput carries the editable fields of a lead.
type LeadInput struct {
	Name       string
	Company    string
	Email      string
	Phone      string
	Status     string
	Source     string
	AssignedTo string
}

func (in LeadInput) validate(op string) error {
	if strings.TrimSpace(in.Name) == "" {
		return NewValidationError(op, "NAME_REQUIRED", "name is required", ErrNameRequired)
	}

	if strings.TrimSpace(in.Email) == "" {
		return NewValidationError(op, "EMAIL_REQUIRED", "email is required", ErrEmailRequired)
	}

	return nil
}

type Lead struct {
	persistence persistence.Persistence
	trigger     workflow.Trigger
}

// NewLead creates a new lead service. Every create, status change and
// conversion fires trigger synchronously before returning.
func NewLead(persistence persistence.Persistence, trigger workflow.Trigger) *Lead {
	return &Lead{
		persistence: persistence,
		trigger:     trigger,
	}
}

func (l *Lead) List(ctx context.Context, filter persistence.LeadFilter) ([]*models.Lead, error) {
	leads, err := l.persistence.LeadRepository().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}

	return leads, nil
}

func (l *Lead) FetchByID(ctx context.Context, id int64) (*models.Lead, error) {
	return l.persistence.LeadRepository().GetByID(ctx, id)
}

// Create stores a new lead and fires lead_created.
func (l *Lead) Create(ctx context.Context, input LeadInput) (*models.Lead, error) {
	err := input.validate("CreateLead")
	if err != nil {
		return nil, err
	}

	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = models.LeadStatusNew
	}

	lead := &models.Lead{
		Name:       input.Name,
		Company:    input.Company,
		Email:      input.Email,
		Phone:      input.Phone,
		Status:     status,
		Source:     input.Source,
		AssignedTo: input.AssignedTo,
	}

	err = l.persistence.LeadRepository().Create(ctx, lead)
	if err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	l.trigger.Trigger(ctx, models.TriggerLeadCreated, lead.Record())

	return lead, nil
}

// Update replaces the editable fields of a lead. status_updated fires with
// the updated lead only when the status actually changed.
func (l *Lead) Update(ctx context.Context, id int64, input LeadInput) (*models.Lead, error) {
	err := input.validate("UpdateLead")
	if err != nil {
		return nil, err
	}

	repo := l.persistence.LeadRepository()

	lead, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previousStatus := lead.Status

	lead.Name = input.Name
	lead.Company = input.Company
	lead.Email = input.Email
	lead.Phone = input.Phone
	lead.Source = input.Source
	lead.AssignedTo = input.AssignedTo

	if status := strings.TrimSpace(input.Status); status != "" {
		lead.Status = status
	}

	err = repo.Update(ctx, lead)
	if err != nil {
		return nil, err
	}

	if lead.Status != previousStatus {
		l.trigger.Trigger(ctx, models.TriggerStatusUpdated, lead.Record())
	}

	return lead, nil
}

func (l *Lead) Delete(ctx context.Context, id int64) error {
	return l.persistence.LeadRepository().Delete(ctx, id)
}

// Convert turns a lead into a client and fires lead_converted with the lead
// as it was before the conversion.
func (l *Lead) Convert(ctx context.Context, id int64) (*models.Client, error) {
	repo := l.persistence.LeadRepository()

	lead, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if lead.IsConverted() {
		return nil, NewValidationError("ConvertLead", "LEAD_ALREADY_CONVERTED",
			"lead already converted", persistence.ErrLeadAlreadyConverted)
	}

	snapshot := lead.Record()

	client, err := repo.ConvertToClient(ctx, id)
	if err != nil {
		if persistence.IsLeadAlreadyConverted(err) {
			return nil, NewValidationError("ConvertLead", "LEAD_ALREADY_CONVERTED",
				"lead already converted", err)
		}

		return nil, err
	}

	l.trigger.Trigger(ctx, models.TriggerLeadConverted, snapshot)

	return client, nil
}
