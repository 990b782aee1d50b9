// Package web provides HTTP request and response types for the CRM API.
package web

import (
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/services"
)

// LeadRequest is the body of lead create and update requests. Update
// replaces every editable field.
type LeadRequest struct {
	Name       string `json:"name"        validate:"required"`
	Company    string `json:"company"`
	Email      string `json:"email"       validate:"required"`
	Phone      string `json:"phone"`
	Status     string `json:"status"`
	Source     string `json:"source"`
	AssignedTo string `json:"assigned_to"`
}

func (r LeadRequest) input() services.LeadInput {
	return services.LeadInput{
		Name:       r.Name,
		Company:    r.Company,
		Email:      r.Email,
		Phone:      r.Phone,
		Status:     r.Status,
		Source:     r.Source,
		AssignedTo: r.AssignedTo,
	}
}

// ClientRequest is the body of client create and update requests.
type ClientRequest struct {
	Name    string `json:"name"    validate:"required"`
	Company string `json:"company"`
	Email   string `json:"email"   validate:"required"`
	Phone   string `json:"phone"`
}

func (r ClientRequest) input() services.ClientInput {
	return services.ClientInput{
		Name:    r.Name,
		Company: r.Company,
		Email:   r.Email,
		Phone:   r.Phone,
	}
}

// CreateActivityRequest is the body of an activity create request. A missing
// date means now.
type CreateActivityRequest struct {
	ParentType string     `json:"parent_type" validate:"required,oneof=lead client"`
	ParentID   int64      `json:"parent_id"   validate:"required,gt=0"`
	Type       string     `json:"type"        validate:"required"`
	Summary    string     `json:"summary"`
	Date       *time.Time `json:"date"`
}

func (r CreateActivityRequest) input() services.ActivityInput {
	input := services.ActivityInput{
		ParentType: models.ParentType(r.ParentType),
		ParentID:   r.ParentID,
		Type:       r.Type,
		Summary:    r.Summary,
	}

	if r.Date != nil {
		input.Date = *r.Date
	}

	return input
}

// ScanResponse reports an on-demand inactivity scan.
type ScanResponse struct {
	Fired int `json:"fired"`
}
