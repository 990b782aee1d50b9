package models

import "time"

const (
	LeadStatusNew       = "new"
	LeadStatusConverted = "converted"
)

// Lead is a prospective customer tracked until it is converted into a Client.
type Lead struct {
	ID                  int64      `json:"id"`
	Name                string     `json:"name"`
	Company             string     `json:"company"`
	Email               string     `json:"email"`
	Phone               string     `json:"phone"`
	Status              string     `json:"status"`
	Source              string     `json:"source"`
	AssignedTo          string     `json:"assigned_to"`
	ConvertedToClientID *int64     `json:"converted_to_client_id"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	DeletedAt           *time.Time `json:"deleted_at,omitempty"`
}

// IsConverted reports whether a client was already created from this lead.
func (l *Lead) IsConverted() bool {
	return l.ConvertedToClientID != nil
}

// Record returns the flat snapshot handed to the workflow engine.
// converted_to_client_id is always present so the entity is detected as a lead.
func (l *Lead) Record() Record {
	record := Record{
		"id":                     l.ID,
		"name":                   l.Name,
		"company":                l.Company,
		"email":                  l.Email,
		"phone":                  l.Phone,
		"status":                 l.Status,
		"source":                 l.Source,
		"assigned_to":            l.AssignedTo,
		"converted_to_client_id": nil,
		"created_at":             l.CreatedAt,
		"updated_at":             l.UpdatedAt,
	}

	if l.ConvertedToClientID != nil {
		record["converted_to_client_id"] = *l.ConvertedToClientID
	}

	return record
}

// Client is a customer, optionally created by converting a Lead.
type Client struct {
	ID                  int64      `json:"id"`
	Name                string     `json:"name"`
	Company             string     `json:"company"`
	Email               string     `json:"email"`
	Phone               string     `json:"phone"`
	ConvertedFromLeadID *int64     `json:"converted_from_lead_id"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	DeletedAt           *time.Time `json:"deleted_at,omitempty"`
}

func (c *Client) Record() Record {
	record := Record{
		"id":                     c.ID,
		"name":                   c.Name,
		"company":                c.Company,
		"email":                  c.Email,
		"phone":                  c.Phone,
		"converted_from_lead_id": nil,
		"created_at":             c.CreatedAt,
		"updated_at":             c.UpdatedAt,
	}

	if c.ConvertedFromLeadID != nil {
		record["converted_from_lead_id"] = *c.ConvertedFromLeadID
	}

	return record
}

// ParentType names the kind of record an Activity is attached to.
type ParentType string

const (
	ParentLead   ParentType = "lead"
	ParentClient ParentType = "client"
)

func (p ParentType) Valid() bool {
	return p == ParentLead || p == ParentClient
}

// Activity is a dated note, call or meeting linked to a lead or a client.
type Activity struct {
	ID         int64      `json:"id"`
	ParentType ParentType `json:"parent_type"`
	ParentID   int64      `json:"parent_id"`
	Type       string     `json:"type"`
	Summary    string     `json:"summary"`
	Date       time.Time  `json:"date"`
	CreatedAt  time.Time  `json:"created_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}
