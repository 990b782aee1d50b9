package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
)

// ClientInput carries the editable fields of a client.
type ClientInput struct {
	Name    string
	Company string
	Email   string
	Phone   string
}

func (in ClientInput) validate(op string) error {
	if strings.TrimSpace(in.Name) == "" {
		return NewValidationError(op, "NAME_REQUIRED", "name is required", ErrNameRequired)
	}

	if strings.TrimSpace(in.Email) == "" {
		return NewValidationError(op, "EMAIL_REQUIRED", "email is required", ErrEmailRequired)
	}

	return nil
}

type Client struct {
	persistence persistence.Persistence
}

func NewClient(persistence persistence.Persistence) *Client {
	return &Client{persistence: persistence}
}

func (c *Client) List(ctx context.Context, filter persistence.ClientFilter) ([]*models.Client, error) {
	clients, err := c.persistence.ClientRepository().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	return clients, nil
}

func (c *Client) FetchByID(ctx context.Context, id int64) (*models.Client, error) {
	return c.persistence.ClientRepository().GetByID(ctx, id)
}

func (c *Client) Create(ctx context.Context, input ClientInput) (*models.Client, error) {
	err := input.validate("CreateClient")
	if err != nil {
		return nil, err
	}

	client := &models.Client{
		Name:    input.Name,
		Company: input.Company,
		Email:   input.Email,
		Phone:   input.Phone,
	}

	err = c.persistence.ClientRepository().Create(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

func (c *Client) Update(ctx context.Context, id int64, input ClientInput) (*models.Client, error) {
	err := input.validate("UpdateClient")
	if err != nil {
		return nil, err
	}

	repo := c.persistence.ClientRepository()

	client, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	client.Name = input.Name
	client.Company = input.Company
	client.Email = input.Email
	client.Phone = input.Phone

	err = repo.Update(ctx, client)
	if err != nil {
		return nil, err
	}

	return client, nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.persistence.ClientRepository().Delete(ctx, id)
}
