package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/marviero/backoffice/internal/domain"
	"github.com/marviero/backoffice/internal/repository"
	"github.com/marviero/backoffice/pkg/pagination"
)

// ClientService manages customer companies.
type ClientService struct {
	clients repository.ClientRepository
	logger  *slog.Logger
}

// NewClientService creates the client service.
func NewClientService(clients repository.ClientRepository, logger *slog.Logger) *ClientService {
	return &ClientService{clients: clients, logger: logger}
}

// ClientInput holds the parameters for creating or updating a client.
type ClientInput struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address string `json:"address,omitempty"`
	TaxID   string `json:"tax_id,omitempty" validate:"omitempty,max=64"`
}

// Create registers a new client.
func (s *ClientService) Create(ctx context.Context, input ClientInput) (*domain.Client, error) {
	now := domain.Now()
	client := &domain.Client{
		ID:        uuid.New().String(),
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		Address:   input.Address,
		TaxID:     input.TaxID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.clients.Create(ctx, client); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "client created", slog.String("client_id", client.ID))
	return client, nil
}

// Get returns one client.
func (s *ClientService) Get(ctx context.Context, id string) (*domain.Client, error) {
	return s.clients.GetByID(ctx, id)
}

// List returns a page of clients.
func (s *ClientService) List(ctx context.Context, params pagination.Params) (pagination.Result[domain.Client], error) {
	clients, total, err := s.clients.List(ctx, params)
	if err != nil {
		return pagination.Result[domain.Client]{}, err
	}
	return pagination.NewResult(clients, total, params), nil
}

// Update modifies a client.
func (s *ClientService) Update(ctx context.Context, id string, input ClientInput) (*domain.Client, error) {
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	client.Name = input.Name
	client.Email = input.Email
	client.Phone = input.Phone
	client.Address = input.Address
	client.TaxID = input.TaxID
	client.UpdatedAt = domain.Now()

	if err := s.clients.Update(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

// Delete removes a client.
func (s *ClientService) Delete(ctx context.Context, id string) error {
	return s.clients.Delete(ctx, id)
}
