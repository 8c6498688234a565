package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/marviero/backoffice/internal/domain"
	"github.com/marviero/backoffice/internal/repository"
	"github.com/marviero/backoffice/pkg/pagination"
)

// SupplierService manages vendors.
type SupplierService struct {
	suppliers repository.SupplierRepository
	logger    *slog.Logger
}

// NewSupplierService creates the supplier service.
func NewSupplierService(suppliers repository.SupplierRepository, logger *slog.Logger) *SupplierService {
	return &SupplierService{suppliers: suppliers, logger: logger}
}

// SupplierInput holds the parameters for creating or updating a supplier.
type SupplierInput struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address string `json:"address,omitempty"`
}

// Create registers a new supplier.
func (s *SupplierService) Create(ctx context.Context, input SupplierInput) (*domain.Supplier, error) {
	now := domain.Now()
	supplier := &domain.Supplier{
		ID:        uuid.New().String(),
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		Address:   input.Address,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.suppliers.Create(ctx, supplier); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "supplier created", slog.String("supplier_id", supplier.ID))
	return supplier, nil
}

// Get returns one supplier.
func (s *SupplierService) Get(ctx context.Context, id string) (*domain.Supplier, error) {
	return s.suppliers.GetByID(ctx, id)
}

// List returns a page of suppliers.
func (s *SupplierService) List(ctx context.Context, params pagination.Params) (pagination.Result[domain.Supplier], error) {
	suppliers, total, err := s.suppliers.List(ctx, params)
	if err != nil {
		return pagination.Result[domain.Supplier]{}, err
	}
	return pagination.NewResult(suppliers, total, params), nil
}

// Update modifies a supplier.
func (s *SupplierService) Update(ctx context.Context, id string, input SupplierInput) (*domain.Supplier, error) {
	supplier, err := s.suppliers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	supplier.Name = input.Name
	supplier.Email = input.Email
	supplier.Phone = input.Phone
	supplier.Address = input.Address
	supplier.UpdatedAt = domain.Now()

	if err := s.suppliers.Update(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

// Delete removes a supplier.
func (s *SupplierService) Delete(ctx context.Context, id string) error {
	return s.suppliers.Delete(ctx, id)
}
