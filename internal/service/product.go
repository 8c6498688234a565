package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/marviero/backoffice/internal/domain"
	"github.com/marviero/backoffice/internal/repository"
	"github.com/marviero/backoffice/internal/search"
	"github.com/marviero/backoffice/pkg/pagination"
)

// ProductService implements the product catalog with search indexing.
type ProductService struct {
	products repository.ProductRepository
	engine   search.Engine
	logger   *slog.Logger
}

// NewProductService creates the product service.
func NewProductService(products repository.ProductRepository, engine search.Engine, logger *slog.Logger) *ProductService {
	return &ProductService{products: products, engine: engine, logger: logger}
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	SKU         string  `json:"sku" validate:"required,max=64"`
	Name        string  `json:"name" validate:"required,max=255"`
	Description string  `json:"description,omitempty"`
	SupplierID  *string `json:"supplier_id,omitempty" validate:"omitempty,uuid4"`
	UnitPrice   int64   `json:"unit_price" validate:"required,gt=0"`
	Currency    string  `json:"currency" validate:"required,len=3"`
	Stock       int     `json:"stock" validate:"gte=0"`
}

// UpdateProductInput holds the parameters for updating a product.
type UpdateProductInput struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description string  `json:"description,omitempty"`
	SupplierID  *string `json:"supplier_id,omitempty" validate:"omitempty,uuid4"`
	UnitPrice   int64   `json:"unit_price" validate:"required,gt=0"`
	Currency    string  `json:"currency" validate:"required,len=3"`
	IsActive    bool    `json:"is_active"`
}

// index mirrors a product into the search engine. Indexing failures are
// logged and swallowed so the catalog stays writable when search is down.
func (s *ProductService) index(ctx context.Context, product *domain.Product) {
	if err := s.engine.Index(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "product indexing failed",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}
}

// Create adds a product to the catalog and indexes it.
func (s *ProductService) Create(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	now := domain.Now()
	product := &domain.Product{
		ID:          uuid.New().String(),
		SKU:         input.SKU,
		Name:        input.Name,
		Description: input.Description,
		SupplierID:  input.SupplierID,
		UnitPrice:   input.UnitPrice,
		Currency:    input.Currency,
		Stock:       input.Stock,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	s.index(ctx, product)
	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("sku", product.SKU),
	)
	return product, nil
}

// Get returns one product.
func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

// List returns a page of products.
func (s *ProductService) List(ctx context.Context, params pagination.Params) (pagination.Result[domain.Product], error) {
	products, total, err := s.products.List(ctx, params)
	if err != nil {
		return pagination.Result[domain.Product]{}, err
	}
	return pagination.NewResult(products, total, params), nil
}

// Update modifies a product and reindexes it.
func (s *ProductService) Update(ctx context.Context, id string, input UpdateProductInput) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Name = input.Name
	product.Description = input.Description
	product.SupplierID = input.SupplierID
	product.UnitPrice = input.UnitPrice
	product.Currency = input.Currency
	product.IsActive = input.IsActive
	product.UpdatedAt = domain.Now()

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}

	s.index(ctx, product)
	return product, nil
}

// Delete removes a product from the catalog and the search index.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.engine.Delete(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "product deindexing failed",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// Search queries the search engine.
func (s *ProductService) Search(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	return s.engine.Search(ctx, query, limit)
}
