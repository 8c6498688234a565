package repository

import (
	"context"
	"time"

	"github.com/marviero/backoffice/internal/domain"
	"github.com/marviero/backoffice/pkg/pagination"
)

// OrderFilter narrows order queries. A non-nil ClientID enforces tenant
// scoping; Direction and Status filter when non-empty.
type OrderFilter struct {
	ClientID  *string
	Direction string
	Status    string
}

// UserRepository persists staff accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByUpdatedAt locates a user by the exact updated_at value a token
	// was signed against. Inactive users never match.
	GetByUpdatedAt(ctx context.Context, updatedAt time.Time) (*domain.User, error)

	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
}

// PublicUserRepository persists storefront accounts.
type PublicUserRepository interface {
	Create(ctx context.Context, user *domain.PublicUser) error
	GetByID(ctx context.Context, id string) (*domain.PublicUser, error)
	GetByEmail(ctx context.Context, email string) (*domain.PublicUser, error)
	GetByUpdatedAt(ctx context.Context, updatedAt time.Time) (*domain.PublicUser, error)
	Update(ctx context.Context, user *domain.PublicUser) error
}

// ClientRepository persists customer companies.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	List(ctx context.Context, params pagination.Params) ([]domain.Client, int, error)
	Update(ctx context.Context, client *domain.Client) error
	Delete(ctx context.Context, id string) error
}

// SupplierRepository persists vendors.
type SupplierRepository interface {
	Create(ctx context.Context, supplier *domain.Supplier) error
	GetByID(ctx context.Context, id string) (*domain.Supplier, error)
	List(ctx context.Context, params pagination.Params) ([]domain.Supplier, int, error)
	Update(ctx context.Context, supplier *domain.Supplier) error
	Delete(ctx context.Context, id string) error
}

// ProductRepository persists stocked items.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySKU(ctx context.Context, sku string) (*domain.Product, error)
	List(ctx context.Context, params pagination.Params) ([]domain.Product, int, error)
	Update(ctx context.Context, product *domain.Product) error
	AdjustStock(ctx context.Context, id string, delta int) error
	Delete(ctx context.Context, id string) error
}

// OrderRepository persists orders with their line items.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string, filter OrderFilter) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter, params pagination.Params) ([]domain.Order, int, error)
	UpdateStatus(ctx context.Context, id, status string) error
	NextNumber(ctx context.Context) (string, error)
}

// InvoiceRepository persists invoices.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *domain.Invoice) error
	GetByID(ctx context.Context, id string, clientID *string) (*domain.Invoice, error)
	List(ctx context.Context, clientID *string, params pagination.Params) ([]domain.Invoice, int, error)
	UpdateStatus(ctx context.Context, id, status string) error
	NextNumber(ctx context.Context) (string, error)
}
