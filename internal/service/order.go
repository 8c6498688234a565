package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/marviero/backoffice/internal/domain"
	"github.com/marviero/backoffice/internal/event"
	"github.com/marviero/backoffice/internal/repository"
	apperrors "github.com/marviero/backoffice/pkg/errors"
	"github.com/marviero/backoffice/pkg/pagination"
)

// OrderService implements order business logic with tenant scoping.
type OrderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	events   *event.Producer
	logger   *slog.Logger
}

// NewOrderService creates the order service.
func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	events *event.Producer,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{orders: orders, products: products, events: events, logger: logger}
}

// OrderItemInput is one requested line of a new order.
type OrderItemInput struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderInput holds the parameters for creating an order.
type CreateOrderInput struct {
	Direction  string           `json:"direction" validate:"required,oneof=INBOUND OUTBOUND"`
	ClientID   *string          `json:"client_id,omitempty" validate:"omitempty,uuid4"`
	SupplierID *string          `json:"supplier_id,omitempty" validate:"omitempty,uuid4"`
	Notes      string           `json:"notes,omitempty"`
	Items      []OrderItemInput `json:"items" validate:"required,min=1,dive"`
}

// scopeFor derives the repository filter a caller is allowed to see. CLIENT
// identities only ever see their own tenant's orders.
func scopeFor(identity *domain.Identity) repository.OrderFilter {
	if identity.Type == domain.UserTypePrivate && identity.Role == domain.RoleClient {
		return repository.OrderFilter{ClientID: identity.ClientID}
	}
	return repository.OrderFilter{}
}

// Create builds an order from the requested lines, pricing each item at the
// product's current unit price, adjusts stock, and publishes order.created.
func (s *OrderService) Create(ctx context.Context, identity *domain.Identity, input CreateOrderInput) (*domain.Order, error) {
	if !domain.IsValidDirection(input.Direction) {
		return nil, apperrors.InvalidInput("direction must be INBOUND or OUTBOUND")
	}

	direction := domain.OrderDirection(input.Direction)
	switch direction {
	case domain.OrderOutbound:
		if input.ClientID == nil {
			return nil, apperrors.InvalidInput("outbound orders require a client_id")
		}
	case domain.OrderInbound:
		if input.SupplierID == nil {
			return nil, apperrors.InvalidInput("inbound orders require a supplier_id")
		}
	}
	if len(input.Items) == 0 {
		return nil, apperrors.InvalidInput("an order needs at least one item")
	}

	// CLIENT callers may only order for their own tenant
	if identity.Role == domain.RoleClient {
		if direction != domain.OrderOutbound {
			return nil, apperrors.Forbidden("Forbidden")
		}
		if identity.ClientID == nil || *input.ClientID != *identity.ClientID {
			return nil, apperrors.Forbidden("Forbidden")
		}
	}

	number, err := s.orders.NextNumber(ctx)
	if err != nil {
		return nil, err
	}

	now := domain.Now()
	order := &domain.Order{
		ID:         uuid.New().String(),
		Number:     number,
		Direction:  direction,
		Status:     domain.OrderStatusPending,
		ClientID:   input.ClientID,
		SupplierID: input.SupplierID,
		Notes:      input.Notes,
		Currency:   "EUR",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if direction == domain.OrderInbound {
		order.ClientID = nil
	} else {
		order.SupplierID = nil
	}

	for _, line := range input.Items {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("unknown product %s", line.ProductID))
		}
		order.Items = append(order.Items, domain.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   order.ID,
			ProductID: product.ID,
			SKU:       product.SKU,
			Name:      product.Name,
			Quantity:  line.Quantity,
			UnitPrice: product.UnitPrice,
		})
		order.Currency = product.Currency
	}
	order.RecalculateTotal()

	// outbound orders reserve stock up front; inbound orders add on arrival
	if direction == domain.OrderOutbound {
		for _, it := range order.Items {
			if err := s.products.AdjustStock(ctx, it.ProductID, -it.Quantity); err != nil {
				return nil, err
			}
		}
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	s.events.OrderCreated(ctx, order)
	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("number", order.Number),
		slog.String("direction", string(order.Direction)),
	)
	return order, nil
}

// Get returns one order within the caller's scope.
func (s *OrderService) Get(ctx context.Context, identity *domain.Identity, id string) (*domain.Order, error) {
	return s.orders.GetByID(ctx, id, scopeFor(identity))
}

// List returns a page of orders within the caller's scope.
func (s *OrderService) List(ctx context.Context, identity *domain.Identity, direction, status string, params pagination.Params) (pagination.Result[domain.Order], error) {
	filter := scopeFor(identity)
	filter.Direction = direction
	filter.Status = status

	orders, total, err := s.orders.List(ctx, filter, params)
	if err != nil {
		return pagination.Result[domain.Order]{}, err
	}
	return pagination.NewResult(orders, total, params), nil
}

// UpdateStatus moves an order through its lifecycle. Inbound orders restock
// their items on fulfillment. Publishes order.updated.
func (s *OrderService) UpdateStatus(ctx context.Context, identity *domain.Identity, id, status string) (*domain.Order, error) {
	if !domain.IsValidOrderStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown status %q", status))
	}

	order, err := s.orders.GetByID(ctx, id, scopeFor(identity))
	if err != nil {
		return nil, err
	}
	if !order.CanTransitionTo(status) {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot move order from %s to %s", order.Status, status))
	}

	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}

	if status == domain.OrderStatusFulfilled && order.Direction == domain.OrderInbound {
		for _, it := range order.Items {
			if err := s.products.AdjustStock(ctx, it.ProductID, it.Quantity); err != nil {
				s.logger.ErrorContext(ctx, "restock failed",
					slog.String("order_id", order.ID),
					slog.String("product_id", it.ProductID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
	// canceled outbound orders release their reservation
	if status == domain.OrderStatusCanceled && order.Direction == domain.OrderOutbound {
		for _, it := range order.Items {
			if err := s.products.AdjustStock(ctx, it.ProductID, it.Quantity); err != nil {
				s.logger.ErrorContext(ctx, "stock release failed",
					slog.String("order_id", order.ID),
					slog.String("product_id", it.ProductID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	order.Status = status
	order.UpdatedAt = domain.Now()

	s.events.OrderUpdated(ctx, order)
	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", order.ID),
		slog.String("status", status),
	)
	return order, nil
}
