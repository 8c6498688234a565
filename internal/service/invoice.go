package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/marviero/backoffice/internal/domain"
	"github.com/marviero/backoffice/internal/event"
	"github.com/marviero/backoffice/internal/repository"
	apperrors "github.com/marviero/backoffice/pkg/errors"
	"github.com/marviero/backoffice/pkg/pagination"
)

// defaultPaymentTerm is how long clients have to settle an issued invoice.
const defaultPaymentTerm = 30 * 24 * time.Hour

// InvoiceNotifier delivers issued invoices to external systems.
type InvoiceNotifier interface {
	InvoiceIssued(ctx context.Context, invoice *domain.Invoice)
}

// InvoiceService implements invoicing for fulfilled outbound orders.
type InvoiceService struct {
	invoices repository.InvoiceRepository
	orders   repository.OrderRepository
	events   *event.Producer
	notifier InvoiceNotifier
	taxBps   int64
	logger   *slog.Logger
}

// NewInvoiceService creates the invoice service. taxBps is the tax rate in
// basis points, e.g. 2100 for 21%. notifier may be nil.
func NewInvoiceService(
	invoices repository.InvoiceRepository,
	orders repository.OrderRepository,
	events *event.Producer,
	notifier InvoiceNotifier,
	taxBps int64,
	logger *slog.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoices: invoices,
		orders:   orders,
		events:   events,
		notifier: notifier,
		taxBps:   taxBps,
		logger:   logger,
	}
}

// invoiceScope derives the tenant predicate a caller is allowed to see.
func invoiceScope(identity *domain.Identity) *string {
	if identity.Type == domain.UserTypePrivate && identity.Role == domain.RoleClient {
		return identity.ClientID
	}
	return nil
}

// CreateFromOrder drafts an invoice for a fulfilled outbound order.
func (s *InvoiceService) CreateFromOrder(ctx context.Context, identity *domain.Identity, orderID string) (*domain.Invoice, error) {
	order, err := s.orders.GetByID(ctx, orderID, repository.OrderFilter{ClientID: invoiceScope(identity)})
	if err != nil {
		return nil, err
	}
	if order.Direction != domain.OrderOutbound {
		return nil, apperrors.InvalidInput("only outbound orders can be invoiced")
	}
	if order.Status != domain.OrderStatusFulfilled {
		return nil, apperrors.Conflict(fmt.Sprintf("order %s is not fulfilled", order.Number))
	}
	if order.ClientID == nil {
		return nil, apperrors.Internal(fmt.Errorf("outbound order %s has no client", order.ID))
	}

	number, err := s.invoices.NextNumber(ctx)
	if err != nil {
		return nil, err
	}

	subtotal := order.TotalAmount
	tax := subtotal * s.taxBps / 10000
	now := domain.Now()
	invoice := &domain.Invoice{
		ID:        uuid.New().String(),
		Number:    number,
		OrderID:   order.ID,
		ClientID:  *order.ClientID,
		Status:    domain.InvoiceStatusDraft,
		Subtotal:  subtotal,
		TaxAmount: tax,
		Total:     subtotal + tax,
		Currency:  order.Currency,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.invoices.Create(ctx, invoice); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "invoice drafted",
		slog.String("invoice_id", invoice.ID),
		slog.String("number", invoice.Number),
		slog.String("order_id", order.ID),
	)
	return invoice, nil
}

// Get returns one invoice within the caller's scope.
func (s *InvoiceService) Get(ctx context.Context, identity *domain.Identity, id string) (*domain.Invoice, error) {
	return s.invoices.GetByID(ctx, id, invoiceScope(identity))
}

// List returns a page of invoices within the caller's scope.
func (s *InvoiceService) List(ctx context.Context, identity *domain.Identity, params pagination.Params) (pagination.Result[domain.Invoice], error) {
	invoices, total, err := s.invoices.List(ctx, invoiceScope(identity), params)
	if err != nil {
		return pagination.Result[domain.Invoice]{}, err
	}
	return pagination.NewResult(invoices, total, params), nil
}

// UpdateStatus moves an invoice through its lifecycle. Issuance stamps the
// issue and due dates, publishes invoice.issued and notifies the webhook.
func (s *InvoiceService) UpdateStatus(ctx context.Context, identity *domain.Identity, id, status string) (*domain.Invoice, error) {
	if !domain.IsValidInvoiceStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown status %q", status))
	}

	invoice, err := s.invoices.GetByID(ctx, id, invoiceScope(identity))
	if err != nil {
		return nil, err
	}
	if !invoice.CanTransitionTo(status) {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot move invoice from %s to %s", invoice.Status, status))
	}

	if err := s.invoices.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}

	invoice.Status = status
	invoice.UpdatedAt = domain.Now()

	if status == domain.InvoiceStatusIssued {
		issued := invoice.UpdatedAt
		due := issued.Add(defaultPaymentTerm)
		invoice.IssuedAt = &issued
		invoice.DueAt = &due

		s.events.InvoiceIssued(ctx, invoice)
		if s.notifier != nil {
			s.notifier.InvoiceIssued(ctx, invoice)
		}
	}

	s.logger.InfoContext(ctx, "invoice status updated",
		slog.String("invoice_id", invoice.ID),
		slog.String("status", status),
	)
	return invoice, nil
}
