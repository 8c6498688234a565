package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marviero/backoffice/internal/domain"
	"github.com/marviero/backoffice/internal/event"
	apperrors "github.com/marviero/backoffice/pkg/errors"
	"github.com/marviero/backoffice/pkg/pagination"
)

type mockInvoiceRepository struct {
	mock.Mock
}

func (m *mockInvoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *mockInvoiceRepository) GetByID(ctx context.Context, id string, clientID *string) (*domain.Invoice, error) {
	args := m.Called(ctx, id, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *mockInvoiceRepository) List(ctx context.Context, clientID *string, params pagination.Params) ([]domain.Invoice, int, error) {
	args := m.Called(ctx, clientID, params)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Invoice), args.Int(1), args.Error(2)
}

func (m *mockInvoiceRepository) UpdateStatus(ctx context.Context, id, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockInvoiceRepository) NextNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type recordingNotifier struct {
	issued []*domain.Invoice
}

func (n *recordingNotifier) InvoiceIssued(_ context.Context, invoice *domain.Invoice) {
	n.issued = append(n.issued, invoice)
}

func newInvoiceService(invoices *mockInvoiceRepository, orders *mockOrderRepository, notifier InvoiceNotifier) *InvoiceService {
	logger := newTestLogger()
	producer := event.NewProducer(noopPublisher{}, logger)
	return NewInvoiceService(invoices, orders, producer, notifier, 2100, logger)
}

func fulfilledOutboundOrder(clientID string) *domain.Order {
	return &domain.Order{
		ID:          "order-1",
		Number:      "ORD-001000",
		Direction:   domain.OrderOutbound,
		Status:      domain.OrderStatusFulfilled,
		ClientID:    &clientID,
		TotalAmount: 10000,
		Currency:    "EUR",
	}
}

func TestCreateInvoice_Success(t *testing.T) {
	invoices := &mockInvoiceRepository{}
	orders := &mockOrderRepository{}
	svc := newInvoiceService(invoices, orders, nil)

	orders.On("GetByID", mock.Anything, "order-1", mock.Anything).Return(fulfilledOutboundOrder("client-1"), nil)
	invoices.On("NextNumber", mock.Anything).Return("INV-001000", nil)
	invoices.On("Create", mock.Anything, mock.Anything).Return(nil)

	inv, err := svc.CreateFromOrder(context.Background(), adminIdentity(), "order-1")

	require.NoError(t, err)
	assert.Equal(t, "INV-001000", inv.Number)
	assert.Equal(t, domain.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, "client-1", inv.ClientID)
	assert.Equal(t, int64(10000), inv.Subtotal)
	// 21% of 10000
	assert.Equal(t, int64(2100), inv.TaxAmount)
	assert.Equal(t, int64(12100), inv.Total)
	assert.Equal(t, "EUR", inv.Currency)
	assert.Nil(t, inv.IssuedAt)
	assert.Nil(t, inv.DueAt)
}

func TestCreateInvoice_RejectsInbound(t *testing.T) {
	invoices := &mockInvoiceRepository{}
	orders := &mockOrderRepository{}
	svc := newInvoiceService(invoices, orders, nil)

	order := fulfilledOutboundOrder("client-1")
	order.Direction = domain.OrderInbound
	order.ClientID = nil
	orders.On("GetByID", mock.Anything, "order-1", mock.Anything).Return(order, nil)

	_, err := svc.CreateFromOrder(context.Background(), adminIdentity(), "order-1")

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	invoices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateInvoice_RejectsUnfulfilledOrder(t *testing.T) {
	invoices := &mockInvoiceRepository{}
	orders := &mockOrderRepository{}
	svc := newInvoiceService(invoices, orders, nil)

	order := fulfilledOutboundOrder("client-1")
	order.Status = domain.OrderStatusPending
	orders.On("GetByID", mock.Anything, "order-1", mock.Anything).Return(order, nil)

	_, err := svc.CreateFromOrder(context.Background(), adminIdentity(), "order-1")

	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestCreateInvoice_ClientScopedToOwnOrders(t *testing.T) {
	invoices := &mockInvoiceRepository{}
	orders := &mockOrderRepository{}
	svc := newInvoiceService(invoices, orders, nil)

	// The repository applies the tenant filter, so a foreign order simply
	// does not come back.
	orders.On("GetByID", mock.Anything, "order-1", mock.Anything).Return(nil, apperrors.ErrNotFound)

	_, err := svc.CreateFromOrder(context.Background(), clientIdentity("client-2"), "order-1")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateInvoiceStatus_IssueStampsDatesAndNotifies(t *testing.T) {
	invoices := &mockInvoiceRepository{}
	orders := &mockOrderRepository{}
	notifier := &recordingNotifier{}
	svc := newInvoiceService(invoices, orders, notifier)

	draft := &domain.Invoice{
		ID:       "inv-1",
		Number:   "INV-001000",
		OrderID:  "order-1",
		ClientID: "client-1",
		Status:   domain.InvoiceStatusDraft,
		Subtotal: 10000,
		Total:    12100,
	}
	invoices.On("GetByID", mock.Anything, "inv-1", (*string)(nil)).Return(draft, nil)
	invoices.On("UpdateStatus", mock.Anything, "inv-1", domain.InvoiceStatusIssued).Return(nil)

	inv, err := svc.UpdateStatus(context.Background(), adminIdentity(), "inv-1", domain.InvoiceStatusIssued)

	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusIssued, inv.Status)
	require.NotNil(t, inv.IssuedAt)
	require.NotNil(t, inv.DueAt)
	assert.Equal(t, inv.IssuedAt.Add(defaultPaymentTerm), *inv.DueAt)
	require.Len(t, notifier.issued, 1)
	assert.Equal(t, "inv-1", notifier.issued[0].ID)
}

func TestUpdateInvoiceStatus_PaidDoesNotNotify(t *testing.T) {
	invoices := &mockInvoiceRepository{}
	orders := &mockOrderRepository{}
	notifier := &recordingNotifier{}
	svc := newInvoiceService(invoices, orders, notifier)

	issued := &domain.Invoice{
		ID:       "inv-1",
		ClientID: "client-1",
		Status:   domain.InvoiceStatusIssued,
	}
	invoices.On("GetByID", mock.Anything, "inv-1", (*string)(nil)).Return(issued, nil)
	invoices.On("UpdateStatus", mock.Anything, "inv-1", domain.InvoiceStatusPaid).Return(nil)

	inv, err := svc.UpdateStatus(context.Background(), adminIdentity(), "inv-1", domain.InvoiceStatusPaid)

	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, inv.Status)
	assert.Empty(t, notifier.issued)
}

func TestUpdateInvoiceStatus_InvalidTransition(t *testing.T) {
	invoices := &mockInvoiceRepository{}
	orders := &mockOrderRepository{}
	svc := newInvoiceService(invoices, orders, nil)

	paid := &domain.Invoice{ID: "inv-1", Status: domain.InvoiceStatusPaid}
	invoices.On("GetByID", mock.Anything, "inv-1", (*string)(nil)).Return(paid, nil)

	_, err := svc.UpdateStatus(context.Background(), adminIdentity(), "inv-1", domain.InvoiceStatusDraft)

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	invoices.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateInvoiceStatus_UnknownStatus(t *testing.T) {
	invoices := &mockInvoiceRepository{}
	orders := &mockOrderRepository{}
	svc := newInvoiceService(invoices, orders, nil)

	_, err := svc.UpdateStatus(context.Background(), adminIdentity(), "inv-1", "SHREDDED")

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	invoices.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
}

func TestListInvoices_ClientScoped(t *testing.T) {
	invoices := &mockInvoiceRepository{}
	orders := &mockOrderRepository{}
	svc := newInvoiceService(invoices, orders, nil)

	clientID := "client-1"
	params := pagination.Params{Limit: 20, Offset: 0}
	invoices.On("List", mock.Anything, &clientID, params).Return([]domain.Invoice{{ID: "inv-1"}}, 1, nil)

	result, err := svc.List(context.Background(), clientIdentity(clientID), params)

	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
	assert.Equal(t, 1, result.Meta.TotalCount)
	invoices.AssertExpectations(t)
}
