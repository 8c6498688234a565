package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marviero/backoffice/internal/domain"
	"github.com/marviero/backoffice/internal/repository"
	apperrors "github.com/marviero/backoffice/pkg/errors"
	"github.com/marviero/backoffice/pkg/pagination"
)

func newOrderTestFixture(t *testing.T) (*OrderRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewOrderRepository(mock), mock
}

func sampleOrder() *domain.Order {
	now := domain.Now()
	clientID := "cli-1"
	return &domain.Order{
		ID:        "ord-1",
		Number:    "ORD-000001",
		Direction: domain.OrderOutbound,
		Status:    domain.OrderStatusPending,
		ClientID:  &clientID,
		Items: []domain.OrderItem{
			{ID: "item-1", OrderID: "ord-1", ProductID: "prd-1", SKU: "SKU-1", Name: "Widget", Quantity: 2, UnitPrice: 1500},
		},
		TotalAmount: 3000,
		Currency:    "EUR",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func orderCols() []string {
	return []string{"id", "number", "direction", "status", "client_id", "supplier_id",
		"total_amount", "currency", "notes", "created_at", "updated_at"}
}

func orderRow(o *domain.Order) *pgxmock.Rows {
	return pgxmock.NewRows(orderCols()).AddRow(
		o.ID, o.Number, string(o.Direction), o.Status, o.ClientID, o.SupplierID,
		o.TotalAmount, o.Currency, o.Notes, o.CreatedAt, o.UpdatedAt,
	)
}

func TestOrderRepository_Create_TransactionWithItems(t *testing.T) {
	repo, mock := newOrderTestFixture(t)
	o := sampleOrder()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(o.ID, o.Number, o.Direction, o.Status, o.ClientID, o.SupplierID,
			o.TotalAmount, o.Currency, o.Notes, o.CreatedAt, o.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs("item-1", o.ID, "prd-1", "SKU-1", "Widget", 2, int64(1500)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), o))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_RollsBackOnItemFailure(t *testing.T) {
	repo, mock := newOrderTestFixture(t)
	o := sampleOrder()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(o.ID, o.Number, o.Direction, o.Status, o.ClientID, o.SupplierID,
			o.TotalAmount, o.Currency, o.Notes, o.CreatedAt, o.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs("item-1", o.ID, "prd-1", "SKU-1", "Widget", 2, int64(1500)).
		WillReturnError(pgx.ErrTxClosed)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), o)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByID_TenantScoped(t *testing.T) {
	repo, mock := newOrderTestFixture(t)
	o := sampleOrder()
	clientID := "cli-1"

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE id = \\$1 AND client_id = \\$2").
		WithArgs(o.ID, clientID).
		WillReturnRows(orderRow(o))
	mock.ExpectQuery("SELECT (.+) FROM order_items").
		WithArgs(o.ID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "order_id", "product_id", "sku", "name", "quantity", "unit_price"}).
			AddRow("item-1", o.ID, "prd-1", "SKU-1", "Widget", 2, int64(1500)))

	got, err := repo.GetByID(context.Background(), o.ID, repository.OrderFilter{ClientID: &clientID})
	require.NoError(t, err)
	assert.Equal(t, o.Number, got.Number)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(3000), got.Items[0].Subtotal())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByID_OtherTenantIsNotFound(t *testing.T) {
	repo, mock := newOrderTestFixture(t)
	otherClient := "cli-2"

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE id = \\$1 AND client_id = \\$2").
		WithArgs("ord-1", otherClient).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ord-1", repository.OrderFilter{ClientID: &otherClient})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOrderRepository_List_Filtered(t *testing.T) {
	repo, mock := newOrderTestFixture(t)
	o := sampleOrder()
	clientID := "cli-1"

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM orders WHERE client_id = \\$1 AND status = \\$2").
		WithArgs(clientID, domain.OrderStatusPending).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT (.+) FROM orders WHERE client_id = \\$1 AND status = \\$2 ORDER BY created_at DESC").
		WithArgs(clientID, domain.OrderStatusPending, 20, 0).
		WillReturnRows(orderRow(o))

	filter := repository.OrderFilter{ClientID: &clientID, Status: domain.OrderStatusPending}
	orders, total, err := repo.List(context.Background(), filter, pagination.Params{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, "ORD-000001", orders[0].Number)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	repo, mock := newOrderTestFixture(t)

	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(domain.OrderStatusConfirmed, pgxmock.AnyArg(), "ord-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, repo.UpdateStatus(context.Background(), "ord-1", domain.OrderStatusConfirmed))
}

func TestOrderRepository_UpdateStatus_NotFound(t *testing.T) {
	repo, mock := newOrderTestFixture(t)

	mock.ExpectExec("UPDATE orders SET status").
		WithArgs(domain.OrderStatusConfirmed, pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.OrderStatusConfirmed)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOrderRepository_NextNumber(t *testing.T) {
	repo, mock := newOrderTestFixture(t)

	mock.ExpectQuery("SELECT nextval").
		WillReturnRows(pgxmock.NewRows([]string{"nextval"}).AddRow(int64(123)))

	n, err := repo.NextNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ORD-000123", n)
}
