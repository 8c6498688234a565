package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/marviero/backoffice/internal/domain"
	"github.com/marviero/backoffice/pkg/database"
	apperrors "github.com/marviero/backoffice/pkg/errors"
	"github.com/marviero/backoffice/pkg/pagination"
)

// InvoiceRepository persists invoices.
type InvoiceRepository struct {
	db database.DBTX
}

// NewInvoiceRepository creates a PostgreSQL-backed invoice repository.
func NewInvoiceRepository(db database.DBTX) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

const invoiceColumns = `id, number, order_id, client_id, status, subtotal, tax_amount, total, currency, issued_at, due_at, created_at, updated_at`

// Create inserts a new invoice.
func (r *InvoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	query := `
		INSERT INTO invoices (id, number, order_id, client_id, status, subtotal, tax_amount, total, currency, issued_at, due_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Exec(ctx, query,
		inv.ID, inv.Number, inv.OrderID, inv.ClientID, inv.Status, inv.Subtotal,
		inv.TaxAmount, inv.Total, inv.Currency, inv.IssuedAt, inv.DueAt, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("invoice", "number", inv.Number)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}

	return nil
}

// GetByID retrieves an invoice. A non-nil clientID enforces tenant scoping.
func (r *InvoiceRepository) GetByID(ctx context.Context, id string, clientID *string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	args := []any{id}
	if clientID != nil {
		query += ` AND client_id = $2`
		args = append(args, *clientID)
	}

	var inv domain.Invoice
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&inv.ID, &inv.Number, &inv.OrderID, &inv.ClientID, &inv.Status, &inv.Subtotal,
		&inv.TaxAmount, &inv.Total, &inv.Currency, &inv.IssuedAt, &inv.DueAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan invoice: %w", err)
	}

	return &inv, nil
}

// List returns one page of invoices, newest first, plus the total count.
// A non-nil clientID scopes the page to that tenant.
func (r *InvoiceRepository) List(ctx context.Context, clientID *string, params pagination.Params) ([]domain.Invoice, int, error) {
	where := ""
	var args []any
	if clientID != nil {
		where = ` WHERE client_id = $1`
		args = append(args, *clientID)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM invoices`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	n := len(args)
	query := `SELECT ` + invoiceColumns + ` FROM invoices` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	invoices := make([]domain.Invoice, 0, params.Limit)
	for rows.Next() {
		var inv domain.Invoice
		if err := rows.Scan(
			&inv.ID, &inv.Number, &inv.OrderID, &inv.ClientID, &inv.Status, &inv.Subtotal,
			&inv.TaxAmount, &inv.Total, &inv.Currency, &inv.IssuedAt, &inv.DueAt, &inv.CreatedAt, &inv.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan invoice row: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate invoices: %w", err)
	}

	return invoices, total, nil
}

// UpdateStatus moves an invoice to a new status. The transition to ISSUED
// stamps issued_at and the due date thirty days out.
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, id, status string) error {
	now := domain.Now()

	query := `UPDATE invoices SET status = $1, updated_at = $2 WHERE id = $3`
	args := []any{status, now, id}
	if status == domain.InvoiceStatusIssued {
		query = `UPDATE invoices SET status = $1, updated_at = $2, issued_at = $2, due_at = $2 + INTERVAL '30 days' WHERE id = $3`
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("invoice", id)
	}
	return nil
}

// NextNumber reserves the next invoice number, formatted as INV-000042.
func (r *InvoiceRepository) NextNumber(ctx context.Context) (string, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT nextval('invoice_number_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("next invoice number: %w", err)
	}
	return fmt.Sprintf("INV-%06d", n), nil
}
