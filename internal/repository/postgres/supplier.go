package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/marviero/backoffice/internal/domain"
	"github.com/marviero/backoffice/pkg/database"
	apperrors "github.com/marviero/backoffice/pkg/errors"
	"github.com/marviero/backoffice/pkg/pagination"
)

// SupplierRepository persists vendors.
type SupplierRepository struct {
	db database.DBTX
}

// NewSupplierRepository creates a PostgreSQL-backed supplier repository.
func NewSupplierRepository(db database.DBTX) *SupplierRepository {
	return &SupplierRepository{db: db}
}

const supplierColumns = `id, name, email, phone, address, is_active, created_at, updated_at`

// Create inserts a new supplier.
func (r *SupplierRepository) Create(ctx context.Context, s *domain.Supplier) error {
	query := `
		INSERT INTO suppliers (id, name, email, phone, address, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		s.ID, s.Name, s.Email, s.Phone, s.Address, s.IsActive, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("supplier", "email", s.Email)
		}
		return fmt.Errorf("insert supplier: %w", err)
	}

	return nil
}

// GetByID retrieves a supplier by ID.
func (r *SupplierRepository) GetByID(ctx context.Context, id string) (*domain.Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers WHERE id = $1`

	var s domain.Supplier
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.Email, &s.Phone, &s.Address, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan supplier: %w", err)
	}

	return &s, nil
}

// List returns one page of suppliers ordered by name, plus the total count.
func (r *SupplierRepository) List(ctx context.Context, params pagination.Params) ([]domain.Supplier, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM suppliers`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count suppliers: %w", err)
	}

	query := `SELECT ` + supplierColumns + ` FROM suppliers ORDER BY name LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()

	suppliers := make([]domain.Supplier, 0, params.Limit)
	for rows.Next() {
		var s domain.Supplier
		if err := rows.Scan(
			&s.ID, &s.Name, &s.Email, &s.Phone, &s.Address, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan supplier row: %w", err)
		}
		suppliers = append(suppliers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate suppliers: %w", err)
	}

	return suppliers, total, nil
}

// Update modifies an existing supplier.
func (r *SupplierRepository) Update(ctx context.Context, s *domain.Supplier) error {
	s.UpdatedAt = domain.Now()

	query := `
		UPDATE suppliers
		SET name = $1, email = $2, phone = $3, address = $4, is_active = $5, updated_at = $6
		WHERE id = $7`

	ct, err := r.db.Exec(ctx, query,
		s.Name, s.Email, s.Phone, s.Address, s.IsActive, s.UpdatedAt, s.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("supplier", "email", s.Email)
		}
		return fmt.Errorf("update supplier: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("supplier", s.ID)
	}

	return nil
}

// Delete removes a supplier.
func (r *SupplierRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete supplier: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("supplier", id)
	}
	return nil
}
