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

// ClientRepository persists customer companies.
type ClientRepository struct {
	db database.DBTX
}

// NewClientRepository creates a PostgreSQL-backed client repository.
func NewClientRepository(db database.DBTX) *ClientRepository {
	return &ClientRepository{db: db}
}

const clientColumns = `id, name, email, phone, address, tax_id, is_active, created_at, updated_at`

// Create inserts a new client.
func (r *ClientRepository) Create(ctx context.Context, c *domain.Client) error {
	query := `
		INSERT INTO clients (id, name, email, phone, address, tax_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		c.ID, c.Name, c.Email, c.Phone, c.Address, c.TaxID, c.IsActive, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("client", "email", c.Email)
		}
		return fmt.Errorf("insert client: %w", err)
	}

	return nil
}

// GetByID retrieves a client by ID.
func (r *ClientRepository) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`

	var c domain.Client
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.TaxID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan client: %w", err)
	}

	return &c, nil
}

// List returns one page of clients ordered by name, plus the total count.
func (r *ClientRepository) List(ctx context.Context, params pagination.Params) ([]domain.Client, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM clients`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}

	query := `SELECT ` + clientColumns + ` FROM clients ORDER BY name LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	clients := make([]domain.Client, 0, params.Limit)
	for rows.Next() {
		var c domain.Client
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.TaxID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan client row: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate clients: %w", err)
	}

	return clients, total, nil
}

// Update modifies an existing client.
func (r *ClientRepository) Update(ctx context.Context, c *domain.Client) error {
	c.UpdatedAt = domain.Now()

	query := `
		UPDATE clients
		SET name = $1, email = $2, phone = $3, address = $4, tax_id = $5, is_active = $6, updated_at = $7
		WHERE id = $8`

	ct, err := r.db.Exec(ctx, query,
		c.Name, c.Email, c.Phone, c.Address, c.TaxID, c.IsActive, c.UpdatedAt, c.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("client", "email", c.Email)
		}
		return fmt.Errorf("update client: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("client", c.ID)
	}

	return nil
}

// Delete removes a client.
func (r *ClientRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("client", id)
	}
	return nil
}
