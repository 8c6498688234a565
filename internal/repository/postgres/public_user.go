package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/marviero/backoffice/internal/domain"
	"github.com/marviero/backoffice/pkg/database"
	apperrors "github.com/marviero/backoffice/pkg/errors"
)

// PublicUserRepository persists storefront accounts.
type PublicUserRepository struct {
	db database.DBTX
}

// NewPublicUserRepository creates a PostgreSQL-backed public user repository.
func NewPublicUserRepository(db database.DBTX) *PublicUserRepository {
	return &PublicUserRepository{db: db}
}

const publicUserColumns = `id, email, password_hash, name, is_active, created_at, updated_at`

// Create inserts a new public user.
func (r *PublicUserRepository) Create(ctx context.Context, u *domain.PublicUser) error {
	query := `
		INSERT INTO public_users (id, email, password_hash, name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		u.ID,
		u.Email,
		u.PasswordHash,
		u.Name,
		u.IsActive,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("public user", "email", u.Email)
		}
		return fmt.Errorf("insert public user: %w", err)
	}

	return nil
}

// GetByID retrieves a public user by ID.
func (r *PublicUserRepository) GetByID(ctx context.Context, id string) (*domain.PublicUser, error) {
	query := `SELECT ` + publicUserColumns + ` FROM public_users WHERE id = $1`
	return r.scanPublicUser(ctx, query, id)
}

// GetByEmail retrieves a public user by email.
func (r *PublicUserRepository) GetByEmail(ctx context.Context, email string) (*domain.PublicUser, error) {
	query := `SELECT ` + publicUserColumns + ` FROM public_users WHERE email = $1`
	return r.scanPublicUser(ctx, query, email)
}

// GetByUpdatedAt locates the public user whose updated_at exactly equals the
// given timestamp. Same contract as the staff lookup: the snapshot either
// matches the live row or the token is dead.
func (r *PublicUserRepository) GetByUpdatedAt(ctx context.Context, updatedAt time.Time) (*domain.PublicUser, error) {
	query := `
		SELECT id, email, updated_at
		FROM public_users
		WHERE updated_at = $1 AND is_active = TRUE`

	var u domain.PublicUser
	err := r.db.QueryRow(ctx, query, updatedAt).Scan(
		&u.ID,
		&u.Email,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("lookup public user by updated_at: %w", err)
	}

	return &u, nil
}

// Update modifies a public user and bumps its updated_at.
func (r *PublicUserRepository) Update(ctx context.Context, u *domain.PublicUser) error {
	u.UpdatedAt = domain.Now()

	query := `
		UPDATE public_users
		SET email = $1, password_hash = $2, name = $3, is_active = $4, updated_at = $5
		WHERE id = $6`

	ct, err := r.db.Exec(ctx, query,
		u.Email,
		u.PasswordHash,
		u.Name,
		u.IsActive,
		u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("public user", "email", u.Email)
		}
		return fmt.Errorf("update public user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("public user", u.ID)
	}

	return nil
}

func (r *PublicUserRepository) scanPublicUser(ctx context.Context, query string, args ...any) (*domain.PublicUser, error) {
	var u domain.PublicUser
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan public user: %w", err)
	}

	return &u, nil
}
