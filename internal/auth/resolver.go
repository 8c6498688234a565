package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marviero/backoffice/internal/domain"
	apperrors "github.com/marviero/backoffice/pkg/errors"
)

// Resolution errors. Callers map these onto their transport's error surface.
var (
	ErrNoToken      = errors.New("no token presented")
	ErrBadPurpose   = errors.New("wrong token purpose")
	ErrBadType      = errors.New("unknown user type")
	ErrUserNotFound = errors.New("user not found")
)

// UserLookup locates a staff user by the exact updated_at value.
type UserLookup interface {
	GetByUpdatedAt(ctx context.Context, updatedAt time.Time) (*domain.User, error)
}

// PublicUserLookup locates a public user by the exact updated_at value.
type PublicUserLookup interface {
	GetByUpdatedAt(ctx context.Context, updatedAt time.Time) (*domain.PublicUser, error)
}

// Resolver turns verified claims into a live identity. The lookup is an
// exact updated_at equality match: a token signed before any change to the
// row simply stops matching, which is the whole revocation mechanism.
type Resolver struct {
	users       UserLookup
	publicUsers PublicUserLookup
}

// NewResolver creates a resolver over the two account populations.
func NewResolver(users UserLookup, publicUsers PublicUserLookup) *Resolver {
	return &Resolver{users: users, publicUsers: publicUsers}
}

// Resolve checks the claim purpose and loads the subject from the table the
// claim type selects. A row that no longer matches the snapshot yields
// ErrUserNotFound, indistinguishable from a deleted account.
func (r *Resolver) Resolve(ctx context.Context, claims *Claims, want Purpose) (*domain.Identity, error) {
	if claims.Purpose != want {
		return nil, ErrBadPurpose
	}

	snapshot := claims.SnapshotTime()

	switch claims.Type {
	case domain.UserTypePrivate:
		u, err := r.users.GetByUpdatedAt(ctx, snapshot)
		if err != nil {
			return nil, resolveErr(err)
		}
		role, ok := domain.ParseRole(string(u.Role))
		if !ok {
			return nil, ErrUserNotFound
		}
		return &domain.Identity{
			ID:        u.ID,
			Email:     u.Email,
			Role:      role,
			Type:      domain.UserTypePrivate,
			ClientID:  u.ClientID,
			UpdatedAt: u.UpdatedAt,
		}, nil

	case domain.UserTypePublic:
		u, err := r.publicUsers.GetByUpdatedAt(ctx, snapshot)
		if err != nil {
			return nil, resolveErr(err)
		}
		return &domain.Identity{
			ID:        u.ID,
			Email:     u.Email,
			Role:      domain.RolePublicUser,
			Type:      domain.UserTypePublic,
			UpdatedAt: u.UpdatedAt,
		}, nil

	default:
		return nil, ErrBadType
	}
}

func resolveErr(err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return ErrUserNotFound
	}
	return fmt.Errorf("resolve identity: %w", err)
}
