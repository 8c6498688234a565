package search

import (
	"context"

	"github.com/marviero/backoffice/internal/domain"
)

// Engine indexes products for full-text search. Implementations must
// tolerate repeated Index calls for the same product (upsert semantics).
type Engine interface {
	Index(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string, limit int) ([]domain.Product, error)
	Healthy(ctx context.Context) error
}
