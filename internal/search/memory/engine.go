package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/marviero/backoffice/internal/domain"
)

// Engine is an in-memory fallback used when Elasticsearch is not
// configured. Matching is substring-based over name, SKU and description.
type Engine struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

// New creates an empty in-memory engine.
func New() *Engine {
	return &Engine{products: make(map[string]domain.Product)}
}

// Index adds or replaces a product.
func (e *Engine) Index(_ context.Context, product *domain.Product) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.products[product.ID] = *product
	return nil
}

// Delete removes a product. Unknown IDs are a no-op.
func (e *Engine) Delete(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.products, id)
	return nil
}

// Search returns active products whose name, SKU or description contains
// the query, case-insensitively, ordered by name.
func (e *Engine) Search(_ context.Context, query string, limit int) ([]domain.Product, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	q := strings.ToLower(query)
	matched := make([]domain.Product, 0)
	for _, p := range e.products {
		if !p.IsActive {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.SKU), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			continue
		}
		matched = append(matched, p)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Healthy always succeeds.
func (e *Engine) Healthy(_ context.Context) error {
	return nil
}
