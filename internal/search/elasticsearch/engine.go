package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/marviero/backoffice/internal/domain"
)

// DefaultIndexName is the index used when none is configured.
const DefaultIndexName = "backoffice_products"

const indexMapping = `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0
  },
  "mappings": {
    "properties": {
      "id":          {"type": "keyword"},
      "sku":         {"type": "keyword"},
      "name":        {"type": "text"},
      "description": {"type": "text"},
      "unit_price":  {"type": "long"},
      "currency":    {"type": "keyword"},
      "stock":       {"type": "integer"},
      "is_active":   {"type": "boolean"},
      "updated_at":  {"type": "date"}
    }
  }
}`

// Engine indexes products in Elasticsearch.
type Engine struct {
	client *elasticsearch.Client
	index  string
	logger *slog.Logger
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source domain.Product `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type errorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// New connects to Elasticsearch and ensures the product index exists.
func New(url, index string, logger *slog.Logger) (*Engine, error) {
	if index == "" {
		index = DefaultIndexName
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{url}})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	e := &Engine{client: client, index: index, logger: logger}
	if err := e.ensureIndex(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) ensureIndex() error {
	res, err := e.client.Indices.Exists([]string{e.index})
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == 200 {
		return nil
	}

	res, err = e.client.Indices.Create(
		e.index,
		e.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("create index: %s", decodeError(res.Body, res.Status()))
	}

	e.logger.Info("elasticsearch index created", "index", e.index)
	return nil
}

// Healthy reports whether the cluster is reachable.
func (e *Engine) Healthy(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// Index upserts a single product document.
func (e *Engine) Index(ctx context.Context, product *domain.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}

	res, err := e.client.Index(
		e.index,
		bytes.NewReader(data),
		e.client.Index.WithDocumentID(product.ID),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index product: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("index product: %s", decodeError(res.Body, res.Status()))
	}
	return nil
}

// Delete removes a product document. A missing document is not an error.
func (e *Engine) Delete(ctx context.Context, id string) error {
	res, err := e.client.Delete(e.index, id, e.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete product: %s", decodeError(res.Body, res.Status()))
	}
	return nil
}

// Search runs a fuzzy multi-field query over active products.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}

	body := map[string]any{
		"size": limit,
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":     query,
						"fields":    []string{"name^3", "sku^2", "description"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"is_active": true},
				},
			},
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, fmt.Errorf("search products: %s", decodeError(res.Body, res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	products := make([]domain.Product, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		products = append(products, hit.Source)
	}
	return products, nil
}

func decodeError(body io.Reader, status string) string {
	var resp errorResponse
	if err := json.NewDecoder(body).Decode(&resp); err == nil && resp.Error.Type != "" {
		return fmt.Sprintf("%s: %s", resp.Error.Type, resp.Error.Reason)
	}
	return fmt.Sprintf("unexpected status %s", status)
}
