// Package gateway defines the contract between the search core and the
// document index that executes its queries.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/andreluiz1987/product-store-search/internal/domain"
	"github.com/andreluiz1987/product-store-search/internal/query"
)

// Gateway executes queries against the product index.
// Implementations may use Elasticsearch, in-memory storage, or other backends.
type Gateway interface {
	// Search executes q and returns at most size hits in rank order.
	Search(ctx context.Context, q query.Effective, size int) (*SearchResponse, error)

	// Aggregate executes q with a zero-size result window and returns only
	// the aggregation buckets.
	Aggregate(ctx context.Context, q query.Faceted) (Aggregations, error)
}

// Indexer writes catalog documents into the product index.
type Indexer interface {
	// Index adds or replaces a single document.
	Index(ctx context.Context, product *domain.Product) error

	// BulkIndex adds or replaces many documents. Per-document failures are
	// reported in the result; the error is reserved for whole-request failures.
	BulkIndex(ctx context.Context, products []domain.Product) (*BulkResult, error)

	// Delete removes a document by id. Deleting a missing document is not an error.
	Delete(ctx context.Context, id string) error
}

// Hit is one raw document returned by the index.
type Hit struct {
	ID     string
	Score  float64
	Source map[string]any
}

// SearchResponse is the raw result of a search.
type SearchResponse struct {
	Hits   []Hit
	Total  int
	TookMs int64
}

// Bucket is one raw aggregation bucket. Key is whatever the engine returned.
type Bucket struct {
	Key      any
	DocCount int64
}

// Aggregations maps an aggregation name to its buckets in engine order.
type Aggregations map[string][]Bucket

// BulkFailure describes a document rejected by a bulk request.
type BulkFailure struct {
	ID     string
	Reason string
}

// BulkResult summarizes a bulk request.
type BulkResult struct {
	Indexed int
	Failed  []BulkFailure
}

// DecodeSource decodes a raw `_source` object. Numbers are kept as
// json.Number so that ids and prices survive without float rounding.
func DecodeSource(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var src map[string]any
	if err := dec.Decode(&src); err != nil {
		return nil, err
	}
	return src, nil
}
