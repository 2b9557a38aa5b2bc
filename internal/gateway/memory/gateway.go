package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/andreluiz1987/product-store-search/internal/domain"
	"github.com/andreluiz1987/product-store-search/internal/gateway"
	"github.com/andreluiz1987/product-store-search/internal/query"
)

// defaultBucketSize mirrors the Elasticsearch terms aggregation default.
const defaultBucketSize = 10

// Gateway is an in-memory implementation of gateway.Gateway and gateway.Indexer.
// Text matching is a case-insensitive token search over the text fields; a
// document scores one point per matching token. Ties keep insertion order.
// Thread-safe via sync.RWMutex.
type Gateway struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	order    []string
}

// New creates an empty in-memory gateway.
func New() *Gateway {
	return &Gateway{
		products: make(map[string]domain.Product),
	}
}

// Index adds or replaces a single product.
func (g *Gateway) Index(_ context.Context, product *domain.Product) error {
	if product.ID == "" {
		return fmt.Errorf("memory index: id is required")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.put(*product)
	return nil
}

// BulkIndex adds or replaces many products. Products without an id are
// reported as failures.
func (g *Gateway) BulkIndex(_ context.Context, products []domain.Product) (*gateway.BulkResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	result := &gateway.BulkResult{}
	for i := range products {
		if products[i].ID == "" {
			result.Failed = append(result.Failed, gateway.BulkFailure{Reason: "id is required"})
			continue
		}
		g.put(products[i])
		result.Indexed++
	}
	return result, nil
}

// Delete removes a product by id. Missing ids are ignored.
func (g *Gateway) Delete(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.products[id]; !ok {
		return nil
	}
	delete(g.products, id)
	for i, existing := range g.order {
		if existing == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return nil
}

// Ping always succeeds.
func (g *Gateway) Ping(_ context.Context) error {
	return nil
}

func (g *Gateway) put(p domain.Product) {
	id := string(p.ID)
	if _, ok := g.products[id]; !ok {
		g.order = append(g.order, id)
	}
	g.products[id] = p
}

// Search executes q and returns pinned documents first, then organic matches.
func (g *Gateway) Search(_ context.Context, q query.Effective, size int) (*gateway.SearchResponse, error) {
	start := time.Now()

	g.mu.RLock()
	defer g.mu.RUnlock()

	pinned := make([]domain.Product, 0, len(q.PinnedIDs))
	pinnedSet := make(map[string]struct{}, len(q.PinnedIDs))
	for _, id := range q.PinnedIDs {
		p, ok := g.products[id]
		if !ok {
			continue
		}
		pinned = append(pinned, p)
		pinnedSet[id] = struct{}{}
	}

	organic := g.match(q.Organic)
	ranked := make([]domain.Product, 0, len(pinned)+len(organic))
	ranked = append(ranked, pinned...)
	for _, p := range organic {
		if _, ok := pinnedSet[string(p.ID)]; ok {
			continue
		}
		ranked = append(ranked, p)
	}

	total := len(ranked)
	if size < 0 {
		size = 0
	}
	if size < len(ranked) {
		ranked = ranked[:size]
	}

	hits := make([]gateway.Hit, 0, len(ranked))
	for i := range ranked {
		src, err := project(ranked[i], q.Organic.Source)
		if err != nil {
			return nil, fmt.Errorf("memory search: %w", err)
		}
		hits = append(hits, gateway.Hit{ID: string(ranked[i].ID), Source: src})
	}

	return &gateway.SearchResponse{
		Hits:   hits,
		Total:  total,
		TookMs: time.Since(start).Milliseconds(),
	}, nil
}

// Aggregate counts distinct field values over the documents matching q.
// Buckets are ordered by descending count, then key.
func (g *Gateway) Aggregate(_ context.Context, q query.Faceted) (gateway.Aggregations, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	matched := g.match(q.Organic)

	aggs := make(gateway.Aggregations, len(q.Aggregations))
	for _, agg := range q.Aggregations {
		counts := make(map[string]int64)
		for i := range matched {
			for _, v := range fieldValues(matched[i], agg.Field) {
				counts[v]++
			}
		}

		buckets := make([]gateway.Bucket, 0, len(counts))
		for k, c := range counts {
			buckets = append(buckets, gateway.Bucket{Key: k, DocCount: c})
		}
		sort.Slice(buckets, func(i, j int) bool {
			if buckets[i].DocCount != buckets[j].DocCount {
				return buckets[i].DocCount > buckets[j].DocCount
			}
			return buckets[i].Key.(string) < buckets[j].Key.(string)
		})
		if len(buckets) > defaultBucketSize {
			buckets = buckets[:defaultBucketSize]
		}
		aggs[agg.Name] = buckets
	}

	return aggs, nil
}

// match returns the documents satisfying the organic query in rank order.
func (g *Gateway) match(q query.Organic) []domain.Product {
	var tokens []string
	if q.Must.Kind == query.MultiMatch {
		tokens = strings.Fields(strings.ToLower(q.Must.Text))
	}

	type scored struct {
		product domain.Product
		score   int
	}
	var matched []scored

	for _, id := range g.order {
		p := g.products[id]
		if !passesFilters(p, q.Filters) {
			continue
		}
		score := 0
		if q.Must.Kind == query.MultiMatch {
			score = textScore(p, q.Must.Fields, tokens)
			if score == 0 {
				continue
			}
		}
		matched = append(matched, scored{product: p, score: score})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].score > matched[j].score
	})

	out := make([]domain.Product, len(matched))
	for i := range matched {
		out[i] = matched[i].product
	}
	return out
}

func passesFilters(p domain.Product, filters []query.TermsFilter) bool {
	for _, f := range filters {
		found := false
		for _, v := range fieldValues(p, f.Field) {
			for _, want := range f.Values {
				if v == want {
					found = true
				}
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func textScore(p domain.Product, fields []string, tokens []string) int {
	score := 0
	for _, tok := range tokens {
		for _, field := range fields {
			hit := false
			for _, v := range fieldValues(p, field) {
				if strings.Contains(strings.ToLower(v), tok) {
					hit = true
					break
				}
			}
			if hit {
				score++
				break
			}
		}
	}
	return score
}

// fieldValues returns the exact-match values of a document field.
func fieldValues(p domain.Product, field string) []string {
	var v string
	switch field {
	case query.FieldID:
		v = string(p.ID)
	case query.FieldBrand, query.FieldBrandKeyword:
		v = p.Brand
	case query.FieldName:
		v = p.Name
	case query.FieldCategory:
		v = p.Category
	case query.FieldProductType:
		v = p.ProductType
	case query.FieldDescription:
		v = p.Description
	case query.FieldCurrency:
		v = p.Currency
	case query.FieldTagList:
		return p.TagList
	}
	if v == "" {
		return nil
	}
	return []string{v}
}

// project renders the stored document the way the engine returns `_source`,
// restricted to the requested fields.
func project(p domain.Product, include []string) (map[string]any, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	src, err := gateway.DecodeSource(raw)
	if err != nil {
		return nil, err
	}
	if len(include) == 0 {
		return src, nil
	}

	out := make(map[string]any, len(include))
	for _, field := range include {
		if v, ok := src[field]; ok {
			out[field] = v
		}
	}
	return out, nil
}
