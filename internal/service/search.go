package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/andreluiz1987/product-store-search/internal/domain"
	"github.com/andreluiz1987/product-store-search/internal/gateway"
	"github.com/andreluiz1987/product-store-search/internal/normalize"
	"github.com/andreluiz1987/product-store-search/internal/query"
)

const (
	// DefaultPageSize is the number of hits returned when neither the request
	// nor the configuration sets one.
	DefaultPageSize = 20
	// MaxPageSize caps the per-request result window.
	MaxPageSize = 100
)

// SearchService implements the search and facet flows and the index-side
// operations used by ingestion.
type SearchService struct {
	gateway  gateway.Gateway
	indexer  gateway.Indexer
	logger   *slog.Logger
	pageSize int
}

// NewSearchService creates a new search service. A pageSize outside
// 1..MaxPageSize falls back to DefaultPageSize.
func NewSearchService(gw gateway.Gateway, idx gateway.Indexer, logger *slog.Logger, pageSize int) *SearchService {
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}
	return &SearchService{
		gateway:  gw,
		indexer:  idx,
		logger:   logger,
		pageSize: pageSize,
	}
}

// Search runs the search flow: build the organic query, pin the promoted ids,
// execute it and normalize the hits.
func (s *SearchService) Search(ctx context.Context, req domain.SearchRequest, promoted domain.PromotionList) ([]domain.ProductView, error) {
	size := req.Size
	if size <= 0 {
		size = s.pageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	q := query.Inject(query.Build(req.Term, req.Filters), promoted)

	res, err := s.gateway.Search(ctx, q, size)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	products, err := normalize.Products(res.Hits)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	s.logger.DebugContext(ctx, "search executed",
		slog.String("term", req.Term),
		slog.Int("hits", len(products)),
		slog.Int("total", res.Total),
		slog.Int("pinned", len(q.PinnedIDs)),
		slog.Int64("took_ms", res.TookMs),
	)

	return products, nil
}

// Facets runs the facet flow for the term and filters of req. The size of
// req is ignored.
func (s *SearchService) Facets(ctx context.Context, req domain.SearchRequest) (domain.FacetResult, error) {
	q := query.WithFacets(query.Build(req.Term, req.Filters))

	aggs, err := s.gateway.Aggregate(ctx, q)
	if err != nil {
		return domain.FacetResult{}, fmt.Errorf("facets: %w", err)
	}

	facets, err := normalize.Facets(aggs)
	if err != nil {
		return domain.FacetResult{}, fmt.Errorf("facets: %w", err)
	}

	s.logger.DebugContext(ctx, "facets computed",
		slog.String("term", req.Term),
		slog.Int("product_types", len(facets.ProductTypes)),
		slog.Int("categories", len(facets.Categories)),
		slog.Int("brands", len(facets.Brands)),
	)

	return facets, nil
}

// IndexProduct adds or replaces a single product in the index.
func (s *SearchService) IndexProduct(ctx context.Context, product *domain.Product) error {
	if product.ID == "" {
		return fmt.Errorf("index product: id is required")
	}

	if err := s.indexer.Index(ctx, product); err != nil {
		return fmt.Errorf("index product: %w", err)
	}

	s.logger.InfoContext(ctx, "product indexed",
		slog.String("product_id", string(product.ID)),
		slog.String("name", product.Name),
	)
	return nil
}

// BulkIndex adds or replaces many products. Rejected documents are reported
// in the result.
func (s *SearchService) BulkIndex(ctx context.Context, products []domain.Product) (*gateway.BulkResult, error) {
	result, err := s.indexer.BulkIndex(ctx, products)
	if err != nil {
		return nil, fmt.Errorf("bulk index: %w", err)
	}

	s.logger.InfoContext(ctx, "bulk index completed",
		slog.Int("indexed", result.Indexed),
		slog.Int("failed", len(result.Failed)),
	)
	return result, nil
}

// DeleteProduct removes a product from the index.
func (s *SearchService) DeleteProduct(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("delete product: id is required")
	}

	if err := s.indexer.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.logger.InfoContext(ctx, "product deleted from index",
		slog.String("product_id", id),
	)
	return nil
}
