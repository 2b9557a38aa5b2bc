package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreluiz1987/product-store-search/internal/domain"
	"github.com/andreluiz1987/product-store-search/internal/gateway"
	"github.com/andreluiz1987/product-store-search/internal/gateway/memory"
	"github.com/andreluiz1987/product-store-search/internal/query"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, products ...domain.Product) *SearchService {
	t.Helper()
	gw := memory.New()
	if len(products) > 0 {
		res, err := gw.BulkIndex(context.Background(), products)
		require.NoError(t, err)
		require.Empty(t, res.Failed)
	}
	return NewSearchService(gw, gw, newTestLogger(), DefaultPageSize)
}

func product(id, name, category, productType, brand string) domain.Product {
	return domain.Product{
		ID:          domain.DocumentID(id),
		Brand:       brand,
		Name:        name,
		Price:       12.5,
		Category:    category,
		ProductType: productType,
	}
}

// stubGateway returns canned results and records the last query it saw.
type stubGateway struct {
	searchRes *gateway.SearchResponse
	aggs      gateway.Aggregations
	err       error

	lastSearch query.Effective
	lastSize   int
	lastFacets query.Faceted
}

func (s *stubGateway) Search(_ context.Context, q query.Effective, size int) (*gateway.SearchResponse, error) {
	s.lastSearch, s.lastSize = q, size
	if s.err != nil {
		return nil, s.err
	}
	return s.searchRes, nil
}

func (s *stubGateway) Aggregate(_ context.Context, q query.Faceted) (gateway.Aggregations, error) {
	s.lastFacets = q
	if s.err != nil {
		return nil, s.err
	}
	return s.aggs, nil
}

func TestSearchService_IndexAndSearch(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	p := product("101", "Velvet Lipstick", "lipstick", "lipstick", "nyx")
	require.NoError(t, svc.IndexProduct(ctx, &p))

	views, err := svc.Search(ctx, domain.SearchRequest{Term: "velvet"}, nil)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "101", views[0].ID)
	assert.Equal(t, domain.DefaultCurrency, views[0].Currency)
	assert.Equal(t, []string{}, views[0].Tags)
}

func TestSearchService_SearchWithFiltersAndPromotion(t *testing.T) {
	svc := newTestService(t,
		product("1", "Pencil A", "pencil", "lip_liner", "nyx"),
		product("2", "Pencil B", "pencil", "lip_liner", "colourpop"),
		product("3", "Liquid C", "liquid", "eyeliner", "nyx"),
	)

	req := domain.SearchRequest{Filters: query.NormalizeFilters([]string{"pencil"}, nil, nil)}
	views, err := svc.Search(context.Background(), req, domain.PromotionList{"2"})
	require.NoError(t, err)

	ids := make([]string, len(views))
	for i, v := range views {
		ids[i] = v.ID
	}
	assert.Equal(t, []string{"2", "1"}, ids)
}

func TestSearchService_SearchPageSize(t *testing.T) {
	stub := &stubGateway{searchRes: &gateway.SearchResponse{}}

	tests := []struct {
		name     string
		pageSize int
		reqSize  int
		want     int
	}{
		{name: "configured default", pageSize: 20, want: 20},
		{name: "configured custom", pageSize: 7, want: 7},
		{name: "invalid config falls back", pageSize: 0, want: DefaultPageSize},
		{name: "request overrides", pageSize: 20, reqSize: 5, want: 5},
		{name: "request is capped", pageSize: 20, reqSize: 500, want: MaxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewSearchService(stub, nil, newTestLogger(), tt.pageSize)
			_, err := svc.Search(context.Background(), domain.SearchRequest{Size: tt.reqSize}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stub.lastSize)
		})
	}
}

func TestSearchService_EmptyPromotionLeavesQueryUnpinned(t *testing.T) {
	stub := &stubGateway{searchRes: &gateway.SearchResponse{}}
	svc := NewSearchService(stub, nil, newTestLogger(), DefaultPageSize)

	_, err := svc.Search(context.Background(), domain.SearchRequest{Term: "gloss"}, domain.PromotionList{})
	require.NoError(t, err)

	assert.False(t, stub.lastSearch.IsPinned())
	assert.Equal(t, query.Build("gloss", domain.Filters{}), stub.lastSearch.Organic)
}

func TestSearchService_GatewayUnavailable(t *testing.T) {
	stub := &stubGateway{err: fmt.Errorf("%w: elasticsearch search: connection refused", domain.ErrGatewayUnavailable)}
	svc := NewSearchService(stub, nil, newTestLogger(), DefaultPageSize)

	_, err := svc.Search(context.Background(), domain.SearchRequest{}, nil)
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)

	_, err = svc.Facets(context.Background(), domain.SearchRequest{})
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
}

func TestSearchService_MappingErrorIsPropagated(t *testing.T) {
	stub := &stubGateway{searchRes: &gateway.SearchResponse{
		Hits: []gateway.Hit{{ID: "x", Source: map[string]any{"id": "x", "name": "no brand"}}},
	}}
	svc := NewSearchService(stub, nil, newTestLogger(), DefaultPageSize)

	_, err := svc.Search(context.Background(), domain.SearchRequest{}, nil)

	var mErr *domain.MappingError
	require.True(t, errors.As(err, &mErr))
	assert.Equal(t, "brand", mErr.Field)
}

func TestSearchService_Facets(t *testing.T) {
	svc := newTestService(t,
		product("1", "A", "pencil", "lip_liner", "nyx"),
		product("2", "B", "pencil", "eyeliner", "nyx"),
		product("3", "C", "liquid", "eyeliner", "maybelline"),
	)

	facets, err := svc.Facets(context.Background(), domain.SearchRequest{})
	require.NoError(t, err)

	assert.Equal(t, []domain.FacetBucket{{Key: "eyeliner", Count: 2}, {Key: "lip_liner", Count: 1}}, facets.ProductTypes)
	assert.Equal(t, []domain.FacetBucket{{Key: "pencil", Count: 2}, {Key: "liquid", Count: 1}}, facets.Categories)
	assert.Equal(t, []domain.FacetBucket{{Key: "nyx", Count: 2}, {Key: "maybelline", Count: 1}}, facets.Brands)
}

func TestSearchService_FacetsPreserveEngineOrder(t *testing.T) {
	stub := &stubGateway{aggs: gateway.Aggregations{
		query.AggCategories: {{Key: "shoes", DocCount: 5}, {Key: "bags", DocCount: 2}},
	}}
	svc := NewSearchService(stub, nil, newTestLogger(), DefaultPageSize)

	facets, err := svc.Facets(context.Background(), domain.SearchRequest{Term: "leather"})
	require.NoError(t, err)

	assert.Equal(t, []domain.FacetBucket{{Key: "shoes", Count: 5}, {Key: "bags", Count: 2}}, facets.Categories)
	assert.Len(t, stub.lastFacets.Aggregations, 3)
	assert.Equal(t, query.MultiMatch, stub.lastFacets.Organic.Must.Kind)
}

func TestSearchService_IndexProduct_RequiresID(t *testing.T) {
	svc := newTestService(t)

	err := svc.IndexProduct(context.Background(), &domain.Product{Name: "Test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id is required")
}

func TestSearchService_BulkIndex(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.BulkIndex(context.Background(), []domain.Product{
		product("1", "A", "pencil", "lip_liner", "nyx"),
		{Name: "missing id"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Indexed)
	assert.Len(t, res.Failed, 1)
}

func TestSearchService_DeleteProduct(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, product("1", "Deletable Gloss", "lip_gloss", "lip_gloss", "nyx"))

	views, err := svc.Search(ctx, domain.SearchRequest{Term: "deletable"}, nil)
	require.NoError(t, err)
	require.Len(t, views, 1)

	require.NoError(t, svc.DeleteProduct(ctx, "1"))

	views, err = svc.Search(ctx, domain.SearchRequest{Term: "deletable"}, nil)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestSearchService_DeleteProduct_RequiresID(t *testing.T) {
	svc := newTestService(t)

	err := svc.DeleteProduct(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id is required")
}
