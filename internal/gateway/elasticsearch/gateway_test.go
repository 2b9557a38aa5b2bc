package elasticsearch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreluiz1987/product-store-search/internal/domain"
	"github.com/andreluiz1987/product-store-search/internal/query"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeCluster is a minimal Elasticsearch stand-in that records requests and
// answers with canned responses.
type fakeCluster struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Body:   string(data),
	})
	status, body := f.status, f.body
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (f *fakeCluster) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newFakeGateway(t *testing.T, status int, body string) (*Gateway, *fakeCluster) {
	t.Helper()
	fake := &fakeCluster{status: status, body: body}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	g, err := New(Config{Addresses: []string{srv.URL}, Index: "test-products"}, testLogger())
	require.NoError(t, err)
	return g, fake
}

func TestGateway_SearchDecodesHits(t *testing.T) {
	g, fake := newFakeGateway(t, http.StatusOK, `{
		"took": 3,
		"hits": {
			"total": {"value": 2, "relation": "eq"},
			"hits": [
				{"_id": "1", "_score": 1.5, "_source": {"id": "1", "brand": "nyx", "name": "Liner", "price": 4.5, "category": "pencil"}},
				{"_id": "2", "_score": null, "_source": {"id": 2, "brand": "nyx", "name": "Gloss", "price": "7.0", "category": "lip_gloss"}}
			]
		}
	}`)

	res, err := g.Search(context.Background(), query.Inject(query.Build("liner", domain.Filters{}), nil), 20)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Total)
	assert.Equal(t, int64(3), res.TookMs)
	require.Len(t, res.Hits, 2)
	assert.Equal(t, "1", res.Hits[0].ID)
	assert.InDelta(t, 1.5, res.Hits[0].Score, 0.0001)
	assert.Equal(t, json.Number("4.5"), res.Hits[0].Source["price"])
	assert.Equal(t, json.Number("2"), res.Hits[1].Source["id"])
	assert.Zero(t, res.Hits[1].Score)

	req := fake.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/test-products/_search", req.Path)
	assert.Contains(t, req.Body, `"multi_match"`)
}

func TestGateway_AggregateDecodesBuckets(t *testing.T) {
	g, fake := newFakeGateway(t, http.StatusOK, `{
		"aggregations": {
			"categories": {"buckets": [{"key": "shoes", "doc_count": 5}, {"key": "bags", "doc_count": 2}]},
			"brands": {"buckets": [{"key": 42, "doc_count": 1}]}
		}
	}`)

	aggs, err := g.Aggregate(context.Background(), query.WithFacets(query.Build("", domain.Filters{})))
	require.NoError(t, err)

	require.Len(t, aggs["categories"], 2)
	assert.Equal(t, "shoes", aggs["categories"][0].Key)
	assert.Equal(t, int64(5), aggs["categories"][0].DocCount)
	assert.Equal(t, "bags", aggs["categories"][1].Key)
	assert.Equal(t, json.Number("42"), aggs["brands"][0].Key)
	assert.NotContains(t, aggs, "product_types")

	req := fake.last(t)
	assert.Contains(t, req.Query, "filter_path=aggregations")
	assert.Contains(t, req.Body, `"size":0`)
}

func TestGateway_ServerErrorIsUnavailable(t *testing.T) {
	g, _ := newFakeGateway(t, http.StatusServiceUnavailable,
		`{"error":{"type":"cluster_block_exception","reason":"blocked"},"status":503}`)

	_, err := g.Search(context.Background(), query.Inject(query.Build("", domain.Filters{}), nil), 20)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrGatewayUnavailable))
	assert.Contains(t, err.Error(), "cluster_block_exception")

	_, err = g.Aggregate(context.Background(), query.WithFacets(query.Build("", domain.Filters{})))
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
}

func TestGateway_BadRequestIsNotUnavailable(t *testing.T) {
	g, _ := newFakeGateway(t, http.StatusBadRequest,
		`{"error":{"type":"parsing_exception","reason":"unknown query"},"status":400}`)

	_, err := g.Search(context.Background(), query.Inject(query.Build("", domain.Filters{}), nil), 20)
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrGatewayUnavailable))
	assert.Contains(t, err.Error(), "parsing_exception: unknown query")
}

func TestGateway_UnreachableClusterIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	g, err := New(Config{Addresses: []string{addr}}, testLogger())
	require.NoError(t, err)

	_, err = g.Search(context.Background(), query.Inject(query.Build("", domain.Filters{}), nil), 20)
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)

	assert.ErrorIs(t, g.Ping(context.Background()), domain.ErrGatewayUnavailable)
}

func TestGateway_MalformedBodyIsMappingError(t *testing.T) {
	g, _ := newFakeGateway(t, http.StatusOK, `{"hits": [`)

	_, err := g.Search(context.Background(), query.Inject(query.Build("", domain.Filters{}), nil), 20)
	assert.ErrorIs(t, err, domain.ErrMapping)
}

func TestGateway_BulkIndexReportsItemFailures(t *testing.T) {
	g, fake := newFakeGateway(t, http.StatusOK, `{
		"errors": true,
		"items": [
			{"index": {"_id": "1", "status": 201}},
			{"index": {"_id": "2", "status": 400, "error": {"type": "mapper_parsing_exception", "reason": "failed to parse field [price]"}}}
		]
	}`)

	res, err := g.BulkIndex(context.Background(), []domain.Product{
		{ID: "1", Brand: "nyx", Name: "Liner", Price: 4.5, Category: "pencil"},
		{ID: "2", Brand: "nyx", Name: "Gloss", Category: "lip_gloss"},
		{Name: "no id"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Indexed)
	require.Len(t, res.Failed, 2)
	assert.Equal(t, "id is required", res.Failed[0].Reason)
	assert.Equal(t, "2", res.Failed[1].ID)
	assert.Contains(t, res.Failed[1].Reason, "mapper_parsing_exception")

	req := fake.last(t)
	assert.Equal(t, "/test-products/_bulk", req.Path)
	lines := strings.Split(strings.TrimSpace(req.Body), "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, lines[0], `"_id":"1"`)
}

func TestGateway_BulkIndexEmptyIsNoop(t *testing.T) {
	g, fake := newFakeGateway(t, http.StatusOK, `{}`)

	res, err := g.BulkIndex(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, res.Indexed)
	assert.Empty(t, fake.requests)
}

func TestGateway_DeleteIgnoresNotFound(t *testing.T) {
	g, fake := newFakeGateway(t, http.StatusNotFound, `{"result":"not_found"}`)

	require.NoError(t, g.Delete(context.Background(), "missing"))

	req := fake.last(t)
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/test-products/_doc/missing", req.Path)
}

func TestGateway_EnsureIndexSkipsExisting(t *testing.T) {
	g, fake := newFakeGateway(t, http.StatusOK, ``)

	created, err := g.EnsureIndex(context.Background())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, fake.requests, 1)
	assert.Equal(t, http.MethodHead, fake.requests[0].Method)
}

func TestGateway_EnsureIndexCreatesMissing(t *testing.T) {
	fake := &fakeCluster{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			fake.mu.Lock()
			fake.status = http.StatusNotFound
			fake.mu.Unlock()
		} else {
			fake.mu.Lock()
			fake.status, fake.body = http.StatusOK, `{"acknowledged":true}`
			fake.mu.Unlock()
		}
		fake.ServeHTTP(w, r)
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := New(Config{Addresses: []string{srv.URL}, Index: "test-products"}, testLogger())
	require.NoError(t, err)

	created, err := g.EnsureIndex(context.Background())
	require.NoError(t, err)
	assert.True(t, created)

	req := fake.last(t)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/test-products", req.Path)

	var mapping map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.Body), &mapping))
	props := mapping["mappings"].(map[string]any)["properties"].(map[string]any)
	assert.Contains(t, props, "brand")
	assert.NotContains(t, props, "description_embeddings")
}

func TestGateway_EnsureIndexDoesNotCreateOnExistsFailure(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		unavailable bool
	}{
		{name: "server error", status: http.StatusServiceUnavailable, unavailable: true},
		{name: "unauthorized", status: http.StatusUnauthorized, unavailable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, fake := newFakeGateway(t, tt.status, ``)

			created, err := g.EnsureIndex(context.Background())
			require.Error(t, err)
			assert.False(t, created)
			assert.Equal(t, tt.unavailable, errors.Is(err, domain.ErrGatewayUnavailable))
			assert.Contains(t, err.Error(), "check index exists")

			require.Len(t, fake.requests, 1)
			assert.Equal(t, http.MethodHead, fake.requests[0].Method)
		})
	}
}
