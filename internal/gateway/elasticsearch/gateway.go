// Package elasticsearch implements the search gateway on top of an
// Elasticsearch cluster.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/andreluiz1987/product-store-search/internal/domain"
	"github.com/andreluiz1987/product-store-search/internal/gateway"
	"github.com/andreluiz1987/product-store-search/internal/query"
)

// Config holds the connection settings of the gateway.
type Config struct {
	Addresses []string
	Index     string
	// MaxRetries of zero disables client-side retries.
	MaxRetries int
	// Transport replaces the default HTTP transport, e.g. with a circuit breaker.
	Transport http.RoundTripper
	// SlowThreshold enables slow request logging when positive.
	SlowThreshold time.Duration
}

// Gateway is an Elasticsearch-backed implementation of gateway.Gateway and
// gateway.Indexer.
type Gateway struct {
	client        *elasticsearch.Client
	index         string
	slowThreshold time.Duration
	logger        *slog.Logger
}

// esSearchResponse is the structure used to decode Elasticsearch search responses.
type esSearchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string          `json:"_id"`
			Score  *float64        `json:"_score"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// esAggregateResponse is the structure used to decode terms aggregations.
type esAggregateResponse struct {
	Aggregations map[string]struct {
		Buckets []struct {
			Key      any   `json:"key"`
			DocCount int64 `json:"doc_count"`
		} `json:"buckets"`
	} `json:"aggregations"`
}

// esErrorResponse is used to decode Elasticsearch error responses.
type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// New creates a gateway for cfg. It does not contact the cluster; use Ping or
// EnsureIndex for that.
func New(cfg Config, logger *slog.Logger) (*Gateway, error) {
	if cfg.Index == "" {
		cfg.Index = DefaultIndexName
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    cfg.Addresses,
		MaxRetries:   cfg.MaxRetries,
		DisableRetry: cfg.MaxRetries == 0,
		Transport:    cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}

	return &Gateway{
		client:        client,
		index:         cfg.Index,
		slowThreshold: cfg.SlowThreshold,
		logger:        logger,
	}, nil
}

// IndexName returns the name of the index the gateway reads and writes.
func (g *Gateway) IndexName() string {
	return g.index
}

// Ping checks whether the Elasticsearch cluster is reachable.
func (g *Gateway) Ping(ctx context.Context) error {
	res, err := g.client.Ping(g.client.Ping.WithContext(ctx))
	if err != nil {
		return unavailable("ping", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("%w: elasticsearch ping: unexpected status %s", domain.ErrGatewayUnavailable, res.Status())
	}
	return nil
}

// Search executes q and returns at most size raw hits in engine rank order.
func (g *Gateway) Search(ctx context.Context, q query.Effective, size int) (_ *gateway.SearchResponse, err error) {
	ctx, end := g.instrument(ctx, "search")
	defer func() { end(err) }()

	body, err := searchBody(q, size)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}

	res, err := g.client.Search(
		g.client.Search.WithIndex(g.index),
		g.client.Search.WithBody(bytes.NewReader(body)),
		g.client.Search.WithTrackTotalHits(true),
		g.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, unavailable("search", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, responseError("search", res)
	}

	var esResp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("%w: elasticsearch search: decode response: %w", domain.ErrMapping, err)
	}

	hits := make([]gateway.Hit, 0, len(esResp.Hits.Hits))
	for _, h := range esResp.Hits.Hits {
		src := map[string]any{}
		if len(h.Source) > 0 {
			src, err = gateway.DecodeSource(h.Source)
			if err != nil {
				return nil, &domain.MappingError{DocumentID: h.ID, Field: "_source", Reason: "is not an object"}
			}
		}
		hit := gateway.Hit{ID: h.ID, Source: src}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		hits = append(hits, hit)
	}

	g.logger.DebugContext(ctx, "search executed",
		slog.Int("hits", len(hits)),
		slog.Int("total", esResp.Hits.Total.Value),
		slog.Bool("pinned", q.IsPinned()),
	)

	return &gateway.SearchResponse{
		Hits:   hits,
		Total:  esResp.Hits.Total.Value,
		TookMs: esResp.Took,
	}, nil
}

// Aggregate executes the facet query and returns the raw buckets per
// aggregation name.
func (g *Gateway) Aggregate(ctx context.Context, q query.Faceted) (_ gateway.Aggregations, err error) {
	ctx, end := g.instrument(ctx, "aggregate")
	defer func() { end(err) }()

	body, err := aggregateBody(q)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch aggregate: %w", err)
	}

	res, err := g.client.Search(
		g.client.Search.WithIndex(g.index),
		g.client.Search.WithBody(bytes.NewReader(body)),
		g.client.Search.WithFilterPath("aggregations"),
		g.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, unavailable("aggregate", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, responseError("aggregate", res)
	}

	dec := json.NewDecoder(res.Body)
	dec.UseNumber()

	var esResp esAggregateResponse
	if err := dec.Decode(&esResp); err != nil {
		return nil, fmt.Errorf("%w: elasticsearch aggregate: decode response: %w", domain.ErrMapping, err)
	}

	aggs := make(gateway.Aggregations, len(esResp.Aggregations))
	for name, agg := range esResp.Aggregations {
		buckets := make([]gateway.Bucket, 0, len(agg.Buckets))
		for _, b := range agg.Buckets {
			buckets = append(buckets, gateway.Bucket{Key: b.Key, DocCount: b.DocCount})
		}
		aggs[name] = buckets
	}
	return aggs, nil
}

// unavailable wraps a transport failure: connection refused, timeout,
// cancellation or an open circuit breaker.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: elasticsearch %s: %w", domain.ErrGatewayUnavailable, op, err)
}

// responseError converts an error response. Server-side failures and
// throttling mean the gateway is unavailable; anything else is a rejected
// request.
func responseError(op string, res *esapi.Response) error {
	reason := errorReasonFromResponse(res)
	if res.StatusCode >= http.StatusInternalServerError || res.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: elasticsearch %s: %s", domain.ErrGatewayUnavailable, op, reason)
	}
	return fmt.Errorf("elasticsearch %s: %s", op, reason)
}

// errorReasonFromResponse extracts the error type and reason from an error
// response, falling back to the status and raw body.
func errorReasonFromResponse(res *esapi.Response) string {
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return "unexpected status " + res.Status()
	}

	var errResp esErrorResponse
	if err := json.Unmarshal(raw, &errResp); err == nil && errResp.Error.Type != "" {
		return fmt.Sprintf("%s: %s", errResp.Error.Type, errResp.Error.Reason)
	}
	if len(raw) == 0 {
		return "unexpected status " + res.Status()
	}
	return fmt.Sprintf("unexpected status %s: %s", res.Status(), bytes.TrimSpace(raw))
}
