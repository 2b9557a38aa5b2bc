package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/andreluiz1987/product-store-search/internal/config"
	"github.com/andreluiz1987/product-store-search/internal/gateway"
	esgateway "github.com/andreluiz1987/product-store-search/internal/gateway/elasticsearch"
	"github.com/andreluiz1987/product-store-search/internal/gateway/memory"
	"github.com/andreluiz1987/product-store-search/pkg/httpclient"
)

// Backend is the search engine selected by configuration.
type Backend struct {
	Gateway gateway.Gateway
	Indexer gateway.Indexer
	// ES is set when the engine is Elasticsearch.
	ES *esgateway.Gateway
}

// Ping checks that the engine is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	if b.ES == nil {
		return nil
	}
	return b.ES.Ping(ctx)
}

// EnsureIndex creates the product index when it is missing. It is a no-op
// for the in-memory engine.
func (b *Backend) EnsureIndex(ctx context.Context) (bool, error) {
	if b.ES == nil {
		return false, nil
	}
	return b.ES.EnsureIndex(ctx)
}

// NewBackend builds the engine named by cfg.SearchEngine. Elasticsearch
// requests go through a pooled transport guarded by a circuit breaker.
func NewBackend(cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	if cfg.SearchEngine == config.EngineMemory {
		mem := memory.New()
		logger.Info("in-memory search engine initialized")
		return &Backend{Gateway: mem, Indexer: mem}, nil
	}

	transport := httpclient.NewTransport(httpclient.TransportConfig{
		ResponseHeaderTimeout: cfg.GatewayTimeout,
		DialTimeout:           cfg.GatewayTimeout,
	})

	breakerCfg := httpclient.DefaultCircuitBreakerConfig("elasticsearch")
	breakerCfg.FailureRatio = cfg.BreakerFailureRatio
	breakerCfg.Timeout = cfg.BreakerOpenTimeout

	es, err := esgateway.New(esgateway.Config{
		Addresses:     cfg.ElasticsearchURLs,
		Index:         cfg.ElasticsearchIndex,
		MaxRetries:    cfg.ElasticsearchRetries,
		Transport:     httpclient.NewBreakerTransport(transport, breakerCfg, logger),
		SlowThreshold: cfg.SlowQueryThreshold,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init elasticsearch gateway: %w", err)
	}

	logger.Info("elasticsearch search engine initialized",
		slog.Any("addresses", cfg.ElasticsearchURLs),
		slog.String("index", es.IndexName()),
	)
	return &Backend{Gateway: es, Indexer: es, ES: es}, nil
}
