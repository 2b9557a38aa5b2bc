package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/andreluiz1987/product-store-search/internal/config"
	"github.com/andreluiz1987/product-store-search/internal/event"
	handler "github.com/andreluiz1987/product-store-search/internal/handler/http"
	"github.com/andreluiz1987/product-store-search/internal/service"
	"github.com/andreluiz1987/product-store-search/pkg/health"
	pkgkafka "github.com/andreluiz1987/product-store-search/pkg/kafka"
	"github.com/andreluiz1987/product-store-search/pkg/middleware"
)

// App wires together all dependencies and runs the search service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	consumer   *pkgkafka.Consumer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
// With Elasticsearch, the product index is created on startup when missing;
// a failure there is logged and left to the readiness check.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	backend, err := NewBackend(cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.EnsureIndexOnStartup {
		created, err := backend.EnsureIndex(ctx)
		switch {
		case err != nil:
			logger.Warn("could not ensure product index", slog.String("error", err.Error()))
		case created:
			logger.Info("product index created", slog.String("index", cfg.ElasticsearchIndex))
		}
	}

	searchService := service.NewSearchService(backend.Gateway, backend.Indexer, logger, cfg.PageSize)

	healthHandler := health.NewHandler(3 * time.Second)
	if backend.ES != nil {
		healthHandler.Register("elasticsearch", backend.Ping)
	}

	var consumer *pkgkafka.Consumer
	if cfg.KafkaEnabled {
		eventConsumer := event.NewConsumer(searchService, logger)
		consumer = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:   cfg.KafkaBrokers,
			GroupID:   cfg.KafkaGroupID,
			Topics:    event.Topics(),
			MinBytes:  1,
			MaxBytes:  10e6,
			DedupeTTL: 10 * time.Minute,
		}, eventConsumer.Handle, logger)

		healthHandler.RegisterOptional("kafka", func(ctx context.Context) error {
			return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
		})
		logger.Info("kafka consumer initialized",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.Any("topics", event.Topics()),
		)
	}

	router := handler.NewRouter(handler.RouterConfig{
		Service:        searchService,
		Health:         healthHandler,
		Logger:         logger,
		Metrics:        middleware.NewHTTPMetrics(prometheus.DefaultRegisterer, "search"),
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
	})

	return &App{
		cfg:      cfg,
		logger:   logger,
		consumer: consumer,
		httpServer: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}, nil
}

// Handler returns the HTTP handler served by the application.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and the Kafka consumer, blocking until the
// context is cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	return errors.Join(runErr, a.Shutdown())
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
