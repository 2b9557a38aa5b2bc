package http

import (
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andreluiz1987/product-store-search/internal/service"
	apperrors "github.com/andreluiz1987/product-store-search/pkg/errors"
	"github.com/andreluiz1987/product-store-search/pkg/health"
	"github.com/andreluiz1987/product-store-search/pkg/httputil"
	"github.com/andreluiz1987/product-store-search/pkg/middleware"
)

// RouterConfig collects the dependencies of the HTTP surface.
type RouterConfig struct {
	Service        *service.SearchService
	Health         *health.Handler
	Logger         *slog.Logger
	Metrics        *middleware.HTTPMetrics
	Gatherer       prometheus.Gatherer
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// NewRouter creates a chi router with all search service routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()

	cors := middleware.DefaultCORSConfig()
	if len(cfg.CORSOrigins) > 0 {
		cors.AllowedOrigins = cfg.CORSOrigins
	}

	// Global middleware
	r.Use(middleware.CORS(cors))
	r.Use(middleware.RequestLogging(cfg.Logger, "/health/live", "/health/ready", "/metrics"))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Tracing("search"))
	r.Use(middleware.RequestLogger(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Handler)
	}
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))

	// Health check endpoints
	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.LivenessHandler())
		r.Get("/health/ready", cfg.Health.ReadinessHandler())
	}
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))

	h := NewSearchHandler(cfg.Service, cfg.Logger)

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/search", h.Search)
		r.Get("/facets", h.Facets)

		r.Group(func(r chi.Router) {
			r.Use(requireJSON)
			r.Post("/index", h.IndexProduct)
			r.Post("/bulk", h.BulkIndex)
		})
		r.Delete("/{id}", h.DeleteProduct)
	})

	return r
}

// requireJSON rejects bodies that are not declared as JSON.
func requireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mt != "application/json" {
			httputil.WriteError(w, r, apperrors.InvalidInput("Content-Type must be application/json"), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
