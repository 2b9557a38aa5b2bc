package elasticsearch

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/andreluiz1987/product-store-search/internal/gateway/elasticsearch"

var (
	gatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_gateway_requests_total",
			Help: "Total number of requests sent to the search gateway",
		},
		[]string{"operation", "outcome"},
	)

	gatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_gateway_request_duration_seconds",
			Help:    "Search gateway request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// instrument starts a span for a gateway operation and returns a function
// that records its outcome. Call it via defer:
//
//	ctx, end := g.instrument(ctx, "search")
//	defer func() { end(err) }()
//
// Operations slower than the configured threshold are logged as warnings.
func (g *Gateway) instrument(ctx context.Context, operation string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "elasticsearch."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "elasticsearch"),
			attribute.String("db.operation", operation),
			attribute.String("db.elasticsearch.index", g.index),
		),
	)

	return ctx, func(err error) {
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		elapsed := time.Since(start)
		gatewayRequestsTotal.WithLabelValues(operation, outcome).Inc()
		gatewayRequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())

		if g.slowThreshold > 0 && elapsed >= g.slowThreshold {
			attrs := []any{
				slog.String("operation", operation),
				slog.String("index", g.index),
				slog.Duration("duration", elapsed),
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}
			g.logger.WarnContext(ctx, "slow search gateway request", attrs...)
		}
	}
}
