package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/andreluiz1987/product-store-search/internal/domain"
	"github.com/andreluiz1987/product-store-search/internal/service"
	pkgkafka "github.com/andreluiz1987/product-store-search/pkg/kafka"
	"github.com/andreluiz1987/product-store-search/pkg/logger"
)

// Product catalogue topics consumed by the search service.
var (
	TopicProductCreated = pkgkafka.Topic("product", "created")
	TopicProductUpdated = pkgkafka.Topic("product", "updated")
	TopicProductDeleted = pkgkafka.Topic("product", "deleted")
)

// Topics lists every topic the consumer subscribes to.
func Topics() []string {
	return []string{TopicProductCreated, TopicProductUpdated, TopicProductDeleted}
}

// productDeletedData is the payload of a product.deleted event.
type productDeletedData struct {
	ID domain.DocumentID `json:"id"`
}

// Indexer is the part of the search service the consumer writes through.
type Indexer interface {
	IndexProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

var _ Indexer = (*service.SearchService)(nil)

// Consumer applies product change events to the search index.
type Consumer struct {
	indexer Indexer
	logger  *slog.Logger
}

// NewConsumer creates a new event consumer for the search service.
func NewConsumer(indexer Indexer, logger *slog.Logger) *Consumer {
	return &Consumer{
		indexer: indexer,
		logger:  logger,
	}
}

// Handle processes a Kafka event based on its type. Unknown types are
// acknowledged and ignored.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	if event.CorrelationID != "" {
		ctx = logger.WithCorrelationID(ctx, event.CorrelationID)
	}

	switch event.EventType {
	case TopicProductCreated, TopicProductUpdated:
		return c.upsert(ctx, event)
	case TopicProductDeleted:
		return c.delete(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

// upsert indexes the product document carried by a created or updated event.
func (c *Consumer) upsert(ctx context.Context, event *pkgkafka.Event) error {
	var product domain.Product
	if err := event.UnmarshalData(&product); err != nil {
		return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
	}
	if product.ID == "" {
		product.ID = domain.DocumentID(event.AggregateID)
	}

	if err := c.indexer.IndexProduct(ctx, &product); err != nil {
		return fmt.Errorf("index product from %s: %w", event.EventType, err)
	}

	c.logger.InfoContext(ctx, "indexed product from event",
		slog.String("event_type", event.EventType),
		slog.String("product_id", string(product.ID)),
	)
	return nil
}

// delete removes the product named by a deleted event.
func (c *Consumer) delete(ctx context.Context, event *pkgkafka.Event) error {
	var data productDeletedData
	if len(event.Data) > 0 {
		if err := event.UnmarshalData(&data); err != nil {
			return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
		}
	}
	id := string(data.ID)
	if id == "" {
		id = event.AggregateID
	}
	if id == "" {
		return errors.New("product.deleted event carries no product id")
	}

	if err := c.indexer.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("delete product from %s: %w", event.EventType, err)
	}

	c.logger.InfoContext(ctx, "deleted product from event",
		slog.String("product_id", id),
	)
	return nil
}
