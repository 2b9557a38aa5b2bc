// Package ingest bulk-loads catalogue exports into the search index.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/andreluiz1987/product-store-search/internal/domain"
	"github.com/andreluiz1987/product-store-search/internal/gateway"
)

// DefaultBatchSize is the number of documents sent per bulk request.
const DefaultBatchSize = 100

// BulkIndexer indexes a batch of products.
type BulkIndexer interface {
	BulkIndex(ctx context.Context, products []domain.Product) (*gateway.BulkResult, error)
}

// Summary totals a load across all batches.
type Summary struct {
	Batches int
	Indexed int
	Failed  int
}

// ReadFile decodes a JSON array of product documents from path.
func ReadFile(path string) ([]domain.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalogue file: %w", err)
	}
	defer f.Close()

	products, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return products, nil
}

// Decode reads a JSON array of product documents.
func Decode(r io.Reader) ([]domain.Product, error) {
	var products []domain.Product
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

// Chunk splits products into consecutive batches of at most size documents.
// A non-positive size uses DefaultBatchSize.
func Chunk(products []domain.Product, size int) [][]domain.Product {
	if size <= 0 {
		size = DefaultBatchSize
	}
	batches := make([][]domain.Product, 0, (len(products)+size-1)/size)
	for start := 0; start < len(products); start += size {
		end := min(start+size, len(products))
		batches = append(batches, products[start:end])
	}
	return batches
}

// Loader sends products to the index batch by batch.
type Loader struct {
	indexer   BulkIndexer
	logger    *slog.Logger
	batchSize int
}

// NewLoader creates a loader. A non-positive batchSize uses DefaultBatchSize.
func NewLoader(indexer BulkIndexer, logger *slog.Logger, batchSize int) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Loader{indexer: indexer, logger: logger, batchSize: batchSize}
}

// Load indexes products. Rejected documents are counted and logged; a batch
// the engine could not accept at all stops the load and returns the totals
// so far.
func (l *Loader) Load(ctx context.Context, products []domain.Product) (Summary, error) {
	var sum Summary
	for i, batch := range Chunk(products, l.batchSize) {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		res, err := l.indexer.BulkIndex(ctx, batch)
		if err != nil {
			return sum, fmt.Errorf("batch %d: %w", i+1, err)
		}

		sum.Batches++
		sum.Indexed += res.Indexed
		sum.Failed += len(res.Failed)

		l.logger.InfoContext(ctx, "batch indexed",
			slog.Int("batch", i+1),
			slog.Int("succeeded", res.Indexed),
			slog.Int("failed", len(res.Failed)),
		)
		for _, f := range res.Failed {
			l.logger.WarnContext(ctx, "document rejected",
				slog.String("product_id", f.ID),
				slog.String("reason", f.Reason),
			)
		}
	}
	return sum, nil
}

// LoadFile reads path and loads its products.
func (l *Loader) LoadFile(ctx context.Context, path string) (Summary, error) {
	products, err := ReadFile(path)
	if err != nil {
		return Summary{}, err
	}
	if len(products) == 0 {
		return Summary{}, errors.New("catalogue file contains no products")
	}
	return l.Load(ctx, products)
}
