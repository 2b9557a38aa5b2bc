package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreluiz1987/product-store-search/internal/domain"
	"github.com/andreluiz1987/product-store-search/internal/gateway"
	"github.com/andreluiz1987/product-store-search/internal/gateway/memory"
)

const sampleCatalogue = `[
	{"id": 1048, "brand": "colourpop", "name": "Lippie Pencil", "price": "5.0", "price_sign": "$", "currency": "CAD",
	 "image_link": "https://example.com/1048.png", "description": "Lippie Pencil A long-wearing pencil",
	 "rating": null, "category": "pencil", "product_type": "lip_liner", "tag_list": ["cruelty free", "Vegan"]},
	{"id": "1047", "brand": "colourpop", "name": "Blotted Lip", "price": 5.5, "category": "lipstick", "product_type": "lipstick", "tag_list": []},
	{"brand": "nyx", "name": "No id", "price": 1, "category": "pencil"}
]`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestDecode(t *testing.T) {
	products, err := Decode(strings.NewReader(sampleCatalogue))
	require.NoError(t, err)
	require.Len(t, products, 3)

	assert.Equal(t, domain.DocumentID("1048"), products[0].ID)
	assert.Equal(t, domain.Price(5.0), products[0].Price)
	assert.Nil(t, products[0].Rating)
	assert.Equal(t, []string{"cruelty free", "Vegan"}, products[0].TagList)
	assert.Equal(t, domain.DocumentID("1047"), products[1].ID)
	assert.Empty(t, products[2].ID)
}

func TestDecode_RejectsNonArray(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"id": 1}`))
	assert.Error(t, err)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalogue), 0o600))

	products, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, products, 3)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "open catalogue file")
}

func TestChunk(t *testing.T) {
	products := make([]domain.Product, 250)

	batches := Chunk(products, 100)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 100)
	assert.Len(t, batches[1], 100)
	assert.Len(t, batches[2], 50)

	assert.Len(t, Chunk(products, 0), 3)
	assert.Empty(t, Chunk(nil, 10))
	assert.Len(t, Chunk(products[:3], 10), 1)
}

func TestLoader_Load(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	gw := memory.New()

	products, err := Decode(strings.NewReader(sampleCatalogue))
	require.NoError(t, err)

	sum, err := NewLoader(gw, logger, 2).Load(context.Background(), products)
	require.NoError(t, err)

	assert.Equal(t, Summary{Batches: 2, Indexed: 2, Failed: 1}, sum)
	assert.Equal(t, 2, strings.Count(logs.String(), `"msg":"batch indexed"`))
	assert.Contains(t, logs.String(), `"succeeded":2`)
	assert.Contains(t, logs.String(), `"msg":"document rejected"`)
}

// failingIndexer fails from the given batch (1-based) onwards.
type failingIndexer struct {
	calls     int
	failFrom  int
	batchSize []int
}

func (f *failingIndexer) BulkIndex(_ context.Context, products []domain.Product) (*gateway.BulkResult, error) {
	f.calls++
	f.batchSize = append(f.batchSize, len(products))
	if f.calls >= f.failFrom {
		return nil, fmt.Errorf("%w: connection refused", domain.ErrGatewayUnavailable)
	}
	return &gateway.BulkResult{Indexed: len(products)}, nil
}

func TestLoader_StopsOnUnavailableEngine(t *testing.T) {
	idx := &failingIndexer{failFrom: 2}

	sum, err := NewLoader(idx, discardLogger(), 10).Load(context.Background(), make([]domain.Product, 35))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrGatewayUnavailable))
	assert.Contains(t, err.Error(), "batch 2")
	assert.Equal(t, Summary{Batches: 1, Indexed: 10}, sum)
	assert.Equal(t, 2, idx.calls)
}

func TestLoader_DefaultBatchSize(t *testing.T) {
	idx := &failingIndexer{failFrom: 1 << 30}

	sum, err := NewLoader(idx, discardLogger(), 0).Load(context.Background(), make([]domain.Product, 250))
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Batches)
	assert.Equal(t, []int{100, 100, 50}, idx.batchSize)
}

func TestLoader_LoadFileRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))

	_, err := NewLoader(memory.New(), discardLogger(), 10).LoadFile(context.Background(), path)
	assert.ErrorContains(t, err, "no products")
}
