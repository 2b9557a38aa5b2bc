package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/andreluiz1987/product-store-search/internal/domain"
	"github.com/andreluiz1987/product-store-search/internal/gateway"
)

// DefaultIndexName is the default Elasticsearch index used for product documents.
const DefaultIndexName = "products-catalog"

// indexMapping is the mapping of the product index. Brand is analyzed text
// with an exact keyword sub-field used by brand filters and facets.
const indexMapping = `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0
  },
  "mappings": {
    "properties": {
      "id":           { "type": "keyword" },
      "brand":        { "type": "text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } } },
      "name":         { "type": "text" },
      "price":        { "type": "float" },
      "price_sign":   { "type": "keyword" },
      "currency":     { "type": "keyword" },
      "image_link":   { "type": "keyword" },
      "description":  { "type": "text" },
      "rating":       { "type": "keyword" },
      "category":     { "type": "keyword" },
      "product_type": { "type": "keyword" },
      "tag_list":     { "type": "keyword" }
    }
  }
}`

// esBulkResponse is the structure used to decode Elasticsearch bulk responses.
type esBulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

// EnsureIndex creates the product index with its mapping unless it already
// exists. It reports whether the index was created.
func (g *Gateway) EnsureIndex(ctx context.Context) (created bool, err error) {
	res, err := g.client.Indices.Exists(
		[]string{g.index},
		g.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, unavailable("check index exists", err)
	}

	switch res.StatusCode {
	case http.StatusOK:
		_ = res.Body.Close()
		g.logger.InfoContext(ctx, "elasticsearch index already exists", slog.String("index", g.index))
		return false, nil
	case http.StatusNotFound:
		_ = res.Body.Close()
	default:
		defer func() { _ = res.Body.Close() }()
		return false, responseError("check index exists", res)
	}

	res, err = g.client.Indices.Create(
		g.index,
		g.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		g.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return false, unavailable("create index", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return false, responseError("create index", res)
	}

	g.logger.InfoContext(ctx, "elasticsearch index created", slog.String("index", g.index))
	return true, nil
}

// DeleteIndex removes the entire index. A missing index is not an error.
func (g *Gateway) DeleteIndex(ctx context.Context) error {
	res, err := g.client.Indices.Delete(
		[]string{g.index},
		g.client.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return unavailable("delete index", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete index", res)
	}

	g.logger.InfoContext(ctx, "elasticsearch index deleted", slog.String("index", g.index))
	return nil
}

// Index adds or replaces a single product.
func (g *Gateway) Index(ctx context.Context, product *domain.Product) (err error) {
	ctx, end := g.instrument(ctx, "index")
	defer func() { end(err) }()

	if product.ID == "" {
		return fmt.Errorf("elasticsearch index: id is required")
	}

	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("elasticsearch index: marshal product: %w", err)
	}

	res, err := g.client.Index(
		g.index,
		bytes.NewReader(data),
		g.client.Index.WithDocumentID(string(product.ID)),
		g.client.Index.WithRefresh("true"),
		g.client.Index.WithContext(ctx),
	)
	if err != nil {
		return unavailable("index", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError("index", res)
	}

	g.logger.DebugContext(ctx, "indexed product", slog.String("id", string(product.ID)))
	return nil
}

// BulkIndex adds or replaces many products with one bulk NDJSON request.
// Rejected documents are reported in the result rather than as an error.
func (g *Gateway) BulkIndex(ctx context.Context, products []domain.Product) (_ *gateway.BulkResult, err error) {
	result := &gateway.BulkResult{}
	if len(products) == 0 {
		return result, nil
	}

	ctx, end := g.instrument(ctx, "bulk")
	defer func() { end(err) }()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	sent := 0
	for i := range products {
		if products[i].ID == "" {
			result.Failed = append(result.Failed, gateway.BulkFailure{Reason: "id is required"})
			continue
		}

		action := map[string]any{
			"index": map[string]any{
				"_index": g.index,
				"_id":    string(products[i].ID),
			},
		}
		if err := enc.Encode(action); err != nil {
			return nil, fmt.Errorf("elasticsearch bulk index: encode action: %w", err)
		}
		if err := enc.Encode(&products[i]); err != nil {
			return nil, fmt.Errorf("elasticsearch bulk index: encode document: %w", err)
		}
		sent++
	}
	if sent == 0 {
		return result, nil
	}

	res, err := g.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		g.client.Bulk.WithIndex(g.index),
		g.client.Bulk.WithRefresh("true"),
		g.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return nil, unavailable("bulk index", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, responseError("bulk index", res)
	}

	var bulkResp esBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return nil, fmt.Errorf("elasticsearch bulk index: decode response: %w", err)
	}

	for _, item := range bulkResp.Items {
		if item.Index.Error.Type != "" {
			result.Failed = append(result.Failed, gateway.BulkFailure{
				ID:     item.Index.ID,
				Reason: fmt.Sprintf("%s: %s", item.Index.Error.Type, item.Index.Error.Reason),
			})
			continue
		}
		result.Indexed++
	}

	g.logger.InfoContext(ctx, "bulk indexed products",
		slog.Int("indexed", result.Indexed),
		slog.Int("failed", len(result.Failed)),
	)
	return result, nil
}

// Delete removes a product by id. A missing document is not an error.
func (g *Gateway) Delete(ctx context.Context, id string) (err error) {
	ctx, end := g.instrument(ctx, "delete")
	defer func() { end(err) }()

	res, err := g.client.Delete(
		g.index,
		id,
		g.client.Delete.WithRefresh("true"),
		g.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return unavailable("delete", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete", res)
	}

	g.logger.DebugContext(ctx, "deleted product", slog.String("id", id))
	return nil
}
