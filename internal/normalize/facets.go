package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/andreluiz1987/product-store-search/internal/domain"
	"github.com/andreluiz1987/product-store-search/internal/gateway"
	"github.com/andreluiz1987/product-store-search/internal/query"
)

// Facets maps raw aggregation buckets to facet lists, preserving bucket order.
// A dimension the engine did not return yields an empty list.
func Facets(aggs gateway.Aggregations) (domain.FacetResult, error) {
	productTypes, err := facetBuckets(query.AggProductTypes, aggs[query.AggProductTypes])
	if err != nil {
		return domain.FacetResult{}, err
	}
	categories, err := facetBuckets(query.AggCategories, aggs[query.AggCategories])
	if err != nil {
		return domain.FacetResult{}, err
	}
	brands, err := facetBuckets(query.AggBrands, aggs[query.AggBrands])
	if err != nil {
		return domain.FacetResult{}, err
	}

	return domain.FacetResult{
		ProductTypes: productTypes,
		Categories:   categories,
		Brands:       brands,
	}, nil
}

func facetBuckets(name string, raw []gateway.Bucket) ([]domain.FacetBucket, error) {
	out := make([]domain.FacetBucket, 0, len(raw))
	for i, b := range raw {
		key, err := bucketKey(b.Key)
		if err != nil {
			return nil, &domain.MappingError{
				Field:  fmt.Sprintf("%s.buckets[%d].key", name, i),
				Reason: err.Error(),
			}
		}
		if b.DocCount < 0 {
			return nil, &domain.MappingError{
				Field:  fmt.Sprintf("%s.buckets[%d].doc_count", name, i),
				Reason: fmt.Sprintf("is negative (%d)", b.DocCount),
			}
		}
		out = append(out, domain.FacetBucket{Key: key, Count: b.DocCount})
	}
	return out, nil
}

func bucketKey(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case nil:
		return "", fmt.Errorf("is missing")
	default:
		return "", fmt.Errorf("has unexpected type %T", raw)
	}
}
