// Package normalize turns raw gateway output into the canonical response
// values. It is the only place where a malformed engine result is detected.
package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/andreluiz1987/product-store-search/internal/domain"
	"github.com/andreluiz1987/product-store-search/internal/gateway"
	"github.com/andreluiz1987/product-store-search/internal/query"
)

// Products maps raw hits to product views, preserving hit order.
// Only currency, tags and image link have defaults; every other field is
// required and its absence is reported as a *domain.MappingError.
func Products(hits []gateway.Hit) ([]domain.ProductView, error) {
	views := make([]domain.ProductView, 0, len(hits))
	for i := range hits {
		v, err := product(hits[i])
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func product(hit gateway.Hit) (domain.ProductView, error) {
	src := hit.Source

	// A missing source id is reported against the engine's _id.
	docID, err := requiredString(src, query.FieldID, hit.ID)
	if err != nil {
		return domain.ProductView{}, err
	}

	brand, err := requiredString(src, query.FieldBrand, docID)
	if err != nil {
		return domain.ProductView{}, err
	}
	name, err := requiredString(src, query.FieldName, docID)
	if err != nil {
		return domain.ProductView{}, err
	}
	price, err := requiredNumber(src, query.FieldPrice, docID)
	if err != nil {
		return domain.ProductView{}, err
	}
	category, err := requiredString(src, query.FieldCategory, docID)
	if err != nil {
		return domain.ProductView{}, err
	}
	imageLink, err := optionalString(src, query.FieldImageLink, docID)
	if err != nil {
		return domain.ProductView{}, err
	}
	tags, err := optionalStrings(src, query.FieldTagList, docID)
	if err != nil {
		return domain.ProductView{}, err
	}

	currency, err := optionalString(src, query.FieldCurrency, docID)
	if err != nil {
		return domain.ProductView{}, err
	}
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	return domain.ProductView{
		ID:        docID,
		Brand:     brand,
		Name:      name,
		Price:     price,
		Currency:  currency,
		ImageLink: imageLink,
		Category:  category,
		Tags:      tags,
	}, nil
}

func requiredString(src map[string]any, field, docID string) (string, error) {
	raw, ok := src[field]
	if !ok || raw == nil {
		return "", missing(field, docID)
	}
	switch v := raw.(type) {
	case string:
		return v, nil
	case json.Number:
		// Numeric ids are common in catalog exports.
		if field == query.FieldID {
			return v.String(), nil
		}
	case float64:
		if field == query.FieldID {
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		}
	}
	return "", malformed(field, docID, raw)
}

func requiredNumber(src map[string]any, field, docID string) (float64, error) {
	raw, ok := src[field]
	if !ok || raw == nil {
		return 0, missing(field, docID)
	}
	switch v := raw.(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, malformed(field, docID, raw)
		}
		return f, nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		if v == "" {
			return 0, missing(field, docID)
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, malformed(field, docID, raw)
		}
		return f, nil
	default:
		return 0, malformed(field, docID, raw)
	}
}

func optionalString(src map[string]any, field, docID string) (string, error) {
	raw, ok := src[field]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", malformed(field, docID, raw)
	}
	return s, nil
}

func optionalStrings(src map[string]any, field, docID string) ([]string, error) {
	raw, ok := src[field]
	if !ok || raw == nil {
		return []string{}, nil
	}
	switch v := raw.(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, malformed(field, docID, raw)
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		// A keyword field indexed from a single value comes back unwrapped.
		return []string{v}, nil
	default:
		return nil, malformed(field, docID, raw)
	}
}

func missing(field, docID string) *domain.MappingError {
	return &domain.MappingError{DocumentID: docID, Field: field, Reason: "is missing"}
}

func malformed(field, docID string, raw any) *domain.MappingError {
	return &domain.MappingError{DocumentID: docID, Field: field, Reason: fmt.Sprintf("has unexpected type %T", raw)}
}
