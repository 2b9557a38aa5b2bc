// Package query builds the engine-neutral query values used by the search and
// facet flows. Every builder is a pure function of its input.
package query

import (
	"github.com/andreluiz1987/product-store-search/internal/domain"
)

// Field names of the product index.
const (
	FieldID           = "id"
	FieldBrand        = "brand"
	FieldBrandKeyword = "brand.keyword"
	FieldName         = "name"
	FieldPrice        = "price"
	FieldCurrency     = "currency"
	FieldImageLink    = "image_link"
	FieldCategory     = "category"
	FieldProductType  = "product_type"
	FieldDescription  = "description"
	FieldTagList      = "tag_list"
)

// TextFields are the fields a free-text term is matched against.
func TextFields() []string {
	return []string{FieldName, FieldCategory, FieldDescription}
}

// SourceFields is the fixed projection returned for every hit.
func SourceFields() []string {
	return []string{
		FieldID, FieldBrand, FieldName, FieldPrice,
		FieldCurrency, FieldImageLink, FieldCategory, FieldTagList,
	}
}

// ClauseKind identifies the scoring clause of an organic query.
type ClauseKind int

const (
	// MatchAll matches every document without biasing the score.
	MatchAll ClauseKind = iota
	// MultiMatch matches Text against Fields using engine relevance.
	MultiMatch
)

func (k ClauseKind) String() string {
	switch k {
	case MatchAll:
		return "match_all"
	case MultiMatch:
		return "multi_match"
	default:
		return "unknown"
	}
}

// Clause is the single scoring clause of an organic query.
type Clause struct {
	Kind   ClauseKind
	Text   string
	Fields []string
}

// TermsFilter restricts results to documents whose Field equals one of Values.
// It does not contribute to scoring.
type TermsFilter struct {
	Field  string
	Values []string
}

// Organic is the relevance-ranked boolean query built from a term and filters.
type Organic struct {
	Must    Clause
	Filters []TermsFilter
	Source  []string
}

// NormalizeFilters canonicalizes raw list-valued selections into sets.
// Absent input yields an empty set; it never fails.
func NormalizeFilters(categories, productTypes, brands []string) domain.Filters {
	return domain.Filters{
		Categories:   domain.NewStringSet(categories...),
		ProductTypes: domain.NewStringSet(productTypes...),
		Brands:       domain.NewStringSet(brands...),
	}
}

// Build returns the organic query for term and filters.
//
// An empty term matches everything. Each non-empty dimension adds exactly one
// terms filter, in the order category, product type, brand. Brand filters on
// the untokenized keyword sub-field so that display names match exactly.
func Build(term string, filters domain.Filters) Organic {
	q := Organic{
		Must:   Clause{Kind: MatchAll},
		Source: SourceFields(),
	}
	if term != "" {
		q.Must = Clause{Kind: MultiMatch, Text: term, Fields: TextFields()}
	}

	for _, d := range []struct {
		field string
		set   domain.StringSet
	}{
		{FieldCategory, filters.Categories},
		{FieldProductType, filters.ProductTypes},
		{FieldBrandKeyword, filters.Brands},
	} {
		if d.set.IsEmpty() {
			continue
		}
		q.Filters = append(q.Filters, TermsFilter{Field: d.field, Values: d.set.Values()})
	}

	return q
}
