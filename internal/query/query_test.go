package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreluiz1987/product-store-search/internal/domain"
)

func TestNormalizeFilters_NilInputYieldsEmptySets(t *testing.T) {
	f := NormalizeFilters(nil, nil, nil)

	assert.True(t, f.Categories.IsEmpty())
	assert.True(t, f.ProductTypes.IsEmpty())
	assert.True(t, f.Brands.IsEmpty())
}

func TestNormalizeFilters_CollapsesRepeatedValues(t *testing.T) {
	f := NormalizeFilters([]string{"bags", "bags"}, []string{"lipstick"}, []string{"nyx", "Nyx"})

	assert.Equal(t, []string{"bags"}, f.Categories.Values())
	assert.Equal(t, []string{"lipstick"}, f.ProductTypes.Values())
	assert.Equal(t, []string{"nyx", "Nyx"}, f.Brands.Values())
}

func TestBuild_EmptyTermUsesMatchAll(t *testing.T) {
	q := Build("", domain.Filters{})

	assert.Equal(t, MatchAll, q.Must.Kind)
	assert.Empty(t, q.Must.Text)
	assert.Empty(t, q.Must.Fields)
	assert.Empty(t, q.Filters)
}

func TestBuild_TermUsesMultiMatchOverTextFields(t *testing.T) {
	q := Build("matte lipstick", domain.Filters{})

	assert.Equal(t, MultiMatch, q.Must.Kind)
	assert.Equal(t, "matte lipstick", q.Must.Text)
	assert.Equal(t, []string{"name", "category", "description"}, q.Must.Fields)
}

func TestBuild_WhitespaceTermIsNotEmpty(t *testing.T) {
	q := Build(" ", domain.Filters{})

	assert.Equal(t, MultiMatch, q.Must.Kind)
}

func TestBuild_OneFilterPerNonEmptyDimension(t *testing.T) {
	tests := []struct {
		name    string
		filters domain.Filters
		want    []TermsFilter
	}{
		{
			name:    "no filters",
			filters: NormalizeFilters(nil, nil, nil),
			want:    nil,
		},
		{
			name:    "category only",
			filters: NormalizeFilters([]string{"bags"}, nil, nil),
			want:    []TermsFilter{{Field: "category", Values: []string{"bags"}}},
		},
		{
			name:    "product type only",
			filters: NormalizeFilters(nil, []string{"lipstick", "blush"}, nil),
			want:    []TermsFilter{{Field: "product_type", Values: []string{"lipstick", "blush"}}},
		},
		{
			name:    "brand uses keyword sub-field",
			filters: NormalizeFilters(nil, nil, []string{"maybelline"}),
			want:    []TermsFilter{{Field: "brand.keyword", Values: []string{"maybelline"}}},
		},
		{
			name:    "all dimensions in fixed order",
			filters: NormalizeFilters([]string{"pencil"}, []string{"lip_liner"}, []string{"nyx", "colourpop"}),
			want: []TermsFilter{
				{Field: "category", Values: []string{"pencil"}},
				{Field: "product_type", Values: []string{"lip_liner"}},
				{Field: "brand.keyword", Values: []string{"nyx", "colourpop"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Build("", tt.filters)
			assert.Equal(t, tt.want, q.Filters)
		})
	}
}

func TestBuild_FixedSourceProjection(t *testing.T) {
	q := Build("x", domain.Filters{})

	assert.Equal(t,
		[]string{"id", "brand", "name", "price", "currency", "image_link", "category", "tag_list"},
		q.Source,
	)
}

func TestBuild_EndToEndCategoryScenario(t *testing.T) {
	q := Build("", NormalizeFilters([]string{"bags"}, []string{}, []string{}))

	assert.Equal(t, MatchAll, q.Must.Kind)
	require.Len(t, q.Filters, 1)
	assert.Equal(t, TermsFilter{Field: "category", Values: []string{"bags"}}, q.Filters[0])
}

func TestInject_EmptyListIsNoOp(t *testing.T) {
	q := Build("mascara", NormalizeFilters([]string{"bags"}, nil, nil))

	assert.Equal(t, Effective{Organic: q}, Inject(q, nil))
	assert.Equal(t, Effective{Organic: q}, Inject(q, domain.PromotionList{}))
	assert.False(t, Inject(q, nil).IsPinned())
}

func TestInject_PreservesOrderAndDropsRepeats(t *testing.T) {
	q := Build("", domain.Filters{})

	e := Inject(q, domain.PromotionList{"A", "B", "A", "C"})

	assert.True(t, e.IsPinned())
	assert.Equal(t, []string{"A", "B", "C"}, e.PinnedIDs)
	assert.Equal(t, q, e.Organic)
}

func TestInject_CopiesCallerList(t *testing.T) {
	pinned := domain.PromotionList{"A", "B"}
	e := Inject(Build("", domain.Filters{}), pinned)

	pinned[0] = "Z"

	assert.Equal(t, []string{"A", "B"}, e.PinnedIDs)
}

func TestWithFacets_AddsThreeNamedAggregations(t *testing.T) {
	q := Build("", NormalizeFilters([]string{"bags"}, nil, nil))

	f := WithFacets(q)

	assert.Equal(t, q, f.Organic)
	assert.Equal(t, []Aggregation{
		{Name: "product_types", Field: "product_type"},
		{Name: "categories", Field: "category"},
		{Name: "brands", Field: "brand.keyword"},
	}, f.Aggregations)
}

func TestClauseKind_String(t *testing.T) {
	assert.Equal(t, "match_all", MatchAll.String())
	assert.Equal(t, "multi_match", MultiMatch.String())
	assert.Equal(t, "unknown", ClauseKind(9).String())
}
