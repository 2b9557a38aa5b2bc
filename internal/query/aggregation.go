package query

// Aggregation names, one per filter dimension.
const (
	AggProductTypes = "product_types"
	AggCategories   = "categories"
	AggBrands       = "brands"
)

// Aggregation is a term-frequency count over Field, reported under Name.
// No bucket cap is set, so the engine default applies and very
// high-cardinality dimensions may be truncated.
type Aggregation struct {
	Name  string
	Field string
}

// Faceted is an organic query augmented with facet aggregations. It is always
// executed with a zero-size result window.
type Faceted struct {
	Organic      Organic
	Aggregations []Aggregation
}

// WithFacets attaches the product type, category and brand aggregations.
func WithFacets(organic Organic) Faceted {
	return Faceted{
		Organic: organic,
		Aggregations: []Aggregation{
			{Name: AggProductTypes, Field: FieldProductType},
			{Name: AggCategories, Field: FieldCategory},
			{Name: AggBrands, Field: FieldBrandKeyword},
		},
	}
}
