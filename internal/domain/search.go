package domain

// StringSet is an insertion-ordered set of opaque filter values.
// Duplicates collapse onto their first occurrence.
type StringSet struct {
	values []string
}

// NewStringSet builds a set from raw values. Values are kept verbatim:
// no trimming or case folding is applied.
func NewStringSet(values ...string) StringSet {
	if len(values) == 0 {
		return StringSet{}
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return StringSet{values: out}
}

// Len returns the number of distinct values.
func (s StringSet) Len() int { return len(s.values) }

// IsEmpty reports whether the set has no members.
func (s StringSet) IsEmpty() bool { return len(s.values) == 0 }

// Contains reports whether v is a member of the set.
func (s StringSet) Contains(v string) bool {
	for _, m := range s.values {
		if m == v {
			return true
		}
	}
	return false
}

// Values returns a copy of the members in first-seen order.
func (s StringSet) Values() []string {
	if len(s.values) == 0 {
		return nil
	}
	out := make([]string, len(s.values))
	copy(out, s.values)
	return out
}

// Filters holds the normalized selections for every filter dimension.
type Filters struct {
	Categories   StringSet
	ProductTypes StringSet
	Brands       StringSet
}

// SearchRequest is the typed input for both the search and the facet flows.
type SearchRequest struct {
	Term    string
	Filters Filters
	// Size is the page size for the search flow; zero means the service default.
	Size int
}

// PromotionList is an ordered list of document IDs pinned ahead of organic results.
type PromotionList []string

// ProductView is the normalized product record returned to callers.
type ProductView struct {
	ID        string   `json:"id"`
	Brand     string   `json:"brand"`
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	Currency  string   `json:"currency"`
	ImageLink string   `json:"image_link"`
	Category  string   `json:"category"`
	Tags      []string `json:"tags"`
}

// FacetBucket is a distinct dimension value with its document count.
type FacetBucket struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// FacetResult holds the facet counts for each filter dimension, in engine order.
type FacetResult struct {
	ProductTypes []FacetBucket `json:"product_types"`
	Categories   []FacetBucket `json:"categories"`
	Brands       []FacetBucket `json:"brands"`
}

// DefaultCurrency is applied when a document carries no currency.
const DefaultCurrency = "USD"
