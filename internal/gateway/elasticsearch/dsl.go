package elasticsearch

import (
	"encoding/json"
	"fmt"

	"github.com/olivere/elastic/v7"

	"github.com/andreluiz1987/product-store-search/internal/query"
)

// organicQuery renders the organic query as a bool query with one scoring
// clause and non-scoring terms filters.
func organicQuery(q query.Organic) elastic.Query {
	b := elastic.NewBoolQuery()

	switch q.Must.Kind {
	case query.MultiMatch:
		b.Must(elastic.NewMultiMatchQuery(q.Must.Text, q.Must.Fields...))
	default:
		b.Must(elastic.NewMatchAllQuery())
	}

	for _, f := range q.Filters {
		values := make([]interface{}, len(f.Values))
		for i, v := range f.Values {
			values[i] = v
		}
		b.Filter(elastic.NewTermsQuery(f.Field, values...))
	}

	return b
}

// effectiveQuery wraps the organic query in a pinned query when the search
// carries a promotion list.
func effectiveQuery(q query.Effective) elastic.Query {
	organic := organicQuery(q.Organic)
	if !q.IsPinned() {
		return organic
	}
	return elastic.NewPinnedQuery().Ids(q.PinnedIDs...).Organic(organic)
}

// searchBody renders the request body for a search.
func searchBody(q query.Effective, size int) ([]byte, error) {
	src := elastic.NewSearchSource().
		Query(effectiveQuery(q)).
		Size(size)
	if len(q.Organic.Source) > 0 {
		src = src.FetchSourceIncludeExclude(q.Organic.Source, nil)
	}
	return renderSource(src)
}

// aggregateBody renders the request body for a facet query. The result
// window is always empty.
func aggregateBody(q query.Faceted) ([]byte, error) {
	src := elastic.NewSearchSource().
		Query(organicQuery(q.Organic)).
		Size(0)
	for _, agg := range q.Aggregations {
		src = src.Aggregation(agg.Name, elastic.NewTermsAggregation().Field(agg.Field))
	}
	return renderSource(src)
}

func renderSource(src *elastic.SearchSource) ([]byte, error) {
	body, err := src.Source()
	if err != nil {
		return nil, fmt.Errorf("build search source: %w", err)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search source: %w", err)
	}
	return data, nil
}
