package query

import (
	"github.com/andreluiz1987/product-store-search/internal/domain"
)

// Effective is the query actually sent for a search: the organic query,
// optionally wrapped with pinned document IDs.
//
// When PinnedIDs is non-empty the gateway must return the pinned documents
// first, in list order, followed by organic matches in organic rank order for
// the remaining slots. A pinned document never appears twice.
type Effective struct {
	Organic   Organic
	PinnedIDs []string
}

// IsPinned reports whether the query carries a promotion list.
func (e Effective) IsPinned() bool {
	return len(e.PinnedIDs) > 0
}

// Inject wraps organic with the promotion list. An empty list returns the
// organic query unchanged. Repeated IDs keep their first position only.
func Inject(organic Organic, pinned domain.PromotionList) Effective {
	if len(pinned) == 0 {
		return Effective{Organic: organic}
	}

	seen := make(map[string]struct{}, len(pinned))
	ids := make([]string, 0, len(pinned))
	for _, id := range pinned {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return Effective{Organic: organic, PinnedIDs: ids}
}
