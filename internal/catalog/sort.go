package catalog

import (
	"sort"

	"github.com/example/storefront-view/internal/upstream"
)

// effectivePrice is the price a shopper compares on: the discounted price
// when present, the list price otherwise.
func effectivePrice(p upstream.ProductSummary) int {
	if p.PriceDiscount != nil {
		return *p.PriceDiscount
	}
	return p.Price
}

// sortItems returns a sorted copy of items. The sort is stable: ties keep
// the server's input order. POPULAR orders by descending average rating
// with unrated products last.
func sortItems(items []upstream.ProductSummary, key Sort) []upstream.ProductSummary {
	sorted := append([]upstream.ProductSummary(nil), items...)

	switch key {
	case SortPriceAsc:
		sort.SliceStable(sorted, func(i, j int) bool {
			return effectivePrice(sorted[i]) < effectivePrice(sorted[j])
		})
	case SortPriceDesc:
		sort.SliceStable(sorted, func(i, j int) bool {
			return effectivePrice(sorted[i]) > effectivePrice(sorted[j])
		})
	case SortPopular:
		sort.SliceStable(sorted, func(i, j int) bool {
			ri, rj := sorted[i].AverageRating, sorted[j].AverageRating
			if ri == nil {
				return false
			}
			if rj == nil {
				return true
			}
			return *ri > *rj
		})
	}

	return sorted
}
