package catalog

import (
	"sort"
	"strings"

	"storefront-service/internal/models"
)

// SortProducts returns a sorted copy; the input is never reordered. An
// unknown option behaves like the default (API order).
func SortProducts(products []models.Product, option string) []models.Product {
	out := make([]models.Product, len(products))
	copy(out, products)

	switch option {
	case models.SortPriceLow:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Price.LessThan(out[j].Price)
		})
	case models.SortPriceHigh:
		sort.SliceStable(out, func(i, j int) bool {
			return out[j].Price.LessThan(out[i].Price)
		})
	case models.SortNameAsc:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.Compare(out[i].Title, out[j].Title) < 0
		})
	case models.SortNameDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.Compare(out[j].Title, out[i].Title) < 0
		})
	}

	return out
}
