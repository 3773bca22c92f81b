package catalog

import (
	"encoding/json"
	"sort"
)

// defaultCategories is the static fallback used when the remote category
// listing fails or yields nothing.
var defaultCategories = []string{
	"beauty",
	"fragrances",
	"furniture",
	"groceries",
	"home-decoration",
	"kitchen-accessories",
	"laptops",
	"mens-shirts",
	"mens-shoes",
	"mens-watches",
	"mobile-accessories",
	"motorcycle",
	"skin-care",
	"smartphones",
	"sports-accessories",
	"sunglasses",
	"tablets",
	"tops",
	"vehicle",
	"womens-bags",
	"womens-dresses",
	"womens-jewellery",
	"womens-shoes",
	"womens-watches",
}

// DefaultCategories returns a copy of the static fallback list.
func DefaultCategories() []string {
	out := make([]string, len(defaultCategories))
	copy(out, defaultCategories)
	return out
}

// normalizeCategories converts any of the shapes the remote API has
// shipped over time into one flat de-duplicated list of category slugs:
//
//   - an array of plain strings
//   - an array of objects carrying a slug (newer API versions)
//   - an object map keyed by slug
//
// Anything else yields nil; the caller falls back to the static list.
func normalizeCategories(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var asStrings []string
	if err := json.Unmarshal(raw, &asStrings); err == nil {
		return dedup(asStrings)
	}

	var asObjects []struct {
		Slug string `json:"slug"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &asObjects); err == nil {
		slugs := make([]string, 0, len(asObjects))
		for _, obj := range asObjects {
			if obj.Slug != "" {
				slugs = append(slugs, obj.Slug)
			} else if obj.Name != "" {
				slugs = append(slugs, obj.Name)
			}
		}
		return dedup(slugs)
	}

	var asMap map[string]json.RawMessage
	if err := json.Unmarshal(raw, &asMap); err == nil {
		slugs := make([]string, 0, len(asMap))
		for slug := range asMap {
			slugs = append(slugs, slug)
		}
		sort.Strings(slugs)
		return dedup(slugs)
	}

	return nil
}

func dedup(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
