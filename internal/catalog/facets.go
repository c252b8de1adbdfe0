package catalog

import (
	"sort"

	"github.com/phantomcommerce/phantom-backend/internal/app/model"
)

// Facets lists the values a user can pick from on a listing page.
type Facets struct {
	Tags       []string   `json:"tags"`
	Platforms  []string   `json:"platforms"`
	PriceRange PriceRange `json:"price_range"`
}

// BuildFacets collects the distinct tags (as stored) and lower-cased
// platforms of products, plus the observed price span.
func BuildFacets(products []model.Product) Facets {
	tags := map[string]struct{}{}
	platforms := map[string]struct{}{}
	var span PriceRange

	for i := range products {
		p := &products[i]
		for _, t := range p.Categories {
			if t != "" {
				tags[t] = struct{}{}
			}
		}
		for _, pl := range p.Platforms {
			if v := normalizeValue(pl); v != "" {
				platforms[v] = struct{}{}
			}
		}
		price := p.Price
		if span.Min == nil || price < *span.Min {
			span.Min = &price
		}
		if span.Max == nil || price > *span.Max {
			span.Max = &price
		}
	}

	return Facets{
		Tags:       sortedKeys(tags),
		Platforms:  sortedKeys(platforms),
		PriceRange: span,
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
