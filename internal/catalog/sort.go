package catalog

import (
	"sort"

	"github.com/phantomcommerce/phantom-backend/internal/app/model"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Sorter orders listings. Titles are compared with the collation rules of
// its locale.
type Sorter struct {
	tag language.Tag
}

// NewSorter parses locale as a BCP 47 tag, falling back to Portuguese (Brazil).
func NewSorter(locale string) *Sorter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.BrazilianPortuguese
	}
	return &Sorter{tag: tag}
}

// Sort orders products in place by key. The sort is stable so ties keep
// their input order.
func (s *Sorter) Sort(products []model.Product, key SortKey) {
	switch ParseSortKey(string(key)) {
	case SortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price < products[j].Price
		})
	case SortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price > products[j].Price
		})
	case SortNameAsc:
		// collate.Collator keeps internal buffers; one per call.
		c := collate.New(s.tag)
		sort.SliceStable(products, func(i, j int) bool {
			return c.CompareString(products[i].Title, products[j].Title) < 0
		})
	case SortNameDesc:
		c := collate.New(s.tag)
		sort.SliceStable(products, func(i, j int) bool {
			return c.CompareString(products[j].Title, products[i].Title) < 0
		})
	default:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Rating > products[j].Rating
		})
	}
}

// Apply filters then sorts a copy of products.
func (s *Sorter) Apply(products []model.Product, state FilterState, baseTag string) []model.Product {
	out := Filter(products, state, baseTag)
	s.Sort(out, state.Sort)
	return out
}
