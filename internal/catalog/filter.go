package catalog

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/phantomcommerce/phantom-backend/internal/app/model"
)

// AllSlug is the category slug that lists every product.
const AllSlug = "all"

// AllTitle is the heading of the unfiltered listing.
const AllTitle = "Todos os Jogos"

// BaseTag is the lower-cased category tag a slug stands for, empty for "all".
func BaseTag(slug string) string {
	decoded := decodeSlug(slug)
	if strings.EqualFold(decoded, AllSlug) {
		return ""
	}
	return normalizeValue(decoded)
}

// CategoryTitle is the heading shown for slug.
func CategoryTitle(slug string) string {
	decoded := strings.TrimSpace(decodeSlug(slug))
	if decoded == "" || strings.EqualFold(decoded, AllSlug) {
		return AllTitle
	}
	r, size := utf8.DecodeRuneInString(decoded)
	return string(unicode.ToUpper(r)) + decoded[size:]
}

func decodeSlug(slug string) string {
	if decoded, err := url.PathUnescape(slug); err == nil {
		return decoded
	}
	return slug
}

// InCategory reports whether p carries the base tag. An empty base matches all.
func InCategory(p *model.Product, baseTag string) bool {
	if baseTag == "" {
		return true
	}
	for _, c := range p.Categories {
		if normalizeValue(c) == baseTag {
			return true
		}
	}
	return false
}

// FilterCategory keeps the products of the category page for slug.
func FilterCategory(products []model.Product, slug string) []model.Product {
	base := BaseTag(slug)
	out := make([]model.Product, 0, len(products))
	for i := range products {
		if InCategory(&products[i], base) {
			out = append(out, products[i])
		}
	}
	return out
}

// Filter keeps, in input order, the products matching every selected tag,
// every selected platform and the price range. baseTag is dropped from the
// selected tags since the category query has already applied it.
func Filter(products []model.Product, state FilterState, baseTag string) []model.Product {
	state = state.WithoutTag(baseTag)
	if state.Price.Inverted() {
		return []model.Product{}
	}

	out := make([]model.Product, 0, len(products))
	for i := range products {
		if Matches(&products[i], state) {
			out = append(out, products[i])
		}
	}
	return out
}

// Matches evaluates the tag, platform and price predicates of state on p.
func Matches(p *model.Product, state FilterState) bool {
	state = state.Normalize()
	if !state.Price.Contains(p.Price) {
		return false
	}
	if !containsAll(p.Categories, state.Tags) {
		return false
	}
	return containsAll(p.Platforms, state.Platforms)
}

func containsAll(have model.StringList, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[normalizeValue(h)] = struct{}{}
	}
	for _, w := range want {
		if _, ok := set[w]; !ok {
			return false
		}
	}
	return true
}
