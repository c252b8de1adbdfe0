// Package catalog derives the filtered and sorted storefront view of a
// product set and keeps the filter state in sync with URL query parameters.
package catalog

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// SortKey selects the total order of a listing.
type SortKey string

const (
	SortRating    SortKey = "rating"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortNameAsc   SortKey = "name-asc"
	SortNameDesc  SortKey = "name-desc"
)

// DefaultSort is used when the query carries no or an unknown sort key.
const DefaultSort = SortRating

// ParseSortKey falls back to DefaultSort for anything unrecognised.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortRating, SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc:
		return k
	default:
		return DefaultSort
	}
}

// PriceRange bounds the effective price. A nil bound is unbounded.
type PriceRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// ParsePriceBound returns nil for blank, malformed, non-finite or
// non-positive input.
func ParsePriceBound(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return nil
	}
	return &v
}

// Inverted reports a range that no price can satisfy.
func (r PriceRange) Inverted() bool {
	return r.Min != nil && r.Max != nil && *r.Min > *r.Max
}

func (r PriceRange) Contains(price float64) bool {
	if r.Min != nil && price < *r.Min {
		return false
	}
	if r.Max != nil && price > *r.Max {
		return false
	}
	return true
}

// FilterState is the user's current selection on a listing page. Tags and
// platforms are kept lower-cased, de-duplicated and sorted; empty lists are nil.
type FilterState struct {
	Tags      []string   `json:"tags"`
	Platforms []string   `json:"platforms"`
	Price     PriceRange `json:"price"`
	Sort      SortKey    `json:"sort"`
}

// NewFilterState returns the empty state with the default sort.
func NewFilterState() FilterState {
	return FilterState{Sort: DefaultSort}
}

// Normalize returns s with canonical selections and a valid sort key.
func (s FilterState) Normalize() FilterState {
	return FilterState{
		Tags:      normalizeSet(s.Tags),
		Platforms: normalizeSet(s.Platforms),
		Price:     s.Price,
		Sort:      ParseSortKey(string(s.Sort)),
	}
}

// ToggleTag adds tag when missing and removes it when present.
func (s FilterState) ToggleTag(tag string) FilterState {
	s = s.Normalize()
	s.Tags = toggle(s.Tags, tag)
	return s
}

// TogglePlatform adds platform when missing and removes it when present.
func (s FilterState) TogglePlatform(platform string) FilterState {
	s = s.Normalize()
	s.Platforms = toggle(s.Platforms, platform)
	return s
}

// WithBaseTag seeds the category tag of slug into the selection.
func (s FilterState) WithBaseTag(slug string) FilterState {
	s = s.Normalize()
	if base := BaseTag(slug); base != "" && !containsString(s.Tags, base) {
		s.Tags = normalizeSet(append(append([]string{}, s.Tags...), base))
	}
	return s
}

// WithoutTag drops tag from the selection.
func (s FilterState) WithoutTag(tag string) FilterState {
	s = s.Normalize()
	tag = normalizeValue(tag)
	if tag == "" || !containsString(s.Tags, tag) {
		return s
	}
	s.Tags = toggle(s.Tags, tag)
	return s
}

// ClearFor resets the state of the category page for slug: only the base
// tag stays selected and the sort returns to the default.
func ClearFor(slug string) FilterState {
	return NewFilterState().WithBaseTag(slug)
}

// HasTag reports whether tag (any casing) is selected.
func (s FilterState) HasTag(tag string) bool {
	return containsString(s.Tags, normalizeValue(tag))
}

func normalizeValue(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func normalizeSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = normalizeValue(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

func toggle(set []string, v string) []string {
	v = normalizeValue(v)
	if v == "" {
		return set
	}
	if !containsString(set, v) {
		return normalizeSet(append(append([]string{}, set...), v))
	}
	out := make([]string, 0, len(set))
	for _, s := range set {
		if s != v {
			out = append(out, s)
		}
	}
	return normalizeSet(out)
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
