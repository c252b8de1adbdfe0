package catalog

import (
	"net/url"
	"strconv"
	"strings"
)

// Query parameter names of a listing URL.
const (
	ParamTags      = "tags"
	ParamPlatforms = "platforms"
	ParamMinPrice  = "min_price"
	ParamMaxPrice  = "max_price"
	ParamSort      = "sort"
)

// ParseFilterState reads a listing query. List parameters may be repeated,
// comma separated, or both.
func ParseFilterState(q url.Values) FilterState {
	return FilterState{
		Tags:      normalizeSet(splitList(q[ParamTags])),
		Platforms: normalizeSet(splitList(q[ParamPlatforms])),
		Price: PriceRange{
			Min: ParsePriceBound(q.Get(ParamMinPrice)),
			Max: ParsePriceBound(q.Get(ParamMaxPrice)),
		},
		Sort: ParseSortKey(q.Get(ParamSort)),
	}
}

// ParseQuery is ParseFilterState over a raw query string. A malformed query
// yields the default state.
func ParseQuery(raw string) FilterState {
	q, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return NewFilterState()
	}
	return ParseFilterState(q)
}

// Values is the canonical query of s. Defaults are omitted.
func (s FilterState) Values() url.Values {
	s = s.Normalize()
	q := url.Values{}
	if len(s.Tags) > 0 {
		q.Set(ParamTags, strings.Join(s.Tags, ","))
	}
	if len(s.Platforms) > 0 {
		q.Set(ParamPlatforms, strings.Join(s.Platforms, ","))
	}
	if s.Price.Min != nil {
		q.Set(ParamMinPrice, formatPrice(*s.Price.Min))
	}
	if s.Price.Max != nil {
		q.Set(ParamMaxPrice, formatPrice(*s.Price.Max))
	}
	if s.Sort != DefaultSort {
		q.Set(ParamSort, string(s.Sort))
	}
	return q
}

// Encode renders Values; url.Values.Encode sorts keys.
func (s FilterState) Encode() string {
	return s.Values().Encode()
}

// EncodeFor renders the query of the category page for slug. The base tag is
// implied by the path and left out.
func (s FilterState) EncodeFor(slug string) string {
	return s.WithoutTag(BaseTag(slug)).Encode()
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
