package domain

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Filter is an immutable predicate over a cache entry's metadata.
type Filter interface {
	Apply(entry CacheEntry) bool
	String() string
}

// MetadataFilter matches entries whose metadata contains every criteria pair.
type MetadataFilter struct {
	criteria Metadata
}

// Match returns a leaf filter over the given criteria.
func Match(criteria Metadata) MetadataFilter {
	return MetadataFilter{criteria: criteria.Clone()}
}

// MatchKV is shorthand for a single-pair Match.
func MatchKV(key string, value any) MetadataFilter {
	return Match(Metadata{key: value})
}

// Apply implements Filter. Entries with empty metadata never match.
func (f MetadataFilter) Apply(entry CacheEntry) bool {
	if len(entry.Metadata) == 0 {
		return false
	}
	for k, v := range f.criteria {
		if !entry.Metadata.Has(k, v) {
			return false
		}
	}
	return true
}

func (f MetadataFilter) String() string {
	keys := slices.Sorted(maps.Keys(f.criteria))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, f.criteria[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// TagFilter matches entries whose string set under key holds tag.
type TagFilter struct {
	key string
	tag string
}

// MatchTag returns a leaf filter on set membership.
func MatchTag(key, tag string) TagFilter {
	return TagFilter{key: key, tag: tag}
}

// Apply implements Filter. Entries with empty metadata never match.
func (f TagFilter) Apply(entry CacheEntry) bool {
	return len(entry.Metadata) > 0 && entry.Metadata.HasTag(f.key, f.tag)
}

func (f TagFilter) String() string {
	return "{" + f.key + "∋" + f.tag + "}"
}

// AndFilter is the conjunction of its children. With no children it matches nothing.
type AndFilter struct {
	children []Filter
}

// All returns the conjunction of filters.
func All(filters ...Filter) AndFilter {
	return AndFilter{children: slices.Clone(filters)}
}

// Apply implements Filter.
func (f AndFilter) Apply(entry CacheEntry) bool {
	if len(f.children) == 0 {
		return false
	}
	for _, c := range f.children {
		if !c.Apply(entry) {
			return false
		}
	}
	return true
}

func (f AndFilter) String() string {
	return join("&", f.children)
}

// OrFilter is the disjunction of its children. With no children it matches everything.
type OrFilter struct {
	children []Filter
}

// Any returns the disjunction of filters.
func Any(filters ...Filter) OrFilter {
	return OrFilter{children: slices.Clone(filters)}
}

// Apply implements Filter.
func (f OrFilter) Apply(entry CacheEntry) bool {
	if len(f.children) == 0 {
		return true
	}
	for _, c := range f.children {
		if c.Apply(entry) {
			return true
		}
	}
	return false
}

func (f OrFilter) String() string {
	return join("|", f.children)
}

// And composes two filters into a new conjunction. A nil operand is treated as absent.
func And(a, b Filter) Filter {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return All(a, b)
}

// Or composes two filters into a new disjunction. A nil operand is treated as absent.
func Or(a, b Filter) Filter {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return Any(a, b)
}

func join(op string, children []Filter) string {
	parts := make([]string, 0, len(children))
	for _, c := range children {
		parts = append(parts, c.String())
	}
	return "(" + strings.Join(parts, " "+op+" ") + ")"
}
