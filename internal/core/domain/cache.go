// Package domain contains the core types of the fastrag pipeline.
package domain

import (
	"maps"
	"net/url"
	"path/filepath"
	"reflect"
	"slices"
	"time"
)

// Metadata keys written by the built-in strategies.
const (
	MetaStep       = "step"
	MetaStrategy   = "strategy"
	MetaFormat     = "format"
	MetaSource     = "source"
	MetaExperiment = "experiment"
	MetaTask       = "task"
)

// Metadata is the free-form annotation attached to a cache entry.
type Metadata map[string]any

// Clone returns a shallow copy of m. A nil map stays nil.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}

// Has reports whether key is set to a value equal to want.
func (m Metadata) Has(key string, want any) bool {
	got, ok := m[key]
	if !ok {
		return false
	}
	return ValuesEqual(got, want)
}

// Tags returns the string set stored under key. A plain string is a set of one.
func (m Metadata) Tags(key string) []string {
	switch v := m[key].(type) {
	case string:
		return []string{v}
	case []string:
		return slices.Clone(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// HasTag reports whether the set under key holds tag.
func (m Metadata) HasTag(key, tag string) bool {
	return slices.Contains(m.Tags(key), tag)
}

// MergeTags returns a copy of m whose set under key also holds tags. The boolean
// reports whether anything was added; when nothing was, m itself is returned.
func (m Metadata) MergeTags(key string, tags ...string) (Metadata, bool) {
	set := m.Tags(key)
	added := false
	for _, t := range tags {
		if !slices.Contains(set, t) {
			set = append(set, t)
			added = true
		}
	}
	if !added {
		return m, false
	}
	out := m.Clone()
	if out == nil {
		out = Metadata{}
	}
	out[key] = set
	return out, true
}

// CacheEntry is one logical URI's cached payload plus metadata and creation time.
type CacheEntry struct {
	URI       string
	Path      string
	Timestamp time.Time
	Metadata  Metadata
}

// Expired reports whether the entry is past its lifespan at now.
func (e CacheEntry) Expired(now time.Time, lifespan time.Duration) bool {
	return !now.Before(e.Timestamp.Add(lifespan))
}

// FileURI returns the payload path as an absolute file URI.
func (e CacheEntry) FileURI() string {
	return FileURI(e.Path)
}

// FileURI converts a filesystem path into an absolute file:// URI.
func FileURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}

// PathFromURI converts a file:// URI back into a filesystem path.
// Non-file URIs are returned unchanged.
func PathFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return uri
	}
	return filepath.FromSlash(u.Path)
}

// ValuesEqual compares two metadata values, treating all numeric kinds as equal when
// their values match. Snapshots reload numbers as float64 while strategies write ints.
func ValuesEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
