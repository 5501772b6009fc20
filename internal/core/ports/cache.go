package ports

import (
	"context"
	"time"

	"github.com/agrospai/fastrag/internal/core/domain"
)

// Producer yields the bytes to store for a cache miss.
type Producer func(ctx context.Context) ([]byte, error)

// Cache is the content-addressed, TTL-bound store every task reads from and writes to.
//
//go:generate mockgen -source=cache.go -destination=mocks/mock_cache.go -package=mocks
type Cache interface {
	// IsPresent reports whether uri has an entry that has not expired.
	IsPresent(uri string) bool

	// Create writes data for uri, replacing any previous entry.
	Create(ctx context.Context, uri string, data []byte, meta domain.Metadata) (domain.CacheEntry, error)

	// GetOrCreate returns the live entry for uri or produces it. For a given uri,
	// concurrent callers share one producer invocation. existed is false only for
	// the caller whose producer ran.
	GetOrCreate(ctx context.Context, uri string, produce Producer, meta domain.Metadata) (existed bool, entry domain.CacheEntry, err error)

	// Get returns the entry for uri if present and not expired.
	Get(uri string) (domain.CacheEntry, bool)

	// Content reads the payload of entry.
	Content(entry domain.CacheEntry) ([]byte, error)

	// GetEntries returns the live entries matching filter, or every entry when filter is nil.
	GetEntries(filter domain.Filter) []domain.CacheEntry

	// Clean deletes the whole cache directory and returns the number of bytes freed.
	Clean() (int64, error)

	// Flush persists the metadata index if it changed.
	Flush() error
}

// ManagedCache is a Cache with a lifecycle owned by the caller.
type ManagedCache interface {
	Cache

	// Autosave flushes the index every interval until ctx is done.
	Autosave(ctx context.Context, interval time.Duration)

	// Close flushes the index and releases in-memory resources.
	Close() error
}

// CacheOpener opens the cache described by a configuration section.
type CacheOpener interface {
	Open(cfg domain.CacheConfig) (ManagedCache, error)
}
