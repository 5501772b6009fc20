// Package cas implements the content addressable cache shared by every pipeline stage.
package cas

import (
	"bytes"
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/core/ports"
	"github.com/dgraph-io/ristretto/v2"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// DefaultReadCacheBytes bounds the in-memory payload cache.
const DefaultReadCacheBytes = 64 << 20

// record is the on-disk form of a cache entry in the metadata snapshot.
type record struct {
	Path      string          `json:"path"`
	Timestamp float64         `json:"timestamp"`
	Metadata  domain.Metadata `json:"metadata"`
}

// Store implements ports.ManagedCache on top of a local directory.
// Payloads live under <base>/cache/<sha256(uri)> and the index in <base>/metadata.json.
type Store struct {
	base     string
	lifespan time.Duration
	now      func() time.Time
	logger   ports.Logger
	metrics  ports.Metrics
	memBytes int64

	mu      sync.RWMutex
	entries map[string]domain.CacheEntry
	dirty   bool

	flight  singleflight.Group
	content *ristretto.Cache[string, []byte]
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger reports non-fatal problems such as failed autosaves.
func WithLogger(l ports.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithMetrics records cache lookups and writes.
func WithMetrics(m ports.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithReadCacheBytes sets the in-memory payload cache size. Zero disables it.
func WithReadCacheBytes(n int64) Option {
	return func(s *Store) { s.memBytes = n }
}

// Open loads the cache rooted at base and purges expired entries.
func Open(base string, lifespan time.Duration, opts ...Option) (*Store, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrCacheCreateFailed.Error())
	}

	s := &Store{
		base:     abs,
		lifespan: lifespan,
		now:      time.Now,
		memBytes: DefaultReadCacheBytes,
		entries:  make(map[string]domain.CacheEntry),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.memBytes > 0 {
		s.content, err = ristretto.NewCache(&ristretto.Config[string, []byte]{
			NumCounters: max(s.memBytes/1024, 1000),
			MaxCost:     s.memBytes,
			BufferItems: 64,
		})
		if err != nil {
			return nil, zerr.Wrap(err, domain.ErrCacheCreateFailed.Error())
		}
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.purgeLocked()
	s.mu.Unlock()

	return s, nil
}

// Base returns the absolute cache root.
func (s *Store) Base() string {
	return s.base
}

func (s *Store) load() error {
	path := domain.MetadataPath(s.base)
	//nolint:gosec // Path is constructed from the configured cache root
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.With(zerr.Wrap(err, domain.ErrMetadataReadFailed.Error()), "path", path)
	}

	var records map[string]record
	if err := json.Unmarshal(data, &records); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrMetadataCorrupt.Error()), "path", path)
	}

	for uri, r := range records {
		sec := int64(r.Timestamp)
		nsec := int64((r.Timestamp - float64(sec)) * 1e9)
		s.entries[uri] = domain.CacheEntry{
			URI:       uri,
			Path:      domain.PathFromURI(r.Path),
			Timestamp: time.Unix(sec, nsec),
			Metadata:  r.Metadata,
		}
	}
	return nil
}

// purgeLocked drops expired entries and their payloads. Must be called with s.mu held.
func (s *Store) purgeLocked() {
	now := s.now()
	for uri, e := range s.entries {
		if !e.Expired(now, s.lifespan) {
			continue
		}
		if err := os.Remove(e.Path); err != nil && !errors.Is(err, fs.ErrNotExist) && s.logger != nil {
			s.logger.Warn("could not remove expired payload " + e.Path + ": " + err.Error())
		}
		if s.content != nil {
			s.content.Del(uri)
		}
		delete(s.entries, uri)
		s.dirty = true
	}
}

func (s *Store) payloadPath(uri string) string {
	hash := sha256.Sum256([]byte(uri))
	return filepath.Join(domain.PayloadDir(s.base), hex.EncodeToString(hash[:]))
}

func (s *Store) live(e domain.CacheEntry) bool {
	return !e.Expired(s.now(), s.lifespan)
}

// IsPresent implements ports.Cache.
func (s *Store) IsPresent(uri string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[uri]
	return ok && s.live(e)
}

// Get implements ports.Cache.
func (s *Store) Get(uri string) (domain.CacheEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[uri]
	if !ok || !s.live(e) {
		return domain.CacheEntry{}, false
	}
	return clone(e), true
}

// Create implements ports.Cache.
func (s *Store) Create(_ context.Context, uri string, data []byte, meta domain.Metadata) (domain.CacheEntry, error) {
	path := s.payloadPath(uri)
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return domain.CacheEntry{}, zerr.Wrap(err, domain.ErrCacheCreateFailed.Error())
	}
	//nolint:gosec // Path is constructed from the cache root and a hashed uri
	if err := os.WriteFile(path, data, domain.FilePerm); err != nil {
		return domain.CacheEntry{}, zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "uri", uri)
	}

	entry := domain.CacheEntry{
		URI:       uri,
		Path:      path,
		Timestamp: s.now(),
		Metadata:  meta.Clone(),
	}

	s.mu.Lock()
	s.entries[uri] = entry
	s.dirty = true
	s.mu.Unlock()

	if s.content != nil {
		s.content.Del(uri)
		s.content.Set(uri, bytes.Clone(data), int64(len(data)))
	}
	if s.metrics != nil {
		s.metrics.CacheWrite(len(data))
	}

	return clone(entry), nil
}

// GetOrCreate implements ports.Cache. Concurrent callers for one uri share a single
// producer call; followers report existed=true since they did not produce.
func (s *Store) GetOrCreate(
	ctx context.Context,
	uri string,
	produce ports.Producer,
	meta domain.Metadata,
) (bool, domain.CacheEntry, error) {
	if e, ok := s.lookupAndTag(uri, meta); ok {
		s.recordLookup(true)
		return true, e, nil
	}

	type result struct {
		entry    domain.CacheEntry
		producer *byte
	}
	self := new(byte)

	v, err, _ := s.flight.Do(uri, func() (any, error) {
		if e, ok := s.lookupAndTag(uri, meta); ok {
			return result{entry: e}, nil
		}
		data, err := produce(ctx)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrProducerFailed.Error()), "uri", uri)
		}
		e, err := s.Create(ctx, uri, data, meta)
		if err != nil {
			return nil, err
		}
		return result{entry: e, producer: self}, nil
	})
	if err != nil {
		return false, domain.CacheEntry{}, err
	}

	r, _ := v.(result)
	if r.producer == self {
		s.recordLookup(false)
		return false, clone(r.entry), nil
	}

	s.recordLookup(true)
	if e, ok := s.lookupAndTag(uri, meta); ok {
		return true, e, nil
	}
	return true, clone(r.entry), nil
}

// lookupAndTag returns the live entry for uri. A hit moves the experiment tag to the
// one in meta and adds meta's task fingerprints to the entry's task set, so every task
// that wrote the uri can select it downstream.
func (s *Store) lookupAndTag(uri string, meta domain.Metadata) (domain.CacheEntry, bool) {
	exp, tag := meta[domain.MetaExperiment]
	tasks := meta.Tags(domain.MetaTask)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[uri]
	if !ok || !s.live(e) {
		return domain.CacheEntry{}, false
	}
	md, changed := e.Metadata.MergeTags(domain.MetaTask, tasks...)
	if tag && exp != nil && !md.Has(domain.MetaExperiment, exp) {
		if !changed {
			md = md.Clone()
		}
		if md == nil {
			md = domain.Metadata{}
		}
		md[domain.MetaExperiment] = exp
		changed = true
	}
	if changed {
		e.Metadata = md
		s.entries[uri] = e
		s.dirty = true
	}
	return clone(e), true
}

func (s *Store) recordLookup(hit bool) {
	if s.metrics != nil {
		s.metrics.CacheLookup(hit)
	}
}

// Content implements ports.Cache.
func (s *Store) Content(entry domain.CacheEntry) ([]byte, error) {
	if s.content != nil {
		if data, ok := s.content.Get(entry.URI); ok {
			return bytes.Clone(data), nil
		}
	}

	//nolint:gosec // Path is constructed from the cache root and a hashed uri
	data, err := os.ReadFile(entry.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(domain.ErrEntryNotFound, "read payload"), "uri", entry.URI)
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheReadFailed.Error()), "uri", entry.URI)
	}

	if s.content != nil {
		s.content.Set(entry.URI, bytes.Clone(data), int64(len(data)))
	}
	return data, nil
}

// GetEntries implements ports.Cache. Results are ordered by uri.
func (s *Store) GetEntries(filter domain.Filter) []domain.CacheEntry {
	s.mu.RLock()
	out := make([]domain.CacheEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if !s.live(e) {
			continue
		}
		if filter != nil && !filter.Apply(e) {
			continue
		}
		out = append(out, clone(e))
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.CacheEntry) int {
		return cmp.Compare(a.URI, b.URI)
	})
	return out
}

// Clean implements ports.Cache.
func (s *Store) Clean() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var size int64
	err := filepath.WalkDir(s.base, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		size += info.Size()
		return nil
	})
	if err != nil {
		return 0, zerr.Wrap(err, domain.ErrCacheCleanFailed.Error())
	}

	if err := os.RemoveAll(s.base); err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrCacheCleanFailed.Error()), "path", s.base)
	}

	s.entries = make(map[string]domain.CacheEntry)
	s.dirty = false
	if s.content != nil {
		s.content.Clear()
	}
	return size, nil
}

// Flush implements ports.Cache.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	records := make(map[string]record, len(s.entries))
	for uri, e := range s.entries {
		records[uri] = record{
			Path:      domain.FileURI(e.Path),
			Timestamp: float64(e.Timestamp.UnixNano()) / 1e9,
			Metadata:  e.Metadata,
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrMetadataWriteFailed.Error())
	}
	if err := os.MkdirAll(s.base, domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrCacheCreateFailed.Error())
	}
	path := domain.MetadataPath(s.base)
	//nolint:gosec // Path is constructed from the configured cache root
	if err := os.WriteFile(path, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrMetadataWriteFailed.Error()), "path", path)
	}

	s.dirty = false
	return nil
}

// Autosave implements ports.ManagedCache.
func (s *Store) Autosave(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Flush(); err != nil && s.logger != nil {
				s.logger.Warn("autosave failed: " + err.Error())
			}
		}
	}
}

// Close implements ports.ManagedCache.
func (s *Store) Close() error {
	err := s.Flush()
	if s.content != nil {
		s.content.Close()
	}
	return err
}

func clone(e domain.CacheEntry) domain.CacheEntry {
	e.Metadata = e.Metadata.Clone()
	return e
}
