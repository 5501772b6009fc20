// Package vectorstore holds the vector store backends: an embedded Badger store for
// single-machine runs and a Weaviate client for shared deployments.
package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/core/ports"
	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.trai.ch/zerr"
)

// StrategyLocal is the resource strategy name of the embedded store.
const StrategyLocal = "local"

const keyPrefix = "ns/"

type record struct {
	PageContent string         `json:"page_content"`
	Metadata    map[string]any `json:"metadata"`
	Vector      []float32      `json:"vector"`
}

// Local is a Badger-backed store searched by brute-force cosine similarity.
// Documents are keyed by namespace and content, so uploading the same chunk
// twice into one namespace keeps a single copy.
type Local struct {
	db *badger.DB
}

// LocalConfig is the parameter block of the local strategy.
type LocalConfig struct {
	// Path overrides the directory of the store. Empty means <cache>/vectors.
	Path string `yaml:"path"`
	// InMemory keeps the store in memory only.
	InMemory bool `yaml:"in_memory"`
}

// OpenLocal opens or creates the store at path. An empty path opens an in-memory store.
func OpenLocal(path string) (*Local, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, domain.DirPerm); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrVectorStoreFailed.Error()), "path", path)
		}
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = nil
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrVectorStoreFailed.Error()), "path", path)
	}
	return &Local{db: db}, nil
}

// LocalFactory implements ports.VectorStoreFactory.
func LocalFactory(_ context.Context, params domain.Params, env ports.ResourceEnv) (ports.VectorStore, error) {
	var cfg LocalConfig
	if err := params.Decode(&cfg); err != nil {
		return nil, zerr.With(err, "resource", string(domain.ResourceStore))
	}
	path := cfg.Path
	switch {
	case cfg.InMemory:
		path = ""
	case path == "":
		base := env.BasePath
		if base == "" {
			base = domain.DefaultBasePath()
		}
		path = domain.VectorStorePath(base)
	}
	return OpenLocal(path)
}

func documentKey(namespace string, doc domain.Document) []byte {
	h := xxhash.New()
	_, _ = h.WriteString(doc.PageContent)
	if src, ok := doc.Metadata[domain.MetaSource]; ok {
		_, _ = fmt.Fprintf(h, "\x00%v", src)
	}
	return fmt.Appendf(nil, "%s%s/%016x", keyPrefix, namespace, h.Sum64())
}

func namespacePrefix(namespace string) []byte {
	return []byte(keyPrefix + namespace + "/")
}

// AddDocuments stores docs with their vectors under namespace.
func (l *Local) AddDocuments(ctx context.Context, docs []domain.Document, vectors [][]float32, namespace string) error {
	if len(docs) != len(vectors) {
		return zerr.With(zerr.Wrap(domain.ErrVectorStoreFailed, "document and vector counts differ"),
			"documents", len(docs))
	}

	wb := l.db.NewWriteBatch()
	defer wb.Cancel()
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, err := json.Marshal(record{PageContent: doc.PageContent, Metadata: doc.Metadata, Vector: vectors[i]})
		if err != nil {
			return zerr.Wrap(err, domain.ErrVectorStoreFailed.Error())
		}
		if err := wb.Set(documentKey(namespace, doc), raw); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrVectorStoreFailed.Error()), "namespace", namespace)
		}
	}
	if err := wb.Flush(); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrVectorStoreFailed.Error()), "namespace", namespace)
	}
	return nil
}

type scored struct {
	doc   domain.Document
	score float64
}

// SimilaritySearch returns the k documents of namespace closest to vector.
func (l *Local) SimilaritySearch(ctx context.Context, _ string, vector []float32, k int, namespace string) ([]domain.Document, error) {
	if k <= 0 {
		return nil, nil
	}

	var hits []scored
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = namespacePrefix(namespace)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			hits = append(hits, scored{
				doc:   domain.Document{PageContent: rec.PageContent, Metadata: rec.Metadata},
				score: cosine(vector, rec.Vector),
			})
		}
		return nil
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrVectorStoreFailed.Error()), "namespace", namespace)
	}

	slices.SortStableFunc(hits, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return 0
		}
	})
	hits = hits[:min(k, len(hits))]

	docs := make([]domain.Document, len(hits))
	for i, h := range hits {
		docs[i] = h.doc
	}
	return docs, nil
}

// Close releases the database.
func (l *Local) Close() error {
	return l.db.Close()
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(-1)
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
