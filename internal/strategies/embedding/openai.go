// Package embedding embeds chunk records and uploads them to the vector store.
package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/core/ports"
	"github.com/agrospai/fastrag/internal/engine/pipeline"
	"go.trai.ch/zerr"
)

// Registered names of the OpenAI-compatible embedding task.
const (
	OpenAISimpleName = "OpenAI-Simple"
	OpenAISimpleAlt  = "openai-simple"

	taskLabel = "OpenAISimple"
)

// OpenAISimple embeds every chunk of a chunk record in one call and uploads
// the vectors under the experiment namespace.
type OpenAISimple struct {
	env      pipeline.Env
	model    string
	embedder ports.Embedder

	mu      sync.Mutex
	results []domain.Chunk
}

// NewOpenAISimple implements pipeline.Factory. The embedder is built from the
// task parameters when the run provides an embedder factory, otherwise the
// shared embedder resource is used.
func NewOpenAISimple(env pipeline.Env, params domain.Params) (pipeline.Task, error) {
	cfg := ports.EmbedderConfig{BatchSize: 1}
	if err := params.Decode(&cfg); err != nil {
		return nil, err
	}

	res := env.Resources
	if res.Store == nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrMissingResource, OpenAISimpleName), "resource", string(domain.ResourceStore))
	}

	embedder := res.Embedder
	if res.Embedders != nil {
		e, err := res.Embedders(cfg)
		if err != nil {
			return nil, err
		}
		embedder = e
	}
	if embedder == nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrMissingResource, OpenAISimpleName), "resource", string(domain.ResourceEmbedder))
	}

	return &OpenAISimple{env: env, model: cfg.Model, embedder: embedder}, nil
}

// Name implements pipeline.Task.
func (o *OpenAISimple) Name() string { return OpenAISimpleName }

// Filter implements pipeline.Task.
func (o *OpenAISimple) Filter() domain.Filter {
	return domain.MatchKV(domain.MetaStep, string(domain.StageChunking))
}

// EmbeddingURI is the cache key of the embedded chunks of entry.
func (o *OpenAISimple) EmbeddingURI(entry domain.CacheEntry) string {
	return fmt.Sprintf("%s.%s.%s.embedding.json", entry.FileURI(), taskLabel, o.model)
}

// Run implements pipeline.Task.
func (o *OpenAISimple) Run(ctx context.Context, uri string, entry *domain.CacheEntry, emit pipeline.Emit) error {
	cache := o.env.Resources.Cache
	ns := o.env.Namespace()
	meta := domain.Metadata{
		domain.MetaStep:     string(domain.StageEmbedding),
		domain.MetaStrategy: o.env.Strategy,
		"model":             o.model,
	}

	existed, embedded, err := cache.GetOrCreate(ctx, o.EmbeddingURI(*entry), func(ctx context.Context) ([]byte, error) {
		return o.embed(ctx, *entry)
	}, o.env.Tag(meta))
	if err != nil {
		return err
	}

	chunks, err := readChunks(cache, embedded)
	if err != nil {
		return err
	}

	if existed && len(chunks) > 0 {
		if err := o.upload(ctx, chunks); err != nil {
			return err
		}
		emit(domain.Progressf("Re-uploaded embeddings to %s", ns))
	}

	o.mu.Lock()
	o.results = append(o.results, chunks...)
	o.mu.Unlock()

	status := "Generated"
	if existed {
		status = "Cached"
	}
	emit(domain.Progressf("%s %s %s embeddings for %s", taskLabel, ns, status, uri))
	return nil
}

func readChunks(cache ports.Cache, entry domain.CacheEntry) ([]domain.Chunk, error) {
	data, err := cache.Content(entry)
	if err != nil {
		return nil, err
	}
	var chunks []domain.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrParseFailed.Error()), "uri", entry.URI)
	}
	return chunks, nil
}

func (o *OpenAISimple) embed(ctx context.Context, entry domain.CacheEntry) ([]byte, error) {
	chunks, err := readChunks(o.env.Resources.Cache, entry)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return []byte("[]"), nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.PageContent
	}
	vectors, err := o.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		err := zerr.With(zerr.Wrap(domain.ErrEmbeddingFailed, "vector count mismatch"), "chunks", len(chunks))
		return nil, zerr.With(err, "vectors", len(vectors))
	}
	for i := range chunks {
		chunks[i].Vector = vectors[i]
	}

	if err := o.upload(ctx, chunks); err != nil {
		return nil, err
	}
	return json.Marshal(chunks)
}

func (o *OpenAISimple) upload(ctx context.Context, chunks []domain.Chunk) error {
	docs := make([]domain.Document, len(chunks))
	vectors := make([][]float32, len(chunks))
	for i, c := range chunks {
		docs[i] = c.Document()
		vectors[i] = c.Vector
	}
	return o.env.Resources.Store.AddDocuments(ctx, docs, vectors, o.env.Namespace())
}

// Results returns the embedded chunks seen so far.
func (o *OpenAISimple) Results() any {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]domain.Chunk(nil), o.results...)
}

// Completed implements pipeline.Task.
func (o *OpenAISimple) Completed() domain.Event {
	return domain.Completedf("Completed %s", taskLabel)
}
