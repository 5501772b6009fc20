// Package embedder builds OpenAI-compatible embedding clients.
package embedder

import (
	"context"
	"slices"
	"strings"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/core/ports"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"go.trai.ch/zerr"
)

// StrategyOpenAI is the resource strategy name of the OpenAI-compatible backend.
const StrategyOpenAI = "openai"

// DefaultBatchSize is the number of texts sent per request when none is configured.
const DefaultBatchSize = 1

// Self-hosted endpoints usually ignore the key, but the client refuses to start without one.
const placeholderKey = "EMPTY"

// OpenAI is the ports.EmbedderProvider of the OpenAI-compatible backend.
func OpenAI(env ports.ResourceEnv) ports.EmbedderFactory {
	return func(cfg ports.EmbedderConfig) (ports.Embedder, error) {
		return New(cfg, env.HTTP)
	}
}

// New creates an embedder for cfg that sends its requests through doer.
func New(cfg ports.EmbedderConfig, doer ports.HTTPClient) (ports.Embedder, error) {
	key := cfg.APIKey
	if key == "" {
		key = placeholderKey
	}
	opts := []openai.Option{openai.WithToken(key)}
	if cfg.Model != "" {
		opts = append(opts, openai.WithEmbeddingModel(cfg.Model))
	}
	if cfg.URL != "" {
		opts = append(opts, openai.WithBaseURL(strings.TrimSuffix(cfg.URL, "/")))
	}
	if doer != nil {
		opts = append(opts, openai.WithHTTPClient(doer))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrEmbeddingFailed.Error()), "model", cfg.Model)
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	e, err := embeddings.NewEmbedder(client, embeddings.WithBatchSize(batch))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrEmbeddingFailed.Error()), "model", cfg.Model)
	}
	return &embedder{inner: e, model: cfg.Model}, nil
}

type embedder struct {
	inner embeddings.Embedder
	model string
}

func (e *embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	// The client rewrites newlines in place.
	vectors, err := e.inner.EmbedDocuments(ctx, slices.Clone(texts))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrEmbeddingFailed.Error()), "model", e.model)
	}
	return vectors, nil
}

func (e *embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := e.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrEmbeddingFailed.Error()), "model", e.model)
	}
	return vector, nil
}
