package embedding_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/agrospai/fastrag/internal/adapters/cas"
	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/core/ports"
	"github.com/agrospai/fastrag/internal/core/ports/mocks"
	"github.com/agrospai/fastrag/internal/engine/pipeline"
	"github.com/agrospai/fastrag/internal/strategies/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	env      pipeline.Env
	store    *cas.Store
	vectors  *mocks.MockVectorStore
	embedder *mocks.MockEmbedder
	chunks   domain.CacheEntry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	store, err := cas.Open(t.TempDir(), time.Hour, cas.WithReadCacheBytes(0))
	require.NoError(t, err)

	f := &fixture{
		store:    store,
		vectors:  mocks.NewMockVectorStore(ctrl),
		embedder: mocks.NewMockEmbedder(ctrl),
	}
	f.env = pipeline.Env{
		Resources:  pipeline.Resources{Cache: store, Store: f.vectors, Embedder: f.embedder},
		Stage:      domain.StageEmbedding,
		Strategy:   embedding.OpenAISimpleName,
		Experiment: domain.ExperimentRef{ID: "exp_0123456789abcdef", Index: 1},
	}

	records, err := json.Marshal([]domain.Chunk{
		{ChunkID: "a", PageContent: "first", Metadata: map[string]any{"chunk_index": 0}, Level: "child"},
		{ChunkID: "b", PageContent: "second", Metadata: map[string]any{"chunk_index": 1}, Level: "child"},
	})
	require.NoError(t, err)
	f.chunks, err = store.Create(context.Background(), "file:///p.chunk.json", records, domain.Metadata{
		domain.MetaStep:     "chunking",
		domain.MetaStrategy: "SlidingWindow",
	})
	require.NoError(t, err)
	return f
}

func TestOpenAISimple_GenerateThenReupload(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.embedder.EXPECT().EmbedDocuments(gomock.Any(), []string{"first", "second"}).
		Return([][]float32{{1, 0}, {0, 1}}, nil)
	f.vectors.EXPECT().AddDocuments(gomock.Any(), gomock.Len(2), [][]float32{{1, 0}, {0, 1}}, "exp_0123456789abcdef").
		Return(nil).Times(2)

	task, err := embedding.NewOpenAISimple(f.env, domain.Params{"model": "bge-m3"})
	require.NoError(t, err)
	require.Len(t, f.store.GetEntries(task.Filter()), 1)

	var events []string
	emit := func(ev domain.Event) { events = append(events, ev.Data) }

	require.NoError(t, task.Run(ctx, f.chunks.URI, &f.chunks, emit))
	assert.Equal(t, []string{"OpenAISimple exp_0123456789abcdef Generated embeddings for file:///p.chunk.json"}, events)

	uri := task.(*embedding.OpenAISimple).EmbeddingURI(f.chunks)
	assert.True(t, strings.HasSuffix(uri, ".OpenAISimple.bge-m3.embedding.json"))
	entry, ok := f.store.Get(uri)
	require.True(t, ok)
	assert.Equal(t, "embedding", entry.Metadata[domain.MetaStep])
	assert.Equal(t, "exp_0123456789abcdef", entry.Metadata[domain.MetaExperiment])

	events = nil
	require.NoError(t, task.Run(ctx, f.chunks.URI, &f.chunks, emit))
	assert.Equal(t, []string{
		"Re-uploaded embeddings to exp_0123456789abcdef",
		"OpenAISimple exp_0123456789abcdef Cached embeddings for file:///p.chunk.json",
	}, events)

	results, ok := task.(pipeline.Resulter).Results().([]domain.Chunk)
	require.True(t, ok)
	require.Len(t, results, 4)
	assert.Equal(t, []float32{0, 1}, results[1].Vector)
	assert.Equal(t, "Completed OpenAISimple", task.Completed().Data)
}

func TestOpenAISimple_UsesFactory(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	var got ports.EmbedderConfig
	f.env.Resources.Embedder = nil
	f.env.Resources.Embedders = func(cfg ports.EmbedderConfig) (ports.Embedder, error) {
		got = cfg
		return f.embedder, nil
	}

	_, err := embedding.NewOpenAISimple(f.env, domain.Params{
		"model": "m", "api_key": "k", "url": "http://llm:8080/v1", "batch_size": 16,
	})
	require.NoError(t, err)
	assert.Equal(t, ports.EmbedderConfig{Model: "m", APIKey: "k", URL: "http://llm:8080/v1", BatchSize: 16}, got)
}

func TestOpenAISimple_MissingResources(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	env := f.env
	env.Resources.Store = nil
	_, err := embedding.NewOpenAISimple(env, nil)
	require.ErrorIs(t, err, domain.ErrMissingResource)

	env = f.env
	env.Resources.Embedder = nil
	_, err = embedding.NewOpenAISimple(env, nil)
	require.ErrorIs(t, err, domain.ErrMissingResource)
}

func TestOpenAISimple_EmbedFailureLeavesNoEntry(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.embedder.EXPECT().EmbedDocuments(gomock.Any(), gomock.Any()).Return([][]float32{{1}}, nil)

	task, err := embedding.NewOpenAISimple(f.env, domain.Params{"model": "m"})
	require.NoError(t, err)

	err = task.Run(context.Background(), f.chunks.URI, &f.chunks, func(domain.Event) {})
	require.ErrorIs(t, err, domain.ErrEmbeddingFailed)
	assert.False(t, f.store.IsPresent(task.(*embedding.OpenAISimple).EmbeddingURI(f.chunks)))
}
