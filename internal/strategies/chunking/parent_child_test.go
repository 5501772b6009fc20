package chunking_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/core/ports"
	"github.com/agrospai/fastrag/internal/core/ports/mocks"
	"github.com/agrospai/fastrag/internal/strategies/chunking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// topicVectors embeds a text as its counts of "Cat" and "Rocket".
func topicVectors(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(strings.Count(t, "Cat")), float32(strings.Count(t, "Rocket"))}
	}
	return out, nil
}

const guide = `---
title: Guide
meta-description: A guide
---
# Guide

Cats purr softly. Cats sleep a lot. Rockets fly high. Rockets burn fuel.

## Install

| a | b |
| --- | --- |
| 1 | 2 |
`

func TestSentences(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"One.", "Two?", "Three! Four"}, chunking.Sentences("One. Two?  Three! Four"))
	assert.Equal(t, []string{"One.", "Two?"}, chunking.Sentences("One. Two?  "))
	assert.Equal(t, []string{"v1.2 is out.", "Done"}, chunking.Sentences("v1.2 is out.\nDone"))
	assert.Empty(t, chunking.Sentences(""))
}

func TestPercentile(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 2.5, chunking.Percentile([]float64{4, 1, 3, 2}, 50), 1e-9)
	assert.InDelta(t, 4, chunking.Percentile([]float64{4, 1, 3, 2}, 100), 1e-9)
	assert.InDelta(t, 0, chunking.Percentile(nil, 95), 1e-9)
}

func TestSemanticSplit(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	embedder := mocks.NewMockEmbedder(ctrl)
	embedder.EXPECT().EmbedDocuments(gomock.Any(), gomock.Any()).DoAndReturn(topicVectors)

	groups, err := chunking.SemanticSplit(context.Background(), embedder,
		"Cats purr softly. Cats sleep a lot. Rockets fly high. Rockets burn fuel.", 95)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cats purr softly. Cats sleep a lot.", "Rockets fly high. Rockets burn fuel."}, groups)

	single, err := chunking.SemanticSplit(context.Background(), embedder, "Just one sentence", 95)
	require.NoError(t, err)
	assert.Equal(t, []string{"Just one sentence"}, single, "a single sentence needs no embedding")
}

func TestNewParentChild_Params(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	env, _ := newEnv(t)
	_, err := chunking.NewParentChild(env, nil)
	require.ErrorIs(t, err, domain.ErrMissingResource)

	env.Resources.Embedder = mocks.NewMockEmbedder(ctrl)
	_, err = chunking.NewParentChild(env, domain.Params{"breakpoint_percentile": 120})
	require.ErrorIs(t, err, domain.ErrInvalidParams)

	var got ports.EmbedderConfig
	env.Resources.Embedders = func(cfg ports.EmbedderConfig) (ports.Embedder, error) {
		got = cfg
		return mocks.NewMockEmbedder(ctrl), nil
	}
	task, err := chunking.NewParentChild(env, domain.Params{"model": "bge-m3", "api_key": "k"})
	require.NoError(t, err)
	assert.Equal(t, "bge-m3", got.Model)
	assert.Equal(t, "k", got.APIKey)
	assert.Equal(t, chunking.ParentChildName, task.Name())
}

func TestParentChild_Run(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	env, store := newEnv(t)
	embedder := mocks.NewMockEmbedder(ctrl)
	embedder.EXPECT().EmbedDocuments(gomock.Any(), gomock.Any()).DoAndReturn(topicVectors).Times(1)
	env.Resources.Embedder = embedder
	env.Experiment = domain.ExperimentRef{ID: "exp_pc", Index: 1}
	env.Fingerprint = "chunking:ParentChild"

	parsed, err := store.Create(context.Background(), "file:///guide.html.HtmlParser.md", []byte(guide), domain.Metadata{
		domain.MetaStep:   "parsing",
		domain.MetaSource: "https://example.org/guide",
	})
	require.NoError(t, err)

	task, err := chunking.NewParentChild(env, domain.Params{"model": "bge-m3"})
	require.NoError(t, err)
	require.Len(t, store.GetEntries(task.Filter()), 1)

	var events []domain.Event
	emit := func(ev domain.Event) { events = append(events, ev) }
	require.NoError(t, task.Run(context.Background(), parsed.URI, &parsed, emit))

	uri := task.(*chunking.ParentChild).ChunkURI(parsed)
	assert.True(t, strings.HasSuffix(uri, ".ParentChildChunker.bge-m3.chunk.jsonl"))
	entry, ok := store.Get(uri)
	require.True(t, ok)
	assert.Equal(t, "ParentChild", entry.Metadata[domain.MetaStrategy])
	assert.Equal(t, "exp_pc", entry.Metadata[domain.MetaExperiment])

	data, err := store.Content(entry)
	require.NoError(t, err)
	var chunks []domain.Chunk
	require.NoError(t, json.Unmarshal(data, &chunks))
	require.Len(t, chunks, 5)

	intro := chunks[0]
	assert.Equal(t, chunking.LevelParent, intro.Level)
	assert.Nil(t, intro.ParentID)
	assert.Equal(t, "Context: Guide\nSummary: A guide\n\nCats purr softly. Cats sleep a lot. Rockets fly high. Rockets burn fuel.", intro.PageContent)
	assert.Equal(t, "Guide", intro.Metadata["title_path"])
	assert.Equal(t, "Guide", intro.Metadata["header_1"])
	assert.Equal(t, "https://example.org/guide", intro.Metadata["source"])

	for i, want := range []string{"Cats purr softly. Cats sleep a lot.", "Rockets fly high. Rockets burn fuel."} {
		child := chunks[1+i]
		assert.Equal(t, chunking.LevelChild, child.Level)
		require.NotNil(t, child.ParentID)
		assert.Equal(t, intro.ChunkID, *child.ParentID)
		assert.Equal(t, "Context: Guide\n"+want, child.PageContent)
		assert.InDelta(t, float64(i), child.Metadata["child_index"], 0)
	}

	install := chunks[3]
	assert.Equal(t, "Guide > Install", install.Metadata["title_path"])
	assert.Equal(t, "Install", install.Metadata["header_2"])
	assert.Contains(t, install.PageContent, "| --- | --- |")

	table := chunks[4]
	require.NotNil(t, table.ParentID)
	assert.Equal(t, install.ChunkID, *table.ParentID)
	assert.Equal(t, install.PageContent, table.PageContent, "tables are kept whole")
	assert.NotContains(t, table.Metadata, "child_index")

	require.NoError(t, task.Run(context.Background(), parsed.URI, &parsed, emit))
	require.Len(t, events, 2)
	assert.Contains(t, events[0].Data, "ParentChildChunker Generated 5 chunks")
	assert.Contains(t, events[1].Data, "ParentChildChunker Cached 5 chunks")
	assert.Equal(t, "Finished ParentChildChunking", task.Completed().Data)
}

func TestParentChild_EmbedderFailureKeepsSection(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	env, store := newEnv(t)
	embedder := mocks.NewMockEmbedder(ctrl)
	embedder.EXPECT().EmbedDocuments(gomock.Any(), gomock.Any()).Return(nil, errors.New("rate limited"))
	env.Resources.Embedder = embedder

	parsed, err := store.Create(context.Background(), "file:///a.md", []byte("# A\n\nFirst point. Second point."), domain.Metadata{
		domain.MetaStep: "parsing",
	})
	require.NoError(t, err)

	task, err := chunking.NewParentChild(env, nil)
	require.NoError(t, err)
	require.NoError(t, task.Run(context.Background(), parsed.URI, &parsed, func(domain.Event) {}))

	chunks, ok := task.(interface{ Results() any }).Results().([]domain.Chunk)
	require.True(t, ok)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Context: A\nFirst point. Second point.", chunks[1].PageContent)
}
