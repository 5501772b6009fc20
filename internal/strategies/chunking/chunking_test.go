package chunking_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/agrospai/fastrag/internal/adapters/cas"
	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/engine/pipeline"
	"github.com/agrospai/fastrag/internal/strategies/chunking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanMarkdown(t *testing.T) {
	t.Parallel()

	in := `---
title: Gaia-X
canonical: https://docs.example.org/gaia
meta-docusaurus_locale: es
---

[Skip to content](#main)
* [Docs](/docs)
[A](/a) [B](/b) [C](/c)

# Gaia\-X

Intro text ![logo](data:image/png;base64,AAAA) here.[​](#intro)



Overview
========

Copyright © 2024 Someone`

	text, meta := chunking.CleanMarkdown(in)
	assert.Equal(t, "# Gaia-X\n\nIntro text  here.\n\n# Overview", text)
	assert.Equal(t, "Gaia-X", meta["title"])

	norm := chunking.NormalizeMetadata(meta, "file:///page.md")
	assert.Equal(t, map[string]any{
		"source":      "https://docs.example.org/gaia",
		"title":       "Gaia-X",
		"lang":        "es",
		"keywords":    "",
		"description": "",
	}, norm)
}

func TestCleanMarkdown_NoFrontMatter(t *testing.T) {
	t.Parallel()

	text, meta := chunking.CleanMarkdown("plain words\n\n\n\nmore")
	assert.Equal(t, "plain words\n\nmore", text)
	assert.Empty(t, meta)

	norm := chunking.NormalizeMetadata(meta, "file:///x.md")
	assert.Equal(t, "file:///x.md", norm["source"])
	assert.Equal(t, "en", norm["lang"])
}

func TestCleanMarkdown_BrokenFrontMatter(t *testing.T) {
	t.Parallel()

	in := "---\ntitle: [unclosed\n---\nbody"
	text, meta := chunking.CleanMarkdown(in)
	assert.Equal(t, in, text)
	assert.Empty(t, meta)
}

func newEnv(t *testing.T) (pipeline.Env, *cas.Store) {
	t.Helper()
	store, err := cas.Open(t.TempDir(), time.Hour, cas.WithReadCacheBytes(0))
	require.NoError(t, err)
	return pipeline.Env{Resources: pipeline.Resources{Cache: store}, Stage: domain.StageChunking}, store
}

func TestNewSlidingWindow_Params(t *testing.T) {
	t.Parallel()

	env, _ := newEnv(t)
	_, err := chunking.NewSlidingWindow(env, domain.Params{"chunk_size": 100, "chunk_overlap": 100})
	require.ErrorIs(t, err, domain.ErrInvalidParams)

	_, err = chunking.NewSlidingWindow(env, domain.Params{"chunk_size": "big"})
	require.ErrorContains(t, err, domain.ErrInvalidParams.Error())
}

func TestSlidingWindow_Run(t *testing.T) {
	t.Parallel()

	env, store := newEnv(t)
	env.Experiment = domain.ExperimentRef{ID: "exp_abc", Index: 1}
	env.Fingerprint = "chunking:SlidingWindow:small"

	body := "---\ntitle: Spaces\n---\n# Spaces\n\n" + strings.Repeat("word ", 60)
	parsed, err := store.Create(context.Background(), "file:///page.html.HtmlParser.md", []byte(body), domain.Metadata{
		domain.MetaStep:     "parsing",
		domain.MetaStrategy: "HtmlParser",
		domain.MetaSource:   "https://example.org/page",
	})
	require.NoError(t, err)

	task, err := chunking.NewSlidingWindow(env, domain.Params{"chunk_size": 100, "chunk_overlap": 20})
	require.NoError(t, err)
	require.Len(t, store.GetEntries(task.Filter()), 1)

	var events []domain.Event
	emit := func(ev domain.Event) { events = append(events, ev) }
	require.NoError(t, task.Run(context.Background(), parsed.URI, &parsed, emit))

	uri := task.(*chunking.SlidingWindow).ChunkURI(parsed)
	assert.True(t, strings.HasSuffix(uri, ".SlidingWindowChunker.100-20.chunk.json"))
	entry, ok := store.Get(uri)
	require.True(t, ok)
	assert.Equal(t, "chunking", entry.Metadata[domain.MetaStep])
	assert.Equal(t, "exp_abc", entry.Metadata[domain.MetaExperiment])
	assert.Equal(t, "chunking:SlidingWindow:small", entry.Metadata[domain.MetaTask])
	assert.True(t, entry.Metadata.Has("size", 100))

	data, err := store.Content(entry)
	require.NoError(t, err)
	var chunks []domain.Chunk
	require.NoError(t, json.Unmarshal(data, &chunks))
	require.Greater(t, len(chunks), 2)

	for i, c := range chunks {
		assert.True(t, strings.HasPrefix(c.PageContent, "Context: Spaces\n"))
		assert.LessOrEqual(t, len(strings.TrimPrefix(c.PageContent, "Context: Spaces\n")), 100)
		assert.Equal(t, "child", c.Level)
		assert.Nil(t, c.ParentID)
		assert.NotEmpty(t, c.ChunkID)
		assert.InDelta(t, float64(i), c.Metadata["chunk_index"], 0)
		assert.InDelta(t, float64(len(chunks)), c.Metadata["total_chunks"], 0)
		assert.Equal(t, "https://example.org/page", c.Metadata["source"])
	}

	require.Len(t, events, 1)
	assert.Contains(t, events[0].Data, "SlidingWindowChunker Generated ")

	require.NoError(t, task.Run(context.Background(), parsed.URI, &parsed, emit))
	assert.Contains(t, events[1].Data, "SlidingWindowChunker Cached ")
	assert.Len(t, task.(pipeline.Resulter).Results(), 2*len(chunks))
	assert.Equal(t, "Finished SlidingWindow", task.Completed().Data)
}
