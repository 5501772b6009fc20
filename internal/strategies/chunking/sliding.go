// Package chunking splits parsed Markdown into chunk records, either with a sliding
// window or as header sections with semantic children.
package chunking

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/engine/pipeline"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"
	"go.trai.ch/zerr"
)

const (
	// SlidingWindowName is the registered name of the sliding window chunker.
	SlidingWindowName = "SlidingWindow"

	// DefaultChunkSize and DefaultChunkOverlap are measured in characters.
	DefaultChunkSize    = 1200
	DefaultChunkOverlap = 200

	// LevelChild marks chunks without a parent.
	LevelChild = "child"

	taskLabel = "SlidingWindowChunker"
)

// Separators are tried in order, coarsest first.
var Separators = []string{"\n\n", "\n", ". ", " ", ""}

// SlidingWindowParams configures the chunker.
type SlidingWindowParams struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// SlidingWindow splits each parsed document with a recursive character splitter.
type SlidingWindow struct {
	env      pipeline.Env
	params   SlidingWindowParams
	splitter textsplitter.RecursiveCharacter

	mu     sync.Mutex
	chunks []domain.Chunk
}

// NewSlidingWindow implements pipeline.Factory.
func NewSlidingWindow(env pipeline.Env, params domain.Params) (pipeline.Task, error) {
	p := SlidingWindowParams{ChunkSize: DefaultChunkSize, ChunkOverlap: DefaultChunkOverlap}
	if err := params.Decode(&p); err != nil {
		return nil, err
	}
	if p.ChunkSize <= 0 || p.ChunkOverlap < 0 || p.ChunkOverlap >= p.ChunkSize {
		err := zerr.With(zerr.Wrap(domain.ErrInvalidParams, SlidingWindowName), "chunk_size", p.ChunkSize)
		return nil, zerr.With(err, "chunk_overlap", p.ChunkOverlap)
	}

	return &SlidingWindow{
		env:    env,
		params: p,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(p.ChunkSize),
			textsplitter.WithChunkOverlap(p.ChunkOverlap),
			textsplitter.WithSeparators(Separators),
		),
	}, nil
}

// Name implements pipeline.Task.
func (s *SlidingWindow) Name() string { return SlidingWindowName }

// Filter implements pipeline.Task.
func (s *SlidingWindow) Filter() domain.Filter {
	return domain.MatchKV(domain.MetaStep, string(domain.StageParsing))
}

// ChunkURI is the cache key of the chunks produced from entry.
func (s *SlidingWindow) ChunkURI(entry domain.CacheEntry) string {
	return fmt.Sprintf("%s.%s.%d-%d.chunk.json", entry.FileURI(), taskLabel, s.params.ChunkSize, s.params.ChunkOverlap)
}

// Run implements pipeline.Task.
func (s *SlidingWindow) Run(ctx context.Context, uri string, entry *domain.CacheEntry, emit pipeline.Emit) error {
	cache := s.env.Resources.Cache
	meta := domain.Metadata{
		domain.MetaStep:     string(domain.StageChunking),
		domain.MetaStrategy: SlidingWindowName,
		"size":              s.params.ChunkSize,
		"overlap":           s.params.ChunkOverlap,
	}

	existed, chunked, err := cache.GetOrCreate(ctx, s.ChunkURI(*entry), func(context.Context) ([]byte, error) {
		raw, err := cache.Content(*entry)
		if err != nil {
			return nil, err
		}
		return s.chunk(string(raw), sourceOf(uri, *entry))
	}, s.env.Tag(meta))
	if err != nil {
		return err
	}

	data, err := cache.Content(chunked)
	if err != nil {
		return err
	}
	var chunks []domain.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrParseFailed.Error()), "uri", chunked.URI)
	}

	s.mu.Lock()
	s.chunks = append(s.chunks, chunks...)
	s.mu.Unlock()

	status := "Generated"
	if existed {
		status = "Cached"
	}
	emit(domain.Progressf("%s %s %d chunks for %s", taskLabel, status, len(chunks), entry.Path))
	return nil
}

// sourceOf prefers the origin recorded by the parser over the parsed file's uri.
func sourceOf(uri string, entry domain.CacheEntry) string {
	if src, ok := entry.Metadata[domain.MetaSource].(string); ok && src != "" {
		return src
	}
	return uri
}

func (s *SlidingWindow) chunk(content, source string) ([]byte, error) {
	text, raw := CleanMarkdown(content)
	meta := NormalizeMetadata(raw, source)

	parts, err := s.splitter.SplitText(text)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrParseFailed.Error())
	}

	title, _ := meta["title"].(string)
	chunks := make([]domain.Chunk, 0, len(parts))
	for i, part := range parts {
		if title != "" {
			part = "Context: " + title + "\n" + part
		}
		chunkMeta := make(map[string]any, len(meta)+2)
		for k, v := range meta {
			chunkMeta[k] = v
		}
		chunkMeta["chunk_index"] = i
		chunkMeta["total_chunks"] = len(parts)

		chunks = append(chunks, domain.Chunk{
			ChunkID:     uuid.NewString(),
			PageContent: part,
			Metadata:    chunkMeta,
			Level:       LevelChild,
		})
	}
	return json.Marshal(chunks)
}

// Results returns every chunk seen so far.
func (s *SlidingWindow) Results() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Chunk(nil), s.chunks...)
}

// Completed implements pipeline.Task.
func (s *SlidingWindow) Completed() domain.Event {
	return domain.Completedf("Finished %s", SlidingWindowName)
}
