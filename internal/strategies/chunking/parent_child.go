package chunking

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/core/ports"
	"github.com/agrospai/fastrag/internal/engine/pipeline"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"
	"go.trai.ch/zerr"
	"golang.org/x/sync/semaphore"
)

const (
	// ParentChildName is the registered name of the parent/child chunker.
	ParentChildName = "ParentChild"

	// DefaultParentSize bounds a parent section in characters. Longer sections are
	// split into several parents sharing one title path.
	DefaultParentSize = 4000
	// DefaultBreakpointPercentile is where the semantic splitter cuts.
	DefaultBreakpointPercentile = 95.0
	// DefaultMaxConcurrent bounds embedding calls across the task's units.
	DefaultMaxConcurrent = 5

	// LevelParent marks section chunks that children point to.
	LevelParent = "parent"

	parentChildLabel = "ParentChildChunker"
)

// ParentChildParams configures the chunker. The embedding fields follow the
// embedding task and fall back to the run's embedder resource.
type ParentChildParams struct {
	ports.EmbedderConfig `yaml:",inline"`

	ParentSize    int     `yaml:"parent_size"`
	Percentile    float64 `yaml:"breakpoint_percentile"`
	MaxConcurrent int     `yaml:"max_concurrent"`
}

// ParentChild splits each parsed document into header sections, then splits every
// section into semantically coherent children. Sections holding tables or code are
// kept whole as a single child.
type ParentChild struct {
	env      pipeline.Env
	params   ParentChildParams
	embedder ports.Embedder
	splitter *textsplitter.MarkdownTextSplitter
	sem      *semaphore.Weighted

	mu     sync.Mutex
	chunks []domain.Chunk
}

// NewParentChild implements pipeline.Factory.
func NewParentChild(env pipeline.Env, params domain.Params) (pipeline.Task, error) {
	p := ParentChildParams{
		EmbedderConfig: ports.EmbedderConfig{BatchSize: 1},
		ParentSize:     DefaultParentSize,
		Percentile:     DefaultBreakpointPercentile,
		MaxConcurrent:  DefaultMaxConcurrent,
	}
	if err := params.Decode(&p); err != nil {
		return nil, err
	}
	if p.ParentSize <= 0 || p.Percentile <= 0 || p.Percentile > 100 || p.MaxConcurrent <= 0 {
		err := zerr.With(zerr.Wrap(domain.ErrInvalidParams, ParentChildName), "parent_size", p.ParentSize)
		err = zerr.With(err, "breakpoint_percentile", p.Percentile)
		return nil, zerr.With(err, "max_concurrent", p.MaxConcurrent)
	}

	res := env.Resources
	embedder := res.Embedder
	if res.Embedders != nil {
		e, err := res.Embedders(p.EmbedderConfig)
		if err != nil {
			return nil, err
		}
		embedder = e
	}
	if embedder == nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrMissingResource, ParentChildName), "resource", string(domain.ResourceEmbedder))
	}

	return &ParentChild{
		env:      env,
		params:   p,
		embedder: embedder,
		splitter: textsplitter.NewMarkdownTextSplitter(
			textsplitter.WithChunkSize(p.ParentSize),
			textsplitter.WithChunkOverlap(0),
			textsplitter.WithHeadingHierarchy(true),
			textsplitter.WithCodeBlocks(true),
			textsplitter.WithJoinTableRows(true),
		),
		sem: semaphore.NewWeighted(int64(p.MaxConcurrent)),
	}, nil
}

// Name implements pipeline.Task.
func (c *ParentChild) Name() string { return ParentChildName }

// Filter implements pipeline.Task.
func (c *ParentChild) Filter() domain.Filter {
	return domain.MatchKV(domain.MetaStep, string(domain.StageParsing))
}

// ChunkURI is the cache key of the chunks produced from entry.
func (c *ParentChild) ChunkURI(entry domain.CacheEntry) string {
	model := c.params.Model
	if model == "" {
		model = "default"
	}
	return fmt.Sprintf("%s.%s.%s.chunk.jsonl", entry.FileURI(), parentChildLabel, model)
}

// Run implements pipeline.Task.
func (c *ParentChild) Run(ctx context.Context, uri string, entry *domain.CacheEntry, emit pipeline.Emit) error {
	cache := c.env.Resources.Cache
	meta := domain.Metadata{
		domain.MetaStep:     string(domain.StageChunking),
		domain.MetaStrategy: ParentChildName,
		"model":             c.params.Model,
	}

	existed, chunked, err := cache.GetOrCreate(ctx, c.ChunkURI(*entry), func(ctx context.Context) ([]byte, error) {
		raw, err := cache.Content(*entry)
		if err != nil {
			return nil, err
		}
		return c.chunk(ctx, string(raw), sourceOf(uri, *entry))
	}, c.env.Tag(meta))
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

	c.mu.Lock()
	c.chunks = append(c.chunks, chunks...)
	c.mu.Unlock()

	status := "Generated"
	if existed {
		status = "Cached"
	}
	emit(domain.Progressf("%s %s %d chunks for %s", parentChildLabel, status, len(chunks), entry.Path))
	return nil
}

// section is one header-delimited part of a document.
type section struct {
	headers []string
	body    string
}

// sections splits text on its headings. Heading-only parts are dropped.
func (c *ParentChild) sections(text string) ([]section, error) {
	parts, err := c.splitter.SplitText(text)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrParseFailed.Error())
	}

	out := make([]section, 0, len(parts))
	for _, part := range parts {
		var s section
		rest := part
		for {
			line, tail, _ := strings.Cut(rest, "\n")
			title, ok := headingText(line)
			if !ok {
				break
			}
			s.headers = append(s.headers, title)
			rest = tail
		}
		s.body = strings.TrimSpace(rest)
		if s.body != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// headingText returns the title of an ATX heading line.
func headingText(line string) (string, bool) {
	trimmed := strings.TrimLeft(line, "#")
	level := len(line) - len(trimmed)
	if level == 0 || level > 6 || !strings.HasPrefix(trimmed, " ") {
		return "", false
	}
	return strings.TrimSpace(trimmed), true
}

// keepWhole reports whether a section holds a table or code, which semantic
// splitting would tear apart.
func keepWhole(body string) bool {
	return strings.Contains(body, "| ---") || strings.Contains(body, "```")
}

func (c *ParentChild) chunk(ctx context.Context, content, source string) ([]byte, error) {
	text, raw := CleanMarkdown(content)
	meta := NormalizeMetadata(raw, source)
	description, _ := meta["description"].(string)

	sections, err := c.sections(text)
	if err != nil {
		return nil, err
	}

	chunks := make([]domain.Chunk, 0, 2*len(sections))
	for _, s := range sections {
		titlePath := strings.Join(s.headers, " > ")
		header := "Context: " + titlePath
		if description != "" {
			header += "\nSummary: " + description
		}
		parentContent := header + "\n\n" + s.body
		parentID := uuid.NewString()

		parentMeta := make(map[string]any, len(meta)+len(s.headers)+2)
		for k, v := range meta {
			parentMeta[k] = v
		}
		for i, h := range s.headers {
			parentMeta[fmt.Sprintf("header_%d", i+1)] = h
		}
		parentMeta["chunk_type"] = LevelParent
		parentMeta["title_path"] = titlePath

		chunks = append(chunks, domain.Chunk{
			ChunkID:     parentID,
			PageContent: parentContent,
			Metadata:    parentMeta,
			Level:       LevelParent,
		})

		if keepWhole(s.body) {
			chunks = append(chunks, domain.Chunk{
				ChunkID:     uuid.NewString(),
				PageContent: parentContent,
				Metadata:    withChild(parentMeta, -1),
				Level:       LevelChild,
				ParentID:    &parentID,
			})
			continue
		}

		children, err := c.children(ctx, s.body)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			children = []string{s.body}
		}
		for i, child := range children {
			if titlePath != "" && !strings.HasPrefix(child, "Context:") {
				child = "Context: " + titlePath + "\n" + child
			}
			chunks = append(chunks, domain.Chunk{
				ChunkID:     uuid.NewString(),
				PageContent: child,
				Metadata:    withChild(parentMeta, i),
				Level:       LevelChild,
				ParentID:    &parentID,
			})
		}
	}
	return json.Marshal(chunks)
}

func (c *ParentChild) children(ctx context.Context, body string) ([]string, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)
	return SemanticSplit(ctx, c.embedder, body, c.params.Percentile)
}

// withChild copies a parent's metadata for a child. A negative index leaves
// child_index unset.
func withChild(parent map[string]any, index int) map[string]any {
	out := make(map[string]any, len(parent)+1)
	for k, v := range parent {
		out[k] = v
	}
	out["chunk_type"] = LevelChild
	if index >= 0 {
		out["child_index"] = index
	}
	return out
}

// Results returns every chunk seen so far.
func (c *ParentChild) Results() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Chunk(nil), c.chunks...)
}

// Completed implements pipeline.Task.
func (c *ParentChild) Completed() domain.Event {
	return domain.Completedf("Finished ParentChildChunking")
}
