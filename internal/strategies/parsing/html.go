// Package parsing implements the tasks that turn fetched documents into Markdown.
package parsing

import (
	"context"
	"sync/atomic"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/engine/pipeline"
)

// HTMLName is the registered name of the HTML parser.
const HTMLName = "HtmlParser"

// Params is the shared parameter block of parsers. Use names the fetchers whose
// entries the parser consumes; the step applies it as a scope.
type Params struct {
	Use []string `yaml:"use"`
}

// ParsedURI is the cache key of the Markdown produced from entry by strategy.
func ParsedURI(entry domain.CacheEntry, strategy string) string {
	return entry.FileURI() + "." + strategy + ".md"
}

func parsedMeta(source, strategy string) domain.Metadata {
	return domain.Metadata{
		domain.MetaSource:   source,
		domain.MetaStrategy: strategy,
		domain.MetaStep:     string(domain.StageParsing),
	}
}

// HTML converts fetched pages to Markdown.
type HTML struct {
	env    pipeline.Env
	parsed atomic.Int64
}

// NewHTML implements pipeline.Factory.
func NewHTML(env pipeline.Env, params domain.Params) (pipeline.Task, error) {
	var p Params
	if err := params.Decode(&p); err != nil {
		return nil, err
	}
	return &HTML{env: env}, nil
}

// Name implements pipeline.Task.
func (h *HTML) Name() string { return HTMLName }

// Filter implements pipeline.Task.
func (h *HTML) Filter() domain.Filter {
	return domain.All(
		domain.MatchKV(domain.MetaStep, string(domain.StageFetching)),
		domain.MatchKV(domain.MetaFormat, "html"),
	)
}

// Run implements pipeline.Task.
func (h *HTML) Run(ctx context.Context, uri string, entry *domain.CacheEntry, emit pipeline.Emit) error {
	cache := h.env.Resources.Cache
	existed, _, err := cache.GetOrCreate(ctx, ParsedURI(*entry, HTMLName), func(context.Context) ([]byte, error) {
		raw, err := cache.Content(*entry)
		if err != nil {
			return nil, err
		}
		return HTMLToMarkdown(raw)
	}, h.env.Tag(parsedMeta(uri, HTMLName)))
	if err != nil {
		return err
	}

	h.parsed.Add(1)
	if existed {
		emit(domain.Progressf("Cached HTML %s", uri))
	} else {
		emit(domain.Progressf("Parsing HTML %s", uri))
	}
	return nil
}

// Completed implements pipeline.Task.
func (h *HTML) Completed() domain.Event {
	return domain.Completedf("Parsed %d HTML documents", h.parsed.Load())
}
