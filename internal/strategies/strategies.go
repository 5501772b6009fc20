// Package strategies registers the built-in task factories.
package strategies

import (
	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/engine/pipeline"
	"github.com/agrospai/fastrag/internal/strategies/benchmarking"
	"github.com/agrospai/fastrag/internal/strategies/chunking"
	"github.com/agrospai/fastrag/internal/strategies/embedding"
	"github.com/agrospai/fastrag/internal/strategies/fetching"
	"github.com/agrospai/fastrag/internal/strategies/parsing"
)

// RegisterAll adds every built-in strategy to r.
func RegisterAll(r *pipeline.Strategies) {
	r.Register(domain.StageFetching, fetching.PathName, fetching.NewPath)
	r.Register(domain.StageFetching, fetching.URLName, fetching.NewURL)
	r.Register(domain.StageFetching, fetching.SitemapName, fetching.NewSitemap)

	r.Register(domain.StageParsing, parsing.HTMLName, parsing.NewHTML)
	r.Register(domain.StageParsing, parsing.FileName, parsing.NewFile)

	r.Register(domain.StageChunking, chunking.SlidingWindowName, chunking.NewSlidingWindow)
	r.Register(domain.StageChunking, chunking.ParentChildName, chunking.NewParentChild)

	r.Register(domain.StageEmbedding, embedding.OpenAISimpleName, embedding.NewOpenAISimple)
	r.Register(domain.StageEmbedding, embedding.OpenAISimpleAlt, embedding.NewOpenAISimple)

	r.Register(domain.StageBenchmarking, benchmarking.QuerySetName, benchmarking.NewQuerySet)
}

// New returns a registry holding every built-in strategy.
func New() *pipeline.Strategies {
	r := pipeline.NewStrategies()
	RegisterAll(r)
	return r
}
