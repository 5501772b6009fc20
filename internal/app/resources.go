package app

import (
	"context"
	"errors"

	"github.com/agrospai/fastrag/internal/adapters/embedder"
	"github.com/agrospai/fastrag/internal/adapters/llm"
	"github.com/agrospai/fastrag/internal/adapters/vectorstore"
	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/core/ports"
	"github.com/agrospai/fastrag/internal/engine/pipeline"
	"github.com/agrospai/fastrag/internal/engine/registry"
	"go.trai.ch/zerr"
)

// Backends holds the implementations selectable in the resources section.
type Backends struct {
	Stores    *registry.Registry[ports.VectorStoreFactory]
	LLMs      *registry.Registry[ports.LLMFactory]
	Embedders *registry.Registry[ports.EmbedderProvider]
}

// DefaultBackends registers the built-in store, LLM and embedder backends.
func DefaultBackends() *Backends {
	b := &Backends{
		Stores:    registry.New[ports.VectorStoreFactory](),
		LLMs:      registry.New[ports.LLMFactory](),
		Embedders: registry.New[ports.EmbedderProvider](),
	}
	b.Stores.Register(domain.ResourceStore, vectorstore.StrategyLocal, vectorstore.LocalFactory)
	b.Stores.Register(domain.ResourceStore, vectorstore.StrategyWeaviate, vectorstore.WeaviateFactory)
	b.LLMs.Register(domain.ResourceLLM, llm.StrategyOpenAI, llm.Factory)
	b.Embedders.Register(domain.ResourceEmbedder, embedder.StrategyOpenAI, embedder.OpenAI)
	return b
}

// resources is what a run shares between its tasks, plus the handles to release.
type resources struct {
	pipeline.Resources
	store ports.VectorStore
}

func (r resources) Close() error {
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}

// build resolves the configured resources. Absent sections leave their slot empty;
// tasks needing them fail with ErrMissingResource when they are built.
func (b *Backends) build(ctx context.Context, cfg domain.Resources, cache ports.Cache, env ports.ResourceEnv) (resources, error) {
	res := resources{Resources: pipeline.Resources{Cache: cache, HTTP: env.HTTP}}

	if s := cfg.Store; s != nil {
		factory, err := b.Stores.Resolve(domain.ResourceStore, s.Name)
		if err != nil {
			return resources{}, err
		}
		store, err := factory(ctx, s.Params, env)
		if err != nil {
			return resources{}, zerr.With(err, "resource", string(domain.ResourceStore))
		}
		res.store = store
		res.Store = store
	}

	if s := cfg.LLM; s != nil {
		factory, err := b.LLMs.Resolve(domain.ResourceLLM, s.Name)
		if err != nil {
			return resources{}, errors.Join(err, res.Close())
		}
		model, err := factory(ctx, s.Params, env)
		if err != nil {
			return resources{}, errors.Join(zerr.With(err, "resource", string(domain.ResourceLLM)), res.Close())
		}
		res.LLM = model
	}

	if s := cfg.Embedder; s != nil {
		provider, err := b.Embedders.Resolve(domain.ResourceEmbedder, s.Name)
		if err != nil {
			return resources{}, errors.Join(err, res.Close())
		}
		var base ports.EmbedderConfig
		if err := s.Params.Decode(&base); err != nil {
			err = zerr.With(err, "resource", string(domain.ResourceEmbedder))
			return resources{}, errors.Join(err, res.Close())
		}
		factory := provider(env)
		shared, err := factory(base)
		if err != nil {
			return resources{}, errors.Join(zerr.With(err, "resource", string(domain.ResourceEmbedder)), res.Close())
		}
		res.Embedder = shared
		res.Embedders = inherit(factory, base)
	}

	return res, nil
}

// inherit fills the fields a task leaves empty from the resource-level embedder.
func inherit(factory ports.EmbedderFactory, base ports.EmbedderConfig) ports.EmbedderFactory {
	return func(cfg ports.EmbedderConfig) (ports.Embedder, error) {
		if cfg.Model == "" {
			cfg.Model = base.Model
		}
		if cfg.APIKey == "" {
			cfg.APIKey = base.APIKey
		}
		if cfg.URL == "" {
			cfg.URL = base.URL
		}
		if cfg.BatchSize <= 0 {
			cfg.BatchSize = base.BatchSize
		}
		return factory(cfg)
	}
}
