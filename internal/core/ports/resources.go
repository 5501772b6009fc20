package ports

import (
	"context"

	"github.com/agrospai/fastrag/internal/core/domain"
)

// ResourceEnv is what resource factories share: the outbound client and the
// cache root under which local resources keep their files.
type ResourceEnv struct {
	HTTP     HTTPClient
	BasePath string
}

// LLMFactory builds a language model from its configured parameters.
type LLMFactory func(ctx context.Context, params domain.Params, env ResourceEnv) (LLM, error)

// VectorStoreFactory builds a vector store from its configured parameters.
type VectorStoreFactory func(ctx context.Context, params domain.Params, env ResourceEnv) (VectorStore, error)

// EmbedderProvider binds an embedding backend to env, yielding the factory
// embedding tasks use to build their own embedders.
type EmbedderProvider func(env ResourceEnv) EmbedderFactory
