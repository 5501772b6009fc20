package ports

import "context"

// Embedder turns text into vectors.
//
//go:generate mockgen -source=embedder.go -destination=mocks/mock_embedder.go -package=mocks
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// EmbedderConfig selects an embedding model and endpoint.
type EmbedderConfig struct {
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	URL       string `yaml:"url"`
	BatchSize int    `yaml:"batch_size"`
}

// EmbedderFactory builds an Embedder from its configuration.
type EmbedderFactory func(cfg EmbedderConfig) (Embedder, error)
