package ports

import (
	"context"

	"github.com/agrospai/fastrag/internal/core/domain"
)

// VectorStore persists embedded documents and answers nearest-neighbour queries.
// Namespaces isolate the documents uploaded by different experiments.
//
//go:generate mockgen -source=vector_store.go -destination=mocks/mock_vector_store.go -package=mocks
type VectorStore interface {
	AddDocuments(ctx context.Context, docs []domain.Document, vectors [][]float32, namespace string) error
	SimilaritySearch(ctx context.Context, query string, vector []float32, k int, namespace string) ([]domain.Document, error)
	Close() error
}
