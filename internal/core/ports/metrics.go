package ports

import "github.com/agrospai/fastrag/internal/core/domain"

// Metrics records pipeline counters.
//
//go:generate mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	CacheLookup(hit bool)
	CacheWrite(bytes int)
	Event(t domain.EventType)
	ExperimentScore(id string, score float64)

	// WriteFile exports the current values in the Prometheus text format.
	WriteFile(path string) error
}
