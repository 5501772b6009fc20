package ports

import "github.com/agrospai/fastrag/internal/core/domain"

// ConfigLoader defines the interface for loading the pipeline configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load locates and parses the configuration. An empty path triggers discovery from cwd.
	Load(cwd, path string) (*domain.Config, error)
}
