package cas

import (
	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/core/ports"
	"go.trai.ch/zerr"
)

// StrategyLocal is the only cache strategy this package provides.
const StrategyLocal = "local"

// Opener implements ports.CacheOpener for local directory caches.
type Opener struct {
	logger  ports.Logger
	metrics ports.Metrics
}

// NewOpener returns an Opener whose stores report to log and m.
func NewOpener(log ports.Logger, m ports.Metrics) *Opener {
	return &Opener{logger: log, metrics: m}
}

// Open opens the cache described by cfg.
func (o *Opener) Open(cfg domain.CacheConfig) (ports.ManagedCache, error) {
	if cfg.Strategy != "" && cfg.Strategy != StrategyLocal {
		err := zerr.Wrap(domain.ErrNotImplemented, "open cache")
		err = zerr.With(err, "capability", domain.ResourceCache)
		return nil, zerr.With(err, "name", cfg.Strategy)
	}

	base := cfg.Path
	if base == "" {
		base = domain.DefaultBasePath()
	}
	lifespan := cfg.Lifespan
	if lifespan <= 0 {
		var err error
		if lifespan, err = domain.ParseLifespan(domain.DefaultLifespan); err != nil {
			return nil, err
		}
	}

	opts := []Option{}
	if o.logger != nil {
		opts = append(opts, WithLogger(o.logger))
	}
	if o.metrics != nil {
		opts = append(opts, WithMetrics(o.metrics))
	}
	return Open(base, lifespan, opts...)
}
