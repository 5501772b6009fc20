package cas

import (
	"context"

	"github.com/agrospai/fastrag/internal/adapters/logger"
	"github.com/agrospai/fastrag/internal/adapters/metrics"
	"github.com/agrospai/fastrag/internal/core/ports"
	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the cache opener Graft node.
const NodeID graft.ID = "adapter.cache_opener"

func init() {
	graft.Register(graft.Node[ports.CacheOpener]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID, metrics.NodeID},
		Run: func(ctx context.Context) (ports.CacheOpener, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			m, err := graft.Dep[ports.Metrics](ctx)
			if err != nil {
				return nil, err
			}
			return NewOpener(log, m), nil
		},
	})
}
