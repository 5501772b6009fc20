package httpclient

import (
	"context"

	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the HTTP client Graft node.
const NodeID graft.ID = "adapter.http_client"

func init() {
	graft.Register(graft.Node[*Client]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Client, error) {
			return New(DefaultConfig()), nil
		},
	})
}
