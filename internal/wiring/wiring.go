// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "github.com/agrospai/fastrag/internal/adapters/cas"
	_ "github.com/agrospai/fastrag/internal/adapters/config"
	_ "github.com/agrospai/fastrag/internal/adapters/httpclient"
	_ "github.com/agrospai/fastrag/internal/adapters/logger"
	_ "github.com/agrospai/fastrag/internal/adapters/metrics"
	_ "github.com/agrospai/fastrag/internal/adapters/watcher"
	// Register app nodes.
	_ "github.com/agrospai/fastrag/internal/app"
)
