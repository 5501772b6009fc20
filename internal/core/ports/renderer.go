package ports

import (
	"context"
	"time"

	"github.com/agrospai/fastrag/internal/core/domain"
)

// Renderer is the abstraction for output rendering.
// It decouples telemetry collection from presentation logic,
// allowing the same event stream to drive either a rich TUI or linear CI logs.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Start initializes the renderer and begins its lifecycle.
	Start(ctx context.Context) error

	// Stop signals the renderer to stop accepting new events and flush buffered output.
	Stop() error

	// Wait blocks until the renderer has fully terminated.
	Wait() error

	// OnPlanEmit is called with the names of the planned units of work.
	OnPlanEmit(names []string)

	// OnTaskStart is called when a span begins.
	// total is the expected number of progress units, negative when unknown.
	OnTaskStart(spanID, parentID, name string, total int, startTime time.Time)

	// OnTaskEvent is called for every event a task emits.
	OnTaskEvent(spanID string, ev domain.Event)

	// OnTaskAdvance is called when a span's progress moves forward by one unit.
	OnTaskAdvance(spanID string)

	// OnTaskComplete is called when a span ends; err is nil on success.
	OnTaskComplete(spanID string, endTime time.Time, err error)
}
