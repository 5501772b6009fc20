package ports

import (
	"context"

	"github.com/agrospai/fastrag/internal/core/domain"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
	// EmitPlan signals the units of work planned for execution.
	EmitPlan(ctx context.Context, names []string)
}

// Span represents a unit of work: a pipeline step, a task or an experiment.
type Span interface {
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
	// Emit forwards a task event to the span.
	Emit(ev domain.Event)
	// Advance moves the span's progress forward by one unit.
	Advance()
}

// SpanConfig holds configuration for a starting span.
type SpanConfig struct {
	// Total is the expected number of progress units; negative means indeterminate.
	Total int
}

// SpanOption is a functional option for configuring a span.
type SpanOption func(*SpanConfig)

// WithTotal sets the number of progress units the span expects.
func WithTotal(n int) SpanOption {
	return func(c *SpanConfig) {
		c.Total = n
	}
}
