// Package telemetry adapts OpenTelemetry spans to the pipeline's tracer port.
package telemetry

import (
	"context"
	"fmt"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/core/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// AttrTotal carries the expected number of progress units of a span.
const AttrTotal = "fastrag.total"

// OTelTracer is a concrete implementation of ports.Tracer using OpenTelemetry.
// Task events and progress bypass the span processor and go straight to the renderer,
// since OpenTelemetry only reports span boundaries to processors.
type OTelTracer struct {
	name     string
	tracer   trace.Tracer
	renderer ports.Renderer
	metrics  ports.Metrics
}

// NewOTelTracer creates a new OTelTracer on the global provider.
func NewOTelTracer(name string) *OTelTracer {
	return &OTelTracer{name: name, tracer: otel.Tracer(name)}
}

// WithProvider binds the tracer to tp instead of the global provider.
func (t *OTelTracer) WithProvider(tp trace.TracerProvider) *OTelTracer {
	t.tracer = tp.Tracer(t.name)
	return t
}

// WithRenderer forwards plans, events and progress to r.
func (t *OTelTracer) WithRenderer(r ports.Renderer) *OTelTracer {
	t.renderer = r
	return t
}

// WithMetrics counts every emitted event in m.
func (t *OTelTracer) WithMetrics(m ports.Metrics) *OTelTracer {
	t.metrics = m
	return t
}

// Start creates a new span.
func (t *OTelTracer) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := &ports.SpanConfig{Total: -1}
	for _, opt := range opts {
		opt(cfg)
	}

	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attribute.Int(AttrTotal, cfg.Total)))
	return ctx, &OTelSpan{
		span:     span,
		id:       span.SpanContext().SpanID().String(),
		renderer: t.renderer,
		metrics:  t.metrics,
	}
}

// EmitPlan records the planned units on the current span and announces them to the renderer.
func (t *OTelTracer) EmitPlan(ctx context.Context, names []string) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("plan_emitted", trace.WithAttributes(attribute.StringSlice("units", names)))
	}
	if t.renderer != nil {
		t.renderer.OnPlanEmit(names)
	}
}

// OTelSpan is a concrete implementation of ports.Span using OpenTelemetry.
type OTelSpan struct {
	span     trace.Span
	id       string
	renderer ports.Renderer
	metrics  ports.Metrics
}

// End completes the span.
func (s *OTelSpan) End() {
	s.span.End()
}

// RecordError records an error for the span.
func (s *OTelSpan) RecordError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// SetAttribute adds a key-value pair to the span.
func (s *OTelSpan) SetAttribute(key string, value any) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	case []string:
		s.span.SetAttributes(attribute.StringSlice(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}

// Emit records ev as a span event and hands it to the renderer.
func (s *OTelSpan) Emit(ev domain.Event) {
	s.span.AddEvent(string(ev.Type), trace.WithAttributes(attribute.String("data", ev.Data)))
	if s.metrics != nil {
		s.metrics.Event(ev.Type)
	}
	if s.renderer != nil {
		s.renderer.OnTaskEvent(s.id, ev)
	}
}

// Advance moves the span's progress forward by one unit.
func (s *OTelSpan) Advance() {
	if s.renderer != nil {
		s.renderer.OnTaskAdvance(s.id)
	}
}
