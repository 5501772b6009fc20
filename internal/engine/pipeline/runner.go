package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/core/ports"
)

// AttrExceptions counts the exception events of a task span.
const AttrExceptions = "fastrag.exceptions"

// Runner drives steps to completion and reports their events through spans.
type Runner struct {
	tracer ports.Tracer
}

// NewRunner creates a Runner reporting to tracer.
func NewRunner(tracer ports.Tracer) *Runner {
	return &Runner{tracer: tracer}
}

// Run executes steps strictly in order, since each stage reads what the previous one wrote.
// Exception events do not stop the run. Only cancellation does.
func (r *Runner) Run(ctx context.Context, steps []*Step) error {
	for _, step := range steps {
		if err := r.runStep(ctx, step); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runStep(ctx context.Context, step *Step) error {
	ctx, span := r.tracer.Start(ctx, string(step.Stage()), ports.WithTotal(step.CalculateTotal()))
	defer span.End()

	for unit, err := range step.Units(ctx) {
		if err != nil {
			span.RecordError(err)
			return err
		}
		r.runUnit(ctx, unit)
		span.Advance()
	}

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (r *Runner) runUnit(ctx context.Context, unit Unit) {
	ctx, span := r.tracer.Start(ctx, unit.Task.Name(), ports.WithTotal(len(unit.Generators)))
	defer span.End()

	var (
		wg         sync.WaitGroup
		exceptions atomic.Int64
	)
	for _, gen := range unit.Generators {
		wg.Go(func() {
			for ev := range gen(ctx) {
				if ev.Type == domain.EventException {
					exceptions.Add(1)
				}
				span.Emit(ev)
			}
			span.Advance()
		})
	}
	wg.Wait()

	if n := exceptions.Load(); n > 0 {
		span.SetAttribute(AttrExceptions, n)
	}
	span.Emit(unit.Task.Completed())
}
