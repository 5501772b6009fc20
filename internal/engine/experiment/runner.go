package experiment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/core/ports"
	"github.com/agrospai/fastrag/internal/engine/pipeline"
	"go.trai.ch/zerr"
	"golang.org/x/sync/semaphore"
)

// AttrExperiment carries the experiment identifier on its span.
const AttrExperiment = "fastrag.experiment"

// Runner runs experiments side by side, at most width at a time.
type Runner struct {
	builder *pipeline.Builder
	steps   *pipeline.Runner
	tracer  ports.Tracer
	metrics ports.Metrics
	width   int
}

// NewRunner creates a Runner. A width of zero or less means DefaultMaxConcurrent.
func NewRunner(builder *pipeline.Builder, tracer ports.Tracer, metrics ports.Metrics, width int) *Runner {
	if width <= 0 {
		width = DefaultMaxConcurrent
	}
	return &Runner{
		builder: builder,
		steps:   pipeline.NewRunner(tracer),
		tracer:  tracer,
		metrics: metrics,
		width:   width,
	}
}

type prepared struct {
	exp   Experiment
	steps []*pipeline.Step
}

// Run builds every experiment, then runs them. Unknown strategies fail before anything runs.
// A failing experiment is reported in the summary and joined into the returned error
// without stopping the others.
func (r *Runner) Run(ctx context.Context, exps []Experiment) (Summary, error) {
	all := make([]prepared, 0, len(exps))
	for _, exp := range exps {
		steps, err := r.build(exp)
		if err != nil {
			return Summary{}, zerr.With(err, "experiment", exp.Ref.ID)
		}
		all = append(all, prepared{exp: exp, steps: steps})
	}

	names := make([]string, 0, len(all))
	for _, p := range all {
		names = append(names, title(p.exp.Ref))
	}
	r.tracer.EmitPlan(ctx, names)

	results := make([]Result, len(all))
	sem := semaphore.NewWeighted(int64(r.width))
	var wg sync.WaitGroup

	for i, p := range all {
		results[i] = newResult(p)
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i].Err = err
			continue
		}
		wg.Go(func() {
			defer sem.Release(1)
			r.runOne(ctx, p, &results[i])
		})
	}
	wg.Wait()

	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, zerr.With(zerr.Wrap(res.Err, domain.ErrExperimentFailed.Error()), "experiment", res.ID))
		}
	}
	return NewSummary(results), errors.Join(errs...)
}

func (r *Runner) build(exp Experiment) ([]*pipeline.Step, error) {
	steps := make([]*pipeline.Step, 0, len(exp.Stages))
	upstream := ""
	for _, stage := range exp.Stages {
		step, err := r.builder.Step(stage, exp.Ref, upstream)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
		if stage.Name.EntryBound() && len(stage.Strategies) == 1 {
			upstream = domain.Fingerprint(stage.Name, stage.Strategies[0])
		}
	}
	return steps, nil
}

func (r *Runner) runOne(ctx context.Context, p prepared, res *Result) {
	ctx, span := r.tracer.Start(ctx, title(p.exp.Ref), ports.WithTotal(len(p.steps)))
	defer span.End()
	span.SetAttribute(AttrExperiment, p.exp.Ref.ID)

	for _, step := range p.steps {
		if err := r.steps.Run(ctx, []*pipeline.Step{step}); err != nil {
			span.RecordError(err)
			res.Err = err
			return
		}
		span.Advance()
	}

	var scores []float64
	for _, step := range p.steps {
		for _, task := range step.Tasks() {
			if s, ok := task.(pipeline.Scorer); ok {
				if score, ok := s.Score(); ok {
					scores = append(scores, score)
				}
			}
			if rt, ok := task.(pipeline.Resulter); ok {
				if line, ok := rt.Results().(string); ok && line != "" {
					res.Lines = append(res.Lines, line)
				}
			}
		}
	}
	if len(scores) == 0 {
		return
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	res.Score = sum / float64(len(scores))
	res.Scored = true
	if r.metrics != nil {
		r.metrics.ExperimentScore(p.exp.Ref.ID, res.Score)
	}
}

func title(ref domain.ExperimentRef) string {
	return fmt.Sprintf("Experiment #%d", ref.Index)
}
