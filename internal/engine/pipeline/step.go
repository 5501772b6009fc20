package pipeline

import (
	"context"
	"iter"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/core/ports"
	"go.trai.ch/zerr"
)

// Generator starts one unit of work and streams its events.
type Generator func(ctx context.Context) <-chan domain.Event

// Unit is a task and the generators it must drain.
type Unit struct {
	Task       Task
	Generators []Generator
}

type boundTask struct {
	task  Task
	scope domain.Filter
}

// Step is the ordered set of tasks of one stage.
type Step struct {
	stage domain.Capability
	tasks []boundTask
	cache ports.Cache
	exec  *Executor
}

// Stage returns the stage the step runs.
func (s *Step) Stage() domain.Capability {
	return s.stage
}

// Tasks returns the tasks of the step in declared order.
func (s *Step) Tasks() []Task {
	out := make([]Task, len(s.tasks))
	for i, bt := range s.tasks {
		out[i] = bt.task
	}
	return out
}

// CalculateTotal is the number of tasks, or -1 when unknown.
func (s *Step) CalculateTotal() int {
	if len(s.tasks) == 0 {
		return -1
	}
	return len(s.tasks)
}

// Units yields each task with its generators. Entry-bound stages get one generator per
// cache entry matching the task filter and the step scope; the entries are looked up
// only when the unit is reached, after earlier stages have written theirs.
func (s *Step) Units(ctx context.Context) iter.Seq2[Unit, error] {
	return func(yield func(Unit, error) bool) {
		for _, bt := range s.tasks {
			if err := ctx.Err(); err != nil {
				yield(Unit{}, err)
				return
			}
			if !yield(Unit{Task: bt.task, Generators: s.generators(bt)}, nil) {
				return
			}
		}
	}
}

func (s *Step) generators(bt boundTask) []Generator {
	task := bt.task
	if !s.stage.EntryBound() {
		return []Generator{func(ctx context.Context) <-chan domain.Event {
			return s.exec.Stream(ctx, func(ctx context.Context, emit Emit) error {
				return task.Run(ctx, "", nil, emit)
			})
		}}
	}

	entries := s.cache.GetEntries(domain.And(task.Filter(), bt.scope))
	gens := make([]Generator, 0, len(entries))
	for _, entry := range entries {
		gens = append(gens, func(ctx context.Context) <-chan domain.Event {
			return s.exec.Stream(ctx, func(ctx context.Context, emit Emit) error {
				return task.Run(ctx, entry.URI, &entry, emit)
			})
		})
	}
	return gens
}

// Builder materialises configured stages into steps.
type Builder struct {
	Strategies *Strategies
	Resources  Resources
	Executor   *Executor
}

// Step resolves every strategy of stage. Upstream is the fingerprint of the task that
// produced this stage's input inside an experiment, empty outside one.
func (b *Builder) Step(stage domain.Stage, ref domain.ExperimentRef, upstream string) (*Step, error) {
	step := &Step{stage: stage.Name, cache: b.Resources.Cache, exec: b.Executor}

	for _, strategy := range stage.Strategies {
		factory, err := b.Strategies.Resolve(stage.Name, strategy.Name)
		if err != nil {
			return nil, err
		}

		env := Env{
			Resources:   b.Resources,
			Stage:       stage.Name,
			Strategy:    strategy.Name,
			Fingerprint: domain.Fingerprint(stage.Name, strategy),
			Experiment:  ref,
		}
		task, err := factory(env, strategy.Params)
		if err != nil {
			err = zerr.With(zerr.Wrap(err, "build task"), "stage", string(stage.Name))
			return nil, zerr.With(err, "strategy", strategy.Name)
		}

		scope, err := stageScope(stage.Name, strategy.Params, upstream)
		if err != nil {
			return nil, err
		}
		step.tasks = append(step.tasks, boundTask{task: task, scope: scope})
	}
	return step, nil
}

// stageScope is the filter a stage adds on top of the task's own.
func stageScope(stage domain.Capability, params domain.Params, upstream string) (domain.Filter, error) {
	var scope domain.Filter
	if upstream != "" {
		scope = domain.MatchTag(domain.MetaTask, upstream)
	}

	if stage == domain.StageParsing {
		var p struct {
			Use []string `yaml:"use"`
		}
		if err := params.Decode(&p); err != nil {
			return nil, err
		}
		if len(p.Use) > 0 {
			use := make([]domain.Filter, 0, len(p.Use))
			for _, name := range p.Use {
				use = append(use, domain.MatchKV(domain.MetaStrategy, name))
			}
			scope = domain.And(scope, domain.Any(use...))
		}
	}
	return scope, nil
}
