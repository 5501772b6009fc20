// Package experiment runs every cross-stage combination of configured strategies.
package experiment

import (
	"github.com/agrospai/fastrag/internal/core/domain"
)

// DefaultMaxConcurrent bounds how many experiments run at once when unset.
const DefaultMaxConcurrent = 5

// Experiment is one combination: a single strategy per stage plus every benchmark.
type Experiment struct {
	Ref    domain.ExperimentRef
	Stages domain.Steps
}

// Choices returns the non-benchmarking strategy picked for each stage.
func (e Experiment) Choices() []domain.Choice {
	out := make([]domain.Choice, 0, len(e.Stages))
	for _, st := range e.Stages {
		if st.Name == domain.StageBenchmarking || len(st.Strategies) == 0 {
			continue
		}
		out = append(out, domain.Choice{Stage: st.Name, Strategy: st.Strategies[0]})
	}
	return out
}

// Plan expands steps into experiments. A benchmarking stage inside steps is removed
// and merged with benchmarks, and the result is attached unchanged to every
// combination. Stages without strategies are skipped. Identifiers depend only on the
// (stage, strategy, params) choices, so adding a benchmark keeps them stable.
func Plan(steps domain.Steps, benchmarks []domain.Strategy) []Experiment {
	var bench []domain.Strategy
	if st, ok := steps.Lookup(domain.StageBenchmarking); ok {
		bench = append(bench, st.Strategies...)
	}
	bench = append(bench, benchmarks...)

	var stages domain.Steps
	for _, st := range steps.Without(domain.StageBenchmarking) {
		if len(st.Strategies) > 0 {
			stages = append(stages, st)
		}
	}
	if len(stages) == 0 {
		return nil
	}

	var out []Experiment
	for i, combo := range product(stages) {
		exp := Experiment{Stages: combo}
		if len(bench) > 0 {
			exp.Stages = append(exp.Stages, domain.Stage{Name: domain.StageBenchmarking, Strategies: bench})
		}
		exp.Ref = domain.ExperimentRef{ID: domain.ExperimentID(exp.Choices()), Index: i + 1}
		out = append(out, exp)
	}
	return out
}

// product returns the cartesian product of the stages' strategies, first stage outermost.
func product(stages domain.Steps) []domain.Steps {
	combos := []domain.Steps{{}}
	for _, st := range stages {
		next := make([]domain.Steps, 0, len(combos)*len(st.Strategies))
		for _, prefix := range combos {
			for _, s := range st.Strategies {
				combo := make(domain.Steps, len(prefix), len(prefix)+1)
				copy(combo, prefix)
				combo = append(combo, domain.Stage{Name: st.Name, Strategies: []domain.Strategy{s}})
				next = append(next, combo)
			}
		}
		combos = next
	}
	return combos
}
