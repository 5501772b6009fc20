// Package pipeline turns configured stages into steps of event-emitting tasks and runs them.
package pipeline

import (
	"context"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/core/ports"
	"github.com/agrospai/fastrag/internal/engine/registry"
)

// Emit forwards an event from a running task.
type Emit func(domain.Event)

// Task is one configured strategy instance.
type Task interface {
	// Name is the display name used for spans and summaries.
	Name() string
	// Filter selects the cache entries an entry-bound task consumes. Nil selects every live entry.
	Filter() domain.Filter
	// Run processes one unit of work. Entry-bound tasks receive the entry and its uri,
	// source tasks receive an empty uri and a nil entry. A returned error becomes an
	// exception event and does not stop sibling units.
	Run(ctx context.Context, uri string, entry *domain.CacheEntry, emit Emit) error
	// Completed summarises the task once every unit has drained.
	Completed() domain.Event
}

// Scorer is implemented by benchmarking tasks.
type Scorer interface {
	Score() (float64, bool)
}

// Resulter is implemented by tasks exposing a result value to later stages.
type Resulter interface {
	Results() any
}

// Resources is the bundle shared by every task of a run.
type Resources struct {
	Cache     ports.Cache
	Store     ports.VectorStore
	LLM       ports.LLM
	Embedder  ports.Embedder
	Embedders ports.EmbedderFactory
	HTTP      ports.HTTPClient
}

// Env is what a factory receives besides the strategy parameters.
type Env struct {
	Resources   Resources
	Stage       domain.Capability
	Strategy    string
	Fingerprint string
	Experiment  domain.ExperimentRef
}

// Tag returns a copy of meta carrying the experiment identity, if any.
// Every cache write of a task goes through it.
func (e Env) Tag(meta domain.Metadata) domain.Metadata {
	out := meta.Clone()
	if out == nil {
		out = domain.Metadata{}
	}
	if e.Experiment.ID != "" {
		out[domain.MetaExperiment] = e.Experiment.ID
		out[domain.MetaTask] = e.Fingerprint
	}
	return out
}

// Namespace is the vector store namespace of the experiment.
func (e Env) Namespace() string {
	return e.Experiment.ID
}

// Factory builds a Task from its environment and parameters.
type Factory func(env Env, params domain.Params) (Task, error)

// Strategies is the registry of task factories.
type Strategies = registry.Registry[Factory]

// NewStrategies returns an empty task registry.
func NewStrategies() *Strategies {
	return registry.New[Factory]()
}
