package domain

import (
	"time"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Capability names an abstract role a strategy can fill.
type Capability string

// Pipeline stages.
const (
	StageFetching     Capability = "fetching"
	StageParsing      Capability = "parsing"
	StageChunking     Capability = "chunking"
	StageEmbedding    Capability = "embedding"
	StageBenchmarking Capability = "benchmarking"
)

// Shared resources.
const (
	ResourceStore    Capability = "store"
	ResourceLLM      Capability = "llm"
	ResourceEmbedder Capability = "embedder"
	ResourceCache    Capability = "cache"
)

// EntryBound reports whether tasks of this stage run once per matching cache entry.
func (c Capability) EntryBound() bool {
	switch c {
	case StageParsing, StageChunking, StageEmbedding:
		return true
	default:
		return false
	}
}

// Params holds the free-form parameters of a strategy.
type Params map[string]any

// Decode converts the parameters into out, honouring out's yaml tags.
func (p Params) Decode(out any) error {
	raw, err := yaml.Marshal(map[string]any(p))
	if err != nil {
		return zerr.Wrap(err, ErrInvalidParams.Error())
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return zerr.Wrap(err, ErrInvalidParams.Error())
	}
	return nil
}

// Strategy is a named, parameterised choice of implementation.
type Strategy struct {
	Name   string
	Params Params
}

// Stage is one pipeline stage and its configured strategy variants.
type Stage struct {
	Name       Capability
	Strategies []Strategy
}

// Steps is an ordered list of stages.
type Steps []Stage

// Lookup returns the stage called name.
func (s Steps) Lookup(name Capability) (Stage, bool) {
	for _, st := range s {
		if st.Name == name {
			return st, true
		}
	}
	return Stage{}, false
}

// Without returns s minus the stage called name.
func (s Steps) Without(name Capability) Steps {
	out := make(Steps, 0, len(s))
	for _, st := range s {
		if st.Name != name {
			out = append(out, st)
		}
	}
	return out
}

// CacheConfig configures the cache resource.
type CacheConfig struct {
	Strategy string
	Lifespan time.Duration
	Path     string
}

// Resources is the typed resource section of the configuration.
type Resources struct {
	Sources  Steps
	Cache    CacheConfig
	Store    *Strategy
	LLM      *Strategy
	Embedder *Strategy
}

// Experiments is the typed experiments section of the configuration.
type Experiments struct {
	MaxConcurrent int
	Steps         Steps
}

// Config is the fully parsed pipeline configuration.
type Config struct {
	Path         string
	Resources    Resources
	Experiments  Experiments
	Benchmarking []Strategy
}
