package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// File represents the structure of the fastrag.yaml configuration file.
type File struct {
	Resources    ResourcesDTO     `yaml:"resources"`
	Experiments  MultiStrategyDTO `yaml:"experiments"`
	Benchmarking []StrategyDTO    `yaml:"benchmarking" validate:"dive"`
}

// ResourcesDTO is the resources section.
type ResourcesDTO struct {
	Sources  MultiStrategyDTO `yaml:"sources"`
	Cache    CacheDTO         `yaml:"cache"`
	Store    *StrategyDTO     `yaml:"store"`
	LLM      *StrategyDTO     `yaml:"llm"`
	Embedder *StrategyDTO     `yaml:"embedder"`
}

// CacheDTO configures the cache resource.
type CacheDTO struct {
	Strategy string `yaml:"strategy" validate:"omitempty,oneof=local"`
	Lifespan string `yaml:"lifespan" validate:"omitempty,lifespan"`
	Path     string `yaml:"path"`
}

// MultiStrategyDTO is a runner strategy plus its ordered steps.
type MultiStrategyDTO struct {
	Strategy      string   `yaml:"strategy"`
	MaxConcurrent int      `yaml:"max_concurrent" validate:"gte=0"`
	Steps         StepsDTO `yaml:"steps" validate:"dive"`
}

// StrategyDTO names a strategy and its free-form parameters.
type StrategyDTO struct {
	Strategy string         `yaml:"strategy" validate:"required"`
	Params   map[string]any `yaml:"params"`
}

// StageDTO is one entry of a steps mapping.
type StageDTO struct {
	Name       string        `yaml:"name" validate:"oneof=fetching parsing chunking embedding benchmarking"`
	Strategies []StrategyDTO `yaml:"strategies" validate:"dive"`
}

// StepsDTO is a stage mapping decoded in declaration order.
type StepsDTO []StageDTO

// UnmarshalYAML keeps the order in which stages are declared.
func (s *StepsDTO) UnmarshalYAML(node *yaml.Node) error {
	if node.ShortTag() == "!!null" {
		*s = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: steps must be a mapping of stage to strategies", node.Line)
	}

	seen := make(map[string]bool, len(node.Content)/2)
	out := make(StepsDTO, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if seen[key.Value] {
			return fmt.Errorf("line %d: stage %q declared twice", key.Line, key.Value)
		}
		seen[key.Value] = true

		var strategies []StrategyDTO
		if err := node.Content[i+1].Decode(&strategies); err != nil {
			return err
		}
		out = append(out, StageDTO{Name: key.Value, Strategies: strategies})
	}
	*s = out
	return nil
}
