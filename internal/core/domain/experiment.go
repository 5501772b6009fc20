package domain

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// Choice is the strategy picked for one stage of an experiment.
type Choice struct {
	Stage    Capability
	Strategy Strategy
}

type canonicalChoice struct {
	Stage    Capability `json:"stage"`
	Strategy string     `json:"strategy"`
	Params   Params     `json:"params"`
}

// ExperimentID derives a stable identifier from a set of stage choices.
// Choices are sorted by stage and parameters are serialised with sorted keys,
// so declaration order in the configuration does not affect the result.
func ExperimentID(choices []Choice) string {
	canon := make([]canonicalChoice, 0, len(choices))
	for _, c := range choices {
		canon = append(canon, canonicalChoice{Stage: c.Stage, Strategy: c.Strategy.Name, Params: c.Strategy.Params})
	}
	slices.SortStableFunc(canon, func(a, b canonicalChoice) int {
		if n := cmp.Compare(a.Stage, b.Stage); n != 0 {
			return n
		}
		return cmp.Compare(a.Strategy, b.Strategy)
	})

	// json.Marshal sorts map keys, giving a canonical byte form.
	raw, err := json.Marshal(canon)
	if err != nil {
		raw = fmt.Appendf(nil, "%v", canon)
	}
	return fmt.Sprintf("exp_%016x", xxhash.Sum64(raw))
}

// Fingerprint identifies a single configured strategy of a stage.
// Entries written by a task carry it so downstream stages can select them.
func Fingerprint(stage Capability, s Strategy) string {
	raw, err := json.Marshal(canonicalChoice{Stage: stage, Strategy: s.Name, Params: s.Params})
	if err != nil {
		raw = fmt.Appendf(nil, "%s/%s/%v", stage, s.Name, s.Params)
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(raw))
}

// ExperimentRef is the identity of the experiment a task runs in, passed by value.
// The zero value means the task runs outside any experiment.
type ExperimentRef struct {
	ID    string
	Index int
}
