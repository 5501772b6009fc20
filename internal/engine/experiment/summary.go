package experiment

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/agrospai/fastrag/internal/core/domain"
)

// StageLine lists the strategies one stage ran with.
type StageLine struct {
	Stage      domain.Capability
	Strategies []string
}

// Result is the outcome of one experiment.
type Result struct {
	Index  int
	ID     string
	Stages []StageLine
	Lines  []string
	Score  float64
	Scored bool
	Err    error
}

func newResult(p prepared) Result {
	res := Result{Index: p.exp.Ref.Index, ID: p.exp.Ref.ID}
	for _, st := range p.exp.Stages {
		line := StageLine{Stage: st.Name}
		for _, s := range st.Strategies {
			line.Strategies = append(line.Strategies, describe(s))
		}
		res.Stages = append(res.Stages, line)
	}
	return res
}

// String renders the result block of one experiment.
func (r Result) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Experiment #%d | %s :", r.Index, r.ID)
	for _, st := range r.Stages {
		fmt.Fprintf(&b, "\n\t%s:\n\t└─ [%s]", stageTitle(st.Stage), strings.Join(st.Strategies, ", "))
	}
	for _, line := range r.Lines {
		b.WriteString("\n" + line)
	}
	if r.Err != nil {
		b.WriteString("\nFailed: " + r.Err.Error())
	}
	return b.String()
}

// Summary holds results ranked by score, best first. Unscored experiments come last
// in their original order.
type Summary struct {
	Results []Result
}

// NewSummary ranks results.
func NewSummary(results []Result) Summary {
	ranked := slices.Clone(results)
	slices.SortStableFunc(ranked, func(a, b Result) int {
		switch {
		case a.Scored && !b.Scored:
			return -1
		case !a.Scored && b.Scored:
			return 1
		case a.Scored && b.Scored:
			if n := cmp.Compare(b.Score, a.Score); n != 0 {
				return n
			}
		}
		return cmp.Compare(a.Index, b.Index)
	})
	return Summary{Results: ranked}
}

// Best returns the highest scoring experiment.
func (s Summary) Best() (Result, bool) {
	if len(s.Results) == 0 || !s.Results[0].Scored {
		return Result{}, false
	}
	return s.Results[0], true
}

// String renders every result in experiment order followed by the ranking.
func (s Summary) String() string {
	byIndex := slices.SortedFunc(slices.Values(s.Results), func(a, b Result) int {
		return cmp.Compare(a.Index, b.Index)
	})

	blocks := make([]string, 0, len(byIndex)+1)
	for _, r := range byIndex {
		blocks = append(blocks, r.String())
	}

	var rank strings.Builder
	rank.WriteString("Ranking:")
	for i, r := range s.Results {
		score := "no score"
		if r.Scored {
			score = fmt.Sprintf("%.4f", r.Score)
		}
		fmt.Fprintf(&rank, "\n  %d. Experiment #%d | %s | %s", i+1, r.Index, r.ID, score)
	}
	blocks = append(blocks, rank.String())

	return strings.Join(blocks, "\n\n")
}

// describe renders a strategy with its scalar parameters. Credentials are left out.
func describe(s domain.Strategy) string {
	var parts []string
	for _, k := range slices.Sorted(maps.Keys(s.Params)) {
		if secret(k) {
			continue
		}
		switch v := s.Params[k].(type) {
		case string, bool, int, int64, float64:
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
	}
	if len(parts) == 0 {
		return s.Name
	}
	return s.Name + "(" + strings.Join(parts, ", ") + ")"
}

func secret(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "key") || strings.Contains(k, "token") || strings.Contains(k, "secret")
}

func stageTitle(c domain.Capability) string {
	s := string(c)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
