package benchmarking

import (
	"regexp"
	"strings"
)

var (
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}_\s\p{Z}]`)
	whitespace  = regexp.MustCompile(`[\s\p{Z}]+`)
)

// Normalize lowercases text, drops punctuation and collapses whitespace runs.
func Normalize(text string) string {
	text = strings.TrimSpace(strings.ToLower(text))
	text = punctuation.ReplaceAllString(text, "")
	return whitespace.ReplaceAllString(text, " ")
}

// Score rates answer against the accepted answers in [0, 1]. Each accepted
// answer is compared by character sequence similarity and by the share of its
// tokens the answer contains; the best of all comparisons wins.
func Score(answer string, accepted []string) float64 {
	user := Normalize(answer)
	if user == "" || len(accepted) == 0 {
		return 0
	}

	best := 0.0
	for _, valid := range accepted {
		valid = Normalize(valid)
		if valid == "" {
			continue
		}
		best = max(best, SequenceRatio(user, valid), TokenOverlap(user, valid))
	}
	return min(1, max(0, best))
}

// TokenOverlap is the fraction of the distinct tokens of b that also occur in a.
func TokenOverlap(a, b string) float64 {
	want := map[string]struct{}{}
	for _, tok := range strings.Fields(b) {
		want[tok] = struct{}{}
	}
	if len(want) == 0 {
		return 0
	}

	have := map[string]struct{}{}
	for _, tok := range strings.Fields(a) {
		have[tok] = struct{}{}
	}
	shared := 0
	for tok := range want {
		if _, ok := have[tok]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(want))
}

// SequenceRatio is 2*M/T where M is the number of runes in the matching blocks
// found by recursive longest-common-substring search and T the total rune
// count. Runes that make up more than 1% of a long b (200 runes or more) do
// not seed matches, though matches may still extend across them.
func SequenceRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	m := newMatcher(ra, rb)
	return 2 * float64(m.matched(0, len(ra), 0, len(rb))) / float64(total)
}

type matcher struct {
	a, b []rune
	b2j  map[rune][]int
}

func newMatcher(a, b []rune) *matcher {
	b2j := map[rune][]int{}
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}
	if n := len(b); n >= 200 {
		limit := n/100 + 1
		for r, idx := range b2j {
			if len(idx) > limit {
				delete(b2j, r)
			}
		}
	}
	return &matcher{a: a, b: b, b2j: b2j}
}

func (m *matcher) longest(alo, ahi, blo, bhi int) (int, int, int) {
	besti, bestj, size := alo, blo, 0
	j2len := map[int]int{}
	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range m.b2j[m.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > size {
				besti, bestj, size = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}

	for besti > alo && bestj > blo && m.a[besti-1] == m.b[bestj-1] {
		besti, bestj, size = besti-1, bestj-1, size+1
	}
	for besti+size < ahi && bestj+size < bhi && m.a[besti+size] == m.b[bestj+size] {
		size++
	}
	return besti, bestj, size
}

func (m *matcher) matched(alo, ahi, blo, bhi int) int {
	i, j, k := m.longest(alo, ahi, blo, bhi)
	if k == 0 {
		return 0
	}
	total := k
	if alo < i && blo < j {
		total += m.matched(alo, i, blo, j)
	}
	if i+k < ahi && j+k < bhi {
		total += m.matched(i+k, ahi, j+k, bhi)
	}
	return total
}
