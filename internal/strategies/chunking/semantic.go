package chunking

import (
	"context"
	"math"
	"slices"
	"strings"
	"unicode"

	"github.com/agrospai/fastrag/internal/core/ports"
	"go.trai.ch/zerr"
)

// Sentences splits text after every '.', '?' or '!' followed by whitespace.
func Sentences(text string) []string {
	var out []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if !strings.ContainsRune(".?!", runes[i]) || i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		out = append(out, string(runes[start:i+1]))
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}

// SemanticSplit groups the sentences of text, cutting where the cosine distance
// between neighbouring three-sentence windows exceeds the given percentile of
// all such distances.
func SemanticSplit(ctx context.Context, e ports.Embedder, text string, percentile float64) ([]string, error) {
	sentences := Sentences(text)
	if len(sentences) <= 1 {
		return sentences, nil
	}

	windows := make([]string, len(sentences))
	for i := range sentences {
		lo, hi := max(i-1, 0), min(i+2, len(sentences))
		windows[i] = strings.Join(sentences[lo:hi], " ")
	}
	vectors, err := e.EmbedDocuments(ctx, windows)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(windows) {
		return nil, zerr.With(zerr.New("embedder returned a partial batch"), "want", len(windows))
	}

	distances := make([]float64, len(vectors)-1)
	for i := range distances {
		distances[i] = 1 - cosine(vectors[i], vectors[i+1])
	}
	threshold := Percentile(distances, percentile)

	var groups []string
	start := 0
	for i, d := range distances {
		if d > threshold {
			groups = append(groups, strings.Join(sentences[start:i+1], " "))
			start = i + 1
		}
	}
	return append(groups, strings.Join(sentences[start:], " ")), nil
}

// Percentile interpolates linearly between the closest ranks of values.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range min(len(a), len(b)) {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
