package domain_test

import (
	"testing"
	"time"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(meta domain.Metadata) domain.CacheEntry {
	return domain.CacheEntry{URI: "u", Metadata: meta}
}

func TestFilter_Leaf(t *testing.T) {
	t.Parallel()

	f := domain.Match(domain.Metadata{"a": 1})

	assert.True(t, f.Apply(entry(domain.Metadata{"a": 1, "b": "x"})))
	assert.True(t, f.Apply(entry(domain.Metadata{"a": float64(1)})), "reloaded numbers compare by value")
	assert.False(t, f.Apply(entry(domain.Metadata{"a": 2})))
	assert.False(t, f.Apply(entry(domain.Metadata{"b": 1})))
	assert.False(t, f.Apply(entry(nil)), "missing metadata never matches")
	assert.True(t, domain.Match(nil).Apply(entry(domain.Metadata{"b": 1})), "empty criteria match any metadata")
	assert.False(t, domain.Match(nil).Apply(entry(domain.Metadata{})), "empty metadata never matches")
	assert.False(t, domain.Match(nil).Apply(entry(nil)))
}

func TestFilter_Tag(t *testing.T) {
	t.Parallel()

	f := domain.MatchTag(domain.MetaTask, "parsing:HtmlParser")

	assert.True(t, f.Apply(entry(domain.Metadata{domain.MetaTask: "parsing:HtmlParser"})), "a plain string is a set of one")
	assert.True(t, f.Apply(entry(domain.Metadata{domain.MetaTask: []string{"x", "parsing:HtmlParser"}})))
	assert.True(t, f.Apply(entry(domain.Metadata{domain.MetaTask: []any{"parsing:HtmlParser"}})), "reloaded sets are []any")
	assert.False(t, f.Apply(entry(domain.Metadata{domain.MetaTask: []string{"x"}})))
	assert.False(t, f.Apply(entry(domain.Metadata{})))
	assert.Equal(t, "{task∋parsing:HtmlParser}", f.String())
}

func TestMetadata_MergeTags(t *testing.T) {
	t.Parallel()

	orig := domain.Metadata{domain.MetaTask: "a", "k": 1}

	same, added := orig.MergeTags(domain.MetaTask, "a")
	assert.False(t, added)
	assert.Equal(t, "a", same[domain.MetaTask])

	merged, added := orig.MergeTags(domain.MetaTask, "b", "a")
	require.True(t, added)
	assert.Equal(t, []string{"a", "b"}, merged[domain.MetaTask])
	assert.Equal(t, 1, merged["k"])
	assert.Equal(t, "a", orig[domain.MetaTask], "merge does not mutate the receiver")

	fresh, added := domain.Metadata(nil).MergeTags(domain.MetaTask, "c")
	require.True(t, added)
	assert.Equal(t, []string{"c"}, fresh.Tags(domain.MetaTask))
}

func TestFilter_EmptyCombinators(t *testing.T) {
	t.Parallel()

	e := entry(domain.Metadata{"a": 1})
	assert.False(t, domain.All().Apply(e))
	assert.True(t, domain.Any().Apply(e))
}

func TestFilter_Combinators(t *testing.T) {
	t.Parallel()

	f1 := domain.MatchKV("step", "parsing")
	f2 := domain.MatchKV("strategy", "HtmlParser")

	tests := []struct {
		name string
		meta domain.Metadata
		and  bool
		or   bool
	}{
		{"both", domain.Metadata{"step": "parsing", "strategy": "HtmlParser"}, true, true},
		{"first only", domain.Metadata{"step": "parsing", "strategy": "FileParser"}, false, true},
		{"second only", domain.Metadata{"step": "fetching", "strategy": "HtmlParser"}, false, true},
		{"neither", domain.Metadata{"step": "fetching"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := entry(tt.meta)
			assert.Equal(t, tt.and, domain.All(f1, f2).Apply(e))
			assert.Equal(t, tt.and, domain.And(f1, f2).Apply(e))
			assert.Equal(t, f1.Apply(e) && f2.Apply(e), domain.All(f1, f2).Apply(e))
			assert.Equal(t, tt.or, domain.Any(f1, f2).Apply(e))
			assert.Equal(t, tt.or, domain.Or(f1, f2).Apply(e))
		})
	}
}

func TestFilter_ComposeDoesNotMutate(t *testing.T) {
	t.Parallel()

	base := domain.Any(domain.MatchKV("format", "pdf"))
	combined := domain.And(base, domain.MatchKV("step", "fetching"))

	pdf := entry(domain.Metadata{"format": "pdf"})
	assert.True(t, base.Apply(pdf), "operand keeps its own semantics")
	assert.False(t, combined.Apply(pdf))

	assert.Equal(t, base, domain.And(base, nil))
	assert.Nil(t, domain.Or(nil, nil))
}

func TestFilter_String(t *testing.T) {
	t.Parallel()

	f := domain.And(domain.Match(domain.Metadata{"b": 2, "a": 1}), domain.Any(domain.MatchKV("s", "x"), domain.MatchKV("s", "y")))
	assert.Equal(t, "({a=1,b=2} & ({s=x} | {s=y}))", f.String())
}

func TestCacheEntry_Expired(t *testing.T) {
	t.Parallel()

	t0 := time.Unix(0, 0)
	e := domain.CacheEntry{Timestamp: t0}
	life := time.Hour

	assert.False(t, e.Expired(t0.Add(59*time.Minute), life))
	assert.True(t, e.Expired(t0.Add(time.Hour), life), "expiry is inclusive of the boundary")
	assert.True(t, e.Expired(t0.Add(3601*time.Second), life))
}

func TestFileURIRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	uri := domain.FileURI(dir + "/a b.txt")
	assert.Contains(t, uri, "file://")
	assert.Equal(t, dir+"/a b.txt", domain.PathFromURI(uri))
	assert.Equal(t, "https://x.org/a", domain.PathFromURI("https://x.org/a"))
}

func TestParseLifespan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 24 * time.Hour},
		{"1d", 24 * time.Hour},
		{"3600", time.Hour},
		{"90s", 90 * time.Second},
		{"15m", 15 * time.Minute},
		{"12H", 12 * time.Hour},
		{"2w", 14 * 24 * time.Hour},
	}
	for _, tt := range tests {
		got, err := domain.ParseLifespan(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"d", "-1d", "1y", "abc", "0"} {
		_, err := domain.ParseLifespan(bad)
		require.ErrorIs(t, err, domain.ErrInvalidLifespan, bad)
	}
}

func TestExperimentID(t *testing.T) {
	t.Parallel()

	chunk := domain.Choice{Stage: domain.StageChunking, Strategy: domain.Strategy{
		Name: "SlidingWindow", Params: domain.Params{"chunk_size": 1200, "chunk_overlap": 200},
	}}
	embed := domain.Choice{Stage: domain.StageEmbedding, Strategy: domain.Strategy{
		Name: "OpenAI-Simple", Params: domain.Params{"model": "text-embedding-3-small"},
	}}

	id := domain.ExperimentID([]domain.Choice{chunk, embed})
	assert.Regexp(t, `^exp_[0-9a-f]{16}$`, id)
	assert.Equal(t, id, domain.ExperimentID([]domain.Choice{chunk, embed}))
	assert.Equal(t, id, domain.ExperimentID([]domain.Choice{embed, chunk}), "stage order is canonicalised")

	reordered := chunk
	reordered.Strategy.Params = domain.Params{"chunk_overlap": 200, "chunk_size": 1200}
	assert.Equal(t, id, domain.ExperimentID([]domain.Choice{reordered, embed}))

	changed := chunk
	changed.Strategy.Params = domain.Params{"chunk_size": 1000, "chunk_overlap": 200}
	assert.NotEqual(t, id, domain.ExperimentID([]domain.Choice{changed, embed}))
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	s := domain.Strategy{Name: "SlidingWindow", Params: domain.Params{"chunk_size": 10}}
	assert.Equal(t, domain.Fingerprint(domain.StageChunking, s), domain.Fingerprint(domain.StageChunking, s))
	assert.NotEqual(t, domain.Fingerprint(domain.StageChunking, s), domain.Fingerprint(domain.StageParsing, s))
}

func TestParamsDecode(t *testing.T) {
	t.Parallel()

	var out struct {
		Size int      `yaml:"chunk_size"`
		Use  []string `yaml:"use"`
	}
	err := domain.Params{"chunk_size": 800, "use": []any{"URL", "Path"}}.Decode(&out)
	require.NoError(t, err)
	assert.Equal(t, 800, out.Size)
	assert.Equal(t, []string{"URL", "Path"}, out.Use)

	err = domain.Params{"chunk_size": "big"}.Decode(&out)
	require.ErrorContains(t, err, domain.ErrInvalidParams.Error())
}

func TestSteps(t *testing.T) {
	t.Parallel()

	steps := domain.Steps{
		{Name: domain.StageChunking},
		{Name: domain.StageBenchmarking},
		{Name: domain.StageEmbedding},
	}
	_, ok := steps.Lookup(domain.StageBenchmarking)
	assert.True(t, ok)

	rest := steps.Without(domain.StageBenchmarking)
	require.Len(t, rest, 2)
	assert.Equal(t, domain.StageChunking, rest[0].Name)
	assert.Equal(t, domain.StageEmbedding, rest[1].Name)
	assert.Len(t, steps, 3)

	assert.True(t, domain.StageParsing.EntryBound())
	assert.False(t, domain.StageFetching.EntryBound())
	assert.False(t, domain.StageBenchmarking.EntryBound())
}
