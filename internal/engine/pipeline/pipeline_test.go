package pipeline_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/core/ports"
	"github.com/agrospai/fastrag/internal/core/ports/mocks"
	"github.com/agrospai/fastrag/internal/engine/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// recordingTracer keeps every span it starts.
type recordingTracer struct {
	mu    sync.Mutex
	spans []*recordingSpan
}

type recordingSpan struct {
	mu       sync.Mutex
	name     string
	total    int
	events   []domain.Event
	advances int
	attrs    map[string]any
	err      error
	ended    bool
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	var cfg ports.SpanConfig
	for _, o := range opts {
		o(&cfg)
	}
	s := &recordingSpan{name: name, total: cfg.Total, attrs: map[string]any{}}
	t.mu.Lock()
	t.spans = append(t.spans, s)
	t.mu.Unlock()
	return ctx, s
}

func (t *recordingTracer) EmitPlan(context.Context, []string) {}

func (t *recordingTracer) span(name string) *recordingSpan {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.spans {
		if s.name == name {
			return s
		}
	}
	return nil
}

func (s *recordingSpan) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = true
}

func (s *recordingSpan) RecordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *recordingSpan) SetAttribute(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs[key] = value
}

func (s *recordingSpan) Emit(ev domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSpan) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advances++
}

// countingTask records the uris it was run with.
type countingTask struct {
	name   string
	filter domain.Filter
	fail   string

	mu   sync.Mutex
	uris []string
}

func (t *countingTask) Name() string          { return t.name }
func (t *countingTask) Filter() domain.Filter { return t.filter }

func (t *countingTask) Run(_ context.Context, uri string, _ *domain.CacheEntry, emit pipeline.Emit) error {
	t.mu.Lock()
	t.uris = append(t.uris, uri)
	t.mu.Unlock()
	if uri != "" && uri == t.fail {
		return errors.New("bad document")
	}
	emit(domain.Progressf("%s processed %s", t.name, uri))
	return nil
}

func (t *countingTask) Completed() domain.Event {
	return domain.Completedf("Finished %s", t.name)
}

func entries(uris ...string) []domain.CacheEntry {
	out := make([]domain.CacheEntry, 0, len(uris))
	for _, u := range uris {
		out = append(out, domain.CacheEntry{URI: u, Metadata: domain.Metadata{domain.MetaStep: "parsing"}})
	}
	return out
}

func newExecutor(t *testing.T) *pipeline.Executor {
	t.Helper()
	exec, err := pipeline.NewExecutor(4)
	require.NoError(t, err)
	t.Cleanup(exec.Release)
	return exec
}

func register(strategies *pipeline.Strategies, stage domain.Capability, task *countingTask) {
	strategies.Register(stage, task.name, func(pipeline.Env, domain.Params) (pipeline.Task, error) {
		return task, nil
	})
}

func TestRunner_TwoTasksThreeEntries(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	cache := mocks.NewMockCache(ctrl)
	cache.EXPECT().GetEntries(gomock.Any()).Return(entries("a", "b", "c")).Times(2)

	first := &countingTask{name: "first", filter: domain.MatchKV(domain.MetaStep, "parsing")}
	second := &countingTask{name: "second", filter: domain.MatchKV(domain.MetaStep, "parsing")}
	strategies := pipeline.NewStrategies()
	register(strategies, domain.StageChunking, first)
	register(strategies, domain.StageChunking, second)

	b := &pipeline.Builder{Strategies: strategies, Resources: pipeline.Resources{Cache: cache}, Executor: newExecutor(t)}
	step, err := b.Step(domain.Stage{Name: domain.StageChunking, Strategies: []domain.Strategy{{Name: "first"}, {Name: "second"}}}, domain.ExperimentRef{}, "")
	require.NoError(t, err)
	assert.Equal(t, 2, step.CalculateTotal())

	tracer := &recordingTracer{}
	require.NoError(t, pipeline.NewRunner(tracer).Run(t.Context(), []*pipeline.Step{step}))

	for _, task := range []*countingTask{first, second} {
		slices.Sort(task.uris)
		assert.Equal(t, []string{"a", "b", "c"}, task.uris)

		span := tracer.span(task.name)
		require.NotNil(t, span)
		assert.Equal(t, 3, span.total)
		assert.Equal(t, 3, span.advances)
		assert.True(t, span.ended)
		require.Len(t, span.events, 4)
		assert.Equal(t, domain.Completedf("Finished %s", task.name), span.events[3], "completion comes after draining")
	}

	stepSpan := tracer.span(string(domain.StageChunking))
	require.NotNil(t, stepSpan)
	assert.Equal(t, 2, stepSpan.total)
	assert.Equal(t, 2, stepSpan.advances)
}

func TestRunner_ExceptionIsIsolated(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	cache := mocks.NewMockCache(ctrl)
	cache.EXPECT().GetEntries(gomock.Any()).Return(entries("a", "bad", "c"))

	task := &countingTask{name: "parser", filter: domain.MatchKV(domain.MetaStep, "fetching"), fail: "bad"}
	strategies := pipeline.NewStrategies()
	register(strategies, domain.StageParsing, task)

	b := &pipeline.Builder{Strategies: strategies, Resources: pipeline.Resources{Cache: cache}, Executor: newExecutor(t)}
	step, err := b.Step(domain.Stage{Name: domain.StageParsing, Strategies: []domain.Strategy{{Name: "parser"}}}, domain.ExperimentRef{}, "")
	require.NoError(t, err)

	tracer := &recordingTracer{}
	require.NoError(t, pipeline.NewRunner(tracer).Run(t.Context(), []*pipeline.Step{step}))

	span := tracer.span("parser")
	require.NotNil(t, span)
	assert.Len(t, task.uris, 3)
	assert.Equal(t, 3, span.advances)
	assert.Equal(t, int64(1), span.attrs[pipeline.AttrExceptions])
	assert.Contains(t, span.events, domain.Event{Type: domain.EventException, Data: "ERROR: bad document"})
}

func TestRunner_Cancelled(t *testing.T) {
	t.Parallel()

	task := &countingTask{name: "Path"}
	strategies := pipeline.NewStrategies()
	register(strategies, domain.StageFetching, task)

	b := &pipeline.Builder{Strategies: strategies, Executor: newExecutor(t)}
	step, err := b.Step(domain.Stage{Name: domain.StageFetching, Strategies: []domain.Strategy{{Name: "Path"}}}, domain.ExperimentRef{}, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err = pipeline.NewRunner(&recordingTracer{}).Run(ctx, []*pipeline.Step{step})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, task.uris)
}

func TestStep_SourceStage(t *testing.T) {
	t.Parallel()

	task := &countingTask{name: "URL"}
	strategies := pipeline.NewStrategies()
	register(strategies, domain.StageFetching, task)

	b := &pipeline.Builder{Strategies: strategies, Executor: newExecutor(t)}
	step, err := b.Step(domain.Stage{Name: domain.StageFetching, Strategies: []domain.Strategy{{Name: "URL"}}}, domain.ExperimentRef{}, "")
	require.NoError(t, err)

	var units []pipeline.Unit
	for u, err := range step.Units(t.Context()) {
		require.NoError(t, err)
		units = append(units, u)
	}
	require.Len(t, units, 1)
	require.Len(t, units[0].Generators, 1)

	var got []domain.Event
	for ev := range units[0].Generators[0](t.Context()) {
		got = append(got, ev)
	}
	assert.Equal(t, []domain.Event{domain.Progressf("URL processed ")}, got)
	assert.Equal(t, []string{""}, task.uris)
}

func TestStep_EmptyTotal(t *testing.T) {
	t.Parallel()

	b := &pipeline.Builder{Strategies: pipeline.NewStrategies()}
	step, err := b.Step(domain.Stage{Name: domain.StageEmbedding}, domain.ExperimentRef{}, "")
	require.NoError(t, err)
	assert.Equal(t, -1, step.CalculateTotal())
}

func TestBuilder_Scopes(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	var got domain.Filter
	cache := mocks.NewMockCache(ctrl)
	cache.EXPECT().GetEntries(gomock.Any()).DoAndReturn(func(f domain.Filter) []domain.CacheEntry {
		got = f
		return nil
	})

	task := &countingTask{name: "HtmlParser", filter: domain.MatchKV(domain.MetaStep, "fetching")}
	strategies := pipeline.NewStrategies()
	register(strategies, domain.StageParsing, task)

	b := &pipeline.Builder{Strategies: strategies, Resources: pipeline.Resources{Cache: cache}, Executor: newExecutor(t)}
	step, err := b.Step(domain.Stage{Name: domain.StageParsing, Strategies: []domain.Strategy{{
		Name:   "HtmlParser",
		Params: domain.Params{"use": []any{"URL", "SitemapXML"}},
	}}}, domain.ExperimentRef{ID: "exp_1"}, "upstream")
	require.NoError(t, err)

	for _, err := range step.Units(t.Context()) {
		require.NoError(t, err)
	}
	require.NotNil(t, got)

	match := domain.CacheEntry{Metadata: domain.Metadata{
		domain.MetaStep: "fetching", domain.MetaStrategy: "SitemapXML", domain.MetaTask: "upstream",
	}}
	assert.True(t, got.Apply(match))

	other := match
	other.Metadata = match.Metadata.Clone()
	other.Metadata[domain.MetaStrategy] = "Path"
	assert.False(t, got.Apply(other), "strategies outside use are skipped")

	foreign := match
	foreign.Metadata = match.Metadata.Clone()
	foreign.Metadata[domain.MetaTask] = "someone-else"
	assert.False(t, got.Apply(foreign), "entries of another upstream task are skipped")
}

func TestBuilder_UnknownStrategy(t *testing.T) {
	t.Parallel()

	b := &pipeline.Builder{Strategies: pipeline.NewStrategies()}
	_, err := b.Step(domain.Stage{Name: domain.StageChunking, Strategies: []domain.Strategy{{Name: "Semantic"}}}, domain.ExperimentRef{}, "")
	require.ErrorIs(t, err, domain.ErrNotImplemented)
}

func TestBuilder_FactoryError(t *testing.T) {
	t.Parallel()

	strategies := pipeline.NewStrategies()
	strategies.Register(domain.StageChunking, "SlidingWindow", func(pipeline.Env, domain.Params) (pipeline.Task, error) {
		return nil, domain.ErrInvalidParams
	})

	b := &pipeline.Builder{Strategies: strategies}
	_, err := b.Step(domain.Stage{Name: domain.StageChunking, Strategies: []domain.Strategy{{Name: "SlidingWindow"}}}, domain.ExperimentRef{}, "")
	require.ErrorIs(t, err, domain.ErrInvalidParams)
}

func TestBuilder_EnvCarriesIdentity(t *testing.T) {
	t.Parallel()

	var env pipeline.Env
	strategies := pipeline.NewStrategies()
	strategies.Register(domain.StageEmbedding, "OpenAI-Simple", func(e pipeline.Env, _ domain.Params) (pipeline.Task, error) {
		env = e
		return &countingTask{name: "e"}, nil
	})

	strategy := domain.Strategy{Name: "OpenAI-Simple", Params: domain.Params{"model": "m"}}
	b := &pipeline.Builder{Strategies: strategies}
	_, err := b.Step(domain.Stage{Name: domain.StageEmbedding, Strategies: []domain.Strategy{strategy}}, domain.ExperimentRef{ID: "exp_9", Index: 2}, "")
	require.NoError(t, err)

	assert.Equal(t, "exp_9", env.Namespace())
	assert.Equal(t, domain.Fingerprint(domain.StageEmbedding, strategy), env.Fingerprint)

	tagged := env.Tag(domain.Metadata{domain.MetaStep: "embedding"})
	assert.Equal(t, domain.Metadata{
		domain.MetaStep:       "embedding",
		domain.MetaExperiment: "exp_9",
		domain.MetaTask:       env.Fingerprint,
	}, tagged)

	outside := pipeline.Env{}
	assert.Equal(t, domain.Metadata{"a": 1}, outside.Tag(domain.Metadata{"a": 1}))
}

func TestExecutor_PanicBecomesException(t *testing.T) {
	t.Parallel()

	exec := newExecutor(t)
	var got []domain.Event
	for ev := range exec.Stream(t.Context(), func(_ context.Context, emit pipeline.Emit) error {
		emit(domain.Progressf("before"))
		panic("kaboom")
	}) {
		got = append(got, ev)
	}

	require.Len(t, got, 2)
	assert.Equal(t, domain.EventException, got[1].Type)
	assert.Contains(t, got[1].Data, "kaboom")
}

func TestExecutor_ErrorBecomesException(t *testing.T) {
	t.Parallel()

	exec := newExecutor(t)
	var got []domain.Event
	for ev := range exec.Stream(t.Context(), func(context.Context, pipeline.Emit) error {
		return errors.New("network down")
	}) {
		got = append(got, ev)
	}
	assert.Equal(t, []domain.Event{domain.Exception(errors.New("network down"))}, got)
}
