package app_test

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/agrospai/fastrag/internal/adapters/cas"
	"github.com/agrospai/fastrag/internal/adapters/config"
	"github.com/agrospai/fastrag/internal/adapters/metrics"
	"github.com/agrospai/fastrag/internal/app"
	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/core/ports"
	"github.com/agrospai/fastrag/internal/core/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const guide = `# Data spaces

A data space is a federated ecosystem where participants share data under
common rules.

## Connectors

Each participant runs a connector that enforces the usage policies attached
to the data it offers.
`

const sourcesConfig = `
resources:
  cache:
    path: .fastrag
  sources:
    steps:
      fetching:
        - strategy: Path
          params: {path: %q}
      parsing:
        - strategy: FileParser
`

const twoExperiments = `
experiments:
  max_concurrent: 2
  steps:
    chunking:
      - strategy: SlidingWindow
        params: {chunk_size: 60, chunk_overlap: 10}
      - strategy: SlidingWindow
        params: {chunk_size: 200, chunk_overlap: 0}
`

type fixture struct {
	dir    string
	config string
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	logger *mocks.MockLogger
	app    *app.App
}

func newFixture(t *testing.T, experiments string, watchers ports.WatcherFactory) *fixture {
	t.Helper()

	dir := t.TempDir()
	docs := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(docs, domain.DirPerm))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "guide.md"), []byte(guide), domain.FilePerm))

	cfgPath := filepath.Join(dir, "fastrag.yaml")
	content := fmt.Sprintf(sourcesConfig, docs) + experiments
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), domain.FilePerm))

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any()).AnyTimes()

	f := &fixture{
		dir:    dir,
		config: cfgPath,
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		logger: log,
	}
	f.app = app.New(config.NewLoader(log), cas.NewOpener(log, nil), log, metrics.New(), nil, watchers).
		WithOutput(f.stdout, f.stderr)
	return f
}

func (f *fixture) options() app.RunOptions {
	return app.RunOptions{ConfigPath: f.config, OutputMode: "linear"}
}

func TestApp_Run(t *testing.T) {
	f := newFixture(t, twoExperiments, nil)
	f.logger.EXPECT().Info(gomock.Any()).AnyTimes()

	opts := f.options()
	opts.TraceFile = filepath.Join(f.dir, "trace.json")
	opts.MetricsFile = filepath.Join(f.dir, "metrics.prom")

	require.NoError(t, f.app.Run(context.Background(), opts))

	assert.Contains(t, f.stderr.String(), "Planning to run 2 experiment(s)")
	out := f.stdout.String()
	assert.Contains(t, out, "Experiment #1")
	assert.Contains(t, out, "Experiment #2")
	assert.Contains(t, out, "Ranking:")
	assert.Contains(t, out, "Completed 2 experiments!")

	base := filepath.Join(f.dir, domain.BaseDirName)
	assert.FileExists(t, domain.MetadataPath(base))

	traces, err := os.ReadFile(opts.TraceFile)
	require.NoError(t, err)
	assert.Contains(t, string(traces), `"Name":"fetching"`)
	assert.Contains(t, string(traces), `"Name":"Experiment #2"`)

	prom, err := os.ReadFile(opts.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "fastrag_events_total")

	cache, err := cas.Open(base, time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	experiments := map[any]bool{}
	for _, e := range cache.GetEntries(domain.MatchKV(domain.MetaStep, string(domain.StageChunking))) {
		experiments[e.Metadata[domain.MetaExperiment]] = true
	}
	assert.Len(t, experiments, 2, "each experiment writes its own chunks")
}

func TestApp_Run_Twice(t *testing.T) {
	f := newFixture(t, twoExperiments, nil)
	f.logger.EXPECT().Info(gomock.Any()).AnyTimes()

	require.NoError(t, f.app.Run(context.Background(), f.options()))
	f.stdout.Reset()
	require.NoError(t, f.app.Run(context.Background(), f.options()))
	assert.Contains(t, f.stdout.String(), "Completed 2 experiments!")
}

func TestApp_Run_NoExperiments(t *testing.T) {
	f := newFixture(t, "", nil)
	f.logger.EXPECT().Info("no experiments configured")

	require.NoError(t, f.app.Run(context.Background(), f.options()))
	assert.Contains(t, f.stdout.String(), "Completed 0 experiments!")
	assert.NotContains(t, f.stdout.String(), "Ranking:")
}

func TestApp_Run_UnknownStrategy(t *testing.T) {
	f := newFixture(t, `
experiments:
  steps:
    chunking:
      - strategy: Semantic
`, nil)
	f.logger.EXPECT().Info(gomock.Any()).AnyTimes()

	err := f.app.Run(context.Background(), f.options())
	require.ErrorIs(t, err, domain.ErrNotImplemented)
	assert.NotContains(t, f.stdout.String(), "Completed")
}

func TestApp_Run_InvalidOutputMode(t *testing.T) {
	f := newFixture(t, twoExperiments, nil)

	opts := f.options()
	opts.OutputMode = "html"
	require.ErrorIs(t, f.app.Run(context.Background(), opts), domain.ErrInvalidOutputMode)
}

func TestApp_Run_MissingConfig(t *testing.T) {
	f := newFixture(t, twoExperiments, nil)

	opts := f.options()
	opts.ConfigPath = filepath.Join(f.dir, "missing.yaml")
	require.ErrorContains(t, f.app.Run(context.Background(), opts), "failed to load configuration")
}

func TestApp_Run_Canceled(t *testing.T) {
	f := newFixture(t, twoExperiments, nil)
	f.logger.EXPECT().Info(gomock.Any()).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.app.Run(ctx, f.options())
	require.ErrorIs(t, err, context.Canceled)
	assert.NotContains(t, f.stdout.String(), "Completed")
}

func TestApp_Watch(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := mocks.NewMockWatcher(ctrl)

	f := newFixture(t, twoExperiments, func() (ports.Watcher, error) { return w, nil })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var watched []string
	w.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, paths []string) error {
		watched = paths
		return nil
	})
	w.EXPECT().Events().Return(iter.Seq[ports.WatchEvent](func(yield func(ports.WatchEvent) bool) {
		yield(ports.WatchEvent{Path: f.config, Operation: ports.OpWrite})
	}))
	w.EXPECT().Stop().Return(nil)

	var changed bool
	f.logger.EXPECT().Info(gomock.Any()).AnyTimes().Do(func(msg string) {
		if strings.HasPrefix(msg, "change detected: ") {
			changed = true
			assert.Equal(t, "change detected: "+f.config, msg)
			cancel()
		}
	})

	opts := f.options()
	opts.Watch = true
	require.NoError(t, f.app.Run(ctx, opts))

	assert.True(t, changed)
	assert.Contains(t, watched, f.config)
	assert.Contains(t, watched, filepath.Join(f.dir, "docs"))
	assert.Contains(t, f.stdout.String(), "Completed 2 experiments!")
}

func TestApp_Watch_Unavailable(t *testing.T) {
	f := newFixture(t, twoExperiments, nil)
	f.logger.EXPECT().Info(gomock.Any()).AnyTimes()

	opts := f.options()
	opts.Watch = true
	require.ErrorIs(t, f.app.Run(context.Background(), opts), domain.ErrWatcherFailed)
}

func TestApp_Clean(t *testing.T) {
	f := newFixture(t, twoExperiments, nil)
	f.logger.EXPECT().Info(gomock.Any()).AnyTimes()

	require.NoError(t, f.app.Run(context.Background(), f.options()))

	freed, err := f.app.Clean(context.Background(), app.CleanOptions{ConfigPath: f.config})
	require.NoError(t, err)
	assert.Positive(t, freed)
	assert.NoDirExists(t, filepath.Join(f.dir, domain.BaseDirName))
}

func TestApp_Clean_WithoutConfig(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	dir := t.TempDir()
	t.Chdir(dir)
	payload := filepath.Join(domain.PayloadDir(filepath.Join(dir, domain.BaseDirName)), "entry")
	require.NoError(t, os.MkdirAll(filepath.Dir(payload), domain.DirPerm))
	require.NoError(t, os.WriteFile(payload, []byte("12345678"), domain.FilePerm))

	log.EXPECT().Warn("no configuration found, cleaning " + filepath.Join(dir, domain.BaseDirName))

	a := app.New(config.NewLoader(log), cas.NewOpener(log, nil), log, metrics.New(), nil, nil)
	freed, err := a.Clean(context.Background(), app.CleanOptions{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, freed, int64(8))
	assert.NoDirExists(t, filepath.Join(dir, domain.BaseDirName))
}
