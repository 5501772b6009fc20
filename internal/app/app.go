// Package app implements the application layer for fastrag.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/agrospai/fastrag/internal/adapters/detector"  //nolint:depguard // Wired in app layer
	"github.com/agrospai/fastrag/internal/adapters/linear"    //nolint:depguard // Wired in app layer
	"github.com/agrospai/fastrag/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"github.com/agrospai/fastrag/internal/adapters/tui"       //nolint:depguard // Wired in app layer
	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/core/ports"
	"github.com/agrospai/fastrag/internal/engine/experiment"
	"github.com/agrospai/fastrag/internal/engine/pipeline"
	"github.com/agrospai/fastrag/internal/strategies"
	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// AutosaveInterval is how often the cache index is persisted during a run.
const AutosaveInterval = 5 * time.Second

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	opener       ports.CacheOpener
	logger       ports.Logger
	metrics      ports.Metrics
	http         ports.HTTPClient
	watchers     ports.WatcherFactory
	backends     *Backends
	strategies   *pipeline.Strategies
	stdout       io.Writer
	stderr       io.Writer
	teaOptions   []tea.ProgramOption
}

// New creates a new App instance with the built-in strategies and backends.
func New(
	loader ports.ConfigLoader,
	opener ports.CacheOpener,
	log ports.Logger,
	metrics ports.Metrics,
	http ports.HTTPClient,
	watchers ports.WatcherFactory,
) *App {
	return &App{
		configLoader: loader,
		opener:       opener,
		logger:       log,
		metrics:      metrics,
		http:         http,
		watchers:     watchers,
		backends:     DefaultBackends(),
		strategies:   strategies.New(),
		stdout:       os.Stdout,
		stderr:       os.Stderr,
	}
}

// WithTeaOptions adds bubbletea program options to the App.
// This is primarily used for testing to disable input/output.
func (a *App) WithTeaOptions(opts ...tea.ProgramOption) *App {
	a.teaOptions = append(a.teaOptions, opts...)
	return a
}

// WithOutput redirects the summary and the renderers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// WithStrategies replaces the task registry.
func (a *App) WithStrategies(s *pipeline.Strategies) *App {
	a.strategies = s
	return a
}

// WithBackends replaces the resource backends.
func (a *App) WithBackends(b *Backends) *App {
	a.backends = b
	return a
}

// RunOptions configuration for the Run method.
type RunOptions struct {
	ConfigPath  string
	Verbose     bool
	OutputMode  string
	Watch       bool
	TraceFile   string
	MetricsFile string
}

// Run executes the sources pipeline and then every planned experiment. With Watch
// set it keeps re-running on input changes until ctx is done.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	mode, err := detector.ParseMode(opts.OutputMode)
	if err != nil {
		return err
	}
	if opts.Watch {
		return a.watch(ctx, opts, mode)
	}
	return a.runOnce(ctx, opts, mode)
}

func (a *App) loadConfig(path string) (*domain.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to get current working directory")
	}
	cfg, err := a.configLoader.Load(cwd, path)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	return cfg, nil
}

//nolint:cyclop,funlen // orchestration function
func (a *App) runOnce(ctx context.Context, opts RunOptions, mode detector.OutputMode) (err error) {
	// 1. Load the configuration
	cfg, err := a.loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	// 2. Open the cache, persisting its index while the run is in progress
	cache, err := a.opener.Open(cfg.Resources.Cache)
	if err != nil {
		return err
	}
	saveCtx, stopSave := context.WithCancel(ctx)
	var saving sync.WaitGroup
	saving.Go(func() { cache.Autosave(saveCtx, AutosaveInterval) })
	defer func() {
		stopSave()
		saving.Wait()
		err = errors.Join(err, cache.Close())
	}()

	// 3. Resolve the shared resources
	env := ports.ResourceEnv{HTTP: a.http, BasePath: cfg.Resources.Cache.Path}
	res, err := a.backends.build(ctx, cfg.Resources, cache, env)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, res.Close())
	}()

	exec, err := pipeline.NewExecutor(0)
	if err != nil {
		return err
	}
	defer exec.Release()

	// 4. Initialize Renderer and Telemetry
	renderer := a.renderer(ctx, mode, opts.Verbose)

	var traces io.Writer
	if opts.TraceFile != "" {
		f, errOpen := os.OpenFile(opts.TraceFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, domain.FilePerm)
		if errOpen != nil {
			return zerr.With(zerr.Wrap(errOpen, "failed to create trace file"), "path", opts.TraceFile)
		}
		defer func() {
			err = errors.Join(err, f.Close())
		}()
		traces = f
	}

	tp, err := telemetry.NewProvider(renderer, traces)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, tp.Shutdown(context.WithoutCancel(ctx)))
	}()
	tracer := telemetry.NewOTelTracer("fastrag").
		WithProvider(tp).
		WithRenderer(renderer).
		WithMetrics(a.metrics)

	builder := &pipeline.Builder{
		Strategies: a.strategies,
		Resources:  res.Resources,
		Executor:   exec,
	}

	// 5. Run Renderer and Pipeline concurrently
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := renderer.Start(gctx); err != nil {
			return err
		}
		return renderer.Wait()
	})

	var summary experiment.Summary
	g.Go(func() error {
		defer func() {
			_ = renderer.Stop()
		}()
		var errRun error
		summary, errRun = a.execute(gctx, cfg, builder, tracer)
		return errRun
	})

	err = g.Wait()

	// 6. Report
	if len(summary.Results) > 0 {
		_, _ = fmt.Fprintf(a.stdout, "%s\n\n", summary)
	}
	if err == nil {
		_, _ = fmt.Fprintf(a.stdout, "Completed %d experiments!\n", len(summary.Results))
	}
	if opts.MetricsFile != "" {
		err = errors.Join(err, a.metrics.WriteFile(opts.MetricsFile))
	}
	return err
}

// execute runs the sources, then the experiments planned from the configuration.
// Failing experiments still yield their summary line.
func (a *App) execute(
	ctx context.Context,
	cfg *domain.Config,
	builder *pipeline.Builder,
	tracer ports.Tracer,
) (experiment.Summary, error) {
	sources := make([]*pipeline.Step, 0, len(cfg.Resources.Sources))
	for _, stage := range cfg.Resources.Sources {
		step, err := builder.Step(stage, domain.ExperimentRef{}, "")
		if err != nil {
			return experiment.Summary{}, err
		}
		sources = append(sources, step)
	}
	if err := pipeline.NewRunner(tracer).Run(ctx, sources); err != nil {
		return experiment.Summary{}, errors.Join(domain.ErrPipelineFailed, err)
	}

	exps := experiment.Plan(cfg.Experiments.Steps, cfg.Benchmarking)
	if len(exps) == 0 {
		a.logger.Info("no experiments configured")
		return experiment.Summary{}, nil
	}

	runner := experiment.NewRunner(builder, tracer, a.metrics, cfg.Experiments.MaxConcurrent)
	return runner.Run(ctx, exps)
}

func (a *App) renderer(ctx context.Context, mode detector.OutputMode, verbose bool) ports.Renderer {
	mode = detector.ResolveMode(detector.DetectEnvironment(), mode)
	if mode == detector.ModeTUI {
		model := tui.NewModel(a.stderr, verbose)
		optsTea := append([]tea.ProgramOption{tea.WithContext(ctx)}, a.teaOptions...)
		return tui.NewRenderer(&model, optsTea...)
	}
	return linear.NewRenderer(a.stdout, a.stderr, verbose)
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	ConfigPath string
}

// Clean removes the cache directory and reports the number of bytes freed. Without
// a configuration file, the default cache under the working directory is removed.
func (a *App) Clean(_ context.Context, opts CleanOptions) (int64, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return 0, zerr.Wrap(err, "failed to get current working directory")
	}

	cacheCfg := domain.CacheConfig{Path: filepath.Join(cwd, domain.DefaultBasePath())}
	cfg, err := a.configLoader.Load(cwd, opts.ConfigPath)
	switch {
	case err == nil:
		cacheCfg = cfg.Resources.Cache
	case errors.Is(err, domain.ErrConfigNotFound) && opts.ConfigPath == "":
		a.logger.Warn("no configuration found, cleaning " + cacheCfg.Path)
	default:
		return 0, zerr.Wrap(err, "failed to load configuration")
	}

	cache, err := a.opener.Open(cacheCfg)
	if err != nil {
		return 0, err
	}
	freed, err := cache.Clean()
	return freed, errors.Join(err, cache.Close())
}
