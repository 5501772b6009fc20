package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agrospai/fastrag/internal/adapters/detector" //nolint:depguard // Wired in app layer
	"github.com/agrospai/fastrag/internal/adapters/watcher"  //nolint:depguard // Wired in app layer
	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/strategies/fetching"
	"go.trai.ch/zerr"
)

// watch runs once, then re-runs whenever the configuration, its .env file or a
// local source changes. The watched set is fixed by the configuration read at start.
func (a *App) watch(ctx context.Context, opts RunOptions, mode detector.OutputMode) error {
	if err := a.runOnce(ctx, opts, mode); err != nil {
		if stopped(ctx, err) {
			return nil
		}
		a.logger.Error(err)
	}

	cfg, err := a.loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	paths := watchPaths(cfg)

	if a.watchers == nil {
		return errNoWatcher
	}
	w, err := a.watchers()
	if err != nil {
		return err
	}
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := w.Start(wctx, paths); err != nil {
		_ = w.Stop()
		return err
	}
	defer func() {
		_ = w.Stop()
	}()

	debounce := watcher.NewDebouncer(watcher.DefaultDebounceWindow)
	go func() {
		for event := range w.Events() {
			debounce.Add(event.Path)
		}
	}()

	a.logger.Info(fmt.Sprintf("watching %d path(s) for changes", len(paths)))
	for {
		select {
		case <-ctx.Done():
			return nil
		case batch := <-debounce.Batches():
			a.logger.Info("change detected: " + strings.Join(batch, ", "))
			if err := a.runOnce(ctx, opts, mode); err != nil {
				if stopped(ctx, err) {
					return nil
				}
				a.logger.Error(err)
			}
		}
	}
}

// stopped reports whether err comes from the user ending the session.
func stopped(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}

// watchPaths lists the configuration file, the .env next to it and the inputs of
// every Path fetcher among the sources.
func watchPaths(cfg *domain.Config) []string {
	var paths []string
	if cfg.Path != "" {
		paths = append(paths, cfg.Path)
		dotenv := filepath.Join(filepath.Dir(cfg.Path), ".env")
		if _, err := os.Stat(dotenv); err == nil {
			paths = append(paths, dotenv)
		}
	}

	stage, ok := cfg.Resources.Sources.Lookup(domain.StageFetching)
	if !ok {
		return paths
	}
	for _, s := range stage.Strategies {
		if s.Name != fetching.PathName {
			continue
		}
		var p fetching.PathParams
		if err := s.Params.Decode(&p); err != nil || p.Path == "" {
			continue
		}
		if _, err := os.Stat(p.Path); err != nil {
			continue
		}
		paths = append(paths, p.Path)
	}
	return paths
}

// errNoWatcher is returned when the app was built without a watcher factory.
var errNoWatcher = zerr.Wrap(domain.ErrWatcherFailed, "watch mode unavailable")
