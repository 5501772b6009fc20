package fetching

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/engine/pipeline"
	"github.com/dustin/go-humanize"
	"go.trai.ch/zerr"
)

// PathName is the registered name of the local path fetcher.
const PathName = "Path"

// PathParams configures the Path fetcher.
type PathParams struct {
	Path string `yaml:"path"`
}

// Path copies a local file, or the files directly inside a directory, into the cache.
type Path struct {
	env  pipeline.Env
	path string
}

// NewPath implements pipeline.Factory. The path must exist when the task is built.
func NewPath(env pipeline.Env, params domain.Params) (pipeline.Task, error) {
	var p PathParams
	if err := params.Decode(&p); err != nil {
		return nil, err
	}
	if p.Path == "" {
		return nil, zerr.With(zerr.Wrap(domain.ErrMissingParam, PathName), "param", "path")
	}
	abs, err := filepath.Abs(p.Path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrInvalidParams.Error()), "path", p.Path)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrInvalidParams.Error()), "path", p.Path)
	}
	return &Path{env: env, path: abs}, nil
}

// Root returns the absolute path the task reads from.
func (p *Path) Root() string { return p.path }

// Name implements pipeline.Task.
func (p *Path) Name() string { return PathName }

// Filter implements pipeline.Task.
func (p *Path) Filter() domain.Filter { return nil }

// Run implements pipeline.Task.
func (p *Path) Run(ctx context.Context, _ string, _ *domain.CacheEntry, emit pipeline.Emit) error {
	info, err := os.Stat(p.path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFetchFailed.Error()), "path", p.path)
	}
	emit(domain.Progressf("Copying local files (%s)", humanize.Bytes(uint64(max(info.Size(), 0)))))

	files, err := listFiles(p.path, info)
	if err != nil {
		return err
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		uri := domain.FileURI(file)
		meta := fetchedMeta(PathName, strings.TrimPrefix(strings.ToLower(filepath.Ext(file)), "."))
		existed, _, err := p.env.Resources.Cache.GetOrCreate(ctx, uri, func(context.Context) ([]byte, error) {
			//nolint:gosec // Reading user-configured source files is the purpose of this task
			return os.ReadFile(file)
		}, p.env.Tag(meta))
		if err != nil {
			return err
		}
		if existed {
			emit(domain.Progressf("Cached local path %s", uri))
		} else {
			emit(domain.Progressf("Copied local path %s", uri))
		}
	}
	return nil
}

// Completed implements pipeline.Task.
func (p *Path) Completed() domain.Event {
	return domain.Completedf("Completed local path copy")
}

// listFiles returns path itself for a file, or the regular files directly inside a directory.
func listFiles(path string, info os.FileInfo) ([]string, error) {
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrFetchFailed.Error()), "path", path)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	slices.Sort(files)
	return files, nil
}
