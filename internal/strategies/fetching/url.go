package fetching

import (
	"context"
	"sync/atomic"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/engine/pipeline"
	"go.trai.ch/zerr"
)

// URLName is the registered name of the single page fetcher.
const URLName = "URL"

// URLParams configures the URL fetcher.
type URLParams struct {
	URL string `yaml:"url"`
}

// URL downloads one page and caches it under its own address.
type URL struct {
	env    pipeline.Env
	url    string
	cached atomic.Bool
}

// NewURL implements pipeline.Factory.
func NewURL(env pipeline.Env, params domain.Params) (pipeline.Task, error) {
	var p URLParams
	if err := params.Decode(&p); err != nil {
		return nil, err
	}
	if p.URL == "" {
		return nil, zerr.With(zerr.Wrap(domain.ErrMissingParam, URLName), "param", "url")
	}
	return &URL{env: env, url: p.URL}, nil
}

// Name implements pipeline.Task.
func (u *URL) Name() string { return URLName }

// Filter implements pipeline.Task.
func (u *URL) Filter() domain.Filter { return nil }

// Run implements pipeline.Task.
func (u *URL) Run(ctx context.Context, _ string, _ *domain.CacheEntry, _ pipeline.Emit) error {
	existed, _, err := u.env.Resources.Cache.GetOrCreate(ctx, u.url, func(ctx context.Context) ([]byte, error) {
		return get(ctx, u.env.Resources.HTTP, u.url)
	}, u.env.Tag(fetchedMeta(URLName, FormatHTML)))
	if err != nil {
		return err
	}
	u.cached.Store(existed)
	return nil
}

// Completed implements pipeline.Task.
func (u *URL) Completed() domain.Event {
	if u.cached.Load() {
		return domain.Completedf("Cached %s", u.url)
	}
	return domain.Completedf("Fetched %s", u.url)
}
