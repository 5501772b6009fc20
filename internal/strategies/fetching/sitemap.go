package fetching

import (
	"context"
	"encoding/xml"
	"regexp"
	"strings"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/engine/pipeline"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// SitemapName is the registered name of the sitemap crawler.
const SitemapName = "SitemapXML"

// SitemapConcurrency bounds the page downloads of one sitemap.
const SitemapConcurrency = 8

// SitemapParams configures the sitemap crawler.
type SitemapParams struct {
	URL   string   `yaml:"url"`
	Regex []string `yaml:"regex"`
}

// Sitemap reads a sitemap.xml and fetches the pages whose location matches
// any of the configured patterns. Without patterns every page is fetched.
type Sitemap struct {
	env      pipeline.Env
	url      string
	patterns []*regexp.Regexp
}

// NewSitemap implements pipeline.Factory.
func NewSitemap(env pipeline.Env, params domain.Params) (pipeline.Task, error) {
	var p SitemapParams
	if err := params.Decode(&p); err != nil {
		return nil, err
	}
	if p.URL == "" {
		return nil, zerr.With(zerr.Wrap(domain.ErrMissingParam, SitemapName), "param", "url")
	}

	patterns := make([]*regexp.Regexp, 0, len(p.Regex))
	for _, expr := range p.Regex {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrInvalidParams.Error()), "regex", expr)
		}
		patterns = append(patterns, re)
	}
	return &Sitemap{env: env, url: p.URL, patterns: patterns}, nil
}

// Name implements pipeline.Task.
func (s *Sitemap) Name() string { return SitemapName }

// Filter implements pipeline.Task.
func (s *Sitemap) Filter() domain.Filter { return nil }

type urlSet struct {
	URLs []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// Locations parses a sitemap document and splits its locations by the patterns.
func (s *Sitemap) Locations(doc []byte) (keep []string, skipped int, err error) {
	var set urlSet
	if err := xml.Unmarshal(doc, &set); err != nil {
		return nil, 0, zerr.With(zerr.Wrap(err, domain.ErrParseFailed.Error()), "url", s.url)
	}
	for _, u := range set.URLs {
		loc := strings.TrimSpace(u.Loc)
		if loc != "" && s.match(loc) {
			keep = append(keep, loc)
		} else {
			skipped++
		}
	}
	return keep, skipped, nil
}

func (s *Sitemap) match(loc string) bool {
	if len(s.patterns) == 0 {
		return true
	}
	for _, re := range s.patterns {
		if re.MatchString(loc) {
			return true
		}
	}
	return false
}

// Run implements pipeline.Task. A failing page becomes an exception event and
// does not stop the others.
func (s *Sitemap) Run(ctx context.Context, _ string, _ *domain.CacheEntry, emit pipeline.Emit) error {
	doc, err := get(ctx, s.env.Resources.HTTP, s.url)
	if err != nil {
		return err
	}
	urls, skipped, err := s.Locations(doc)
	if err != nil {
		return err
	}
	emit(domain.Progressf("Retrieving %d URLs (filtered out %d out of %d)", len(urls), skipped, len(urls)+skipped))

	cache := s.env.Resources.Cache
	meta := s.env.Tag(fetchedMeta(SitemapName, FormatHTML))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(SitemapConcurrency)
	for _, url := range urls {
		g.Go(func() error {
			existed, _, err := cache.GetOrCreate(gctx, url, func(ctx context.Context) ([]byte, error) {
				return get(ctx, s.env.Resources.HTTP, url)
			}, meta)
			if err != nil {
				emit(domain.Exception(err))
				return nil
			}
			if existed {
				emit(domain.Progressf("Cached %s", url))
				return nil
			}
			emit(domain.Progressf("Fetching %s", url))
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

// Completed implements pipeline.Task.
func (s *Sitemap) Completed() domain.Event {
	return domain.Completedf("Completed sitemap.xml")
}
