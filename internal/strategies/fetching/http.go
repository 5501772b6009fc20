// Package fetching implements the source tasks that bring documents into the cache.
package fetching

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/core/ports"
	"go.trai.ch/zerr"
)

// RequestTimeout bounds a single page download.
const RequestTimeout = 10 * time.Second

// FormatHTML is the format recorded for downloaded pages.
const FormatHTML = "html"

func get(ctx context.Context, client ports.HTTPClient, url string) ([]byte, error) {
	if client == nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrMissingResource, "http client"), "url", url)
	}

	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrFetchFailed.Error()), "url", url)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrFetchFailed.Error()), "url", url)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		err := zerr.With(zerr.Wrap(domain.ErrUnexpectedStatus, "fetch"), "status", resp.StatusCode)
		return nil, zerr.With(err, "url", url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrFetchFailed.Error()), "url", url)
	}
	return body, nil
}

func fetchedMeta(strategy, format string) domain.Metadata {
	return domain.Metadata{
		domain.MetaStep:     string(domain.StageFetching),
		domain.MetaFormat:   format,
		domain.MetaStrategy: strategy,
	}
}
