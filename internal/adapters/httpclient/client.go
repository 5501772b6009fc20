// Package httpclient provides the shared outbound HTTP client: a token-bucket
// limiter in front of every request and retries with exponential backoff.
package httpclient

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Config controls limiting and retry behaviour.
type Config struct {
	// Timeout bounds a whole request including retries. Zero disables it.
	Timeout time.Duration

	// RPS and Burst configure the token bucket. RPS <= 0 disables limiting.
	RPS   float64
	Burst int

	// MaxAttempts is the number of tries per request, including the first.
	MaxAttempts int

	// BaseDelay is the wait before the first retry, doubled on every retry up to MaxDelay.
	BaseDelay time.Duration
	MaxDelay  time.Duration

	// Jitter adds up to ±Jitter of the delay, 0.2 meaning ±20 %.
	Jitter float64
}

// DefaultConfig returns the settings used for fetchers and model endpoints.
func DefaultConfig() Config {
	return Config{
		Timeout:     2 * time.Minute,
		RPS:         20,
		Burst:       10,
		MaxAttempts: 3,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Jitter:      0.2,
	}
}

// Client implements ports.HTTPClient and http.RoundTripper.
type Client struct {
	cfg     Config
	base    http.RoundTripper
	limiter *rate.Limiter
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces the underlying transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.base = rt
	}
}

// New creates a Client.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:     cfg,
		base:    http.DefaultTransport,
		limiter: rate.NewLimiter(rate.Inf, 0),
	}
	if cfg.RPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), max(cfg.Burst, 1))
	}
	for _, opt := range opts {
		opt(c)
	}
	c.client = &http.Client{Transport: c, Timeout: cfg.Timeout}
	return c
}

// Do sends req through the limiter and retry policy.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req)
}

// HTTP returns a standard client sharing this client's policy, for SDKs that take one.
func (c *Client) HTTP() *http.Client {
	return c.client
}

// RoundTrip implements http.RoundTripper. Only requests whose body can be replayed
// are retried.
func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	attempts := max(c.cfg.MaxAttempts, 1)
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		attempts = 1
	}

	for i := range attempts {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		attempt := req
		if i > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			attempt = req.Clone(ctx)
			attempt.Body = body
		}

		resp, err := c.base.RoundTrip(attempt)
		if i == attempts-1 || !retryable(ctx, resp, err) {
			return resp, err
		}
		if resp != nil {
			_ = resp.Body.Close()
		}

		timer := time.NewTimer(c.backoff(i))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	// Unreachable: the last attempt always returns.
	return nil, errors.New("httpclient: no attempt made")
}

func retryable(ctx context.Context, resp *http.Response, err error) bool {
	if err != nil {
		return ctx.Err() == nil
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
}

func (c *Client) backoff(attempt int) time.Duration {
	delay := float64(c.cfg.BaseDelay) * math.Pow(2, float64(attempt))
	if limit := float64(c.cfg.MaxDelay); limit > 0 && delay > limit {
		delay = limit
	}
	if c.cfg.Jitter > 0 {
		//nolint:gosec // Jitter does not need a cryptographic source.
		delay += delay * c.cfg.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(max(delay, 0))
}
