package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/semaphore"
)

// Config configures an HTTPFetcher.
type Config struct {
	// Timeout bounds a single request including the body read.
	// Zero means no client timeout; the caller's context still applies.
	Timeout time.Duration

	// MaxBytes caps the response body. Zero means unlimited.
	MaxBytes int64

	// MaxConcurrent bounds in-flight requests. Zero means unlimited.
	MaxConcurrent int64

	// UserAgent is sent with every request when non-empty.
	UserAgent string

	// Header is added to every request.
	Header http.Header
}

// DefaultConfig returns the fetcher defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:       30 * time.Second,
		MaxBytes:      32 << 20,
		MaxConcurrent: 8,
		UserAgent:     "remoteimage/1",
	}
}

// HTTPFetcher fetches images with HTTP GET.
type HTTPFetcher struct {
	config Config
	client *http.Client
	sem    *semaphore.Weighted
	tokens TokenSource
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithClient sets the HTTP client. Config.Timeout is not applied to it.
func WithClient(c *http.Client) Option {
	return func(f *HTTPFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithTokenSource authenticates every request with a bearer token.
func WithTokenSource(ts TokenSource) Option {
	return func(f *HTTPFetcher) { f.tokens = ts }
}

// NewHTTPFetcher creates an HTTPFetcher.
func NewHTTPFetcher(config Config, opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
	if config.MaxConcurrent > 0 {
		f.sem = semaphore.NewWeighted(config.MaxConcurrent)
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs a GET of u and returns the response body.
func (f *HTTPFetcher) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	if u == nil {
		return nil, ErrNilURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	if f.sem != nil {
		if err := f.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer f.sem.Release(1)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request: %w", err)
	}
	for k, vs := range f.config.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if f.config.UserAgent != "" {
		req.Header.Set("User-Agent", f.config.UserAgent)
	}
	if f.tokens != nil {
		tok, err := f.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch: token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{Code: resp.StatusCode}
	}

	if f.config.MaxBytes <= 0 {
		return io.ReadAll(resp.Body)
	}
	if resp.ContentLength > f.config.MaxBytes {
		return nil, ErrTooLarge
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > f.config.MaxBytes {
		return nil, ErrTooLarge
	}
	return body, nil
}

var _ Fetcher = (*HTTPFetcher)(nil)
