package config

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jonwraymond/remoteimage/cache"
	"github.com/jonwraymond/remoteimage/fetch"
	"github.com/jonwraymond/remoteimage/observe"
	"github.com/jonwraymond/remoteimage/raster"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// ServiceName is the default observability service name.
const ServiceName = "remoteimage"

// Config is the complete configuration of an image loading process.
type Config struct {
	Cache   CacheConfig
	Fetch   FetchConfig
	Auth    AuthConfig
	Observe observe.Config

	// Scale is the device scale factor applied to decoded images.
	Scale float64

	// MaxPixels bounds the width*height a payload may declare. Zero is
	// unbounded.
	MaxPixels int64
}

// CacheConfig configures the shared image cache.
type CacheConfig struct {
	// CountLimit bounds the number of entries. Zero is unbounded.
	CountLimit int

	// TotalCostLimit bounds the summed entry cost. Zero is unbounded.
	TotalCostLimit int64
}

// FetchConfig configures the HTTP fetcher.
type FetchConfig struct {
	Timeout       time.Duration
	MaxBytes      int64
	MaxConcurrent int64
	UserAgent     string
	Header        map[string]string

	// BreakerFailures is the number of consecutive origin failures that
	// opens a host's circuit. Zero disables the breaker.
	BreakerFailures int

	// BreakerReset is how long an open circuit waits before a probe.
	BreakerReset time.Duration
}

// AuthConfig configures bearer tokens on image requests. Requests are
// unauthenticated unless SigningKey is set.
type AuthConfig struct {
	Issuer   string
	Audience string
	Subject  string

	// SigningKey is the HMAC secret. It may reference the environment
	// with ${VAR} or a secret with secretref:env:VAR or secretref:file:PATH.
	SigningKey string

	// TTL is the token lifetime. Zero selects the fetcher default.
	TTL time.Duration
}

// Enabled reports whether requests carry a bearer token.
func (a AuthConfig) Enabled() bool {
	return a.SigningKey != ""
}

// Default returns the default configuration.
func Default() Config {
	limits := cache.DefaultLimits()
	fc := fetch.DefaultConfig()
	return Config{
		Cache: CacheConfig{
			CountLimit:     limits.CountLimit,
			TotalCostLimit: limits.TotalCostLimit,
		},
		Fetch: FetchConfig{
			Timeout:       fc.Timeout,
			MaxBytes:      fc.MaxBytes,
			MaxConcurrent: fc.MaxConcurrent,
			UserAgent:     fc.UserAgent,
		},
		Observe:   observe.DefaultConfig(ServiceName),
		Scale:     1,
		MaxPixels: raster.DefaultMaxPixels,
	}
}

// Validate checks the configuration. Errors wrap ErrInvalidConfig and name
// the offending field.
func (c *Config) Validate() error {
	switch {
	case c.Cache.CountLimit < 0:
		return invalid("cache.count_limit", "must be >= 0")
	case c.Cache.TotalCostLimit < 0:
		return invalid("cache.total_cost_limit", "must be >= 0")
	case c.Fetch.Timeout < 0:
		return invalid("fetch.timeout", "must be >= 0")
	case c.Fetch.MaxBytes < 0:
		return invalid("fetch.max_bytes", "must be >= 0")
	case c.Fetch.MaxConcurrent < 0:
		return invalid("fetch.max_concurrent", "must be >= 0")
	case c.Fetch.BreakerFailures < 0:
		return invalid("fetch.breaker_failures", "must be >= 0")
	case c.Fetch.BreakerReset < 0:
		return invalid("fetch.breaker_reset", "must be >= 0")
	case c.Auth.TTL < 0:
		return invalid("auth.ttl", "must be >= 0")
	case c.Scale <= 0:
		return invalid("scale", "must be > 0")
	case c.MaxPixels < 0:
		return invalid("max_pixels", "must be >= 0")
	}
	if err := c.Observe.Validate(); err != nil {
		return fmt.Errorf("%w: observe: %w", ErrInvalidConfig, err)
	}
	return nil
}

func invalid(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidConfig, field, reason)
}

// Resolve returns a copy of c with secret references and environment
// variables in Auth.SigningKey and Fetch.Header expanded.
func (c Config) Resolve() (Config, error) {
	key, err := ResolveSecret(c.Auth.SigningKey)
	if err != nil {
		return Config{}, fmt.Errorf("auth.signing_key: %w", err)
	}
	c.Auth.SigningKey = key

	if c.Fetch.Header != nil {
		header := make(map[string]string, len(c.Fetch.Header))
		for k, v := range c.Fetch.Header {
			resolved, err := ResolveSecret(v)
			if err != nil {
				return Config{}, fmt.Errorf("fetch.header %q: %w", k, err)
			}
			header[k] = resolved
		}
		c.Fetch.Header = header
	}
	return c, nil
}

// Limits returns the cache limits.
func (c *Config) Limits() cache.Limits {
	return cache.Limits{
		CountLimit:     c.Cache.CountLimit,
		TotalCostLimit: c.Cache.TotalCostLimit,
	}
}

// NewCache creates a memory cache with the configured limits.
func (c *Config) NewCache(opts ...cache.MemoryOption) *cache.MemoryCache {
	return cache.NewMemoryCache(c.Limits(), opts...)
}

// NewFetcher creates an HTTP fetcher. When Auth is enabled every request
// carries a JWT minted from the resolved signing key, so call Resolve first.
func (c *Config) NewFetcher(opts ...fetch.Option) (*fetch.HTTPFetcher, error) {
	fc := fetch.Config{
		Timeout:       c.Fetch.Timeout,
		MaxBytes:      c.Fetch.MaxBytes,
		MaxConcurrent: c.Fetch.MaxConcurrent,
		UserAgent:     c.Fetch.UserAgent,
	}
	if len(c.Fetch.Header) > 0 {
		fc.Header = make(http.Header, len(c.Fetch.Header))
		for k, v := range c.Fetch.Header {
			fc.Header.Set(k, v)
		}
	}

	if c.Auth.Enabled() {
		ts, err := fetch.NewJWTTokenSource(fetch.JWTConfig{
			Issuer:     c.Auth.Issuer,
			Audience:   c.Auth.Audience,
			Subject:    c.Auth.Subject,
			SigningKey: []byte(c.Auth.SigningKey),
			TTL:        c.Auth.TTL,
		})
		if err != nil {
			return nil, err
		}
		opts = append([]fetch.Option{fetch.WithTokenSource(ts)}, opts...)
	}
	return fetch.NewHTTPFetcher(fc, opts...), nil
}

// NewBreaker wraps next with a per-host circuit breaker. It returns nil
// when BreakerFailures is zero.
func (c *Config) NewBreaker(next fetch.Fetcher) *fetch.Breaker {
	if c.Fetch.BreakerFailures <= 0 {
		return nil
	}
	return fetch.NewBreaker(next, fetch.BreakerConfig{
		MaxFailures:  c.Fetch.BreakerFailures,
		ResetTimeout: c.Fetch.BreakerReset,
	})
}

// NewDecoder creates a decoder producing images at the configured scale and
// bounded by MaxPixels.
func (c *Config) NewDecoder() *raster.FormatDecoder {
	return raster.NewDecoder(c.Scale, raster.WithMaxPixels(c.MaxPixels))
}
