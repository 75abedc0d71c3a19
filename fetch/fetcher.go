package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// Fetcher retrieves the raw bytes of a remote image.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Fetch must return promptly with ctx.Err() once ctx is done.
// - Errors: any failure is a transport failure from the caller's view.
type Fetcher interface {
	Fetch(ctx context.Context, u *url.URL) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, u *url.URL) ([]byte, error)

// Fetch calls f(ctx, u).
func (f FetcherFunc) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	return f(ctx, u)
}

var (
	// ErrNilURL is returned when Fetch is called without a URL.
	ErrNilURL = errors.New("fetch: url is nil")

	// ErrTooLarge is returned when a response body exceeds Config.MaxBytes.
	ErrTooLarge = errors.New("fetch: response body too large")

	// ErrStatus matches any *StatusError via errors.Is.
	ErrStatus = errors.New("fetch: unexpected status")

	// ErrUnsupportedScheme is returned for URLs that are not http or https.
	ErrUnsupportedScheme = errors.New("fetch: unsupported url scheme")
)

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

// Is reports whether target is ErrStatus.
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}
