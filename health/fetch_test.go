package health

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/jonwraymond/remoteimage/fetch"
)

func probeURL(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse("https://cdn.example.com/probe.png")
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestFetchChecker(t *testing.T) {
	refused := errors.New("connection refused")

	tests := []struct {
		name  string
		fn    fetch.FetcherFunc
		slow  time.Duration
		want  Status
		bytes any
	}{
		{
			name: "ok",
			fn: func(context.Context, *url.URL) ([]byte, error) {
				return []byte("png"), nil
			},
			want:  StatusHealthy,
			bytes: 3,
		},
		{
			name: "slow",
			fn: func(context.Context, *url.URL) ([]byte, error) {
				time.Sleep(5 * time.Millisecond)
				return []byte("png"), nil
			},
			slow:  time.Millisecond,
			want:  StatusDegraded,
			bytes: 3,
		},
		{
			name: "error",
			fn: func(context.Context, *url.URL) ([]byte, error) {
				return nil, refused
			},
			want: StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewFetchChecker("origin", tt.fn, probeURL(t), tt.slow)
			r := c.Check(context.Background())
			if r.Status != tt.want {
				t.Errorf("Status = %v, want %v", r.Status, tt.want)
			}
			if r.Details["host"] != "cdn.example.com" {
				t.Errorf("host = %v", r.Details["host"])
			}
			if r.Details["bytes"] != tt.bytes {
				t.Errorf("bytes = %v, want %v", r.Details["bytes"], tt.bytes)
			}
			if tt.want == StatusUnhealthy && !errors.Is(r.Error, refused) {
				t.Errorf("Error = %v", r.Error)
			}
		})
	}
}

func TestFetchChecker_NilProbe(t *testing.T) {
	c := NewFetchChecker("origin", fetch.FetcherFunc(func(context.Context, *url.URL) ([]byte, error) {
		t.Fatal("fetcher should not be called")
		return nil, nil
	}), nil, 0)

	r := c.Check(context.Background())
	if r.Status != StatusUnhealthy || !errors.Is(r.Error, fetch.ErrNilURL) {
		t.Errorf("got %v / %v", r.Status, r.Error)
	}
}

func TestBreakerChecker(t *testing.T) {
	b := fetch.NewBreaker(fetch.FetcherFunc(func(context.Context, *url.URL) ([]byte, error) {
		return nil, errors.New("refused")
	}), fetch.BreakerConfig{MaxFailures: 1, ResetTimeout: time.Hour})
	c := NewBreakerChecker(b)
	ctx := context.Background()

	if r := c.Check(ctx); r.Status != StatusHealthy {
		t.Fatalf("fresh breaker: %v", r.Status)
	}

	_, _ = b.Fetch(ctx, probeURL(t))
	r := c.Check(ctx)
	if r.Status != StatusDegraded {
		t.Fatalf("Status = %v, want degraded", r.Status)
	}
	hosts, _ := r.Details["open_hosts"].([]string)
	if len(hosts) != 1 || hosts[0] != "cdn.example.com" {
		t.Errorf("open_hosts = %v", r.Details["open_hosts"])
	}
	if c.Name() != "origins" {
		t.Errorf("Name() = %q", c.Name())
	}
}
