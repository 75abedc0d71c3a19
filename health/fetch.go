package health

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jonwraymond/remoteimage/fetch"
)

// FetchChecker probes an image origin by fetching a known URL.
type FetchChecker struct {
	name    string
	fetcher fetch.Fetcher
	probe   *url.URL
	slow    time.Duration
}

// NewFetchChecker returns a checker that fetches probe with f. A probe
// that succeeds but takes longer than slow reports degraded; zero disables
// that threshold.
func NewFetchChecker(name string, f fetch.Fetcher, probe *url.URL, slow time.Duration) *FetchChecker {
	return &FetchChecker{name: name, fetcher: f, probe: probe, slow: slow}
}

// Name returns the checker name.
func (c *FetchChecker) Name() string {
	return c.name
}

// Check fetches the probe URL.
func (c *FetchChecker) Check(ctx context.Context) Result {
	if c.probe == nil {
		return Unhealthy("no probe url", fetch.ErrNilURL)
	}
	start := time.Now()
	data, err := c.fetcher.Fetch(ctx, c.probe)
	elapsed := time.Since(start)

	details := map[string]any{
		"host":    c.probe.Host,
		"latency": elapsed.String(),
	}
	if err != nil {
		return Unhealthy("probe fetch failed", err).WithDetails(details)
	}
	details["bytes"] = len(data)
	if c.slow > 0 && elapsed > c.slow {
		return Degraded("probe fetch slow").WithDetails(details)
	}
	return Healthy("probe fetch ok").WithDetails(details)
}

// BreakerChecker reports origins whose circuit is open as degraded. Other
// origins keep loading, so an open circuit never makes the process
// unhealthy.
type BreakerChecker struct {
	breaker *fetch.Breaker
}

// NewBreakerChecker returns a checker over b.
func NewBreakerChecker(b *fetch.Breaker) *BreakerChecker {
	return &BreakerChecker{breaker: b}
}

// Name returns "origins".
func (c *BreakerChecker) Name() string {
	return "origins"
}

// Check lists the hosts whose circuit is not closed.
func (c *BreakerChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}
	open := c.breaker.OpenHosts()
	if len(open) == 0 {
		return Healthy("all origin circuits closed")
	}
	return Degraded(fmt.Sprintf("origin circuits open: %s", strings.Join(open, ", "))).
		WithDetails(map[string]any{"open_hosts": open})
}
