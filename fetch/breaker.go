package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"
)

// ErrCircuitOpen is returned without contacting the origin while its
// breaker is open.
var ErrCircuitOpen = errors.New("fetch: origin circuit open")

// BreakerState is the state of one origin's circuit.
type BreakerState int

const (
	// BreakerClosed passes requests through.
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects requests until ResetTimeout has elapsed.
	BreakerOpen
	// BreakerHalfOpen admits one probe request.
	BreakerHalfOpen
)

// String returns the state name.
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens an
	// origin's circuit. Default: 5
	MaxFailures int

	// ResetTimeout is how long a circuit stays open before a probe is
	// admitted. Default: 30s
	ResetTimeout time.Duration

	// IsFailure classifies fetch errors. Default: IsOriginFailure.
	IsFailure func(err error) bool

	// OnStateChange is called with the breaker lock held whenever an
	// origin's circuit changes state.
	OnStateChange func(host string, from, to BreakerState)
}

// IsOriginFailure reports whether err indicates an unhealthy origin.
// Cancellation, 4xx responses and oversized bodies are the caller's
// problem and do not count.
func IsOriginFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrTooLarge) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= http.StatusInternalServerError || se.Code == http.StatusTooManyRequests
	}
	return true
}

// Breaker wraps a Fetcher with one circuit per origin host, so a failing
// host fails fast without affecting others.
type Breaker struct {
	next   Fetcher
	config BreakerConfig
	now    func() time.Time

	mu    sync.Mutex
	hosts map[string]*circuit
}

type circuit struct {
	state       BreakerState
	failures    int
	lastFailure time.Time
	probing     bool
}

// NewBreaker wraps next.
func NewBreaker(next Fetcher, config BreakerConfig) *Breaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.IsFailure == nil {
		config.IsFailure = IsOriginFailure
	}
	return &Breaker{
		next:   next,
		config: config,
		now:    time.Now,
		hosts:  make(map[string]*circuit),
	}
}

// Fetch forwards to the wrapped Fetcher unless u's host circuit is open.
func (b *Breaker) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	if u == nil {
		return nil, ErrNilURL
	}
	host := u.Host
	if err := b.before(host); err != nil {
		return nil, err
	}
	data, err := b.next.Fetch(ctx, u)
	b.after(host, err)
	return data, err
}

// State returns the circuit state for host. Unknown hosts are closed.
func (b *Breaker) State(host string) BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.hosts[host]
	if !ok {
		return BreakerClosed
	}
	return b.currentLocked(host, c)
}

// OpenHosts returns the sorted hosts whose circuit is not closed.
func (b *Breaker) OpenHosts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var hosts []string
	for host, c := range b.hosts {
		if b.currentLocked(host, c) != BreakerClosed {
			hosts = append(hosts, host)
		}
	}
	slices.Sort(hosts)
	return hosts
}

// Reset closes every circuit.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for host, c := range b.hosts {
		b.setLocked(host, c, BreakerClosed)
	}
	clear(b.hosts)
}

func (b *Breaker) before(host string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.hosts[host]
	if !ok {
		return nil
	}
	switch b.currentLocked(host, c) {
	case BreakerOpen:
		return ErrCircuitOpen
	case BreakerHalfOpen:
		if c.probing {
			return ErrCircuitOpen
		}
		c.probing = true
	}
	return nil
}

func (b *Breaker) after(host string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	failed := b.config.IsFailure(err)
	c, ok := b.hosts[host]
	if !ok {
		if !failed {
			return
		}
		c = &circuit{}
		b.hosts[host] = c
	}

	switch c.state {
	case BreakerClosed:
		if !failed {
			if err == nil {
				c.failures = 0
			}
			return
		}
		c.failures++
		c.lastFailure = b.now()
		if c.failures >= b.config.MaxFailures {
			b.setLocked(host, c, BreakerOpen)
		}
	case BreakerHalfOpen:
		c.probing = false
		if err != nil && !failed {
			return
		}
		if failed {
			c.lastFailure = b.now()
			b.setLocked(host, c, BreakerOpen)
			return
		}
		c.failures = 0
		b.setLocked(host, c, BreakerClosed)
	}
}

func (b *Breaker) currentLocked(host string, c *circuit) BreakerState {
	if c.state == BreakerOpen && b.now().Sub(c.lastFailure) >= b.config.ResetTimeout {
		b.setLocked(host, c, BreakerHalfOpen)
	}
	return c.state
}

func (b *Breaker) setLocked(host string, c *circuit, to BreakerState) {
	from := c.state
	c.state = to
	if to != BreakerHalfOpen {
		c.probing = false
	}
	if from != to && b.config.OnStateChange != nil {
		b.config.OnStateChange(host, from, to)
	}
}
