package loader

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/remoteimage/cache"
	"github.com/jonwraymond/remoteimage/raster"
)

const waitFor = 2 * time.Second

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testImage(t *testing.T, w, h int, c color.Color) *raster.Image {
	t.Helper()
	img, err := raster.NewDecoder(1).Decode(pngBytes(t, w, h, c))
	require.NoError(t, err)
	return img
}

// fakeFetcher counts calls and answers each with respond.
type fakeFetcher struct {
	calls   atomic.Int32
	respond func(ctx context.Context, call int) ([]byte, error)
}

func (f *fakeFetcher) Fetch(ctx context.Context, _ *url.URL) ([]byte, error) {
	n := int(f.calls.Add(1))
	return f.respond(ctx, n)
}

func (f *fakeFetcher) Calls() int { return int(f.calls.Load()) }

func serve(body []byte) *fakeFetcher {
	return &fakeFetcher{respond: func(context.Context, int) ([]byte, error) { return body, nil }}
}

func fail(err error) *fakeFetcher {
	return &fakeFetcher{respond: func(context.Context, int) ([]byte, error) { return nil, err }}
}

// gatedFetcher blocks every fetch until release is closed or ctx ends.
type gatedFetcher struct {
	fakeFetcher
	started chan struct{}
	release chan struct{}
	ctxErr  chan error
}

func gated(body []byte) *gatedFetcher {
	g := &gatedFetcher{
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
		ctxErr:  make(chan error, 16),
	}
	g.respond = func(ctx context.Context, _ int) ([]byte, error) {
		g.started <- struct{}{}
		select {
		case <-g.release:
			return body, nil
		case <-ctx.Done():
			g.ctxErr <- ctx.Err()
			return nil, ctx.Err()
		}
	}
	return g
}

// recorder collects notifications from Subscribe.
type recorder struct {
	ch chan LoadState
}

func record(t *testing.T, c *Controller) *recorder {
	t.Helper()
	r := &recorder{ch: make(chan LoadState, 64)}
	cancel := c.Subscribe(func(s LoadState) { r.ch <- s })
	t.Cleanup(cancel)
	return r
}

func (r *recorder) next(t *testing.T) LoadState {
	t.Helper()
	select {
	case s := <-r.ch:
		return s
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for a state notification")
		return LoadState{}
	}
}

func (r *recorder) kinds(t *testing.T, n int) []StateKind {
	t.Helper()
	out := make([]StateKind, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, r.next(t).Kind())
	}
	return out
}

func (r *recorder) requireQuiet(t *testing.T) {
	t.Helper()
	select {
	case s := <-r.ch:
		t.Fatalf("unexpected notification %v", s)
	case <-time.After(50 * time.Millisecond):
	}
}

func waitKind(t *testing.T, c *Controller, want StateKind) LoadState {
	t.Helper()
	require.Eventually(t, func() bool { return c.State().Kind() == want }, waitFor, time.Millisecond,
		"state never became %v (last %v)", want, c.State())
	return c.State()
}

func keyOf(t *testing.T, raw string) string {
	t.Helper()
	return cache.NewURLKeyer().Key(mustURL(t, raw))
}

// syncBuffer is a bytes.Buffer safe for concurrent use.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
