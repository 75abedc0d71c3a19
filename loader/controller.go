package loader

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/jonwraymond/remoteimage/cache"
	"github.com/jonwraymond/remoteimage/fetch"
	"github.com/jonwraymond/remoteimage/observe"
	"github.com/jonwraymond/remoteimage/raster"
)

// defaultFetcher is shared so its concurrency bound applies process-wide.
var defaultFetcher = sync.OnceValue(func() fetch.Fetcher {
	return fetch.NewHTTPFetcher(fetch.DefaultConfig())
})

// Controller drives the load lifecycle of one image.
//
// State changes happen under the controller's lock, so State always
// returns a consistent snapshot. Subscribers are notified on the
// dispatcher, one transition at a time, in transition order.
type Controller struct {
	url   *url.URL
	key   string
	id    string
	cache cache.Cache
	view  View

	fetcher    fetch.Fetcher
	decoder    raster.Decoder
	middleware *observe.Middleware
	logger     observe.Logger

	dispatcher Dispatcher
	owned      *SerialQueue

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    LoadState
	gen      uint64
	inflight context.CancelFunc
	subs     map[uint64]func(LoadState)
	nextSub  uint64
	closed   bool
}

// New creates a Controller for u backed by c. A nil u yields a controller
// whose Load always ends in NoURL. A nil c selects cache.Shared().
func New(u *url.URL, c cache.Cache, opts ...Option) *Controller {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if c == nil {
		c = cache.Shared()
	}
	if o.fetcher == nil {
		o.fetcher = defaultFetcher()
	}
	if o.decoder == nil {
		o.decoder = raster.NewDecoder(1)
	}
	if o.keyer == nil {
		o.keyer = cache.NewURLKeyer()
	}
	if o.logger == nil {
		o.logger = observe.NopLogger()
	}
	if o.ctx == nil {
		o.ctx = context.Background()
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}

	ctl := &Controller{
		id:         o.id,
		cache:      c,
		view:       o.view,
		fetcher:    o.fetcher,
		decoder:    o.decoder,
		middleware: o.middleware,
		dispatcher: o.dispatcher,
		subs:       make(map[uint64]func(LoadState)),
	}
	if u != nil {
		cp := *u
		ctl.url = &cp
		ctl.key = cache.FoldKey(o.keyer.Key(ctl.url))
	}
	if ctl.dispatcher == nil {
		ctl.owned = NewSerialQueue()
		ctl.dispatcher = ctl.owned
	}
	ctl.ctx, ctl.cancel = context.WithCancel(o.ctx)
	ctl.logger = o.logger.WithImage(ctl.meta())
	return ctl
}

// Parse creates a Controller from a raw URL. An empty string is an absent
// locator.
func Parse(raw string, c cache.Cache, opts ...Option) (*Controller, error) {
	if raw == "" {
		return New(nil, c, opts...), nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("loader: parse url: %w", err)
	}
	return New(u, c, opts...), nil
}

// URL returns a copy of the bound URL, or nil when absent.
func (c *Controller) URL() *url.URL {
	if c.url == nil {
		return nil
	}
	cp := *c.url
	return &cp
}

// Key returns the cache key of the bound URL, or "" when absent.
func (c *Controller) Key() string { return c.key }

// ID returns the identifier used in logs and spans.
func (c *Controller) ID() string { return c.id }

// View returns the presentation values supplied at construction.
func (c *Controller) View() View { return c.view }

// State returns the current state.
func (c *Controller) State() LoadState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn for state notifications. fn first receives the
// state current at subscription, then every later transition. Calling the
// returned function stops delivery.
func (c *Controller) Subscribe(fn func(LoadState)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || fn == nil {
		return func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.notifyLocked(c.state, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subs, id)
		})
	}
}

// Load starts or re-checks the load of the bound URL.
//
// Without a URL the state becomes NoURL. A cache hit makes the state
// Loaded before Load returns. A miss makes it Loading and fetches in the
// background. Load is ignored while a fetch is in flight and after Close.
func (c *Controller) Load() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if c.url == nil {
		if c.state.Kind() != StateNoURL {
			c.setLocked(NoURLState())
		}
		return
	}
	if c.state.Kind() == StateLoading {
		c.logger.Debug(c.ctx, "load already in flight")
		return
	}

	if img, ok := c.cache.Get(c.ctx, c.key); ok {
		c.logger.Debug(c.ctx, "image cache hit")
		c.recheckLocked(img)
		return
	}

	c.logger.Debug(c.ctx, "image cache miss")
	c.gen++
	gen := c.gen
	ctx, cancel := context.WithCancel(c.ctx)
	c.inflight = cancel
	c.setLocked(LoadingState())

	go c.fetch(ctx, gen)
}

var imagesEqual = raster.Equal

// recheckLocked publishes Loaded(img) unless the current state already
// equals it. Comparing two distinct Loaded images encodes both, so c.mu is
// released for the comparison and the publish is skipped if the state
// moved meanwhile.
func (c *Controller) recheckLocked(img *raster.Image) {
	prev := c.state
	if prev.Kind() != StateLoaded {
		c.setLocked(LoadedState(img))
		return
	}
	if prev.Image() == img {
		return
	}

	c.mu.Unlock()
	same := imagesEqual(prev.Image(), img)
	c.mu.Lock()

	if same || c.closed || c.state.Kind() != StateLoaded || c.state.Image() != prev.Image() {
		return
	}
	c.setLocked(LoadedState(img))
}

// Close detaches the controller. An in-flight fetch is cancelled and its
// result discarded, subscribers are dropped, and an owned dispatcher is
// stopped. The state is left as it was.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.gen++
	if c.inflight != nil {
		c.inflight()
		c.inflight = nil
	}
	clear(c.subs)
	c.mu.Unlock()

	c.cancel()
	if c.owned != nil {
		c.owned.Close()
	}
}

func (c *Controller) meta() observe.ImageMeta {
	return observe.ImageMeta{URL: c.url, Controller: c.id}
}

func (c *Controller) fetch(ctx context.Context, gen uint64) {
	var img *raster.Image
	load := func(ctx context.Context, _ observe.ImageMeta) error {
		data, err := c.fetcher.Fetch(ctx, c.url)
		if err != nil {
			return NetworkError(err)
		}
		decoded, err := c.decoder.Decode(data)
		if err == nil && decoded == nil {
			err = raster.ErrEmptyImage
		}
		if err != nil {
			return DecodingError(err)
		}
		img = decoded
		return nil
	}
	if c.middleware != nil {
		load = c.middleware.Wrap(load)
	}

	err := load(ctx, c.meta())
	c.dispatcher.Dispatch(func() { c.complete(gen, img, err) })
}

// complete applies a fetch result on the dispatcher. Results from a
// superseded generation or a closed controller are dropped.
func (c *Controller) complete(gen uint64, img *raster.Image, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.gen {
		return
	}
	if c.inflight != nil {
		c.inflight()
		c.inflight = nil
	}

	if err != nil {
		c.logger.Warn(c.ctx, "image load failed",
			observe.Field{Key: "error", Value: err.Error()},
			observe.Field{Key: "error.kind", Value: KindOf(err).String()},
		)
		c.setLocked(FailedState(err))
		return
	}

	c.cache.Set(c.ctx, c.key, img)
	c.logger.Info(c.ctx, "image loaded",
		observe.Field{Key: "width", Value: img.Width()},
		observe.Field{Key: "height", Value: img.Height()},
		observe.Field{Key: "cost", Value: img.Cost()},
	)
	c.setLocked(LoadedState(img))
}

func (c *Controller) setLocked(s LoadState) {
	c.state = s
	c.notifyLocked(s)
}

// notifyLocked dispatches s to the given subscribers, or to all current
// subscribers when none are named. A subscriber removed before delivery
// is skipped.
func (c *Controller) notifyLocked(s LoadState, ids ...uint64) {
	if len(ids) == 0 {
		for id := range c.subs {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return
	}
	slices.Sort(ids)
	c.dispatcher.Dispatch(func() {
		for _, id := range ids {
			c.mu.Lock()
			fn, ok := c.subs[id]
			c.mu.Unlock()
			if ok {
				fn(s)
			}
		}
	})
}
