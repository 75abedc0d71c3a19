package loader

import (
	"context"

	"github.com/jonwraymond/remoteimage/cache"
	"github.com/jonwraymond/remoteimage/fetch"
	"github.com/jonwraymond/remoteimage/observe"
	"github.com/jonwraymond/remoteimage/raster"
)

// View carries presentation values chosen at construction. The controller
// never inspects them.
type View struct {
	Placeholder any
	ErrorView   any
}

// Option configures a Controller.
type Option func(*options)

type options struct {
	fetcher    fetch.Fetcher
	decoder    raster.Decoder
	dispatcher Dispatcher
	keyer      cache.Keyer
	logger     observe.Logger
	middleware *observe.Middleware
	ctx        context.Context
	view       View
	id         string
}

// WithFetcher sets the transport. Default: fetch.NewHTTPFetcher(fetch.DefaultConfig()).
func WithFetcher(f fetch.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithDecoder sets the image decoder. Default: raster.NewDecoder(1).
func WithDecoder(d raster.Decoder) Option {
	return func(o *options) { o.decoder = d }
}

// WithDispatcher sets the execution context for state notifications. The
// dispatcher may be shared between controllers and is not closed by
// Controller.Close. Default: a SerialQueue owned by the controller.
func WithDispatcher(d Dispatcher) Option {
	return func(o *options) { o.dispatcher = d }
}

// WithKeyer sets the URL to cache key mapping. Keys that fail
// cache.ValidateKey are folded with cache.FoldKey. Default: cache.NewURLKeyer().
func WithKeyer(k cache.Keyer) Option {
	return func(o *options) { o.keyer = k }
}

// WithLogger sets the logger. Default: observe.NopLogger().
func WithLogger(l observe.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMiddleware instruments each fetch-and-decode attempt.
func WithMiddleware(m *observe.Middleware) Option {
	return func(o *options) { o.middleware = m }
}

// WithContext sets the parent of every fetch context. Cancelling it fails
// the in-flight load.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// WithView attaches presentation values returned by Controller.View.
func WithView(v View) Option {
	return func(o *options) { o.view = v }
}

// WithID sets the identifier used in logs and spans. Default: a random UUID.
func WithID(id string) Option {
	return func(o *options) { o.id = id }
}
