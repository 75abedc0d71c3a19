// Command imgload loads remote images through a shared cache and prints
// every state transition.
//
// Usage:
//
//	imgload [flags] URL...
//
// Each URL gets its own loader. With -repeat > 1 the URLs are loaded again
// by fresh loaders, which shows cache hits. With -health-addr the process
// serves /healthz, /readyz, /health and, for the prometheus metrics
// exporter, /metrics until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/remoteimage/cache"
	"github.com/jonwraymond/remoteimage/config"
	"github.com/jonwraymond/remoteimage/fetch"
	"github.com/jonwraymond/remoteimage/health"
	"github.com/jonwraymond/remoteimage/loader"
	"github.com/jonwraymond/remoteimage/observe"
)

var errLoadsFailed = errors.New("some loads failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, nil); err != nil {
		fmt.Fprintln(os.Stderr, "imgload:", err)
		os.Exit(1)
	}
}

type options struct {
	cfg        config.Config
	healthAddr string
	repeat     int
	urls       []string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	opts := options{cfg: config.Default()}
	cfg := &opts.cfg

	fs := flag.NewFlagSet("imgload", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: imgload [flags] URL...")
		fs.PrintDefaults()
	}

	fs.IntVar(&cfg.Cache.CountLimit, "count-limit", cfg.Cache.CountLimit, "maximum cached images, 0 for unbounded")
	fs.Int64Var(&cfg.Cache.TotalCostLimit, "cost-limit", cfg.Cache.TotalCostLimit, "maximum total cache cost, 0 for unbounded")
	fs.DurationVar(&cfg.Fetch.Timeout, "timeout", cfg.Fetch.Timeout, "per-request timeout")
	fs.Int64Var(&cfg.Fetch.MaxConcurrent, "concurrency", cfg.Fetch.MaxConcurrent, "maximum concurrent requests, 0 for unbounded")
	fs.Int64Var(&cfg.Fetch.MaxBytes, "max-bytes", cfg.Fetch.MaxBytes, "maximum response size, 0 for unbounded")
	fs.IntVar(&cfg.Fetch.BreakerFailures, "breaker-failures", 0, "consecutive failures that open a host circuit, 0 disables")
	fs.DurationVar(&cfg.Fetch.BreakerReset, "breaker-reset", 30*time.Second, "how long an open host circuit waits before a probe")
	fs.Float64Var(&cfg.Scale, "scale", cfg.Scale, "device scale factor")
	fs.Int64Var(&cfg.MaxPixels, "max-pixels", cfg.MaxPixels, "maximum declared image pixels, 0 for unbounded")
	fs.StringVar(&cfg.Observe.Logging.Level, "log-level", cfg.Observe.Logging.Level, "debug|info|warn|error")
	fs.StringVar(&cfg.Auth.SigningKey, "signing-key", "", "HMAC key for bearer tokens; accepts ${VAR} and secretref:")
	fs.StringVar(&cfg.Auth.Issuer, "issuer", "imgload", "token issuer")
	fs.StringVar(&cfg.Auth.Audience, "audience", "", "token audience")
	metrics := fs.String("metrics", "", "metrics exporter: otlp|prometheus|stdout, empty to disable")
	tracing := fs.String("tracing", "", "tracing exporter: otlp|jaeger|stdout, empty to disable")
	fs.StringVar(&opts.healthAddr, "health-addr", "", "serve health and metrics endpoints on this address")
	fs.IntVar(&opts.repeat, "repeat", 1, "number of load rounds")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	opts.urls = fs.Args()
	if len(opts.urls) == 0 {
		fs.Usage()
		return options{}, errors.New("at least one URL is required")
	}
	if opts.repeat < 1 {
		return options{}, fmt.Errorf("-repeat must be >= 1, got %d", opts.repeat)
	}

	if *metrics != "" {
		cfg.Observe.Metrics = observe.MetricsConfig{Enabled: true, Exporter: *metrics}
	}
	if *tracing != "" {
		cfg.Observe.Tracing = observe.TracingConfig{Enabled: true, Exporter: *tracing, SamplePct: 1}
	}

	resolved, err := cfg.Resolve()
	if err != nil {
		return options{}, err
	}
	opts.cfg = resolved
	if err := opts.cfg.Validate(); err != nil {
		return options{}, err
	}
	return opts, nil
}

// run executes imgload. When ready is non-nil the bound health address is
// sent on it once the listener is up.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, ready chan<- net.Addr) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	cfg := opts.cfg

	obs, err := observe.NewObserver(ctx, cfg.Observe)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(shutdownCtx)
	}()

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return err
	}

	images := cfg.NewCache()
	var store cache.Cache = images
	if cfg.Observe.Metrics.Enabled {
		metered, err := cache.NewMetered(images, obs.Meter())
		if err != nil {
			return err
		}
		defer metered.Close()
		store = metered
	}

	httpFetcher, err := cfg.NewFetcher()
	if err != nil {
		return err
	}
	var fetcher fetch.Fetcher = httpFetcher

	agg := health.NewAggregator()
	agg.Register("cache", health.NewCacheChecker(images, health.CacheCheckerConfig{}))
	if breaker := cfg.NewBreaker(httpFetcher); breaker != nil {
		fetcher = breaker
		agg.Register("origins", health.NewBreakerChecker(breaker))
	}

	if opts.healthAddr != "" {
		stopServer, err := serve(opts.healthAddr, agg, cfg.Observe.Metrics.Exporter == "prometheus", obs.Logger(), ready)
		if err != nil {
			return err
		}
		defer stopServer()
	}

	queue := loader.NewSerialQueue()
	defer queue.Close()

	loaderOpts := []loader.Option{
		loader.WithFetcher(fetcher),
		loader.WithDecoder(cfg.NewDecoder()),
		loader.WithDispatcher(queue),
		loader.WithLogger(obs.Logger()),
		loader.WithMiddleware(mw),
		loader.WithContext(ctx),
	}

	failed := 0
	for round := 1; round <= opts.repeat; round++ {
		n, err := loadRound(ctx, round, opts.urls, store, stdout, loaderOpts)
		failed += n
		if err != nil {
			return err
		}
	}

	s := images.Stats()
	fmt.Fprintf(stdout, "cache: entries=%d cost=%d hits=%d misses=%d evictions=%d\n",
		s.Entries, s.TotalCost, s.Hits, s.Misses, s.Evictions)

	if opts.healthAddr != "" {
		obs.Logger().Info(ctx, "serving health endpoints", observe.Field{Key: "addr", Value: opts.healthAddr})
		<-ctx.Done()
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errLoadsFailed, failed, len(opts.urls)*opts.repeat)
	}
	return nil
}

// loadRound loads every URL with a fresh controller and waits for each to
// settle. It returns the number of loads that did not end Loaded.
func loadRound(ctx context.Context, round int, urls []string, store cache.Cache, stdout io.Writer, opts []loader.Option) (int, error) {
	var (
		mu     sync.Mutex
		failed int
		wg     sync.WaitGroup
	)
	controllers := make([]*loader.Controller, 0, len(urls))
	defer func() {
		for _, ctl := range controllers {
			ctl.Close()
		}
	}()

	for _, raw := range urls {
		ctl, err := loader.Parse(raw, store, opts...)
		if err != nil {
			fmt.Fprintf(stdout, "[%d] %s invalid: %v\n", round, raw, err)
			mu.Lock()
			failed++
			mu.Unlock()
			continue
		}
		controllers = append(controllers, ctl)

		wg.Add(1)
		var once sync.Once
		ctl.Subscribe(func(s loader.LoadState) {
			fmt.Fprintf(stdout, "[%d] %s %s\n", round, raw, describe(s))
			if !s.IsTerminal() {
				return
			}
			once.Do(func() {
				if s.Kind() != loader.StateLoaded {
					mu.Lock()
					failed++
					mu.Unlock()
				}
				wg.Done()
			})
		})
		ctl.Load()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return failed, nil
	case <-ctx.Done():
		return failed, ctx.Err()
	}
}

func describe(s loader.LoadState) string {
	if img := s.Image(); img != nil {
		return fmt.Sprintf("%s %dx%d cost=%d", s, img.Width(), img.Height(), img.Cost())
	}
	return s.String()
}

func serve(addr string, agg *health.Aggregator, prometheus bool, logger observe.Logger, ready chan<- net.Addr) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	health.RegisterHandlers(mux, agg)
	if prometheus {
		mux.Handle("/metrics", promhttp.Handler())
	}

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "health server failed", observe.Field{Key: "error", Value: err})
		}
	}()
	if ready != nil {
		ready <- ln.Addr()
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
