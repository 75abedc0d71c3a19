// Package health reports whether an image loading process can serve.
//
// A Checker reports one component as healthy, degraded, or unhealthy.
// CacheChecker watches image cache occupancy against its count and cost
// limits, and FetchChecker probes an origin through a fetch.Fetcher.
// An Aggregator runs a set of checkers and folds them into the worst
// status, and the HTTP handlers expose that result:
//
//	agg := health.NewAggregator()
//	agg.Register("cache", health.NewCacheChecker(cache.Shared(), health.CacheCheckerConfig{}))
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
//
// Degraded answers 200 on every endpoint; only unhealthy answers 503.
package health
