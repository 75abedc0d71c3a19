// Package cache provides the shared image cache used by loaders.
//
// It defines the Cache contract (get, set-or-remove, configure limits), a
// MemoryCache bounded by entry count and total cost, URL key
// canonicalization, and a Metered decorator that reports OpenTelemetry
// metrics. Cost is supplied by the image itself (see raster.Image.Cost).
//
// A zero limit means unbounded in that dimension. Callers must not depend
// on which entry is evicted, only that limits are eventually respected.
package cache
