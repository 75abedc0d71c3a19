// Package config assembles the cache, fetcher, decoder and observability
// settings of an image loading process.
//
// A Config starts from Default, is adjusted by the caller, then passes
// through Resolve (secret and environment expansion) and Validate before
// the builders are used:
//
//	cfg := config.Default()
//	cfg.Auth.SigningKey = "${IMAGE_SIGNING_KEY}"
//	cfg, err := cfg.Resolve()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
//	images := cfg.NewCache()
//	fetcher, err := cfg.NewFetcher()
package config
