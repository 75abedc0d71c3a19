package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/url"
	"strings"
)

// Keyer derives cache keys from resource locators.
//
// Contract:
// - Determinism: equivalent locators must produce the same key.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key returns the cache key for u. u must not be nil.
	Key(u *url.URL) string
}

// URLKeyer canonicalizes URLs into cache keys.
type URLKeyer struct{}

// NewURLKeyer creates a new URL keyer.
func NewURLKeyer() *URLKeyer {
	return &URLKeyer{}
}

// Key returns the canonical form of u: lower-case scheme and host, default
// port removed, fragment dropped. Keys longer than MaxKeyLength are folded
// into url:<hash> where hash is the first 32 hex characters of SHA-256 of
// the canonical form.
func (k *URLKeyer) Key(u *url.URL) string {
	return FoldKey(canonicalURL(u))
}

// FoldKey returns key unchanged when it passes ValidateKey, and
// url:<hash> of it otherwise.
func FoldKey(key string) string {
	if ValidateKey(key) == nil {
		return key
	}
	hash := sha256.Sum256([]byte(key))
	return "url:" + hex.EncodeToString(hash[:16])
}

func canonicalURL(u *url.URL) string {
	c := *u
	c.Fragment = ""
	c.RawFragment = ""
	c.Scheme = strings.ToLower(c.Scheme)
	c.Host = canonicalHost(c.Scheme, c.Host)
	return c.String()
}

func canonicalHost(scheme, host string) string {
	host = strings.ToLower(host)
	h, port, err := net.SplitHostPort(host)
	if err != nil {
		return host
	}
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		if strings.Contains(h, ":") {
			return "[" + h + "]"
		}
		return h
	}
	return host
}

// KeyerFunc adapts a function to the Keyer interface.
type KeyerFunc func(u *url.URL) string

// Key calls f(u).
func (f KeyerFunc) Key(u *url.URL) string {
	return f(u)
}

var _ Keyer = (*URLKeyer)(nil)
