// Package fetch retrieves remote image bytes.
//
// HTTPFetcher issues a GET per URL, bounds concurrent requests with a
// weighted semaphore, caps the body size and reports non-2xx responses as
// *StatusError. Requests can carry a bearer token from a TokenSource such
// as JWTTokenSource. Breaker wraps any Fetcher with a circuit per origin
// host so a failing host is rejected without a request. No retries are
// performed.
package fetch
