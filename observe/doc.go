// Package observe provides observability primitives for remote image loads.
//
// An Observer owns the OpenTelemetry tracer and meter providers and a JSON
// Logger. Middleware wraps a LoadFunc so every fetch-and-decode attempt
// produces an "image.load" span, load counters and a duration histogram.
// Credentials in URLs (userinfo and query) are stripped from logs and span
// attributes, and well-known secret field names are redacted.
package observe
