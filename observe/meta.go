package observe

import "net/url"

// ImageMeta describes one image load for telemetry purposes.
type ImageMeta struct {
	URL        *url.URL // Remote location (required)
	Controller string   // Identifier of the owning controller (optional)
}

// SpanName returns the span name used for image loads.
func (m ImageMeta) SpanName() string {
	return "image.load"
}

// Host returns the host of the image URL, or "" when URL is nil.
func (m ImageMeta) Host() string {
	if m.URL == nil {
		return ""
	}
	return m.URL.Host
}

// Location returns the URL with userinfo and query removed, suitable for
// logs and span attributes. Signed URLs carry credentials in the query.
func (m ImageMeta) Location() string {
	if m.URL == nil {
		return ""
	}
	u := *m.URL
	u.User = nil
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// Validate reports ErrMissingImageURL when URL is nil.
func (m ImageMeta) Validate() error {
	if m.URL == nil {
		return ErrMissingImageURL
	}
	return nil
}
