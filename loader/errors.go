package loader

import (
	"errors"

	perrors "github.com/jmgilman/go/errors"
)

// ErrorKind classifies the cause held by a Failed state.
type ErrorKind int

const (
	ErrorKindUnknown ErrorKind = iota
	// ErrorKindNetwork is a transport failure. Retryable.
	ErrorKindNetwork
	// ErrorKindDecoding means the fetched bytes were not an image. Retryable,
	// since bad payloads are never cached.
	ErrorKindDecoding
	// ErrorKindURL is reserved. No load path produces it.
	ErrorKindURL
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindNetwork:
		return "network"
	case ErrorKindDecoding:
		return "decoding"
	case ErrorKindURL:
		return "url"
	default:
		return "unknown"
	}
}

var errNoCause = errors.New("no cause")

// NetworkError wraps a transport failure. A nil cause yields nil.
func NetworkError(cause error) error {
	if cause == nil {
		return nil
	}
	return perrors.WithClassification(
		perrors.Wrap(cause, perrors.CodeNetwork, "image fetch failed"),
		perrors.ClassificationRetryable,
	)
}

// DecodingError wraps a payload that did not decode into an image.
// A nil cause yields nil.
func DecodingError(cause error) error {
	if cause == nil {
		return nil
	}
	return perrors.WithClassification(
		perrors.Wrap(cause, perrors.CodeInvalidInput, "image decode failed"),
		perrors.ClassificationRetryable,
	)
}

// URLError wraps an unusable locator. It is part of the taxonomy for
// callers that validate URLs themselves; Controller never returns it.
func URLError(cause error) error {
	if cause == nil {
		cause = errNoCause
	}
	return perrors.Wrap(cause, perrors.CodeInvalidConfig, "invalid image url")
}

// KindOf reports the ErrorKind of err.
func KindOf(err error) ErrorKind {
	switch perrors.GetCode(err) {
	case perrors.CodeNetwork:
		return ErrorKindNetwork
	case perrors.CodeInvalidInput:
		return ErrorKindDecoding
	case perrors.CodeInvalidConfig:
		return ErrorKindURL
	default:
		return ErrorKindUnknown
	}
}

// IsRetryable reports whether calling Load again may succeed after err.
func IsRetryable(err error) bool {
	return perrors.IsRetryable(err)
}
