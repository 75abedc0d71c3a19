package loader

import "github.com/jonwraymond/remoteimage/raster"

// StateKind identifies one of the five load states.
type StateKind int

const (
	// StateIdle means no load has been attempted.
	StateIdle StateKind = iota
	// StateLoading means a fetch is in flight.
	StateLoading
	// StateLoaded holds the decoded image.
	StateLoaded
	// StateFailed holds the failure cause. Load may be called again.
	StateFailed
	// StateNoURL means the controller has no locator. It never changes.
	StateNoURL
)

func (k StateKind) String() string {
	switch k {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	case StateNoURL:
		return "no-url"
	default:
		return "unknown"
	}
}

// LoadState is the observable state of a Controller. The zero value is
// the Idle state. Image is set only for Loaded and Err only for Failed.
type LoadState struct {
	kind  StateKind
	image *raster.Image
	err   error
}

// IdleState returns the Idle state.
func IdleState() LoadState { return LoadState{kind: StateIdle} }

// LoadingState returns the Loading state.
func LoadingState() LoadState { return LoadState{kind: StateLoading} }

// LoadedState returns a Loaded state holding img.
func LoadedState(img *raster.Image) LoadState {
	return LoadState{kind: StateLoaded, image: img}
}

// FailedState returns a Failed state holding err.
func FailedState(err error) LoadState {
	return LoadState{kind: StateFailed, err: err}
}

// NoURLState returns the NoURL state.
func NoURLState() LoadState { return LoadState{kind: StateNoURL} }

// Kind returns the state kind.
func (s LoadState) Kind() StateKind { return s.kind }

// Image returns the decoded image of a Loaded state, or nil.
func (s LoadState) Image() *raster.Image { return s.image }

// Err returns the cause of a Failed state, or nil.
func (s LoadState) Err() error { return s.err }

// IsTerminal reports whether the state has no automatic successor.
func (s LoadState) IsTerminal() bool {
	return s.kind == StateLoaded || s.kind == StateFailed || s.kind == StateNoURL
}

// CanRetry reports whether calling Load from this state may fetch again.
func (s LoadState) CanRetry() bool {
	return s.kind == StateFailed
}

// Equal compares states by kind. Loaded states compare their images by
// canonical encoding; Failed states are equal whatever their causes.
func (s LoadState) Equal(other LoadState) bool {
	if s.kind != other.kind {
		return false
	}
	if s.kind == StateLoaded {
		return raster.Equal(s.image, other.image)
	}
	return true
}

func (s LoadState) String() string {
	if s.kind == StateFailed && s.err != nil {
		return "failed: " + s.err.Error()
	}
	return s.kind.String()
}
