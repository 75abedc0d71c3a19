package loader

import (
	"errors"
	"image/color"
	"testing"
)

func TestLoadState_ZeroValueIsIdle(t *testing.T) {
	var s LoadState
	if s.Kind() != StateIdle {
		t.Errorf("zero LoadState kind = %v, want idle", s.Kind())
	}
	if !s.Equal(IdleState()) {
		t.Error("zero LoadState should equal IdleState()")
	}
}

func TestLoadState_Predicates(t *testing.T) {
	tests := []struct {
		state    LoadState
		terminal bool
		retry    bool
		name     string
	}{
		{IdleState(), false, false, "idle"},
		{LoadingState(), false, false, "loading"},
		{LoadedState(nil), true, false, "loaded"},
		{FailedState(errors.New("x")), true, true, "failed"},
		{NoURLState(), true, false, "no-url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.terminal)
			}
			if got := tt.state.CanRetry(); got != tt.retry {
				t.Errorf("CanRetry() = %v, want %v", got, tt.retry)
			}
			if got := tt.state.Kind().String(); got != tt.name {
				t.Errorf("Kind().String() = %q, want %q", got, tt.name)
			}
		})
	}
}

func TestLoadState_Equal(t *testing.T) {
	redA := testImage(t, 2, 2, color.RGBA{R: 255, A: 255})
	redB := testImage(t, 2, 2, color.RGBA{R: 255, A: 255})
	blue := testImage(t, 2, 2, color.RGBA{B: 255, A: 255})

	tests := []struct {
		name string
		a, b LoadState
		want bool
	}{
		{"idle", IdleState(), IdleState(), true},
		{"loading", LoadingState(), LoadingState(), true},
		{"no-url", NoURLState(), NoURLState(), true},
		{"loaded same pixels different values", LoadedState(redA), LoadedState(redB), true},
		{"loaded different pixels", LoadedState(redA), LoadedState(blue), false},
		{"failed ignores cause", FailedState(errors.New("a")), FailedState(errors.New("b")), true},
		{"failed vs failed network", FailedState(nil), FailedState(NetworkError(errors.New("x"))), true},
		{"different kinds", IdleState(), LoadingState(), false},
		{"loaded vs failed", LoadedState(redA), FailedState(errors.New("a")), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
			if got := tt.b.Equal(tt.a); got != tt.want {
				t.Errorf("Equal() is not symmetric")
			}
		})
	}
}

func TestLoadState_Accessors(t *testing.T) {
	img := testImage(t, 1, 1, color.White)
	if LoadedState(img).Image() != img {
		t.Error("Loaded state should hold its image")
	}
	if LoadedState(img).Err() != nil {
		t.Error("Loaded state should have no error")
	}

	cause := errors.New("boom")
	failed := FailedState(cause)
	if failed.Err() != cause || failed.Image() != nil {
		t.Error("Failed state should hold only its cause")
	}
	if got := failed.String(); got != "failed: boom" {
		t.Errorf("String() = %q", got)
	}
	if got := StateKind(99).String(); got != "unknown" {
		t.Errorf("unknown kind String() = %q", got)
	}
}
