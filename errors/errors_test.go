package errors

import (
	"errors"
	"strings"
	"testing"
)

type phaseName string

func (p phaseName) String() string { return string(p) }

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseConfig,
				Kind:   KindInvalidInput,
				Field:  "masterVolume",
				Detail: "must be within [0, 1]",
			},
			contains: []string{"[config]", "invalid_input", "masterVolume", "within"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseFree,
				Kind:  KindInvalidHandle,
			},
			contains: []string{"[free]", "invalid_handle"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseAlloc,
				Kind:   KindAllocation,
				Detail: "mmap refused",
				Cause:  errors.New("cannot allocate memory"),
			},
			contains: []string{"[alloc]", "allocation", "mmap refused", "caused by", "cannot allocate memory"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseConfig,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not reach cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseFree,
		Kind:  KindSizeMismatch,
		Field: "size",
	}

	if !err.Is(&Error{Phase: PhaseFree, Kind: KindSizeMismatch}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseAlloc, Kind: KindSizeMismatch}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseFree, Kind: KindInvalidHandle}) {
		t.Error("Is should not match different kind")
	}

	var target *Error
	if !errors.As(error(err), &target) || target.Field != "size" {
		t.Error("errors.As should recover *Error")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseConfig, KindInvalidInput).
		Field("meshThreads").
		Value(0).
		Cause(cause).
		Detail("expected at least %d, got %d", 1, 0).
		Build()

	if err.Phase != PhaseConfig {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseConfig)
	}
	if err.Kind != KindInvalidInput {
		t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidInput)
	}
	if err.Field != "meshThreads" {
		t.Errorf("Field = %q, want meshThreads", err.Field)
	}
	if err.Value != 0 {
		t.Errorf("Value = %v, want 0", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected at least 1, got 0" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("AllocationFailed", func(t *testing.T) {
		err := AllocationFailed(4096, 16, errors.New("ENOMEM"))
		if err.Kind != KindAllocation || err.Phase != PhaseAlloc {
			t.Errorf("got %s/%s", err.Phase, err.Kind)
		}
		if !strings.Contains(err.Detail, "4096") {
			t.Errorf("Detail = %v, should contain size", err.Detail)
		}
	})

	t.Run("LimitExceeded", func(t *testing.T) {
		err := LimitExceeded(1<<40, 0, 512<<20)
		if err.Kind != KindLimitExceeded {
			t.Errorf("Kind = %v, want %v", err.Kind, KindLimitExceeded)
		}
	})

	t.Run("SizeMismatch", func(t *testing.T) {
		err := SizeMismatch(0x100000001, 32, 64)
		if err.Kind != KindSizeMismatch || err.Phase != PhaseFree {
			t.Errorf("got %s/%s", err.Phase, err.Kind)
		}
		if !strings.Contains(err.Detail, "0x100000001") {
			t.Errorf("Detail = %v, should contain handle", err.Detail)
		}
	})

	t.Run("InvalidTransition", func(t *testing.T) {
		err := InvalidTransition(phaseName("stopped"), phaseName("running"))
		if err.Kind != KindInvalidTransition {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidTransition)
		}
		if !strings.Contains(err.Error(), "stopped -> running") {
			t.Errorf("Error() = %q", err.Error())
		}
	})

	t.Run("InvalidEnum", func(t *testing.T) {
		err := InvalidEnum(PhaseConfig, "renderMode", "METAL", []string{"VULKAN", "OPENGL"})
		if err.Field != "renderMode" {
			t.Errorf("Field = %q", err.Field)
		}
		if !strings.Contains(err.Detail, "VULKAN, OPENGL") {
			t.Errorf("Detail = %q", err.Detail)
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		cause := errors.New("boom")
		err := Wrap(PhaseBoundary, KindRegistration, cause, "instantiate")
		if !errors.Is(err, cause) {
			t.Error("Wrap should keep cause")
		}
	})
}
