package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeUnknownLayer, "connection references unknown layer %q", "retina")

	if err.Code != ErrCodeUnknownLayer {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeUnknownLayer)
	}

	if err.Message != `connection references unknown layer "retina"` {
		t.Errorf("Message = %v", err.Message)
	}

	expected := `SCHEMA_UNKNOWN_LAYER: connection references unknown layer "retina"`
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeBadNetworkFile, cause, "reading net.toml")

	if err.Code != ErrCodeBadNetworkFile {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeBadNetworkFile)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeBadMaskSpec, "mask must have exactly one key")

	if !Is(err, ErrCodeBadMaskSpec) {
		t.Error("Is(err, ErrCodeBadMaskSpec) = false, want true")
	}
	if Is(err, ErrCodeBadKernelSpec) {
		t.Error("Is(err, ErrCodeBadKernelSpec) = true, want false")
	}
	if Is(errors.New("plain"), ErrCodeBadMaskSpec) {
		t.Error("Is(plain, code) = true, want false")
	}
}

func TestIsClass(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		schema   bool
		config   bool
		geometry bool
	}{
		{"schema", New(ErrCodeDuplicateLayer, "dup"), true, false, false},
		{"config", New(ErrCodeBadPatchSize, "bad"), false, true, false},
		{"geometry", New(ErrCodeGeometryFault, "oops"), false, false, true},
		{"plain", errors.New("plain"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSchema(tt.err); got != tt.schema {
				t.Errorf("IsSchema = %v, want %v", got, tt.schema)
			}
			if got := IsConfig(tt.err); got != tt.config {
				t.Errorf("IsConfig = %v, want %v", got, tt.config)
			}
			if got := IsGeometryFault(tt.err); got != tt.geometry {
				t.Errorf("IsGeometryFault = %v, want %v", got, tt.geometry)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeBadColor, "unknown color %q", "vermillion")
	if got, want := UserMessage(err), `unknown color "vermillion"`; got != want {
		t.Errorf("UserMessage = %q, want %q", got, want)
	}

	plain := errors.New("plain error")
	if got := UserMessage(plain); got != "plain error" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestGetCode_WrappedChain(t *testing.T) {
	inner := New(ErrCodeBadWeightSpec, "weights dict has no keys")
	outer := Wrap(ErrCodeBadNetworkFile, inner, "connection 3")

	// GetCode returns the outermost structured code.
	if got := GetCode(outer); got != ErrCodeBadNetworkFile {
		t.Errorf("GetCode = %v, want %v", got, ErrCodeBadNetworkFile)
	}

	// The inner code is still reachable through the chain.
	var e *Error
	if !errors.As(errors.Unwrap(outer), &e) || e.Code != ErrCodeBadWeightSpec {
		t.Error("inner code lost through wrapping")
	}
}
