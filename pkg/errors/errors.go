// Package errors provides structured error types for the connplot application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and preview server
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages naming the offending entity
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - SCHEMA_*: problems in the declarative network description
//     (unknown layer, duplicate name, unsupported spec shape, ...)
//   - CONFIG_*: invalid configuration or call options
//     (non-positive patch size, negative margin, conflicting flags, ...)
//   - GEOMETRY_FAULT: an internal layout invariant was violated; this
//     indicates a defect in the layout engine, not bad input
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownLayer, "connection references unknown layer %q", name)
//	if errors.Is(err, errors.ErrCodeUnknownLayer) {
//	    // Handle schema error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeBadNetworkFile, origErr, "reading %s", path)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Schema errors: the network description itself is invalid.
	ErrCodeUnknownLayer     Code = "SCHEMA_UNKNOWN_LAYER"
	ErrCodeDuplicateLayer   Code = "SCHEMA_DUPLICATE_LAYER"
	ErrCodeDuplicateSynapse Code = "SCHEMA_DUPLICATE_SYNAPSE"
	ErrCodeUnknownSynapse   Code = "SCHEMA_UNKNOWN_SYNAPSE"
	ErrCodeAmbiguousSynapse Code = "SCHEMA_AMBIGUOUS_SYNAPSE"
	ErrCodeBadMaskSpec      Code = "SCHEMA_BAD_MASK"
	ErrCodeBadKernelSpec    Code = "SCHEMA_BAD_KERNEL"
	ErrCodeBadWeightSpec    Code = "SCHEMA_BAD_WEIGHTS"
	ErrCodeBadRestriction   Code = "SCHEMA_BAD_RESTRICTION"
	ErrCodeBadNetworkFile   Code = "SCHEMA_BAD_NETWORK_FILE"

	// Config errors: the computation was configured incorrectly.
	ErrCodeBadPatchSize  Code = "CONFIG_BAD_PATCH_SIZE"
	ErrCodeBadResolution Code = "CONFIG_BAD_RESOLUTION"
	ErrCodeBadMargin     Code = "CONFIG_BAD_MARGIN"
	ErrCodeBadColor      Code = "CONFIG_BAD_COLOR"
	ErrCodeBadMode       Code = "CONFIG_BAD_MODE"
	ErrCodeBadLimits     Code = "CONFIG_BAD_LIMITS"
	ErrCodeBadCharge     Code = "CONFIG_BAD_CHARGE"
	ErrCodeBadFormat     Code = "CONFIG_BAD_FORMAT"

	// Geometry faults: internal layout invariants were violated.
	// These indicate a bug in the layout engine, not bad input.
	ErrCodeGeometryFault Code = "GEOMETRY_FAULT"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsSchema reports whether err carries any SCHEMA_* code.
func IsSchema(err error) bool {
	return strings.HasPrefix(string(GetCode(err)), "SCHEMA_")
}

// IsConfig reports whether err carries any CONFIG_* code.
func IsConfig(err error) bool {
	return strings.HasPrefix(string(GetCode(err)), "CONFIG_")
}

// IsGeometryFault reports whether err is an internal layout invariant violation.
func IsGeometryFault(err error) bool {
	return Is(err, ErrCodeGeometryFault)
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
