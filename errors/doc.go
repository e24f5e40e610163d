// Package errors provides structured error types for the engine core.
//
// Errors are categorized by Phase (which subsystem raised the error) and Kind
// (error category). The Error type carries a human-readable detail, the
// offending value, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseConfig, errors.KindInvalidInput).
//		Field("masterVolume").
//		Value(1.5).
//		Detail("must be within [0, 1]").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.AllocationFailed(4096, 16, cause)
//	err := errors.SizeMismatch(handle, 64, 128)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
