package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates which subsystem raised the error
type Phase string

const (
	PhaseConfig    Phase = "config"    // configuration parsing and validation
	PhaseAlloc     Phase = "alloc"     // off-heap allocation
	PhaseFree      Phase = "free"      // off-heap release
	PhaseLifecycle Phase = "lifecycle" // run state transitions
	PhaseBoundary  Phase = "boundary"  // host call surface
	PhaseShutdown  Phase = "shutdown"  // teardown checkpoints
	PhaseLoad      Phase = "load"      // file loading
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidData       Kind = "invalid_data"
	KindInvalidInput      Kind = "invalid_input"
	KindInvalidEnum       Kind = "invalid_enum"
	KindAllocation        Kind = "allocation"
	KindOverflow          Kind = "overflow"
	KindLimitExceeded     Kind = "limit_exceeded"
	KindInvalidHandle     Kind = "invalid_handle"
	KindSizeMismatch      Kind = "size_mismatch"
	KindInvalidTransition Kind = "invalid_transition"
	KindNotInitialized    Kind = "not_initialized"
	KindClosed            Kind = "closed"
	KindUnsupported       Kind = "unsupported"
	KindRegistration      Kind = "registration"
)

// Error is the structured error type used throughout the engine core
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Field  string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Field != "" {
		b.WriteString(" at ")
		b.WriteString(e.Field)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Is forwards to the standard library so callers need a single import.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As forwards to the standard library so callers need a single import.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Field sets the offending field or parameter name
func (b *Builder) Field(name string) *Builder {
	b.err.Field = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// AllocationFailed creates an allocation failure error
func AllocationFailed(size, align int, cause error) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
		Value:  size,
		Cause:  cause,
	}
}

// InvalidSize creates an error for a size that cannot be allocated at all
func InvalidSize(size int) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindInvalidInput,
		Detail: fmt.Sprintf("size %d is not allocatable", size),
		Value:  size,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, value any, target string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Detail: fmt.Sprintf("value %v overflows %s", value, target),
		Value:  value,
	}
}

// LimitExceeded creates an error for a request that would pass the off-heap ceiling
func LimitExceeded(requested, outstanding, limit uint64) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindLimitExceeded,
		Detail: fmt.Sprintf("requested %d bytes with %d outstanding exceeds limit %d", requested, outstanding, limit),
		Value:  requested,
	}
}

// InvalidHandle creates an error for a null, stale or unknown handle
func InvalidHandle(phase Phase, handle uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidHandle,
		Detail: fmt.Sprintf("handle %#x is not a live block", handle),
		Value:  handle,
	}
}

// SizeMismatch creates an error for a release whose size differs from the allocation
func SizeMismatch(handle uint64, got, want int) *Error {
	return &Error{
		Phase:  PhaseFree,
		Kind:   KindSizeMismatch,
		Detail: fmt.Sprintf("handle %#x released with size %d, allocated with %d", handle, got, want),
		Value:  got,
	}
}

// InvalidTransition creates an error for an illegal lifecycle move
func InvalidTransition(from, to fmt.Stringer) *Error {
	return &Error{
		Phase:  PhaseLifecycle,
		Kind:   KindInvalidTransition,
		Detail: fmt.Sprintf("%s -> %s is not a legal transition", from, to),
		Value:  to,
	}
}

// InvalidEnum creates an invalid enum value error
func InvalidEnum(phase Phase, field string, value any, allowed []string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidEnum,
		Field:  field,
		Detail: fmt.Sprintf("invalid value %v, want one of %s", value, strings.Join(allowed, ", ")),
		Value:  value,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, field, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Field:  field,
		Detail: detail,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, detail string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// Closed creates an error for an operation on a torn-down component
func Closed(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s is closed", component),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Registration creates a host function registration error
func Registration(module, name string, cause error) *Error {
	return &Error{
		Phase:  PhaseBoundary,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %s#%s", module, name),
		Cause:  cause,
	}
}

// Load creates a file loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
