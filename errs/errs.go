// Package errs provides structured error types and helpers for the Hegemon
// simulation core.
package errs

import (
	"sort"
	"strconv"
	"strings"
)

// Code identifies an error category within the simulation core.
type Code string

const (
	// CodeLifecycle indicates a lifecycle-sequencing violation (setup called
	// twice, bookmark loaded before setup, clock updated before a session).
	CodeLifecycle Code = "lifecycle"
	// CodeReentrancy indicates an update was scheduled while one was in flight.
	CodeReentrancy Code = "reentrancy"
	// CodeIdentifier indicates an unknown or duplicate identifier in game data.
	CodeIdentifier Code = "identifier"
	// CodeInvalidOrder indicates a rejected market order.
	CodeInvalidOrder Code = "invalid_order"
	// CodeScopeMismatch indicates a condition was evaluated against an
	// incompatible scope.
	CodeScopeMismatch Code = "scope_mismatch"
	// CodeScript indicates a condition script failed to parse.
	CodeScript Code = "script"
	// CodeStorage indicates a snapshot store failure.
	CodeStorage Code = "storage"
	// CodeInvalid indicates invalid input provided by the caller.
	CodeInvalid Code = "invalid_request"
)

// E captures structured error information produced across the simulation core.
type E struct {
	Component string
	Code      Code
	Message   string
	Fields    map[string]string

	cause error
}

// Option configures an error envelope.
type Option func(*E)

// New constructs an error envelope for the component and error code.
func New(component string, code Code, opts ...Option) *E {
	e := &E{
		Component: strings.TrimSpace(component),
		Code:      code,
		Message:   "",
		Fields:    nil,
		cause:     nil,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// WithMessage attaches a human-readable message to the error.
func WithMessage(message string) Option {
	trimmed := strings.TrimSpace(message)
	return func(e *E) {
		e.Message = trimmed
	}
}

// WithCause sets the underlying cause error.
func WithCause(err error) Option {
	return func(e *E) {
		e.cause = err
	}
}

// WithField appends a single metadata key/value pair.
func WithField(key, value string) Option {
	return func(e *E) {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			return
		}
		if e.Fields == nil {
			e.Fields = make(map[string]string, 1)
		}
		e.Fields[trimmedKey] = strings.TrimSpace(value)
	}
}

func (e *E) Error() string {
	if e == nil {
		return "<nil>"
	}
	var parts []string

	component := strings.TrimSpace(e.Component)
	if component == "" {
		component = "unknown"
	}
	parts = append(parts, "component="+component)

	code := strings.TrimSpace(string(e.Code))
	if code == "" {
		code = "unknown"
	}
	parts = append(parts, "code="+code)

	if e.Message != "" {
		parts = append(parts, "message="+strconv.Quote(e.Message))
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, k+"="+strconv.Quote(e.Fields[k]))
		}
		parts = append(parts, "fields="+strings.Join(pairs, ","))
	}
	if e.cause != nil {
		parts = append(parts, "cause="+strconv.Quote(e.cause.Error()))
	}

	return strings.Join(parts, " ")
}

func (e *E) Unwrap() error { return e.cause }

// Lifecycle returns a standardized lifecycle-sequencing error.
func Lifecycle(component, msg string) *E {
	return New(component, CodeLifecycle, WithMessage(msg))
}

// Identifier returns a standardized unknown-identifier error.
func Identifier(component, kind, id string) *E {
	return New(component, CodeIdentifier,
		WithMessage("unknown "+kind+" identifier"),
		WithField(kind, id))
}
