package domain

import (
	"fmt"
)

// ErrorKind classifies a failed tool invocation.
type ErrorKind string

const (
	KindInvalidParams         ErrorKind = "InvalidParams"
	KindUnknownTool           ErrorKind = "UnknownTool"
	KindClientError           ErrorKind = "ClientError"
	KindServerError           ErrorKind = "ServerError"
	KindNetworkError          ErrorKind = "NetworkError"
	KindParseError            ErrorKind = "ParseError"
	KindExhausted             ErrorKind = "Exhausted"
	KindDuplicateNameConflict ErrorKind = "DuplicateNameConflict"
	KindInternal              ErrorKind = "Internal"
)

// Retriable reports whether the Transport Client may retry a failure of this kind.
func (k ErrorKind) Retriable() bool {
	return k == KindServerError || k == KindNetworkError
}

// Failure is the normalized error shape crossing every layer boundary.
// Handlers return it (possibly wrapped) and the Dispatcher unwraps it with errors.As.
type Failure struct {
	Kind      ErrorKind
	Message   string
	Retriable bool

	cause error
}

// NewFailure creates a Failure whose retriable flag follows the kind.
func NewFailure(kind ErrorKind, format string, args ...interface{}) *Failure {
	return &Failure{
		Kind:      kind,
		Message:   fmt.Sprintf(format, args...),
		Retriable: kind.Retriable(),
	}
}

// WithCause attaches an underlying error, kept for errors.Is/As but never rendered
// into the envelope.
func (f *Failure) WithCause(err error) *Failure {
	f.cause = err
	return f
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.Message == "" {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Unwrap exposes the attached cause.
func (f *Failure) Unwrap() error {
	return f.cause
}

// InvocationResult is either Success{Payload} or Failure{Kind, Message, Retriable}.
// It is the only shape handed back to the outer transport layer.
type InvocationResult struct {
	OK      bool
	Payload interface{}
	Failure *Failure
}

// Success wraps a payload unchanged.
func Success(payload interface{}) InvocationResult {
	return InvocationResult{OK: true, Payload: payload}
}

// Fail wraps a failure.
func Fail(f *Failure) InvocationResult {
	return InvocationResult{Failure: f}
}

// Unwrap converts the result into Go's (value, error) convention for resource services.
func (r InvocationResult) Unwrap() (interface{}, error) {
	if r.OK {
		return r.Payload, nil
	}
	if r.Failure == nil {
		return nil, NewFailure(KindInternal, "result carries neither payload nor failure")
	}
	return nil, r.Failure
}

// Envelope is the JSON shape surfaced to callers.
type Envelope struct {
	OK        bool        `json:"ok"`
	Payload   interface{} `json:"payload,omitempty"`
	ErrorKind ErrorKind   `json:"errorKind,omitempty"`
	Message   string      `json:"message,omitempty"`
}

// Envelope renders the result for the caller. Causes, stack traces and
// raw HTTP statuses are not part of it.
func (r InvocationResult) Envelope() Envelope {
	if r.OK {
		return Envelope{OK: true, Payload: r.Payload}
	}
	if r.Failure == nil {
		return Envelope{ErrorKind: KindInternal, Message: "unknown failure"}
	}
	return Envelope{
		ErrorKind: r.Failure.Kind,
		Message:   r.Failure.Message,
	}
}
