package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind string

// Error kinds
const (
	KindNoRunnableFile      Kind = "NoRunnableFile"
	KindUnsupportedLanguage Kind = "UnsupportedLanguage"
	KindInvalidSubmission   Kind = "InvalidSubmission"
	KindIO                  Kind = "IOError"
	KindExecution           Kind = "ExecutionError"
	KindTimeout             Kind = "Timeout"
	KindResourceExceeded    Kind = "ResourceExceeded"
	KindNotFound            Kind = "NotFound"
	KindInternal            Kind = "InternalError"
)

// Sentinel errors for use with errors.Is. An *Error matches the sentinel of
// its own kind.
var (
	ErrNoRunnableFile      = &Error{Kind: KindNoRunnableFile, Message: "no runnable file in submission"}
	ErrUnsupportedLanguage = &Error{Kind: KindUnsupportedLanguage, Message: "unsupported language"}
	ErrInvalidSubmission   = &Error{Kind: KindInvalidSubmission, Message: "invalid submission"}
	ErrIO                  = &Error{Kind: KindIO, Message: "workspace I/O failure"}
	ErrExecution           = &Error{Kind: KindExecution, Message: "execution failed"}
	ErrTimeout             = &Error{Kind: KindTimeout, Message: "execution timed out"}
	ErrResourceExceeded    = &Error{Kind: KindResourceExceeded, Message: "output limit exceeded"}
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "not found"}
	ErrInternal            = &Error{Kind: KindInternal, Message: "internal error"}
)

// Error is a classified failure with an optional underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error returns the message, followed by the cause when one is set.
func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind of err. Unclassified errors are KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsClient reports whether the kind is caused by the submitted content rather
// than by the server.
func IsClient(kind Kind) bool {
	switch kind {
	case KindNoRunnableFile, KindUnsupportedLanguage, KindInvalidSubmission,
		KindExecution, KindTimeout, KindResourceExceeded:
		return true
	default:
		return false
	}
}

// HTTPStatus maps err to the status code the façade responds with.
func HTTPStatus(err error) int {
	kind := KindOf(err)
	switch {
	case kind == "":
		return http.StatusOK
	case kind == KindNotFound:
		return http.StatusNotFound
	case IsClient(kind):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
