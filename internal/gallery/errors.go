package gallery

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package matches exactly one of
// them with errors.Is.
var (
	ErrInvalidScope          = errors.New("invalid scope")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrPositionOccupied      = errors.New("position occupied")
	ErrNotFound              = errors.New("not found")
	ErrAttachmentPersistence = errors.New("attachment persistence failure")
)

// Error is a classified gallery failure with a stable numeric code.
type Error struct {
	kind    error
	code    int
	message string
	cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause == nil {
		return e.message
	}
	if e.message == "" {
		return e.cause.Error()
	}
	return e.message + ": " + e.cause.Error()
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

// Kind returns the sentinel this error is classified under.
func (e *Error) Kind() error {
	if e == nil {
		return nil
	}
	return e.kind
}

// Code returns the numeric error code.
func (e *Error) Code() int {
	if e == nil {
		return 0
	}
	return e.code
}

// Message returns the error text without the wrapped cause.
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func newError(kind error, code int, format string, args ...any) *Error {
	return &Error{kind: kind, code: code, message: fmt.Sprintf(format, args...)}
}

func wrapError(kind error, code int, cause error, message string) *Error {
	return &Error{kind: kind, code: code, message: message, cause: cause}
}

func invalidScope(code int, format string, args ...any) error {
	return newError(ErrInvalidScope, code, format, args...)
}

func invalidArgument(code int, format string, args ...any) error {
	return newError(ErrInvalidArgument, code, format, args...)
}

func positionOccupied(column, row int) error {
	return newError(ErrPositionOccupied, CodePositionOccupied, "position (%d,%d) is already occupied", column, row)
}

func notFound(code int, format string, args ...any) error {
	return newError(ErrNotFound, code, format, args...)
}

func persistenceFailure(code int, cause error, message string) error {
	return wrapError(ErrAttachmentPersistence, code, cause, message)
}

// KindOf returns the sentinel kind of err, or nil when err was not produced by
// this package.
func KindOf(err error) error {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.kind
	}
	return nil
}

// CodeOf returns the numeric code carried by err, or 0.
func CodeOf(err error) int {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.code
	}
	return 0
}
