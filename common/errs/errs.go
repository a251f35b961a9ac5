// Package errs defines the status codes surfaced at the authenticity-core
// boundary (spec.md §6) and a typed error carrying them.
package errs

import (
	"github.com/pkg/errors"
)

// Boundary status codes, mirrored one-to-one on the spec's error alphabet.
const (
	CodeOK                  = 0
	CodeInvalidParameter    = 1001
	CodeNotSupported        = 1002
	CodeMemory              = 1003
	CodeIncompatibleVersion = 1004
	CodeDecodingError       = 1005
	CodeExternalFailure     = 1006
	CodeUnknown             = 9999
)

var (
	ErrInvalidParameter    = New(CodeInvalidParameter, "invalid parameter")
	ErrNotSupported        = New(CodeNotSupported, "not supported")
	ErrMemory              = New(CodeMemory, "memory allocation failed")
	ErrIncompatibleVersion = New(CodeIncompatibleVersion, "incompatible version")
	ErrDecodingError       = New(CodeDecodingError, "decoding error")
	ErrExternalFailure     = New(CodeExternalFailure, "external collaborator failed")
)

const (
	Success = "success"
)

// Error is the boundary error type: a stable numeric code plus a message.
// Core internals should wrap lower-level causes with Wrapf and surface one
// of the sentinel errors above at the public API edge.
type Error struct {
	Code int32
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func New(code int32, msg string) error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

func Code(e error) int32 {
	if e == nil {
		return CodeOK
	}
	err, ok := errors.Cause(e).(*Error)
	if !ok {
		return CodeUnknown
	}

	if err == (*Error)(nil) {
		return CodeOK
	}
	return err.Code
}

func Msg(e error) string {
	if e == nil {
		return Success
	}
	err, ok := e.(*Error)
	if !ok {
		return "unknown error: " + e.Error()
	}

	if err == (*Error)(nil) {
		return Success
	}

	return err.Msg
}

// Wrapf attaches a stack-carrying context message to err without discarding
// the boundary code a *Error may already carry.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// Fatal reports whether code belongs to the fatal class (spec.md §7):
// the session must be reset before further use.
func Fatal(code int32) bool {
	switch code {
	case CodeMemory, CodeIncompatibleVersion, CodeDecodingError:
		return true
	default:
		return false
	}
}
