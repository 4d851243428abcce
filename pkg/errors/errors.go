// Package errors provides structured error types shared by the klumpen CLI
// and HTTP API.
//
// Every error that crosses a package boundary carries a machine-readable
// [Code]. The CLI prints [UserMessage] and the server maps the code to an
// HTTP status, so both surfaces agree on what went wrong.
//
// # Error Codes
//
//   - INVALID_*: the caller supplied something unusable (report, canvas, path)
//   - *NOT_FOUND: a package, analysis or file does not exist
//   - NETWORK_ERROR, TIMEOUT: a backing service (Redis, MongoDB) failed
//   - INTERNAL_ERROR, UNSUPPORTED: everything else
//
// # Usage
//
//	err := errors.New(errors.ErrCodePackageNotFound, "no package named %q", name)
//	if errors.Is(err, errors.ErrCodePackageNotFound) {
//	    // zoom target missing
//	}
//
//	err = errors.Wrap(errors.ErrCodeNetwork, cause, "connect to %s", uri)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidReport Code = "INVALID_REPORT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidCanvas Code = "INVALID_CANVAS"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodePackageNotFound  Code = "PACKAGE_NOT_FOUND"
	ErrCodeAnalysisNotFound Code = "ANALYSIS_NOT_FOUND"
	ErrCodeFileNotFound     Code = "FILE_NOT_FOUND"

	// Backing service errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

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

// New creates an Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error that keeps cause in its chain.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the first *Error in err's chain has the given code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the code of the first *Error in err's chain, or "" if
// there is none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsNotFound reports whether err carries any of the not-found codes.
func IsNotFound(err error) bool {
	switch GetCode(err) {
	case ErrCodeNotFound, ErrCodePackageNotFound, ErrCodeAnalysisNotFound, ErrCodeFileNotFound:
		return true
	}
	return false
}

// UserMessage returns the message without the code prefix for *Error
// values and err.Error() otherwise.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
