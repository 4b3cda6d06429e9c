package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig     = "CONFIG"
	ErrGit        = "GIT"
	ErrAPI        = "API"
	ErrSSH        = "SSH"
	ErrDependency = "DEPENDENCY"
	ErrState      = "STATE"
	ErrActivity   = "ACTIVITY"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Rendered as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrAPI code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrAPI,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// NewDependencyMissing creates an error for a required external tool that
// could not be found. Callers detect it with IsCode(err, ErrDependency).
func NewDependencyMissing(tool, suggestion string) *Error {
	return &Error{
		Code:       ErrDependency,
		Message:    fmt.Sprintf("Required dependency not found: %s", tool),
		Suggestion: suggestion,
	}
}

// NewEnvironmentState creates an error for an environment in a state where
// the requested operation does not apply (for example: no SSH endpoint yet).
// Callers that can tolerate the state check IsCode(err, ErrState) and move on.
func NewEnvironmentState(environmentID, detail string) *Error {
	return &Error{
		Code:    ErrState,
		Message: fmt.Sprintf("Environment '%s' is in an unexpected state", environmentID),
		Cause:   errors.New(detail),
	}
}

// Error implements the error interface with formatted multi-line output.
func (e *Error) Error() string {
	var b strings.Builder

	// First line: failure symbol + main message
	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	// Include cause if present (why it failed)
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	// Include suggestion if present (how to fix)
	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var cliErr *Error
	if errors.As(err, &cliErr) {
		return cliErr.Code == code
	}
	return false
}
