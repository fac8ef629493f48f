package hookwrap

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the ways a wrapper can fail before or while running
// the wrapped tool.
type ErrorKind int

const (
	// KindClassification means no usable files, a bad --version argument,
	// or a failed query for staged files.
	KindClassification ErrorKind = iota + 1

	// KindToolNotFound means the wrapped binary isn't on the PATH.
	KindToolNotFound

	// KindVersionFormat means the tool's --version output no longer
	// contains the expected look-behind literal.
	KindVersionFormat

	// KindVersionMismatch means the tool runs but its version doesn't
	// satisfy the requested pin.
	KindVersionMismatch

	// KindUnexpected means the tool crashed or complained about something
	// other than the file under test.
	KindUnexpected

	// KindTimeout means the tool didn't finish in time and was killed.
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindClassification:
		return "classification"
	case KindToolNotFound:
		return "tool not found"
	case KindVersionFormat:
		return "version format"
	case KindVersionMismatch:
		return "version mismatch"
	case KindUnexpected:
		return "unexpected tool error"
	case KindTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is the one error type that crosses package boundaries.
// It always names the tool, the problem, and the details a human needs.
type Error struct {
	Kind    ErrorKind
	Tool    string
	Problem string
	Details string
	// Code is the process exit code to use; zero means 1.
	Code int
	// Err is the underlying cause, if any.
	Err error
}

// Error renders the message in the form the hook framework shows the user.
func (e *Error) Error() string {
	return fmt.Sprintf("Problem with %s: %s\n%s\n", e.Tool, e.Problem, e.Details)
}

func (e *Error) Unwrap() error { return e.Err }

// ExitCode returns the exit code this error should produce.
func (e *Error) ExitCode() int {
	if e.Code > 0 {
		return e.Code
	}
	return 1
}

// NewError returns an Error of the given kind.
func NewError(k ErrorKind, tool, problem, details string) *Error {
	return &Error{Kind: k, Tool: tool, Problem: problem, Details: details}
}

// IsKind reports whether err is, or wraps, an *Error of kind k.
func IsKind(err error, k ErrorKind) bool {
	var he *Error
	return errors.As(err, &he) && he.Kind == k
}

// ExitCode maps any error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var he *Error
	if errors.As(err, &he) {
		return he.ExitCode()
	}
	return 1
}
