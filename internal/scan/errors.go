package scan

import (
	"errors"
	"fmt"
)

// Kind classifies a scan failure. Each kind maps to its own exit status.
type Kind int

const (
	// KindUsage covers malformed or missing command-line input.
	KindUsage Kind = iota + 1
	// KindResource covers registry init, open and lock failures.
	KindResource
	// KindFatal covers failures that abort the scan half-way.
	KindFatal
	// KindLookupMiss means the subject hash is not in the registry.
	KindLookupMiss
)

// ExitCode returns the process exit status for the kind.
func (k Kind) ExitCode() int {
	switch k {
	case KindUsage:
		return 1
	case KindResource:
		return 2
	case KindFatal:
		return 3
	case KindLookupMiss:
		return 5
	}
	return 1
}

func (k Kind) String() string {
	switch k {
	case KindUsage:
		return "usage"
	case KindResource:
		return "resource"
	case KindFatal:
		return "fatal"
	case KindLookupMiss:
		return "lookup-miss"
	}
	return "unknown"
}

// Error is a categorised scan failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds an Error of the given kind.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// ExitCode returns the exit status for err: the kind's status for an
// *Error, 0 for nil and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind.ExitCode()
	}
	return 1
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}
