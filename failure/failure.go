// Package failure classifies the errors a methylation calling task can end with.
package failure

import (
	"errors"
	"fmt"
)

// Kind is the category of a task failure.
type Kind byte

const (
	Unknown Kind = iota
	InputAccess
	InsufficientControlData
	OutputWrite
	MalformedRecord
	InvalidConfig
)

func (k Kind) String() string {
	switch k {
	case InputAccess:
		return "InputAccessError"
	case InsufficientControlData:
		return "InsufficientControlData"
	case OutputWrite:
		return "OutputWriteError"
	case MalformedRecord:
		return "MalformedRecord"
	case InvalidConfig:
		return "InvalidConfig"
	default:
		return "UnknownError"
	}
}

// Error wraps the underlying cause of a failure with its Kind and the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns a *Error of the given kind.
func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf returns a *Error of the given kind with a formatted cause.
func Newf(kind Kind, op string, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind of the first *Error in the chain of err, or Unknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}

// Is reports whether err carries a failure of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// FromPanic converts a recovered panic value into a *Error of the given kind.
// gonomics reports I/O problems by panicking, so task boundaries use this to
// keep a single bad input from taking down sibling tasks.
func FromPanic(kind Kind, op string, r any) error {
	switch v := r.(type) {
	case error:
		if KindOf(v) != Unknown {
			return v
		}
		return New(kind, op, v)
	default:
		return Newf(kind, op, "%v", v)
	}
}
