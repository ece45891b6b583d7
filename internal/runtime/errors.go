// Package runtime implements the value model the compiled code runs
// against: the per-run State, the owned string heap, input records and
// fields, and the native entry points generated code calls.
package runtime

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a fatal runtime error.
type ErrorKind uint8

const (
	// ErrType is a dynamic type error, such as non-numeric text used as
	// a number.
	ErrType ErrorKind = iota
	// ErrResource is an input that cannot be opened or read.
	ErrResource
	// ErrOwnership is a string lifetime defect: a double free, a free of
	// a static string or the use of a freed handle. Correctly compiled
	// code never raises it.
	ErrOwnership
)

// String returns the kind's name.
func (k ErrorKind) String() string {
	switch k {
	case ErrType:
		return "type"
	case ErrResource:
		return "resource"
	case ErrOwnership:
		return "ownership"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Error is a fatal runtime error. Natives raise it with panic and the
// execution engine recovers it at the run boundary.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error // underlying cause, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Kind.String() + " error: " + e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a runtime Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var re *Error
	return errors.As(err, &re) && re.Kind == kind
}

func fatalf(kind ErrorKind, format string, args ...any) {
	panic(&Error{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

func fatalErr(kind ErrorKind, err error, format string, args ...any) {
	panic(&Error{Kind: kind, Message: fmt.Sprintf(format, args...) + ": " + err.Error(), Err: err})
}

// Catch converts a recovered *Error panic into *errp. Other panics are
// re-raised. Use it as "defer runtime.Catch(&err)".
func Catch(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(*Error); ok {
		*errp = e
		return
	}
	panic(r)
}
