package awkjit

import (
	"errors"
	"fmt"

	"github.com/kolkov/awkjit/internal/runtime"
)

// ErrNoProgram is returned when the program text is empty.
var ErrNoProgram = errors.New("no program given")

// ParseError represents a syntax error in the source code.
type ParseError struct {
	Line    int    // 1-based line number
	Column  int    // 1-based column number
	Message string // Error description
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Column, e.Message)
}

// CompileError represents a semantic error during compilation.
type CompileError struct {
	Line    int    // 1-based line number, 0 if unknown
	Column  int    // 1-based column number, 0 if unknown
	Message string // Error description
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("compile error at %d:%d: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("compile error: %s", e.Message)
}

// RuntimeError represents a fatal error during execution.
type RuntimeError struct {
	// Kind is "type" for a value that cannot be converted, "resource"
	// for unreadable input or unwritable output, and "ownership" for a
	// string lifetime defect in generated code.
	Kind    string
	Message string
	Err     error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// ExitError reports a program that finished with a non-zero status.
type ExitError struct {
	Code int // Exit status code
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit %d", e.Code)
}

// IsExitError reports whether err is an ExitError and returns the exit code.
// Returns (code, true) if err is an ExitError, or (0, false) otherwise.
func IsExitError(err error) (int, bool) {
	var e *ExitError
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}

// runtimeError converts an engine error to a *RuntimeError.
func runtimeError(err error) error {
	var re *runtime.Error
	if errors.As(err, &re) {
		return &RuntimeError{Kind: re.Kind.String(), Message: re.Message, Err: re}
	}
	return &RuntimeError{Message: err.Error(), Err: err}
}
