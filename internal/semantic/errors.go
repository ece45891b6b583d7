// Package semantic resolves the variables of a lowered awkjit program.
//
// The analyzer:
//   - collects the distinct variable names in order of first appearance,
//     which fixes the storage layout used by the compiler
//   - rejects AWK built-in variables (NR, NF, FS, ...), which this
//     language does not provide
//   - warns about reads of variables that are never assigned and about
//     string literals that can never be converted to a number
//
// Variables are global and created on first use. There is no function
// scope and no arrays.
package semantic

import (
	"fmt"
	"strings"

	"github.com/kolkov/awkjit/internal/token"
)

// Error represents a semantic analysis error with source location.
type Error struct {
	Pos     token.Position
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// Warning represents a semantic warning (non-fatal issue).
type Warning struct {
	Pos     token.Position
	Message string
}

// String returns the warning as a formatted string.
func (w *Warning) String() string {
	return fmt.Sprintf("%s: warning: %s", w.Pos, w.Message)
}

// ErrorList is a collection of semantic errors.
type ErrorList []*Error

// Add appends an error to the list.
func (el *ErrorList) Add(pos token.Position, format string, args ...any) {
	*el = append(*el, &Error{
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	})
}

// Err returns an error if the list is non-empty, nil otherwise.
func (el ErrorList) Err() error {
	if len(el) == 0 {
		return nil
	}
	return el
}

// Error implements the error interface for ErrorList.
func (el ErrorList) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	default:
		var sb strings.Builder
		sb.WriteString(el[0].Error())
		for _, e := range el[1:] {
			sb.WriteByte('\n')
			sb.WriteString(e.Error())
		}
		return sb.String()
	}
}

// WarningList is a collection of semantic warnings.
type WarningList []*Warning

// Add appends a warning to the list.
func (wl *WarningList) Add(pos token.Position, format string, args ...any) {
	*wl = append(*wl, &Warning{
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	})
}

// Strings returns the formatted warnings.
func (wl WarningList) Strings() []string {
	out := make([]string, len(wl))
	for i, w := range wl {
		out[i] = w.String()
	}
	return out
}

const (
	errSpecialVar = "built-in variable %s is not supported"

	warnNeverAssigned = "variable %q is read but never assigned; it is always 0"
	warnNotNumeric    = "string %q is used as a number but is not numeric"
)
