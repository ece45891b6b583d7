// Package types defines the static type lattice and the runtime tagged
// value of awkjit programs.
package types

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Tag is the runtime discriminator stored in every value slot.
// The numeric values are part of the native ABI.
type Tag uint8

const (
	TagFloat  Tag = 0
	TagString Tag = 1
)

// String returns a string representation of the tag.
func (t Tag) String() string {
	switch t {
	case TagFloat:
		return "float"
	case TagString:
		return "string"
	default:
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
}

// Value is a runtime scalar: either a float or an owned string.
// It is the in-process form of the native (tag, float, pointer) triple.
type Value struct {
	tag Tag
	num float64
	str string
}

// Num creates a numeric value.
func Num(n float64) Value {
	return Value{tag: TagFloat, num: n}
}

// Str creates a string value.
func Str(s string) Value {
	return Value{tag: TagString, str: s}
}

// Bool creates a numeric value from a boolean (1 for true, 0 for false).
func Bool(b bool) Value {
	if b {
		return Num(1)
	}
	return Num(0)
}

// Tag returns the value's runtime tag.
func (v Value) Tag() Tag {
	return v.tag
}

// IsStr returns true if the value holds a string.
func (v Value) IsStr() bool {
	return v.tag == TagString
}

// Float returns the float payload. It is 0 for strings.
func (v Value) Float() float64 {
	return v.num
}

// Text returns the string payload. It is "" for floats.
func (v Value) Text() string {
	return v.str
}

// Truthy reports the value's truth: a float is true when nonzero, a
// string when non-empty. "0" is therefore true.
func (v Value) Truthy() bool {
	if v.tag == TagString {
		return v.str != ""
	}
	return v.num != 0
}

// ToNum coerces the value to a float. Strings must hold a complete
// number; see ParseNum.
func (v Value) ToNum() (float64, error) {
	if v.tag == TagFloat {
		return v.num, nil
	}
	return ParseNum(v.str)
}

// Format renders the value the way print does, using format for
// non-integral floats.
func (v Value) Format(format string) string {
	if v.tag == TagString {
		return v.str
	}
	return FormatNum(v.num, format)
}

// String returns a debug representation of the value.
func (v Value) String() string {
	if v.tag == TagString {
		return fmt.Sprintf("Str(%q)", v.str)
	}
	return fmt.Sprintf("Num(%s)", FormatNum(v.num, DefaultFloatFormat))
}

// DefaultFloatFormat is used to print non-integral floats.
const DefaultFloatFormat = "%.6g"

// ErrNotNumber is returned by ParseNum for malformed numeric text.
var ErrNotNumber = errors.New("not a number")

// ParseNum parses s as a number (strict parsing).
//
// Surrounding blanks are ignored and blank text is 0. Otherwise the text
// must be a decimal floating-point literal with optional sign, or one of
// nan, inf, +inf, -inf. Hex literals, digit separators and trailing
// garbage are rejected.
func ParseNum(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	switch strings.ToLower(s) {
	case "nan", "+nan", "-nan":
		return math.NaN(), nil
	case "inf", "+inf", "infinity", "+infinity":
		return math.Inf(1), nil
	case "-inf", "-infinity":
		return math.Inf(-1), nil
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isDigit(c) && c != '.' && c != 'e' && c != 'E' && c != '+' && c != '-' {
			return 0, fmt.Errorf("%w: %q", ErrNotNumber, s)
		}
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return n, nil
		}
		return 0, fmt.Errorf("%w: %q", ErrNotNumber, s)
	}
	return n, nil
}

// FormatNum formats a number as a string using the given format.
// Integral values are printed without a fraction.
func FormatNum(n float64, format string) string {
	switch {
	case math.IsNaN(n):
		return "nan"
	case math.IsInf(n, 1):
		return "inf"
	case math.IsInf(n, -1):
		return "-inf"
	case n == math.Trunc(n) && math.Abs(n) < 1e16:
		return strconv.FormatInt(int64(n), 10)
	case format == DefaultFloatFormat || format == "":
		return strconv.FormatFloat(n, 'g', 6, 64)
	default:
		return fmt.Sprintf(format, n)
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
