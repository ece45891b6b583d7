package runtime

import (
	"github.com/coregx/coregex"
)

// dotallPrefix is prepended to patterns so that dot matches newline,
// which paragraph-mode records contain.
const dotallPrefix = "(?s)"

// Regex wraps coregex for field and record separators. Matching is
// leftmost-longest, as POSIX ERE separators require.
type Regex struct {
	pattern string
	re      *coregex.Regexp
}

// CompileRegex compiles a separator pattern.
func CompileRegex(pattern string) (*Regex, error) {
	re, err := coregex.Compile(dotallPrefix + pattern)
	if err != nil {
		return nil, err
	}
	re.Longest()
	return &Regex{pattern: pattern, re: re}, nil
}

// Pattern returns the pattern as given, without the dotall prefix.
func (r *Regex) Pattern() string {
	return r.pattern
}

// FindNonEmptyIndex returns the bounds of the first match that is not
// empty, or nil. Empty matches never separate anything.
func (r *Regex) FindNonEmptyIndex(s string) []int {
	for _, loc := range r.re.FindAllStringIndex(s, -1) {
		if loc[1] > loc[0] {
			return loc
		}
	}
	return nil
}

// Split slices s around the separator matches. Empty matches never
// split, so a pattern that can match "" behaves like its non-empty
// matches alone.
func (r *Regex) Split(s string) []string {
	var parts []string
	start := 0
	for _, loc := range r.re.FindAllStringIndex(s, -1) {
		if loc[0] == loc[1] {
			continue
		}
		parts = append(parts, s[start:loc[0]])
		start = loc[1]
	}
	return append(parts, s[start:])
}
