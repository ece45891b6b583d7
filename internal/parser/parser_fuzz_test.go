package parser_test

import (
	"testing"

	"github.com/kolkov/awkjit/internal/parser"
)

// FuzzParser tests the parser with random inputs to find crashes.
func FuzzParser(f *testing.F) {
	seeds := []string{
		"",
		"{}",
		"{ print }",
		"BEGIN { print }",
		"END { print }",
		"BEGIN { x = 0 } { x = x + 1 } END { print x }",
		"$1 > 0",
		"$1 > 0 { print $2 }",
		"{ print $(1+2) }",
		"{ print a + b * c }",
		"{ print a && b || !c }",
		"BEGIN { if (x) print 1; else print 2 }",
		"BEGIN { while (x < 4) { x = x + 1; print x; } print 555; }",
		`BEGIN { y = "abc"; if (x) { x = y } print x }`,
		"BEGIN { x = ((y = 123) + (z = 4)) }",
		// Invalid programs
		"{",
		"}",
		"BEGIN",
		"{ print (",
		"{ x = }",
		"/re/",
		"{ a[1] }",
		"function f() {}",
		"{ print 1 > 2 }",
		"\"unterminated",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, src string) {
		prog, err := parser.Parse(src)
		if err == nil && prog == nil {
			t.Error("Parse returned nil program without error")
		}
		if err != nil && prog != nil {
			t.Error("Parse returned both program and error")
		}
		if err == nil {
			// A successfully parsed program always lowers.
			_ = prog.Lower()
		}
	})
}
