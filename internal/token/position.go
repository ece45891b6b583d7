package token

import "fmt"

// Position is a location in program source.
type Position struct {
	Line   int // 1-based
	Column int // 1-based byte column
	Offset int // 0-based byte offset
}

// String formats the position as "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether the position was set by the lexer.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Before reports whether p precedes other.
func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Column < other.Column
}

// NoPos is the zero Position, used for synthesized nodes.
var NoPos = Position{}
