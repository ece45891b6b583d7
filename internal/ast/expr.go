package ast

import (
	"github.com/kolkov/awkjit/internal/token"
	"github.com/kolkov/awkjit/internal/types"
)

// NumLit represents a numeric literal.
// Examples: 42, 3.14, 1e10
type NumLit struct {
	BaseExpr
	Value float64 // Parsed numeric value
	Raw   string  // Original source text
}

// StrLit represents a string literal.
// Examples: "hello", "world\n"
type StrLit struct {
	BaseExpr
	Value string // Unescaped string value
}

// Ident represents a variable read.
type Ident struct {
	BaseExpr
	Name string
}

// FieldExpr represents a field reference.
// Examples: $0, $1, $(i+1)
type FieldExpr struct {
	BaseExpr
	Index Expr
}

// AssignExpr represents an assignment expression. Its value is the
// assigned value.
// Example: x = y = 1
type AssignExpr struct {
	BaseExpr
	Name  *Ident
	Right Expr

	// Prev is the variable's static type just before the store. Type
	// analysis sets it; code generation uses it to decide whether the
	// old value may hold a string that must be released.
	Prev types.Type
}

// BinaryExpr represents an arithmetic or comparison operation.
// Op is one of ADD, SUB, MUL, DIV, LESS, LTE, GREATER, GTE, EQUALS,
// NOT_EQUALS.
type BinaryExpr struct {
	BaseExpr
	Left  Expr
	Op    token.Token
	Right Expr
}

// LogicalExpr represents a short-circuit && or ||.
type LogicalExpr struct {
	BaseExpr
	Left  Expr
	Op    token.Token // AND or OR
	Right Expr
}

// UnaryExpr represents -x, +x or !x.
type UnaryExpr struct {
	BaseExpr
	Op   token.Token // SUB, ADD or NOT
	Expr Expr
}

// GroupExpr represents a parenthesized expression.
type GroupExpr struct {
	BaseExpr
	Expr Expr
}

// NextRecordExpr advances the input to the next record and yields 1 if
// there was one, 0 at end of input. It has no source syntax; Lower
// inserts it as the condition of the record loop.
type NextRecordExpr struct {
	BaseExpr
}

// IsComparison reports whether op is a relational operator.
func IsComparison(op token.Token) bool {
	return op.IsComparison()
}

// Ensure all expression types implement Expr interface.
var (
	_ Expr = (*NumLit)(nil)
	_ Expr = (*StrLit)(nil)
	_ Expr = (*Ident)(nil)
	_ Expr = (*FieldExpr)(nil)
	_ Expr = (*AssignExpr)(nil)
	_ Expr = (*BinaryExpr)(nil)
	_ Expr = (*LogicalExpr)(nil)
	_ Expr = (*UnaryExpr)(nil)
	_ Expr = (*GroupExpr)(nil)
	_ Expr = (*NextRecordExpr)(nil)
)
