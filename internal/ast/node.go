// Package ast defines the syntax tree of awkjit programs.
//
// Every expression node carries a mutable static type slot. The parser
// leaves it at types.Unset and the compiler's type analysis fills it in
// place, so the same tree is both the untyped parser output and the
// annotated input of code generation.
//
// Node hierarchy:
//
//	Node (interface)
//	├── Expr (interface) - expressions that produce values
//	│   ├── NumLit, StrLit - literals
//	│   ├── Ident, FieldExpr - references
//	│   ├── AssignExpr - assignment to a variable
//	│   ├── BinaryExpr, LogicalExpr, UnaryExpr, GroupExpr - operations
//	│   └── NextRecordExpr - next-record test inserted by Lower
//	├── Stmt (interface) - statements that perform actions
//	│   ├── ExprStmt, PrintStmt - basic
//	│   ├── IfStmt, WhileStmt - control flow
//	│   └── BlockStmt - sequence
//	└── Program, Rule - top-level structures
package ast

import (
	"github.com/kolkov/awkjit/internal/token"
	"github.com/kolkov/awkjit/internal/types"
)

// Node is the interface implemented by all AST nodes.
type Node interface {
	// Pos returns the position of the first character belonging to this node.
	Pos() token.Position

	// End returns the position of the first character immediately after this node.
	End() token.Position
}

// Expr is the interface for all expression nodes.
type Expr interface {
	Node

	// Type returns the static type written by type analysis.
	Type() types.Type

	// SetType records the node's static type.
	SetType(types.Type)

	exprNode()
}

// Stmt is the interface for all statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// BaseExpr provides common fields for all expression nodes.
type BaseExpr struct {
	StartPos token.Position
	EndPos   token.Position
	Typ      types.Type
}

func (b *BaseExpr) Pos() token.Position  { return b.StartPos }
func (b *BaseExpr) End() token.Position  { return b.EndPos }
func (b *BaseExpr) Type() types.Type     { return b.Typ }
func (b *BaseExpr) SetType(t types.Type) { b.Typ = t }
func (b *BaseExpr) exprNode()            {}

// BaseStmt provides common fields for all statement nodes.
type BaseStmt struct {
	StartPos token.Position
	EndPos   token.Position
}

func (b *BaseStmt) Pos() token.Position { return b.StartPos }
func (b *BaseStmt) End() token.Position { return b.EndPos }
func (b *BaseStmt) stmtNode()           {}

// MakeBaseExpr creates a BaseExpr with the given positions.
func MakeBaseExpr(start, end token.Position) BaseExpr {
	return BaseExpr{StartPos: start, EndPos: end}
}

// MakeBaseStmt creates a BaseStmt with the given positions.
func MakeBaseStmt(start, end token.Position) BaseStmt {
	return BaseStmt{StartPos: start, EndPos: end}
}
