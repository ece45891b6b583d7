package ast

// ExprStmt represents an expression used as a statement.
// Example: x = 1
type ExprStmt struct {
	BaseStmt
	Expr Expr
}

// PrintStmt prints one value followed by a newline.
// Examples: print, print $1, print (x > 1)
type PrintStmt struct {
	BaseStmt
	Expr Expr // never nil; a bare print is given $0 by the parser
}

// BlockStmt represents a sequence of statements.
type BlockStmt struct {
	BaseStmt
	Stmts []Stmt
}

// IfStmt represents an if or if-else statement.
type IfStmt struct {
	BaseStmt
	Cond Expr
	Then Stmt
	Else Stmt // nil if there is no else
}

// WhileStmt represents a while loop.
type WhileStmt struct {
	BaseStmt
	Cond Expr
	Body Stmt
}

// Ensure all statement types implement Stmt interface.
var (
	_ Stmt = (*ExprStmt)(nil)
	_ Stmt = (*PrintStmt)(nil)
	_ Stmt = (*BlockStmt)(nil)
	_ Stmt = (*IfStmt)(nil)
	_ Stmt = (*WhileStmt)(nil)
)
