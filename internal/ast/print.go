package ast

import (
	"fmt"
	"io"
	"strings"

	"github.com/kolkov/awkjit/internal/token"
)

// Printer pretty-prints AST nodes for debugging. With ShowTypes set,
// every expression is suffixed with its static type (:F, :S, :V).
type Printer struct {
	ShowTypes bool

	w      io.Writer
	indent int
	err    error
}

// NewPrinter creates a new Printer that writes to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Print writes a pretty-printed representation of the node to the writer.
func (p *Printer) Print(node Node) error {
	p.printNode(node)
	return p.err
}

// String pretty-prints node without type annotations.
func String(node Node) string {
	var sb strings.Builder
	_ = NewPrinter(&sb).Print(node)
	return sb.String()
}

// TypedString pretty-prints node with type annotations.
func TypedString(node Node) string {
	var sb strings.Builder
	p := NewPrinter(&sb)
	p.ShowTypes = true
	_ = p.Print(node)
	return sb.String()
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) writeIndent() {
	p.printf("%s", strings.Repeat("    ", p.indent))
}

func (p *Printer) printNode(node Node) {
	switch n := node.(type) {
	case nil:
		p.printf("<nil>")
	case *Program:
		p.printProgram(n)
	case *Rule:
		p.printRule(n)
	case Expr:
		p.printExpr(n)
	case Stmt:
		p.printStmt(n)
	default:
		p.printf("<%T>", node)
	}
}

func (p *Printer) printProgram(prog *Program) {
	for _, b := range prog.Begin {
		p.printf("BEGIN ")
		p.printStmt(b)
		p.printf("\n")
	}
	for _, r := range prog.Rules {
		p.printRule(r)
		p.printf("\n")
	}
	for _, b := range prog.EndBlocks {
		p.printf("END ")
		p.printStmt(b)
		p.printf("\n")
	}
}

func (p *Printer) printRule(r *Rule) {
	if r.Pattern != nil {
		p.printExpr(r.Pattern)
		if r.Action != nil {
			p.printf(" ")
		}
	}
	if r.Action != nil {
		p.printStmt(r.Action)
	}
}

func (p *Printer) printExpr(e Expr) {
	switch n := e.(type) {
	case nil:
		p.printf("<nil>")
		return

	case *NumLit:
		if n.Raw != "" {
			p.printf("%s", n.Raw)
		} else {
			p.printf("%g", n.Value)
		}

	case *StrLit:
		p.printf("%q", n.Value)

	case *Ident:
		p.printf("%s", n.Name)

	case *FieldExpr:
		p.printf("$")
		_, simple := n.Index.(*NumLit)
		if !simple {
			p.printf("(")
		}
		p.printExpr(n.Index)
		if !simple {
			p.printf(")")
		}

	case *AssignExpr:
		p.printf("%s", n.Name.Name)
		if p.ShowTypes {
			p.printf(":%s", n.Name.Type().Short())
		}
		p.printf(" = ")
		p.printExpr(n.Right)

	case *BinaryExpr:
		p.printOperands(n.Left, n.Op, n.Right)

	case *LogicalExpr:
		p.printOperands(n.Left, n.Op, n.Right)

	case *UnaryExpr:
		p.printf("%s", n.Op)
		p.printExpr(n.Expr)

	case *GroupExpr:
		p.printf("(")
		p.printExpr(n.Expr)
		p.printf(")")

	case *NextRecordExpr:
		p.printf("<next record>")

	default:
		p.printf("<%T>", e)
		return
	}

	if p.ShowTypes {
		p.printf(":%s", e.Type().Short())
	}
}

func (p *Printer) printOperands(left Expr, op token.Token, right Expr) {
	if p.ShowTypes {
		p.printf("(")
	}
	p.printExpr(left)
	p.printf(" %s ", op)
	p.printExpr(right)
	if p.ShowTypes {
		p.printf(")")
	}
}

func (p *Printer) printStmt(s Stmt) {
	switch n := s.(type) {
	case nil:
		p.printf("<nil>")

	case *ExprStmt:
		p.printExpr(n.Expr)

	case *PrintStmt:
		p.printf("print ")
		p.printExpr(n.Expr)

	case *BlockStmt:
		if n == nil {
			p.printf("{}")
			return
		}
		p.printf("{\n")
		p.indent++
		for _, stmt := range n.Stmts {
			p.writeIndent()
			p.printStmt(stmt)
			p.printf("\n")
		}
		p.indent--
		p.writeIndent()
		p.printf("}")

	case *IfStmt:
		p.printf("if (")
		p.printExpr(n.Cond)
		p.printf(") ")
		p.printStmt(n.Then)
		if n.Else != nil {
			p.printf(" else ")
			p.printStmt(n.Else)
		}

	case *WhileStmt:
		p.printf("while (")
		p.printExpr(n.Cond)
		p.printf(") ")
		p.printStmt(n.Body)

	default:
		p.printf("<%T>", s)
	}
}
