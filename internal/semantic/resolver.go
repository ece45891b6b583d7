package semantic

import (
	"github.com/kolkov/awkjit/internal/ast"
)

// ResolveResult contains the results of semantic analysis.
type ResolveResult struct {
	// Variable symbols, indexed by first appearance
	Symbols *SymbolTable

	// Ordered list of variable names (for storage allocation)
	Vars []string

	// Errors encountered during resolution
	Errors ErrorList

	// Warnings (non-fatal issues)
	Warnings WarningList
}

// Resolver walks a lowered program and records its variables.
type Resolver struct {
	result *ResolveResult
}

// Resolve performs semantic analysis on a lowered program.
// The result is returned even when there are errors, so callers can
// still report warnings.
func Resolve(stmt ast.Stmt) (*ResolveResult, error) {
	r := &Resolver{
		result: &ResolveResult{
			Symbols: NewSymbolTable(),
		},
	}

	r.resolveStmt(stmt)
	r.finalize()
	checkNumericLiterals(stmt, &r.result.Warnings)

	if err := r.result.Errors.Err(); err != nil {
		return r.result, err
	}
	return r.result, nil
}

func (r *Resolver) resolveStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case nil:
	case *ast.ExprStmt:
		r.resolveExpr(s.Expr)
	case *ast.PrintStmt:
		r.resolveExpr(s.Expr)
	case *ast.BlockStmt:
		if s == nil {
			return
		}
		for _, st := range s.Stmts {
			r.resolveStmt(st)
		}
	case *ast.IfStmt:
		r.resolveExpr(s.Cond)
		r.resolveStmt(s.Then)
		r.resolveStmt(s.Else)
	case *ast.WhileStmt:
		r.resolveExpr(s.Cond)
		r.resolveStmt(s.Body)
	}
}

func (r *Resolver) resolveExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case nil:
	case *ast.Ident:
		r.define(e).Read = true
	case *ast.AssignExpr:
		// The target appears first in the source.
		r.define(e.Name).Assigned = true
		r.resolveExpr(e.Right)
	case *ast.FieldExpr:
		r.resolveExpr(e.Index)
	case *ast.BinaryExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)
	case *ast.LogicalExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)
	case *ast.UnaryExpr:
		r.resolveExpr(e.Expr)
	case *ast.GroupExpr:
		r.resolveExpr(e.Expr)
	}
}

func (r *Resolver) define(id *ast.Ident) *Symbol {
	if _, seen := r.result.Symbols.Lookup(id.Name); !seen && IsSpecialVar(id.Name) {
		r.result.Errors.Add(id.Pos(), errSpecialVar, id.Name)
	}
	return r.result.Symbols.Define(id.Name, id.Pos())
}

// finalize fixes the variable order and reports never-assigned reads.
func (r *Resolver) finalize() {
	r.result.Vars = r.result.Symbols.Names()
	r.result.Symbols.ForEach(func(sym *Symbol) {
		if sym.Read && !sym.Assigned && !IsSpecialVar(sym.Name) {
			r.result.Warnings.Add(sym.Pos, warnNeverAssigned, sym.Name)
		}
	})
}
