// Package compiler - static type analysis.
//
// Every expression is given one of three static types:
//
//   - Float: the value is always a double
//   - String: the value is always a heap string
//   - Variable: either, decided by a run-time tag
//
// Rules:
//   - Numeric literals, arithmetic, comparisons, logical and unary
//     operators, and the next-record test -> Float
//   - String literals and field access -> String
//   - Variable reads -> the variable's type at that point, Float if it
//     was never assigned on the way there
//   - Assignments -> the type of the right-hand side
//
// At if/else and && / || the environments of the two paths are joined
// per variable. A variable assigned on only one path becomes Variable.
// Loops are re-analyzed until the loop-entry environment stops changing.
package compiler

import (
	"maps"
	"slices"

	"github.com/kolkov/awkjit/internal/ast"
	"github.com/kolkov/awkjit/internal/types"
)

// TypeEnv maps variable names to their static type at a program point.
// Names that were never assigned are absent.
type TypeEnv map[string]types.Type

// Clone returns an independent copy of env.
func (env TypeEnv) Clone() TypeEnv {
	return maps.Clone(env)
}

// Lookup returns the type of name, defaulting to Float for variables
// that were never assigned.
func (env TypeEnv) Lookup(name string) types.Type {
	if t, ok := env[name]; ok {
		return t
	}
	return types.Float
}

// Names returns the assigned names in sorted order.
func (env TypeEnv) Names() []string {
	return slices.Sorted(maps.Keys(env))
}

// Equal reports whether env and other assign the same types to the same
// names.
func (env TypeEnv) Equal(other TypeEnv) bool {
	return maps.Equal(env, other)
}

// Join combines the environments of two control-flow paths. Each name
// present in both is merged on the lattice; a name assigned on only one
// path becomes Variable.
func Join(a, b TypeEnv) TypeEnv {
	out := make(TypeEnv, max(len(a), len(b)))
	for name, ta := range a {
		if tb, ok := b[name]; ok {
			out[name] = types.Merge(ta, tb)
		} else {
			out[name] = types.Variable
		}
	}
	for name := range b {
		if _, ok := a[name]; !ok {
			out[name] = types.Variable
		}
	}
	return out
}

// Analyze annotates every expression in stmt with its static type and
// returns the environment at the end of the statement.
func Analyze(stmt ast.Stmt) TypeEnv {
	return newAnalyzer().stmt(stmt, TypeEnv{})
}

// analyzer performs type analysis and remembers the environments the
// code generator needs at control-flow merge points.
type analyzer struct {
	// merged holds, for each if and while statement, the environment at
	// its merge point: after the join for if, the loop-entry fixpoint
	// for while.
	merged map[ast.Stmt]TypeEnv

	// passes counts loop analysis passes, for tests.
	passes map[*ast.WhileStmt]int
}

func newAnalyzer() *analyzer {
	return &analyzer{
		merged: make(map[ast.Stmt]TypeEnv),
		passes: make(map[*ast.WhileStmt]int),
	}
}

// stmt analyzes s starting from env and returns the resulting
// environment. env may be modified.
func (a *analyzer) stmt(s ast.Stmt, env TypeEnv) TypeEnv {
	switch s := s.(type) {
	case nil:
		return env

	case *ast.ExprStmt:
		return a.expr(s.Expr, env)

	case *ast.PrintStmt:
		return a.expr(s.Expr, env)

	case *ast.BlockStmt:
		if s == nil {
			return env
		}
		for _, st := range s.Stmts {
			env = a.stmt(st, env)
		}
		return env

	case *ast.IfStmt:
		env = a.expr(s.Cond, env)
		then := a.stmt(s.Then, env.Clone())
		els := a.stmt(s.Else, env.Clone())
		out := Join(then, els)
		a.merged[s] = out
		return out

	case *ast.WhileStmt:
		return a.while(s, env)

	default:
		panic(&CompileError{Message: "unexpected statement in type analysis"})
	}
}

// while analyzes a loop. The first pass starts from the pre-loop
// environment and joins the post-body environment back into it. The
// second pass re-analyzes test and body against that join, so uses
// visited before a promotion see it. Further passes run while the
// loop-entry environment still changes; a chain of assignments through
// several variables needs one pass per link.
//
// The loop is left after a failed test, so the result is the loop-entry
// environment with the test's effects applied, not the entry itself.
func (a *analyzer) while(s *ast.WhileStmt, env TypeEnv) TypeEnv {
	entry := env
	for pass := 1; ; pass++ {
		exit := a.expr(s.Cond, entry.Clone())
		body := a.stmt(s.Body, exit.Clone())
		next := Join(entry, body)
		if pass >= 2 && next.Equal(entry) {
			a.passes[s] = pass
			a.merged[s] = next
			return exit
		}
		entry = next
	}
}

// expr annotates e and returns the environment after evaluating it.
func (a *analyzer) expr(e ast.Expr, env TypeEnv) TypeEnv {
	switch e := e.(type) {
	case *ast.NumLit:
		e.SetType(types.Float)

	case *ast.StrLit:
		e.SetType(types.String)

	case *ast.Ident:
		e.SetType(env.Lookup(e.Name))

	case *ast.AssignExpr:
		env = a.expr(e.Right, env)
		t := e.Right.Type()
		e.Prev = env.Lookup(e.Name.Name)
		env[e.Name.Name] = t
		e.Name.SetType(t)
		e.SetType(t)

	case *ast.FieldExpr:
		env = a.expr(e.Index, env)
		e.SetType(types.String)

	case *ast.BinaryExpr:
		env = a.expr(e.Left, env)
		env = a.expr(e.Right, env)
		e.SetType(types.Float)

	case *ast.LogicalExpr:
		// The right operand may not run, so its effects are joined with
		// the environment after the left one.
		env = a.expr(e.Left, env)
		right := a.expr(e.Right, env.Clone())
		env = Join(env, right)
		e.SetType(types.Float)

	case *ast.UnaryExpr:
		env = a.expr(e.Expr, env)
		e.SetType(types.Float)

	case *ast.GroupExpr:
		env = a.expr(e.Expr, env)
		e.SetType(e.Expr.Type())

	case *ast.NextRecordExpr:
		e.SetType(types.Float)

	default:
		panic(&CompileError{Message: "unexpected expression in type analysis"})
	}
	return env
}
