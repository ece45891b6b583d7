package ast

import (
	"github.com/kolkov/awkjit/internal/token"
)

// Program represents a complete program as written:
//   - BEGIN blocks, executed before any input is read
//   - pattern-action rules, executed for each input record
//   - END blocks, executed after the input is exhausted
type Program struct {
	Begin []*BlockStmt

	// Rules are executed in order for each record.
	Rules []*Rule

	// EndBlocks is named to avoid a clash with the End method.
	EndBlocks []*BlockStmt

	StartPos token.Position
	EndPos   token.Position
}

// Pos returns the position of the first token in the program.
func (p *Program) Pos() token.Position { return p.StartPos }

// End returns the position after the last token in the program.
func (p *Program) End() token.Position { return p.EndPos }

// Rule represents a pattern-action rule.
// Examples:
//   - { print }               -> Pattern is nil (matches all records)
//   - $1 > 100 { print $2 }   -> Pattern is *BinaryExpr
//   - x                       -> Action is nil (prints the record)
type Rule struct {
	// Pattern decides whether Action runs. nil matches every record.
	Pattern Expr

	// Action to run. nil means { print $0 }.
	Action *BlockStmt

	StartPos token.Position
	EndPos   token.Position
}

// Pos returns the position of the first token in the rule.
func (r *Rule) Pos() token.Position { return r.StartPos }

// End returns the position after the last token in the rule.
func (r *Rule) End() token.Position { return r.EndPos }

// ReadsInput reports whether running the program consumes input records.
func (p *Program) ReadsInput() bool {
	return len(p.Rules) > 0 || len(p.EndBlocks) > 0
}

// Lower flattens the program into the single statement the compiler
// consumes:
//
//	BEGIN blocks...
//	while (<next record>) { rule1; rule2; ... }
//	END blocks...
//
// A rule with a pattern becomes if (pattern) action. A rule without an
// action prints the record. When there are END blocks but no rules the
// loop still runs, with an empty body, so END sees the input consumed.
func (p *Program) Lower() *BlockStmt {
	prog := &BlockStmt{BaseStmt: MakeBaseStmt(p.StartPos, p.EndPos)}
	for _, b := range p.Begin {
		prog.Stmts = append(prog.Stmts, b)
	}

	if p.ReadsInput() {
		body := &BlockStmt{}
		for _, r := range p.Rules {
			body.Stmts = append(body.Stmts, lowerRule(r))
		}
		prog.Stmts = append(prog.Stmts, &WhileStmt{
			Cond: &NextRecordExpr{},
			Body: body,
		})
	}

	for _, b := range p.EndBlocks {
		prog.Stmts = append(prog.Stmts, b)
	}
	return prog
}

func lowerRule(r *Rule) Stmt {
	var action Stmt = r.Action
	if r.Action == nil {
		action = &PrintStmt{
			BaseStmt: MakeBaseStmt(r.StartPos, r.EndPos),
			Expr:     WholeRecord(r.StartPos),
		}
	}
	if r.Pattern == nil {
		return action
	}
	return &IfStmt{
		BaseStmt: MakeBaseStmt(r.StartPos, r.EndPos),
		Cond:     r.Pattern,
		Then:     action,
	}
}

// WholeRecord builds the expression $0.
func WholeRecord(pos token.Position) Expr {
	return &FieldExpr{
		BaseExpr: MakeBaseExpr(pos, pos),
		Index:    &NumLit{BaseExpr: MakeBaseExpr(pos, pos), Value: 0, Raw: "0"},
	}
}
