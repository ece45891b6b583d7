package semantic

import (
	"github.com/kolkov/awkjit/internal/ast"
	"github.com/kolkov/awkjit/internal/token"
	"github.com/kolkov/awkjit/internal/types"
)

// checkNumericLiterals warns about string literals in numeric position
// whose text does not parse as a number. Converting them is a fatal
// runtime error, so the program cannot reach past that point.
func checkNumericLiterals(stmt ast.Stmt, warnings *WarningList) {
	ast.Walk(stmt, func(n ast.Node) bool {
		switch e := n.(type) {
		case *ast.BinaryExpr:
			checkOperand(e.Left, warnings)
			checkOperand(e.Right, warnings)
		case *ast.UnaryExpr:
			if e.Op != token.NOT {
				checkOperand(e.Expr, warnings)
			}
		case *ast.FieldExpr:
			checkOperand(e.Index, warnings)
		}
		return true
	})
}

func checkOperand(expr ast.Expr, warnings *WarningList) {
	for {
		g, ok := expr.(*ast.GroupExpr)
		if !ok {
			break
		}
		expr = g.Expr
	}
	lit, ok := expr.(*ast.StrLit)
	if !ok {
		return
	}
	if _, err := types.ParseNum(lit.Value); err != nil {
		warnings.Add(lit.Pos(), warnNotNumeric, lit.Value)
	}
}
