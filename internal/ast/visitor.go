package ast

// Walk traverses an AST in depth-first order.
// For each node, it calls fn(node). If fn returns false,
// the children of that node are not visited.
//
// Example: Count all variable reads
//
//	count := 0
//	ast.Walk(prog, func(n ast.Node) bool {
//	    if _, ok := n.(*ast.Ident); ok {
//	        count++
//	    }
//	    return true
//	})
func Walk(node Node, fn func(Node) bool) {
	if isNil(node) || !fn(node) {
		return
	}

	switch n := node.(type) {
	case *Program:
		for _, b := range n.Begin {
			Walk(b, fn)
		}
		for _, r := range n.Rules {
			Walk(r, fn)
		}
		for _, b := range n.EndBlocks {
			Walk(b, fn)
		}

	case *Rule:
		Walk(n.Pattern, fn)
		Walk(n.Action, fn)

	case *NumLit, *StrLit, *Ident, *NextRecordExpr:
		// no children

	case *FieldExpr:
		Walk(n.Index, fn)

	case *AssignExpr:
		Walk(n.Name, fn)
		Walk(n.Right, fn)

	case *BinaryExpr:
		Walk(n.Left, fn)
		Walk(n.Right, fn)

	case *LogicalExpr:
		Walk(n.Left, fn)
		Walk(n.Right, fn)

	case *UnaryExpr:
		Walk(n.Expr, fn)

	case *GroupExpr:
		Walk(n.Expr, fn)

	case *ExprStmt:
		Walk(n.Expr, fn)

	case *PrintStmt:
		Walk(n.Expr, fn)

	case *BlockStmt:
		for _, s := range n.Stmts {
			Walk(s, fn)
		}

	case *IfStmt:
		Walk(n.Cond, fn)
		Walk(n.Then, fn)
		Walk(n.Else, fn)

	case *WhileStmt:
		Walk(n.Cond, fn)
		Walk(n.Body, fn)
	}
}

// isNil catches typed nils such as a nil *BlockStmt stored in a Node.
func isNil(node Node) bool {
	switch n := node.(type) {
	case nil:
		return true
	case *BlockStmt:
		return n == nil
	case *Ident:
		return n == nil
	}
	return false
}
