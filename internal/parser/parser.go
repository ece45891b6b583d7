package parser

import (
	"strconv"

	"github.com/kolkov/awkjit/internal/ast"
	"github.com/kolkov/awkjit/internal/lexer"
	"github.com/kolkov/awkjit/internal/token"
)

// Parser is a recursive descent parser for awkjit programs.
//
// Parsing stops at the first error: the language is small enough that
// cascaded diagnostics help less than they confuse.
type Parser struct {
	lexer   *lexer.Lexer // Lexer instance
	tok     lexer.Token  // Current token
	prevTok lexer.Token  // Previous token
	errors  ErrorList    // Accumulated errors
}

// Parse parses a program from source code.
// Returns the AST and any parse errors encountered.
func Parse(src string) (*ast.Program, error) {
	return ParseBytes([]byte(src))
}

// ParseBytes parses a program from a byte slice.
func ParseBytes(src []byte) (*ast.Program, error) {
	p := &Parser{
		lexer: lexer.New(src),
	}
	p.next() // Initialize first token

	prog := p.parseProgram()

	if err := p.errors.Err(); err != nil {
		return nil, err
	}
	return prog, nil
}

// ParseExpr parses a single expression (useful for testing).
func ParseExpr(src string) (ast.Expr, error) {
	p := &Parser{
		lexer: lexer.New([]byte(src)),
	}
	p.next()

	expr := p.parseExpr()
	if !p.failed() && p.tok.Type != token.EOF {
		p.error(expectedError(p.tok.Pos, "end of expression", p.tokenDesc()))
	}

	if err := p.errors.Err(); err != nil {
		return nil, err
	}
	return expr, nil
}

// next shifts the lookahead by one token.
func (p *Parser) next() {
	p.prevTok = p.tok
	p.tok = p.lexer.Scan()
}

// expect consumes tok or records an error naming what was found instead.
func (p *Parser) expect(tok token.Token) bool {
	if p.tok.Type != tok {
		p.error(expectedError(p.tok.Pos, tok.String(), p.tokenDesc()))
		return false
	}
	p.next()
	return true
}

// match reports whether the current token is one of types.
func (p *Parser) match(types ...token.Token) bool {
	for _, t := range types {
		if p.tok.Type == t {
			return true
		}
	}
	return false
}

// tokenDesc renders the current token the way error messages quote it.
func (p *Parser) tokenDesc() string {
	switch p.tok.Type {
	case token.NAME, token.NUMBER, token.RESERVED:
		return p.tok.Value
	case token.STRING:
		return strconv.Quote(p.tok.Value)
	case token.ILLEGAL:
		// ILLEGAL token's Value contains the actual error message
		return p.tok.Value
	case token.NEWLINE:
		return "newline"
	case token.EOF:
		return "end of file"
	default:
		return p.tok.Type.String()
	}
}

// error records a parse error.
func (p *Parser) error(err *ParseError) {
	p.errors = append(p.errors, err)
}

// errorf records an error at the current token.
func (p *Parser) errorf(format string, args ...any) {
	p.error(errorf(p.tok.Pos, format, args...))
}

func (p *Parser) failed() bool {
	return len(p.errors) > 0
}

// optionalNewlines skips newlines where AWK allows a line break.
func (p *Parser) optionalNewlines() {
	for p.tok.Type == token.NEWLINE {
		p.next()
	}
}

// isTerminator returns true if current token is a statement terminator.
func (p *Parser) isTerminator() bool {
	return p.match(token.NEWLINE, token.SEMICOLON, token.RBRACE, token.EOF)
}

// skipTerminators skips newlines and semicolons.
func (p *Parser) skipTerminators() {
	for p.match(token.NEWLINE, token.SEMICOLON) {
		p.next()
	}
}

// parseProgram parses a complete program.
func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{
		StartPos: p.tok.Pos,
	}

	// A pattern without an action must be followed by a terminator
	// before the next item.
	needsTerminator := false

	for p.tok.Type != token.EOF && !p.failed() {
		if needsTerminator {
			if !p.match(token.NEWLINE, token.SEMICOLON) {
				p.errorf("expected ; or newline between items, got %s", p.tokenDesc())
				return prog
			}
			p.next()
			needsTerminator = false
		}
		p.skipTerminators()

		switch p.tok.Type {
		case token.EOF:
			// End of file

		case token.BEGIN:
			p.next()
			if block := p.parseBlock(); block != nil {
				prog.Begin = append(prog.Begin, block)
			}

		case token.END:
			p.next()
			if block := p.parseBlock(); block != nil {
				prog.EndBlocks = append(prog.EndBlocks, block)
			}

		default:
			rule := p.parseRule()
			if rule != nil {
				prog.Rules = append(prog.Rules, rule)
				if rule.Action == nil {
					needsTerminator = true
				}
			}
		}
	}

	prog.EndPos = p.tok.Pos
	return prog
}

// parseRule parses a pattern-action rule.
func (p *Parser) parseRule() *ast.Rule {
	rule := &ast.Rule{StartPos: p.tok.Pos}

	if p.tok.Type != token.LBRACE {
		rule.Pattern = p.parseExpr()
		if p.failed() {
			return nil
		}
		if p.tok.Type == token.COMMA {
			p.errorf("range patterns are not supported; track the range in a variable")
			return nil
		}
	}

	if p.tok.Type == token.LBRACE {
		rule.Action = p.parseBlock()
	}

	rule.EndPos = p.tok.Pos
	return rule
}

// parseBlock parses a block statement { ... }.
func (p *Parser) parseBlock() *ast.BlockStmt {
	startPos := p.tok.Pos
	if !p.expect(token.LBRACE) {
		return nil
	}
	p.optionalNewlines()

	var stmts []ast.Stmt
	for p.tok.Type != token.RBRACE && p.tok.Type != token.EOF && !p.failed() {
		if p.match(token.SEMICOLON, token.NEWLINE) {
			p.next()
			continue
		}
		if stmt := p.parseStmt(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	if p.failed() {
		return nil
	}

	endPos := p.tok.Pos
	p.expect(token.RBRACE)

	// Skip trailing semicolon
	if p.tok.Type == token.SEMICOLON {
		p.next()
	}

	return &ast.BlockStmt{
		BaseStmt: ast.MakeBaseStmt(startPos, endPos),
		Stmts:    stmts,
	}
}

// parseStmt parses any statement.
func (p *Parser) parseStmt() ast.Stmt {
	var stmt ast.Stmt
	switch p.tok.Type {
	case token.IF:
		stmt = p.parseIfStmt()
	case token.WHILE:
		stmt = p.parseWhileStmt()
	case token.LBRACE:
		stmt = p.parseBlock()
	default:
		stmt = p.parseSimpleStmt()
		if !p.failed() && !p.isTerminator() && p.tok.Type != token.ELSE {
			// else may follow the then-branch of an if on the same line.
			p.error(expectedError(p.tok.Pos, "; or newline", p.tokenDesc()))
		}
	}
	if p.failed() {
		return nil
	}
	return stmt
}

// parseSimpleStmt parses a print or expression statement.
func (p *Parser) parseSimpleStmt() ast.Stmt {
	startPos := p.tok.Pos

	if p.tok.Type == token.PRINT {
		if stmt := p.parsePrintStmt(); stmt != nil {
			return stmt
		}
		return nil
	}

	expr := p.parseExpr()
	if expr == nil {
		return nil
	}
	return &ast.ExprStmt{
		BaseStmt: ast.MakeBaseStmt(startPos, p.tok.Pos),
		Expr:     expr,
	}
}

// parseIfStmt parses an if statement.
func (p *Parser) parseIfStmt() *ast.IfStmt {
	startPos := p.tok.Pos
	p.next() // consume 'if'

	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	p.optionalNewlines()
	if p.failed() {
		return nil
	}

	then := p.parseBody()
	if p.failed() {
		return nil
	}
	p.skipTerminators() // Skip ; or newlines between then and else

	var elseStmt ast.Stmt
	if p.tok.Type == token.ELSE {
		p.next()
		p.optionalNewlines()
		elseStmt = p.parseBody()
	}
	if p.failed() {
		return nil
	}

	return &ast.IfStmt{
		BaseStmt: ast.MakeBaseStmt(startPos, p.tok.Pos),
		Cond:     cond,
		Then:     then,
		Else:     elseStmt,
	}
}

// parseWhileStmt parses a while statement.
func (p *Parser) parseWhileStmt() *ast.WhileStmt {
	startPos := p.tok.Pos
	p.next() // consume 'while'

	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	p.optionalNewlines()
	if p.failed() {
		return nil
	}

	body := p.parseBody()
	if p.failed() {
		return nil
	}

	return &ast.WhileStmt{
		BaseStmt: ast.MakeBaseStmt(startPos, p.tok.Pos),
		Cond:     cond,
		Body:     body,
	}
}

// parseBody parses the statement controlled by if, else or while.
// A lone semicolon is an empty body.
func (p *Parser) parseBody() ast.Stmt {
	if p.tok.Type == token.SEMICOLON {
		pos := p.tok.Pos
		p.next()
		return &ast.BlockStmt{BaseStmt: ast.MakeBaseStmt(pos, p.tok.Pos)}
	}
	return p.parseStmt()
}

// parsePrintStmt parses a print statement. A bare print prints $0.
func (p *Parser) parsePrintStmt() *ast.PrintStmt {
	startPos := p.tok.Pos
	p.next() // consume 'print'

	var expr ast.Expr
	if p.isTerminator() || p.tok.Type == token.ELSE {
		expr = ast.WholeRecord(startPos)
	} else {
		expr = p.parsePrintExpr()
		if p.failed() {
			return nil
		}
	}

	switch p.tok.Type {
	case token.COMMA:
		p.errorf("print with more than one argument is not supported; use one print per value")
		return nil
	case token.GREATER:
		p.errorf("output redirection is not supported; print writes to standard output")
		return nil
	}

	return &ast.PrintStmt{
		BaseStmt: ast.MakeBaseStmt(startPos, p.tok.Pos),
		Expr:     expr,
	}
}

// parseExpr parses a full expression.
func (p *Parser) parseExpr() ast.Expr {
	return p.parseAssign(p.parseOr)
}

// parsePrintExpr parses an expression in print context (no > comparison).
func (p *Parser) parsePrintExpr() ast.Expr {
	return p.parseAssign(p.parsePrintOr)
}

// parseAssign parses right-associative assignment. Only a plain
// variable may be assigned.
func (p *Parser) parseAssign(higher func() ast.Expr) ast.Expr {
	expr := higher()
	if expr == nil || p.tok.Type != token.ASSIGN {
		return expr
	}

	pos := p.tok.Pos
	p.next()
	p.optionalNewlines()
	right := p.parseAssign(higher)
	if right == nil {
		return nil
	}

	switch target := expr.(type) {
	case *ast.Ident:
		return &ast.AssignExpr{
			BaseExpr: ast.MakeBaseExpr(target.Pos(), right.End()),
			Name:     target,
			Right:    right,
		}
	case *ast.FieldExpr:
		p.error(errorf(pos, "assignment to fields is not supported; copy the field into a variable"))
	default:
		p.error(errorf(pos, "left side of assignment must be a variable"))
	}
	return nil
}

// parseOr is the lowest binary level.
func (p *Parser) parseOr() ast.Expr {
	return p.parseLogical(p.parseAnd, token.OR)
}

func (p *Parser) parsePrintOr() ast.Expr {
	return p.parseLogical(p.parsePrintAnd, token.OR)
}

// parseAnd parses && expressions.
func (p *Parser) parseAnd() ast.Expr {
	return p.parseLogical(p.parseCompare, token.AND)
}

func (p *Parser) parsePrintAnd() ast.Expr {
	return p.parseLogical(p.parsePrintCompare, token.AND)
}

func (p *Parser) parseCompare() ast.Expr {
	return p._parseCompare(token.EQUALS, token.NOT_EQUALS, token.LESS, token.LTE, token.GTE, token.GREATER)
}

func (p *Parser) parsePrintCompare() ast.Expr {
	// In print context, > is redirect, not comparison
	return p._parseCompare(token.EQUALS, token.NOT_EQUALS, token.LESS, token.LTE, token.GTE)
}

func (p *Parser) _parseCompare(ops ...token.Token) ast.Expr {
	expr := p.parseConcat()
	if expr == nil {
		return nil
	}

	if p.match(ops...) {
		op := p.tok.Type
		p.next()
		right := p.parseConcat() // Not associative
		if right == nil {
			return nil
		}
		return &ast.BinaryExpr{
			BaseExpr: ast.MakeBaseExpr(expr.Pos(), right.End()),
			Left:     expr,
			Op:       op,
			Right:    right,
		}
	}
	return expr
}

// parseConcat parses an additive expression and rejects AWK's implicit
// concatenation, which would otherwise silently parse as two
// statements or a different expression.
func (p *Parser) parseConcat() ast.Expr {
	expr := p.parseAdd()
	if expr == nil {
		return nil
	}
	if p.canStartPrimary() {
		p.errorf("string concatenation is not supported; separate statements with ; or a newline")
		return nil
	}
	return expr
}

// canStartPrimary reports whether an operand could begin here, which after
// a complete expression means implicit concatenation.
func (p *Parser) canStartPrimary() bool {
	switch p.tok.Type {
	case token.DOLLAR, token.NOT, token.NAME, token.NUMBER, token.STRING, token.LPAREN:
		return true
	}
	return false
}

// parseAdd parses + and - expressions.
func (p *Parser) parseAdd() ast.Expr {
	return p.parseBinaryLeft(p.parseMul, token.ADD, token.SUB)
}

// parseMul parses * and / expressions.
func (p *Parser) parseMul() ast.Expr {
	return p.parseBinaryLeft(p.parseUnary, token.MUL, token.DIV)
}

// parseUnary parses prefix -, + and !.
func (p *Parser) parseUnary() ast.Expr {
	if !p.match(token.SUB, token.ADD, token.NOT) {
		return p.parsePrimary()
	}
	startPos := p.tok.Pos
	op := p.tok.Type
	p.next()
	expr := p.parseUnary()
	if expr == nil {
		return nil
	}
	return &ast.UnaryExpr{
		BaseExpr: ast.MakeBaseExpr(startPos, expr.End()),
		Op:       op,
		Expr:     expr,
	}
}

// parsePrimary parses literals, variables, fields and groups.
func (p *Parser) parsePrimary() ast.Expr {
	startPos := p.tok.Pos

	switch p.tok.Type {
	case token.NUMBER:
		// The lexer only produces valid decimal literals; an overflow
		// still yields the correctly signed infinity.
		n, _ := strconv.ParseFloat(p.tok.Value, 64)
		p.next()
		return &ast.NumLit{
			BaseExpr: ast.MakeBaseExpr(startPos, p.tok.Pos),
			Value:    n,
			Raw:      p.prevTok.Value,
		}

	case token.STRING:
		s := p.tok.Value
		p.next()
		return &ast.StrLit{
			BaseExpr: ast.MakeBaseExpr(startPos, p.tok.Pos),
			Value:    s,
		}

	case token.NAME:
		name := p.tok.Value
		p.next()
		if p.tok.Type == token.LPAREN && p.tok.Pos.Offset == startPos.Offset+len(name) {
			p.error(errorf(startPos, "function calls are not supported: %s(...)", name))
			return nil
		}
		return &ast.Ident{
			BaseExpr: ast.MakeBaseExpr(startPos, p.tok.Pos),
			Name:     name,
		}

	case token.DOLLAR:
		p.next()
		var index ast.Expr
		if p.match(token.SUB, token.ADD, token.NOT) {
			index = p.parseUnary()
		} else {
			index = p.parsePrimary()
		}
		if index == nil {
			return nil
		}
		return &ast.FieldExpr{
			BaseExpr: ast.MakeBaseExpr(startPos, index.End()),
			Index:    index,
		}

	case token.LPAREN:
		p.next()
		p.optionalNewlines()
		expr := p.parseExpr()
		if expr == nil {
			return nil
		}
		if p.tok.Type == token.COMMA {
			p.errorf("grouping (a, b) is not supported; parentheses hold one expression")
			return nil
		}
		if !p.expect(token.RPAREN) {
			return nil
		}
		return &ast.GroupExpr{
			BaseExpr: ast.MakeBaseExpr(startPos, p.tok.Pos),
			Expr:     expr,
		}

	case token.RESERVED:
		p.errorf("%s", unsupportedWord(p.tok.Value))
		return nil

	case token.DIV:
		p.errorf("regular expression patterns are not supported; compare a field with ==")
		return nil

	case token.ILLEGAL:
		p.errorf("%s", p.tok.Value)
		return nil

	default:
		p.errorf("unexpected %s", p.tokenDesc())
		return nil
	}
}

// parseBinaryLeft parses left-associative arithmetic operators.
func (p *Parser) parseBinaryLeft(higher func() ast.Expr, ops ...token.Token) ast.Expr {
	expr := higher()
	if expr == nil {
		return nil
	}

	for p.match(ops...) {
		op := p.tok.Type
		p.next()
		right := higher()
		if right == nil {
			return nil
		}
		expr = &ast.BinaryExpr{
			BaseExpr: ast.MakeBaseExpr(expr.Pos(), right.End()),
			Left:     expr,
			Op:       op,
			Right:    right,
		}
	}
	return expr
}

// parseLogical parses left-associative && or ||. A newline may follow
// the operator.
func (p *Parser) parseLogical(higher func() ast.Expr, op token.Token) ast.Expr {
	expr := higher()
	if expr == nil {
		return nil
	}

	for p.tok.Type == op {
		p.next()
		p.optionalNewlines()
		right := higher()
		if right == nil {
			return nil
		}
		expr = &ast.LogicalExpr{
			BaseExpr: ast.MakeBaseExpr(expr.Pos(), right.End()),
			Left:     expr,
			Op:       op,
			Right:    right,
		}
	}
	return expr
}

// wordHints suggests what to write instead of an AWK word this language
// leaves out.
var wordHints = map[string]string{
	"printf":   "use print",
	"for":      "use while",
	"do":       "use while",
	"getline":  "records are read by the rule loop",
	"next":     "guard the rule with a pattern",
	"function": "inline the body",
	"func":     "inline the body",
}

var builtins = map[string]bool{
	"length": true, "substr": true, "index": true, "split": true,
	"sub": true, "gsub": true, "match": true, "sprintf": true,
	"tolower": true, "toupper": true, "int": true, "sqrt": true,
	"system": true, "close": true,
}

func unsupportedWord(word string) string {
	if hint, ok := wordHints[word]; ok {
		return word + " is not supported; " + hint
	}
	if builtins[word] {
		return "builtin function " + word + " is not supported"
	}
	return word + " is not supported"
}
