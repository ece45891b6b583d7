// Package lexer turns awkjit program source into tokens.
package lexer

import (
	"github.com/kolkov/awkjit/internal/token"
)

// Lexer tokenizes program source.
type Lexer struct {
	src     []byte         // Source code
	ch      byte           // Current character (0 at EOF)
	offset  int            // Offset of the next character
	pos     token.Position // Position of ch
	nextPos token.Position // Position of the next character
}

// New creates a new Lexer for the given source code.
func New(src []byte) *Lexer {
	l := &Lexer{
		src:     src,
		nextPos: token.Position{Line: 1, Column: 1},
	}
	l.next()
	return l
}

// NewFromString creates a new Lexer from a string.
func NewFromString(src string) *Lexer {
	return New([]byte(src))
}

// Token is a scanned token with its position and value. For ILLEGAL
// tokens Value holds the error message.
type Token struct {
	Type  token.Token
	Pos   token.Position
	Value string
}

// Scan scans and returns the next token.
func (l *Lexer) Scan() Token {
	l.skipWhitespace()
	if l.ch == '#' {
		l.skipComment()
	}

	pos := l.pos
	if l.ch == 0 {
		return Token{Type: token.EOF, Pos: pos}
	}

	switch l.ch {
	case '\n':
		l.next()
		return Token{Type: token.NEWLINE, Pos: pos}
	case '+':
		return l.single(pos, token.ADD, "+=", "++")
	case '-':
		return l.single(pos, token.SUB, "-=", "--")
	case '*':
		return l.single(pos, token.MUL, "*=", "**")
	case '/':
		return l.single(pos, token.DIV, "/=", "")
	case '=':
		return l.pair(pos, '=', token.ASSIGN, token.EQUALS)
	case '<':
		return l.pair(pos, '=', token.LESS, token.LTE)
	case '>':
		l.next()
		switch l.ch {
		case '=':
			l.next()
			return Token{Type: token.GTE, Pos: pos, Value: ">="}
		case '>':
			l.next()
			return illegal(pos, `unsupported operator ">>": output redirection is not available`)
		}
		return Token{Type: token.GREATER, Pos: pos, Value: ">"}
	case '!':
		l.next()
		switch l.ch {
		case '=':
			l.next()
			return Token{Type: token.NOT_EQUALS, Pos: pos, Value: "!="}
		case '~':
			l.next()
			return illegal(pos, `unsupported operator "!~": regular expressions are not available`)
		}
		return Token{Type: token.NOT, Pos: pos, Value: "!"}
	case '&':
		l.next()
		if l.ch == '&' {
			l.next()
			return Token{Type: token.AND, Pos: pos, Value: "&&"}
		}
		return illegal(pos, "unexpected '&', did you mean \"&&\"?")
	case '|':
		l.next()
		if l.ch == '|' {
			l.next()
			return Token{Type: token.OR, Pos: pos, Value: "||"}
		}
		return illegal(pos, `unsupported operator "|", did you mean "||"?`)
	case '(':
		l.next()
		return Token{Type: token.LPAREN, Pos: pos, Value: "("}
	case ')':
		l.next()
		return Token{Type: token.RPAREN, Pos: pos, Value: ")"}
	case '{':
		l.next()
		return Token{Type: token.LBRACE, Pos: pos, Value: "{"}
	case '}':
		l.next()
		return Token{Type: token.RBRACE, Pos: pos, Value: "}"}
	case ',':
		l.next()
		return Token{Type: token.COMMA, Pos: pos, Value: ","}
	case ';':
		l.next()
		return Token{Type: token.SEMICOLON, Pos: pos, Value: ";"}
	case '$':
		l.next()
		return Token{Type: token.DOLLAR, Pos: pos, Value: "$"}
	case '%', '^', '~', '[', ']', '?', ':', '@':
		ch := l.ch
		l.next()
		return illegal(pos, "unsupported operator \""+string(ch)+"\"")
	case '"':
		return l.scanString(pos)
	}

	if isDigit(l.ch) || (l.ch == '.' && l.offset < len(l.src) && isDigit(l.src[l.offset])) {
		return l.scanNumber(pos)
	}
	if isIdentStart(l.ch) {
		return l.scanIdent(pos)
	}
	ch := l.ch
	l.next()
	return illegal(pos, "unexpected character "+quoteByte(ch))
}

// single scans a one-character operator, rejecting the AWK compound
// forms (op= and doubled op) this language leaves out.
func (l *Lexer) single(pos token.Position, tok token.Token, assignOp, doubled string) Token {
	ch := l.ch
	l.next()
	if l.ch == '=' {
		l.next()
		return illegal(pos, "unsupported operator \""+assignOp+"\"")
	}
	if doubled != "" && l.ch == ch {
		l.next()
		return illegal(pos, "unsupported operator \""+doubled+"\"")
	}
	return Token{Type: tok, Pos: pos, Value: string(ch)}
}

// pair scans ch or ch followed by second.
func (l *Lexer) pair(pos token.Position, second byte, one, two token.Token) Token {
	l.next()
	if l.ch == second {
		l.next()
		return Token{Type: two, Pos: pos, Value: two.String()}
	}
	return Token{Type: one, Pos: pos, Value: one.String()}
}

func (l *Lexer) scanString(pos token.Position) Token {
	l.next() // opening quote

	var sb []byte
	for l.ch != 0 && l.ch != '"' && l.ch != '\n' {
		if l.ch != '\\' {
			sb = append(sb, l.ch)
			l.next()
			continue
		}
		l.next()
		switch l.ch {
		case 'n':
			sb = append(sb, '\n')
		case 't':
			sb = append(sb, '\t')
		case 'r':
			sb = append(sb, '\r')
		case '\\':
			sb = append(sb, '\\')
		case '"':
			sb = append(sb, '"')
		case '/':
			sb = append(sb, '/')
		case 0:
			return illegal(pos, "unterminated string")
		default:
			sb = append(sb, '\\', l.ch)
		}
		l.next()
	}

	if l.ch != '"' {
		return illegal(pos, "unterminated string")
	}
	l.next()
	return Token{Type: token.STRING, Pos: pos, Value: string(sb)}
}

func (l *Lexer) scanNumber(pos token.Position) Token {
	start := pos.Offset
	for isDigit(l.ch) {
		l.next()
	}
	if l.ch == '.' {
		l.next()
		for isDigit(l.ch) {
			l.next()
		}
	}
	// Only consume e/E when a valid exponent follows, so "1e" is 1 then e.
	if (l.ch == 'e' || l.ch == 'E') && l.hasValidExponent() {
		l.next()
		if l.ch == '+' || l.ch == '-' {
			l.next()
		}
		for isDigit(l.ch) {
			l.next()
		}
	}
	return Token{Type: token.NUMBER, Pos: pos, Value: string(l.src[start:l.endOffset()])}
}

func (l *Lexer) scanIdent(pos token.Position) Token {
	start := pos.Offset
	for isIdentContinue(l.ch) {
		l.next()
	}
	name := string(l.src[start:l.endOffset()])
	return Token{Type: token.LookupIdent(name), Pos: pos, Value: name}
}

// endOffset returns the end offset for slicing l.src. At EOF l.pos is
// not advanced, so the source length is used instead.
func (l *Lexer) endOffset() int {
	if l.ch == 0 {
		return len(l.src)
	}
	return l.pos.Offset
}

func (l *Lexer) hasValidExponent() bool {
	idx := l.offset
	if idx >= len(l.src) {
		return false
	}
	ch := l.src[idx]
	if isDigit(ch) {
		return true
	}
	return (ch == '+' || ch == '-') && idx+1 < len(l.src) && isDigit(l.src[idx+1])
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\\' {
		if l.ch == '\\' {
			// Line continuation
			l.next()
			if l.ch == '\r' {
				l.next()
			}
			if l.ch != '\n' {
				return
			}
		}
		l.next()
	}
}

func (l *Lexer) skipComment() {
	for l.ch != 0 && l.ch != '\n' {
		l.next()
	}
}

func (l *Lexer) next() {
	if l.offset >= len(l.src) {
		l.ch = 0
		l.pos = l.nextPos
		return
	}
	l.pos = l.nextPos
	l.ch = l.src[l.offset]
	l.offset++
	l.nextPos.Column++
	l.nextPos.Offset = l.offset
	if l.ch == '\n' {
		l.nextPos.Line++
		l.nextPos.Column = 1
	}
}

func illegal(pos token.Position, msg string) Token {
	return Token{Type: token.ILLEGAL, Pos: pos, Value: msg}
}

func quoteByte(ch byte) string {
	if ch < ' ' || ch >= 0x7f {
		const hex = "0123456789abcdef"
		return `'\x` + string(hex[ch>>4]) + string(hex[ch&0xf]) + `'`
	}
	return "'" + string(ch) + "'"
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentContinue(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
