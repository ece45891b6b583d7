package lexer

import (
	"strings"
	"testing"

	"github.com/kolkov/awkjit/internal/token"
)

func TestScanBasicTokens(t *testing.T) {
	tests := []struct {
		input    string
		expected []token.Token
	}{
		{"+", []token.Token{token.ADD, token.EOF}},
		{"-", []token.Token{token.SUB, token.EOF}},
		{"*", []token.Token{token.MUL, token.EOF}},
		{"/", []token.Token{token.DIV, token.EOF}},
		{"=", []token.Token{token.ASSIGN, token.EOF}},
		{"==", []token.Token{token.EQUALS, token.EOF}},
		{"!=", []token.Token{token.NOT_EQUALS, token.EOF}},
		{"<", []token.Token{token.LESS, token.EOF}},
		{"<=", []token.Token{token.LTE, token.EOF}},
		{">", []token.Token{token.GREATER, token.EOF}},
		{">=", []token.Token{token.GTE, token.EOF}},
		{"!", []token.Token{token.NOT, token.EOF}},
		{"&&", []token.Token{token.AND, token.EOF}},
		{"||", []token.Token{token.OR, token.EOF}},
		{"(", []token.Token{token.LPAREN, token.EOF}},
		{")", []token.Token{token.RPAREN, token.EOF}},
		{"{", []token.Token{token.LBRACE, token.EOF}},
		{"}", []token.Token{token.RBRACE, token.EOF}},
		{",", []token.Token{token.COMMA, token.EOF}},
		{";", []token.Token{token.SEMICOLON, token.EOF}},
		{"$", []token.Token{token.DOLLAR, token.EOF}},
		{"\n", []token.Token{token.NEWLINE, token.EOF}},
		{"x=y==z", []token.Token{token.NAME, token.ASSIGN, token.NAME, token.EQUALS, token.NAME, token.EOF}},
		{"$1 $2", []token.Token{token.DOLLAR, token.NUMBER, token.DOLLAR, token.NUMBER, token.EOF}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l := NewFromString(tt.input)
			for i, exp := range tt.expected {
				tok := l.Scan()
				if tok.Type != exp {
					t.Errorf("token[%d]: expected %v, got %v", i, exp, tok.Type)
				}
			}
		})
	}
}

func TestScanKeywords(t *testing.T) {
	tests := []struct {
		input    string
		expected token.Token
	}{
		{"BEGIN", token.BEGIN},
		{"END", token.END},
		{"if", token.IF},
		{"else", token.ELSE},
		{"while", token.WHILE},
		{"print", token.PRINT},
		{"printf", token.RESERVED},
		{"function", token.RESERVED},
		{"getline", token.RESERVED},
		{"length", token.RESERVED},
		{"begin", token.NAME},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := NewFromString(tt.input).Scan()
			if tok.Type != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, tok.Type)
			}
			if tok.Value != tt.input {
				t.Errorf("expected value %q, got %q", tt.input, tok.Value)
			}
		})
	}
}

func TestScanNumbers(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"0", "0"},
		{"123", "123"},
		{"3.14", "3.14"},
		{".5", ".5"},
		{"1.", "1."},
		{"1e10", "1e10"},
		{"1.5e-3", "1.5e-3"},
		{"1.5E+3", "1.5E+3"},
		{"2e", "2"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := NewFromString(tt.input).Scan()
			if tok.Type != token.NUMBER {
				t.Fatalf("expected NUMBER, got %v", tok.Type)
			}
			if tok.Value != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tok.Value)
			}
		})
	}
}

func TestScanStrings(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"hello"`, "hello"},
		{`""`, ""},
		{`"a\nb"`, "a\nb"},
		{`"tab\there"`, "tab\there"},
		{`"q\"q"`, `q"q`},
		{`"back\\slash"`, `back\slash`},
		{`"keep\d"`, `keep\d`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := NewFromString(tt.input).Scan()
			if tok.Type != token.STRING {
				t.Fatalf("expected STRING, got %v (%s)", tok.Type, tok.Value)
			}
			if tok.Value != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tok.Value)
			}
		})
	}
}

func TestScanIllegal(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{`"open`, "unterminated string"},
		{"\"line\nbreak\"", "unterminated string"},
		{"x++", `"++"`},
		{"x += 1", `"+="`},
		{"a % b", `"%"`},
		{"a ~ b", `"~"`},
		{"a[1]", `"["`},
		{"a | b", `did you mean "||"?`},
		{"a & b", `unexpected '&', did you mean "&&"?`},
		{"a !~ b", "regular expressions are not available"},
		{"print 1 >> f", "output redirection is not available"},
		{"`", "unexpected character"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l := NewFromString(tt.input)
			for {
				tok := l.Scan()
				if tok.Type == token.EOF {
					t.Fatalf("no ILLEGAL token in %q", tt.input)
				}
				if tok.Type == token.ILLEGAL {
					if !strings.Contains(tok.Value, tt.msg) {
						t.Errorf("message %q does not contain %q", tok.Value, tt.msg)
					}
					return
				}
			}
		})
	}
}

func TestScanCommentsAndContinuation(t *testing.T) {
	l := NewFromString("x # comment\n\\\ny")
	want := []token.Token{token.NAME, token.NEWLINE, token.NAME, token.EOF}
	for i, exp := range want {
		if tok := l.Scan(); tok.Type != exp {
			t.Errorf("token[%d]: expected %v, got %v", i, exp, tok.Type)
		}
	}
}

func TestScanPositions(t *testing.T) {
	l := NewFromString("a\n  bb")
	tok := l.Scan()
	if tok.Pos.Line != 1 || tok.Pos.Column != 1 {
		t.Errorf("a at %v, want 1:1", tok.Pos)
	}
	l.Scan() // newline
	tok = l.Scan()
	if tok.Pos.Line != 2 || tok.Pos.Column != 3 || tok.Pos.Offset != 4 {
		t.Errorf("bb at %+v, want 2:3 offset 4", tok.Pos)
	}
}
