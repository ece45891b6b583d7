// Package token defines lexical tokens for the awkjit language.
package token

// Token represents a lexical token type.
type Token uint8

const (
	// Special tokens
	ILLEGAL Token = iota
	EOF
	NEWLINE

	// Operators and delimiters
	operatorStart
	ADD        // +
	SUB        // -
	MUL        // *
	DIV        // /
	ASSIGN     // =
	EQUALS     // ==
	NOT_EQUALS // !=
	LESS       // <
	LTE        // <=
	GREATER    // >
	GTE        // >=
	AND        // &&
	OR         // ||
	NOT        // !
	LPAREN     // (
	RPAREN     // )
	LBRACE     // {
	RBRACE     // }
	COMMA      // ,
	SEMICOLON  // ;
	DOLLAR     // $
	operatorEnd

	// Keywords
	keywordStart
	BEGIN // BEGIN
	END   // END
	IF    // if
	ELSE  // else
	WHILE // while
	PRINT // print
	keywordEnd

	// RESERVED is an AWK word this language does not implement
	// (printf, function, getline, ...). The parser reports it by name.
	RESERVED

	// Literals
	NAME
	NUMBER
	STRING
)

var names = [...]string{
	ILLEGAL:    "<illegal>",
	EOF:        "EOF",
	NEWLINE:    "<newline>",
	ADD:        "+",
	SUB:        "-",
	MUL:        "*",
	DIV:        "/",
	ASSIGN:     "=",
	EQUALS:     "==",
	NOT_EQUALS: "!=",
	LESS:       "<",
	LTE:        "<=",
	GREATER:    ">",
	GTE:        ">=",
	AND:        "&&",
	OR:         "||",
	NOT:        "!",
	LPAREN:     "(",
	RPAREN:     ")",
	LBRACE:     "{",
	RBRACE:     "}",
	COMMA:      ",",
	SEMICOLON:  ";",
	DOLLAR:     "$",
	BEGIN:      "BEGIN",
	END:        "END",
	IF:         "if",
	ELSE:       "else",
	WHILE:      "while",
	PRINT:      "print",
	RESERVED:   "<reserved>",
	NAME:       "name",
	NUMBER:     "number",
	STRING:     "string",
}

// String returns the source spelling of operators and keywords,
// and a descriptive name for everything else.
func (t Token) String() string {
	if int(t) < len(names) && names[t] != "" {
		return names[t]
	}
	return "<unknown>"
}

// IsOperator returns true if the token is an operator.
func (t Token) IsOperator() bool {
	return t > operatorStart && t < operatorEnd
}

// IsKeyword returns true if the token is a keyword.
func (t Token) IsKeyword() bool {
	return t > keywordStart && t < keywordEnd
}

// IsLiteral returns true if the token is a literal (name, number, string).
func (t Token) IsLiteral() bool {
	return t == NAME || t == NUMBER || t == STRING
}

// IsComparison returns true for the six relational operators.
func (t Token) IsComparison() bool {
	switch t {
	case LESS, LTE, GREATER, GTE, EQUALS, NOT_EQUALS:
		return true
	}
	return false
}

// keywords maps keyword strings to their token types.
var keywords = map[string]Token{
	"BEGIN": BEGIN,
	"END":   END,
	"if":    IF,
	"else":  ELSE,
	"while": WHILE,
	"print": PRINT,
}

// reserved lists AWK keywords and builtins outside this language.
var reserved = map[string]bool{
	"for": true, "do": true, "break": true, "continue": true,
	"function": true, "func": true, "return": true, "delete": true,
	"exit": true, "next": true, "nextfile": true, "getline": true,
	"printf": true, "in": true,
	"length": true, "substr": true, "index": true, "split": true,
	"sub": true, "gsub": true, "match": true, "sprintf": true,
	"tolower": true, "toupper": true, "int": true, "sqrt": true,
	"system": true, "close": true,
}

// LookupIdent returns the token type for a given identifier.
// Returns a keyword or RESERVED token if found, otherwise NAME.
func LookupIdent(ident string) Token {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	if reserved[ident] {
		return RESERVED
	}
	return NAME
}

// LookupKeyword returns the token type for a keyword, or ILLEGAL if not found.
func LookupKeyword(name string) Token {
	if tok, ok := keywords[name]; ok {
		return tok
	}
	return ILLEGAL
}
