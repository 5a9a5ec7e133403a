// Package token defines the lexical tokens of gem source files (.em).
package token

import "fmt"

// TokenType represents the kind of a token.
type TokenType string

// Token is a single lexical token. Number tokens carry their parsed value.
type Token struct {
	Type    TokenType
	Literal string
	Number  float64
	Line    int
	Column  int
}

const (
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"

	// Identifiers + Literals
	IDENT  TokenType = "IDENT"  // foo, print
	NUMBER TokenType = "NUMBER" // 12, 3.5
	STRING TokenType = "STRING" // "abc"

	// Single-character operators
	PLUS     TokenType = "+"
	MINUS    TokenType = "-"
	ASTERISK TokenType = "*"
	SLASH    TokenType = "/"
	BANG     TokenType = "!"
	DOT      TokenType = "."
	ASSIGN   TokenType = "="

	// Relational operators
	EQ     TokenType = "=="
	NOT_EQ TokenType = "!="
	LT     TokenType = "<"
	LTE    TokenType = "<="
	GT     TokenType = ">"
	GTE    TokenType = ">="

	// Compound operators
	PLUS_ASSIGN     TokenType = "+="
	MINUS_ASSIGN    TokenType = "-="
	ASTERISK_ASSIGN TokenType = "*="
	SLASH_ASSIGN    TokenType = "/="
	INCREMENT       TokenType = "++"
	DECREMENT       TokenType = "--"

	// Delimiters
	COMMA     TokenType = ","
	SEMICOLON TokenType = ";"
	LPAREN    TokenType = "("
	RPAREN    TokenType = ")"
	LBRACE    TokenType = "{"
	RBRACE    TokenType = "}"
	LBRACKET  TokenType = "["
	RBRACKET  TokenType = "]"

	// Keywords
	FN     TokenType = "FN"
	RETURN TokenType = "RETURN"
	TRUE   TokenType = "TRUE"
	FALSE  TokenType = "FALSE"
	WHILE  TokenType = "WHILE"
	FOR    TokenType = "FOR"
	IF     TokenType = "IF"
	ELIF   TokenType = "ELIF"
	ELSE   TokenType = "ELSE"
	CLASS  TokenType = "CLASS"
	NEW    TokenType = "NEW"
)

var keywords = map[string]TokenType{
	"fn":     FN,
	"return": RETURN,
	"true":   TRUE,
	"false":  FALSE,
	"while":  WHILE,
	"for":    FOR,
	"if":     IF,
	"elif":   ELIF,
	"else":   ELSE,
	"class":  CLASS,
	"new":    NEW,
}

// LookupIdent returns the keyword type for ident, or IDENT.
// Builtin names such as print and read are plain identifiers.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword reports whether t is one of the reserved words.
func (t TokenType) IsKeyword() bool {
	for _, kw := range keywords {
		if kw == t {
			return true
		}
	}
	return false
}

// IsRelational reports whether t compares two values.
func (t TokenType) IsRelational() bool {
	switch t {
	case EQ, NOT_EQ, LT, LTE, GT, GTE:
		return true
	}
	return false
}

// IsCompound reports whether t is an operator that desugars into an assignment.
func (t TokenType) IsCompound() bool {
	switch t {
	case PLUS_ASSIGN, MINUS_ASSIGN, ASTERISK_ASSIGN, SLASH_ASSIGN, INCREMENT, DECREMENT:
		return true
	}
	return false
}

// IsArithmetic reports whether t is one of + - * /.
func (t TokenType) IsArithmetic() bool {
	switch t {
	case PLUS, MINUS, ASTERISK, SLASH:
		return true
	}
	return false
}

// IsBinaryOperator reports whether t starts the right-hand side of an operation.
func (t TokenType) IsBinaryOperator() bool {
	return t.IsArithmetic() || t.IsRelational() || t.IsCompound() || t == ASSIGN
}

// String renders a token for diagnostics.
func (t Token) String() string {
	switch t.Type {
	case IDENT, NUMBER:
		return fmt.Sprintf("%s(%s)", t.Type, t.Literal)
	case STRING:
		return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
	case EOF:
		return "EOF"
	}
	if t.Type.IsKeyword() {
		return fmt.Sprintf("keyword(%s)", t.Literal)
	}
	return fmt.Sprintf("'%s'", t.Literal)
}
