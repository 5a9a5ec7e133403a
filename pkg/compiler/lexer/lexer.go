// Package lexer turns gem source text into a token sequence.
package lexer

import (
	"fmt"
	"strconv"

	"github.com/zurustar/gem/pkg/compiler/token"
)

// Error is a lexical error. Lexing stops at the first one.
type Error struct {
	Message string
	Text    string // offending source text
	Line    int
	Column  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %q at line %d, column %d", e.Message, e.Text, e.Line, e.Column)
}

// Lexer tokenizes gem source code.
type Lexer struct {
	input        string
	position     int  // current position in input
	readPosition int  // current reading position (after current char)
	ch           byte // current char
	line         int
	column       int
}

// New creates a new Lexer.
func New(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
	}
	l.readChar()
	return l
}

// Tokenize scans the whole input. The result always ends with an EOF token.
// On failure no tokens are returned.
func Tokenize(input string) ([]token.Token, error) {
	l := New(input)
	var tokens []token.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens, nil
		}
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() (token.Token, error) {
	l.skipWhitespaceAndComments()

	line, column := l.line, l.column

	var tok token.Token
	switch l.ch {
	case '=':
		tok = l.twoCharToken('=', token.EQ, token.ASSIGN)
	case '!':
		tok = l.twoCharToken('=', token.NOT_EQ, token.BANG)
	case '<':
		tok = l.twoCharToken('=', token.LTE, token.LT)
	case '>':
		tok = l.twoCharToken('=', token.GTE, token.GT)
	case '*':
		tok = l.twoCharToken('=', token.ASTERISK_ASSIGN, token.ASTERISK)
	case '/':
		tok = l.twoCharToken('=', token.SLASH_ASSIGN, token.SLASH)
	case '+':
		if l.peekChar() == '+' {
			tok = l.twoCharToken('+', token.INCREMENT, token.PLUS)
		} else {
			tok = l.twoCharToken('=', token.PLUS_ASSIGN, token.PLUS)
		}
	case '-':
		if l.peekChar() == '-' {
			tok = l.twoCharToken('-', token.DECREMENT, token.MINUS)
		} else {
			tok = l.twoCharToken('=', token.MINUS_ASSIGN, token.MINUS)
		}
	case '.':
		tok = l.newToken(token.DOT)
	case '(':
		tok = l.newToken(token.LPAREN)
	case ')':
		tok = l.newToken(token.RPAREN)
	case '{':
		tok = l.newToken(token.LBRACE)
	case '}':
		tok = l.newToken(token.RBRACE)
	case '[':
		tok = l.newToken(token.LBRACKET)
	case ']':
		tok = l.newToken(token.RBRACKET)
	case ',':
		tok = l.newToken(token.COMMA)
	case ';':
		tok = l.newToken(token.SEMICOLON)
	case '"':
		lit, ok := l.readString()
		if !ok {
			return token.Token{}, &Error{Message: "unterminated string", Text: lit, Line: line, Column: column}
		}
		tok = token.Token{Type: token.STRING, Literal: lit}
	case 0:
		tok = token.Token{Type: token.EOF}
	default:
		switch {
		case isLetter(l.ch):
			lit := l.readIdentifier()
			tok = token.Token{Type: token.LookupIdent(lit), Literal: lit, Line: line, Column: column}
			return tok, nil
		case isDigit(l.ch):
			tok, err := l.readNumber()
			if err != nil {
				return token.Token{}, &Error{Message: "malformed number", Text: tok.Literal, Line: line, Column: column}
			}
			tok.Line, tok.Column = line, column
			return tok, nil
		default:
			return token.Token{}, &Error{Message: "unexpected character", Text: string(l.ch), Line: line, Column: column}
		}
	}

	tok.Line, tok.Column = line, column
	l.readChar()
	return tok, nil
}

// twoCharToken emits double when the next char is second, otherwise single.
// It leaves the last consumed char current.
func (l *Lexer) twoCharToken(second byte, double, single token.TokenType) token.Token {
	if l.peekChar() == second {
		first := l.ch
		l.readChar()
		return token.Token{Type: double, Literal: string(first) + string(l.ch)}
	}
	return l.newToken(single)
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++

	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readNumber reads a maximal run of digits and dots. Trailing word
// characters are swallowed into the literal so "12ab" is reported whole.
func (l *Lexer) readNumber() (token.Token, error) {
	position := l.position
	for isDigit(l.ch) || l.ch == '.' {
		l.readChar()
	}
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	literal := l.input[position:l.position]
	tok := token.Token{Type: token.NUMBER, Literal: literal}

	value, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return tok, err
	}
	tok.Number = value
	return tok, nil
}

// readString reads up to the closing quote. Contents are taken verbatim.
func (l *Lexer) readString() (string, bool) {
	position := l.position + 1
	for {
		l.readChar()
		if l.ch == '"' {
			return l.input[position:l.position], true
		}
		if l.ch == 0 {
			return l.input[position:l.position], false
		}
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		default:
			return
		}
	}
}

func (l *Lexer) newToken(tokenType token.TokenType) token.Token {
	return token.Token{Type: tokenType, Literal: string(l.ch)}
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || ch >= 0x80
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
