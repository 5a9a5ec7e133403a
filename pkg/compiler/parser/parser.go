// Package parser builds a syntax tree from gem tokens.
//
// Binary operators have no precedence levels. An operator groups the operand
// before it with everything that follows up to the enclosing terminator, so
// 2 + 3 * 4 parses as 2 + (3 * 4) and 10 - 2 - 3 as 10 - (2 - 3).
// Parentheses are the only way to group differently.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zurustar/gem/pkg/compiler/ast"
	"github.com/zurustar/gem/pkg/compiler/token"
)

// Error is a syntax error. Found is the offending token.
type Error struct {
	Expected string // description of what was expected, empty if not applicable
	Found    token.Token
	Message  string
}

func (e *Error) Error() string {
	if e.Expected != "" {
		return fmt.Sprintf("expected %s, got %s instead at line %d, column %d",
			e.Expected, e.Found, e.Found.Line, e.Found.Column)
	}
	return fmt.Sprintf("%s: %s at line %d, column %d", e.Message, e.Found, e.Found.Line, e.Found.Column)
}

// IsIncomplete reports whether err was caused by input ending too early,
// which means more lines could complete it.
func IsIncomplete(err error) bool {
	var parseErr *Error
	return errors.As(err, &parseErr) && parseErr.Found.Type == token.EOF
}

// Hook method names inside a class body.
const (
	InitHook    = "init"
	DisplayHook = "display"
)

var statementEnds = []token.TokenType{token.SEMICOLON, token.RBRACE, token.EOF}

// Parser parses a token sequence into an AST.
type Parser struct {
	tokens []token.Token
	pos    int

	curToken  token.Token
	peekToken token.Token
}

// New creates a new Parser. tokens must end with an EOF token.
func New(tokens []token.Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != token.EOF {
		tokens = append(tokens, token.Token{Type: token.EOF})
	}
	p := &Parser{tokens: tokens, pos: -2}
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a whole program.
func Parse(tokens []token.Token) (*ast.Block, error) {
	return New(tokens).ParseProgram()
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.pos++
	if p.pos+1 < len(p.tokens) {
		p.peekToken = p.tokens[p.pos+1]
	} else {
		p.peekToken = p.tokens[len(p.tokens)-1]
	}
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

// expectCur checks the current token without consuming it.
func (p *Parser) expectCur(t token.TokenType) error {
	if !p.curTokenIs(t) {
		return p.expectedError(describe(t))
	}
	return nil
}

// expectPeek advances when the next token has type t.
func (p *Parser) expectPeek(t token.TokenType) error {
	if !p.peekTokenIs(t) {
		return &Error{Expected: describe(t), Found: p.peekToken}
	}
	p.nextToken()
	return nil
}

func (p *Parser) expectedError(expected string) *Error {
	return &Error{Expected: expected, Found: p.curToken}
}

// ParseProgram parses statements up to EOF.
func (p *Parser) ParseProgram() (*ast.Block, error) {
	program := &ast.Block{Token: p.curToken}
	for !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.RBRACE) {
			return nil, &Error{Message: "unmatched closing brace", Found: p.curToken}
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
	}
	return program, nil
}

// parseBlock parses { statements }. The current token must be '{'.
func (p *Parser) parseBlock() (*ast.Block, error) {
	if err := p.expectCur(token.LBRACE); err != nil {
		return nil, err
	}
	block := &ast.Block{Token: p.curToken}
	p.nextToken()

	for !p.curTokenIs(token.RBRACE) {
		if p.curTokenIs(token.EOF) {
			return nil, p.expectedError(describe(token.RBRACE))
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
	}
	p.nextToken()
	return block, nil
}

// parseStatement dispatches on the leading token. A nil node means an empty statement.
func (p *Parser) parseStatement() (ast.Node, error) {
	switch p.curToken.Type {
	case token.SEMICOLON:
		p.nextToken()
		return nil, nil
	case token.FN:
		return p.parseFunctionDefinition()
	case token.RETURN:
		return p.parseReturn()
	case token.WHILE:
		return p.parseWhile()
	case token.FOR:
		return p.parseFor()
	case token.IF:
		return p.parseIf()
	case token.CLASS:
		return p.parseClass()
	case token.LBRACE:
		return p.parseBlock()
	case token.IDENT:
		if p.isCommandCall() {
			return p.parseCommandCall()
		}
	}
	if !startsOperand(p.curToken.Type) && !p.curTokenIs(token.MINUS) && !p.curTokenIs(token.BANG) && !p.curTokenIs(token.LPAREN) {
		return nil, &Error{Message: "unexpected token", Found: p.curToken}
	}
	return p.parseExpressionStatement()
}

func (p *Parser) parseExpressionStatement() (ast.Node, error) {
	expr, err := p.parseExpression(statementEnds...)
	if err != nil {
		return nil, err
	}
	if p.curTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
	return expr, nil
}

// isCommandCall reports whether the identifier at curToken begins a
// command call such as `print "x";`, `println !done;` or `println -1;`.
// A '-' counts as a prefix only when it is separated from the name and
// attached to its operand, so `x - 1` and `x-1` stay subtractions.
func (p *Parser) isCommandCall() bool {
	next := p.peekToken
	switch next.Type {
	case token.LBRACKET:
		return false
	case token.BANG:
		return true
	case token.MINUS:
		return spaced(p.curToken, next) && !spaced(next, p.tokenAfterPeek())
	}
	return startsOperand(next.Type)
}

// tokenAfterPeek returns the token following peekToken.
func (p *Parser) tokenAfterPeek() token.Token {
	if p.pos+2 < len(p.tokens) {
		return p.tokens[p.pos+2]
	}
	return p.tokens[len(p.tokens)-1]
}

// spaced reports whether whitespace separates a from the token b after it.
func spaced(a, b token.Token) bool {
	return a.Line != b.Line || b.Column > a.Column+len(a.Literal)
}

// parseCommandCall parses `name operand...;` as a one-argument call.
func (p *Parser) parseCommandCall() (ast.Node, error) {
	call := &ast.Call{Token: p.curToken, Callee: p.curToken.Literal}
	p.nextToken()

	arg, err := p.parseExpression(statementEnds...)
	if err != nil {
		return nil, err
	}
	call.Arguments = []ast.Node{arg}
	if p.curTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
	return call, nil
}

// parseExpression reads one operand and, when an operator follows, makes the
// rest of the expression its right-hand side. It stops on one of ends
// without consuming it.
func (p *Parser) parseExpression(ends ...token.TokenType) (ast.Node, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	op := p.curToken
	var expr ast.Node
	switch {
	case op.Type == token.INCREMENT || op.Type == token.DECREMENT:
		p.nextToken()
		one := &ast.NumberLiteral{Token: op, Value: 1}
		expr = assign(op, left, &ast.Binary{Token: op, Operator: arithmeticOf(op.Type), Left: left, Right: one})
	case op.Type.IsCompound():
		// left is both target and operand, so an index or call inside it
		// is evaluated twice: a[f()] += 1 calls f twice.
		p.nextToken()
		right, err := p.parseExpression(ends...)
		if err != nil {
			return nil, err
		}
		return assign(op, left, &ast.Binary{Token: op, Operator: arithmeticOf(op.Type), Left: left, Right: right}), nil
	case op.Type.IsBinaryOperator():
		p.nextToken()
		right, err := p.parseExpression(ends...)
		if err != nil {
			return nil, err
		}
		return &ast.Binary{Token: op, Operator: op.Type, Left: left, Right: right}, nil
	default:
		expr = left
	}

	for _, end := range ends {
		if p.curTokenIs(end) {
			return expr, nil
		}
	}
	return nil, p.expectedError(describe(ends...))
}

func assign(tok token.Token, target, value ast.Node) *ast.Binary {
	return &ast.Binary{Token: tok, Operator: token.ASSIGN, Left: target, Right: value}
}

func arithmeticOf(t token.TokenType) token.TokenType {
	switch t {
	case token.PLUS_ASSIGN, token.INCREMENT:
		return token.PLUS
	case token.MINUS_ASSIGN, token.DECREMENT:
		return token.MINUS
	case token.ASTERISK_ASSIGN:
		return token.ASTERISK
	default:
		return token.SLASH
	}
}

// startsOperand reports whether t can begin an operand without a prefix operator.
func startsOperand(t token.TokenType) bool {
	switch t {
	case token.IDENT, token.NUMBER, token.STRING, token.TRUE, token.FALSE, token.LBRACKET, token.NEW:
		return true
	}
	return false
}

// parseOperand parses a primary value followed by any [index], .member or
// .method(args) suffixes.
func (p *Parser) parseOperand() (ast.Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.curToken.Type {
		case token.LBRACKET:
			tok := p.curToken
			p.nextToken()
			index, err := p.parseExpression(token.RBRACKET)
			if err != nil {
				return nil, err
			}
			p.nextToken()
			node = &ast.Index{Token: tok, Base: node, Index: index}
		case token.DOT:
			tok := p.curToken
			if err := p.expectPeek(token.IDENT); err != nil {
				return nil, err
			}
			name := p.curToken.Literal
			p.nextToken()
			if p.curTokenIs(token.LPAREN) {
				args, err := p.parseArguments()
				if err != nil {
					return nil, err
				}
				node = &ast.MethodCall{Token: tok, Object: node, Method: name, Arguments: args}
			} else {
				node = &ast.Member{Token: tok, Object: node, Name: name}
			}
		default:
			return node, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Node, error) {
	tok := p.curToken
	switch tok.Type {
	case token.NUMBER:
		p.nextToken()
		return &ast.NumberLiteral{Token: tok, Value: tok.Number}, nil
	case token.STRING:
		p.nextToken()
		return &ast.StringLiteral{Token: tok, Value: tok.Literal}, nil
	case token.TRUE, token.FALSE:
		p.nextToken()
		return &ast.BooleanLiteral{Token: tok, Value: tok.Type == token.TRUE}, nil
	case token.IDENT:
		p.nextToken()
		if p.curTokenIs(token.LPAREN) {
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			return &ast.Call{Token: tok, Callee: tok.Literal, Arguments: args}, nil
		}
		return &ast.Name{Token: tok, Value: tok.Literal}, nil
	case token.LBRACKET:
		return p.parseArrayLiteral()
	case token.LPAREN:
		p.nextToken()
		inner, err := p.parseExpression(token.RPAREN)
		if err != nil {
			return nil, err
		}
		p.nextToken()
		return inner, nil
	case token.NEW:
		return p.parseNew()
	case token.MINUS:
		p.nextToken()
		operand, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		if lit, ok := operand.(*ast.NumberLiteral); ok {
			return &ast.NumberLiteral{Token: tok, Value: -lit.Value}, nil
		}
		zero := &ast.NumberLiteral{Token: tok, Value: 0}
		return &ast.Binary{Token: tok, Operator: token.MINUS, Left: zero, Right: operand}, nil
	case token.BANG:
		p.nextToken()
		operand, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		falseLit := &ast.BooleanLiteral{Token: tok, Value: false}
		return &ast.Binary{Token: tok, Operator: token.EQ, Left: operand, Right: falseLit}, nil
	}
	return nil, p.expectedError("expression")
}

// parseArguments parses (a, b, ...). The current token must be '('.
func (p *Parser) parseArguments() ([]ast.Node, error) {
	p.nextToken()
	args := []ast.Node{}
	if p.curTokenIs(token.RPAREN) {
		p.nextToken()
		return args, nil
	}

	for {
		if p.curTokenIs(token.LBRACE) {
			return nil, &Error{Message: "block not allowed in argument list", Found: p.curToken}
		}
		arg, err := p.parseExpression(token.COMMA, token.RPAREN)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.curTokenIs(token.RPAREN) {
			p.nextToken()
			return args, nil
		}
		p.nextToken()
	}
}

func (p *Parser) parseArrayLiteral() (ast.Node, error) {
	array := &ast.ArrayLiteral{Token: p.curToken, Elements: []ast.Node{}}
	p.nextToken()
	if p.curTokenIs(token.RBRACKET) {
		p.nextToken()
		return array, nil
	}

	for {
		elem, err := p.parseExpression(token.COMMA, token.RBRACKET)
		if err != nil {
			return nil, err
		}
		array.Elements = append(array.Elements, elem)
		if p.curTokenIs(token.RBRACKET) {
			p.nextToken()
			return array, nil
		}
		p.nextToken()
	}
}

func (p *Parser) parseNew() (ast.Node, error) {
	node := &ast.New{Token: p.curToken}
	if err := p.expectPeek(token.IDENT); err != nil {
		return nil, err
	}
	node.Class = p.curToken.Literal
	if err := p.expectPeek(token.LPAREN); err != nil {
		return nil, err
	}
	args, err := p.parseArguments()
	if err != nil {
		return nil, err
	}
	node.Arguments = args
	return node, nil
}

// parseFunctionDefinition parses fn name(a b) { ... }. Commas between
// parameter names are optional.
func (p *Parser) parseFunctionDefinition() (*ast.FunctionDefinition, error) {
	fn := &ast.FunctionDefinition{Token: p.curToken, Parameters: []string{}}
	if err := p.expectPeek(token.IDENT); err != nil {
		return nil, err
	}
	fn.Name = p.curToken.Literal
	if err := p.expectPeek(token.LPAREN); err != nil {
		return nil, err
	}
	p.nextToken()

	for !p.curTokenIs(token.RPAREN) {
		switch p.curToken.Type {
		case token.IDENT:
			fn.Parameters = append(fn.Parameters, p.curToken.Literal)
		case token.COMMA:
		default:
			return nil, p.expectedError("parameter name or ')'")
		}
		p.nextToken()
	}
	p.nextToken()

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	fn.Body = body
	return fn, nil
}

func (p *Parser) parseReturn() (ast.Node, error) {
	ret := &ast.Return{Token: p.curToken}
	p.nextToken()

	if !p.curTokenIs(token.SEMICOLON) && !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		value, err := p.parseExpression(statementEnds...)
		if err != nil {
			return nil, err
		}
		ret.Value = value
	}
	if p.curTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
	return ret, nil
}

// parseCondition parses ( expr ) and leaves the token after ')' current.
func (p *Parser) parseCondition() (ast.Node, error) {
	if err := p.expectPeek(token.LPAREN); err != nil {
		return nil, err
	}
	p.nextToken()
	cond, err := p.parseExpression(token.RPAREN)
	if err != nil {
		return nil, err
	}
	p.nextToken()
	return cond, nil
}

func (p *Parser) parseWhile() (ast.Node, error) {
	loop := &ast.Loop{Token: p.curToken, Kind: ast.WhileLoop}
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	loop.Condition = cond

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	loop.Body = body
	return loop, nil
}

func (p *Parser) parseFor() (ast.Node, error) {
	loop := &ast.Loop{Token: p.curToken, Kind: ast.ForLoop}
	decl := &ast.ForDeclaration{Token: p.curToken}
	if err := p.expectPeek(token.LPAREN); err != nil {
		return nil, err
	}
	p.nextToken()

	if p.curTokenIs(token.SEMICOLON) {
		decl.Init = &ast.NoDeclaration{Token: p.curToken}
	} else {
		init, err := p.parseExpression(token.SEMICOLON)
		if err != nil {
			return nil, err
		}
		decl.Init = init
	}
	p.nextToken()

	cond, err := p.parseExpression(token.SEMICOLON)
	if err != nil {
		return nil, err
	}
	decl.Condition = cond
	p.nextToken()

	incr, err := p.parseExpression(token.RPAREN)
	if err != nil {
		return nil, err
	}
	decl.Increment = incr
	p.nextToken()

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	loop.Condition = decl
	loop.Body = body
	return loop, nil
}

// parseIf parses if/elif/else. Each elif becomes the Alternative of the
// previous link.
func (p *Parser) parseIf() (ast.Node, error) {
	node := &ast.If{Token: p.curToken}
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	node.Condition = cond

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	node.Body = body

	switch p.curToken.Type {
	case token.ELIF:
		alt, err := p.parseIf()
		if err != nil {
			return nil, err
		}
		node.Alternative = alt
	case token.ELSE:
		p.nextToken()
		alt, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		node.Alternative = alt
	}
	return node, nil
}

// parseClass parses class Name { fn ... }. Only function definitions are
// allowed in the body and each one takes self as its first parameter.
func (p *Parser) parseClass() (ast.Node, error) {
	class := &ast.ClassDefinition{Token: p.curToken}
	if err := p.expectPeek(token.IDENT); err != nil {
		return nil, err
	}
	class.Name = p.curToken.Literal
	if err := p.expectPeek(token.LBRACE); err != nil {
		return nil, err
	}
	p.nextToken()

	for !p.curTokenIs(token.RBRACE) {
		switch p.curToken.Type {
		case token.SEMICOLON:
			p.nextToken()
			continue
		case token.FN:
		default:
			return nil, p.expectedError("method definition or '}'")
		}

		tok := p.curToken
		fn, err := p.parseFunctionDefinition()
		if err != nil {
			return nil, err
		}
		if len(fn.Parameters) == 0 {
			return nil, &Error{Message: fmt.Sprintf("method %s.%s must take self as its first parameter", class.Name, fn.Name), Found: tok}
		}
		switch fn.Name {
		case InitHook:
			class.Init = fn
		case DisplayHook:
			class.Display = fn
		default:
			class.Methods = append(class.Methods, fn)
		}
	}
	p.nextToken()
	return class, nil
}

func describe(types ...token.TokenType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		if t == token.EOF {
			parts[i] = "end of input"
		} else {
			parts[i] = "'" + string(t) + "'"
		}
	}
	return strings.Join(parts, " or ")
}
