// Package ast defines the syntax tree produced by the parser.
//
// Nodes are shared by pointer: a function value refers to its *Block body
// directly, so storing or calling a function never copies the tree.
package ast

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/zurustar/gem/pkg/compiler/token"
)

// Node is implemented by every syntax tree node. The set is closed.
type Node interface {
	TokenLiteral() string
	String() string
	node()
}

// Block is an ordered statement list: the program itself or a { } body.
type Block struct {
	Token      token.Token // '{' or the first token of the program
	Statements []Node
}

func (b *Block) node()                {}
func (b *Block) TokenLiteral() string { return b.Token.Literal }
func (b *Block) String() string {
	parts := make([]string, len(b.Statements))
	for i, s := range b.Statements {
		parts[i] = s.String()
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}

// Binary is an operation. Assignment is a Binary with token.ASSIGN.
type Binary struct {
	Token    token.Token
	Operator token.TokenType
	Left     Node
	Right    Node
}

func (b *Binary) node()                {}
func (b *Binary) TokenLiteral() string { return b.Token.Literal }
func (b *Binary) String() string {
	return "(" + b.Left.String() + " " + string(b.Operator) + " " + b.Right.String() + ")"
}

// NumberLiteral
type NumberLiteral struct {
	Token token.Token
	Value float64
}

func (n *NumberLiteral) node()                {}
func (n *NumberLiteral) TokenLiteral() string { return n.Token.Literal }
func (n *NumberLiteral) String() string       { return strconv.FormatFloat(n.Value, 'f', -1, 64) }

// StringLiteral
type StringLiteral struct {
	Token token.Token
	Value string
}

func (s *StringLiteral) node()                {}
func (s *StringLiteral) TokenLiteral() string { return s.Token.Literal }
func (s *StringLiteral) String() string       { return `"` + s.Value + `"` }

// BooleanLiteral
type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (b *BooleanLiteral) node()                {}
func (b *BooleanLiteral) TokenLiteral() string { return b.Token.Literal }
func (b *BooleanLiteral) String() string       { return strconv.FormatBool(b.Value) }

// Name references a variable or definition.
type Name struct {
	Token token.Token
	Value string
}

func (n *Name) node()                {}
func (n *Name) TokenLiteral() string { return n.Token.Literal }
func (n *Name) String() string       { return n.Value }

// Call invokes a builtin or a heap function by name.
type Call struct {
	Token     token.Token
	Callee    string
	Arguments []Node
}

func (c *Call) node()                {}
func (c *Call) TokenLiteral() string { return c.Token.Literal }
func (c *Call) String() string       { return c.Callee + "(" + joinNodes(c.Arguments) + ")" }

// FunctionDefinition: fn name(params) { body }
type FunctionDefinition struct {
	Token      token.Token
	Name       string
	Parameters []string
	Body       *Block
}

func (f *FunctionDefinition) node()                {}
func (f *FunctionDefinition) TokenLiteral() string { return f.Token.Literal }
func (f *FunctionDefinition) String() string {
	return "fn " + f.Name + "(" + strings.Join(f.Parameters, ", ") + ") " + f.Body.String()
}

// LoopKind tags a Loop node.
type LoopKind int

const (
	WhileLoop LoopKind = iota
	ForLoop
)

// Loop is a while or for loop. For a ForLoop, Condition is a *ForDeclaration.
type Loop struct {
	Token     token.Token
	Kind      LoopKind
	Condition Node
	Body      *Block
}

func (l *Loop) node()                {}
func (l *Loop) TokenLiteral() string { return l.Token.Literal }
func (l *Loop) String() string {
	if l.Kind == ForLoop {
		return "for " + l.Condition.String() + " " + l.Body.String()
	}
	return "while (" + l.Condition.String() + ") " + l.Body.String()
}

// ForDeclaration is the (init; cond; incr) triple of a for loop.
type ForDeclaration struct {
	Token     token.Token
	Init      Node // *NoDeclaration when omitted
	Condition Node
	Increment Node
}

func (f *ForDeclaration) node()                {}
func (f *ForDeclaration) TokenLiteral() string { return f.Token.Literal }
func (f *ForDeclaration) String() string {
	return "(" + f.Init.String() + "; " + f.Condition.String() + "; " + f.Increment.String() + ")"
}

// NoDeclaration stands in for an omitted for-loop initializer.
type NoDeclaration struct {
	Token token.Token
}

func (n *NoDeclaration) node()                {}
func (n *NoDeclaration) TokenLiteral() string { return n.Token.Literal }
func (n *NoDeclaration) String() string       { return "" }

// If is one link of an if/elif/else chain. Alternative is nil, an *If, or a *Block.
type If struct {
	Token       token.Token
	Condition   Node
	Body        *Block
	Alternative Node
}

func (i *If) node()                {}
func (i *If) TokenLiteral() string { return i.Token.Literal }
func (i *If) String() string {
	var out bytes.Buffer
	out.WriteString("if (" + i.Condition.String() + ") " + i.Body.String())
	switch alt := i.Alternative.(type) {
	case *If:
		out.WriteString(" el" + alt.String())
	case *Block:
		out.WriteString(" else " + alt.String())
	}
	return out.String()
}

// Return; Value is nil for a bare return.
type Return struct {
	Token token.Token
	Value Node
}

func (r *Return) node()                {}
func (r *Return) TokenLiteral() string { return r.Token.Literal }
func (r *Return) String() string {
	if r.Value == nil {
		return "return"
	}
	return "return " + r.Value.String()
}

// ArrayLiteral
type ArrayLiteral struct {
	Token    token.Token
	Elements []Node
}

func (a *ArrayLiteral) node()                {}
func (a *ArrayLiteral) TokenLiteral() string { return a.Token.Literal }
func (a *ArrayLiteral) String() string       { return "[" + joinNodes(a.Elements) + "]" }

// Index is base[index]. Chains nest through Base.
type Index struct {
	Token token.Token
	Base  Node
	Index Node
}

func (i *Index) node()                {}
func (i *Index) TokenLiteral() string { return i.Token.Literal }
func (i *Index) String() string       { return i.Base.String() + "[" + i.Index.String() + "]" }

// ClassDefinition groups the hook functions and methods of a class.
type ClassDefinition struct {
	Token   token.Token
	Name    string
	Init    *FunctionDefinition // nil when the class has no constructor hook
	Display *FunctionDefinition // nil when the class has no display hook
	Methods []*FunctionDefinition
}

func (c *ClassDefinition) node()                {}
func (c *ClassDefinition) TokenLiteral() string { return c.Token.Literal }
func (c *ClassDefinition) String() string {
	var parts []string
	if c.Init != nil {
		parts = append(parts, c.Init.String())
	}
	if c.Display != nil {
		parts = append(parts, c.Display.String())
	}
	for _, m := range c.Methods {
		parts = append(parts, m.String())
	}
	return "class " + c.Name + " { " + strings.Join(parts, "; ") + " }"
}

// New constructs an object: new Name(args).
type New struct {
	Token     token.Token
	Class     string
	Arguments []Node
}

func (n *New) node()                {}
func (n *New) TokenLiteral() string { return n.Token.Literal }
func (n *New) String() string       { return "new " + n.Class + "(" + joinNodes(n.Arguments) + ")" }

// Member reads or writes obj.name.
type Member struct {
	Token  token.Token
	Object Node
	Name   string
}

func (m *Member) node()                {}
func (m *Member) TokenLiteral() string { return m.Token.Literal }
func (m *Member) String() string       { return m.Object.String() + "." + m.Name }

// MethodCall is obj.name(args).
type MethodCall struct {
	Token     token.Token
	Object    Node
	Method    string
	Arguments []Node
}

func (m *MethodCall) node()                {}
func (m *MethodCall) TokenLiteral() string { return m.Token.Literal }
func (m *MethodCall) String() string {
	return m.Object.String() + "." + m.Method + "(" + joinNodes(m.Arguments) + ")"
}

func joinNodes(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}
