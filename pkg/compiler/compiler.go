// Package compiler provides the front-end pipeline for gem scripts (.em files).
// It turns source text into a syntax tree in two phases:
// 1. Lexer: Tokenization
// 2. Parser: AST generation
//
// - Compile: Compiles a source string
// - CompileFile: Loads a script (handles encodings) and compiles it
// - CompileWithOptions: Compiles with a debug dump of tokens and AST
package compiler

import (
	"fmt"
	"io"

	"github.com/zurustar/gem/pkg/compiler/ast"
	"github.com/zurustar/gem/pkg/compiler/lexer"
	"github.com/zurustar/gem/pkg/compiler/parser"
	"github.com/zurustar/gem/pkg/compiler/token"
	"github.com/zurustar/gem/pkg/script"
)

// CompileOptions provides configuration options for compilation.
type CompileOptions struct {
	// DebugOutput receives the token stream and the AST when non-nil.
	DebugOutput io.Writer
}

// Compile runs lexer → parser over source.
// Failures are returned as *CompileError; nothing is partially produced.
func Compile(source string) (*ast.Block, error) {
	return CompileWithOptions(source, CompileOptions{})
}

// CompileWithOptions is Compile with a debug dump.
func CompileWithOptions(source string, opts CompileOptions) (*ast.Block, error) {
	tokens, err := lexer.Tokenize(source)
	if err != nil {
		return nil, newCompileError(err, source)
	}
	if opts.DebugOutput != nil {
		dumpTokens(opts.DebugOutput, tokens)
	}

	program, err := parser.Parse(tokens)
	if err != nil {
		return nil, newCompileError(err, source)
	}
	if opts.DebugOutput != nil {
		dumpProgram(opts.DebugOutput, program)
	}
	return program, nil
}

// CompileFile loads path with the given encoding and compiles it.
func CompileFile(path, encoding string, opts CompileOptions) (*ast.Block, *script.Script, error) {
	s, err := script.LoadFile(path, encoding)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load script: %w", err)
	}
	program, err := CompileWithOptions(s.Content, opts)
	if err != nil {
		return nil, s, err
	}
	return program, s, nil
}

func dumpTokens(w io.Writer, tokens []token.Token) {
	fmt.Fprintln(w, "== tokens ==")
	for _, tok := range tokens {
		fmt.Fprintf(w, "%4d:%-3d %s\n", tok.Line, tok.Column, tok)
	}
}

func dumpProgram(w io.Writer, program *ast.Block) {
	fmt.Fprintln(w, "== ast ==")
	for _, stmt := range program.Statements {
		fmt.Fprintln(w, stmt.String())
	}
}
