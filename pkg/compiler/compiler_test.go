package compiler

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zurustar/gem/pkg/compiler/lexer"
	"github.com/zurustar/gem/pkg/compiler/parser"
)

func TestCompile(t *testing.T) {
	program, err := Compile(`fn main() {
	i = 0;
	while (i < 5) { i++; }
	println i;
}`)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if len(program.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(program.Statements))
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		phase    string
		line     int
		contains string
	}{
		{"malformed number", "x = 1;\ny = 2.3.4;", "lexer", 2, `malformed number "2.3.4"`},
		{"missing paren", "while (i < 5 {\n}", "parser", 1, "expected ')'"},
		{"unexpected token", "x = 1;\n\n)", "parser", 3, "unexpected token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program, err := Compile(tt.source)
			if program != nil {
				t.Errorf("expected no program on failure")
			}
			var compileErr *CompileError
			if !errors.As(err, &compileErr) {
				t.Fatalf("expected *CompileError, got %T (%v)", err, err)
			}
			if compileErr.Phase != tt.phase {
				t.Errorf("Phase = %q, want %q", compileErr.Phase, tt.phase)
			}
			if compileErr.Line != tt.line {
				t.Errorf("Line = %d, want %d", compileErr.Line, tt.line)
			}
			if !strings.Contains(compileErr.Message, tt.contains) {
				t.Errorf("Message = %q, want to contain %q", compileErr.Message, tt.contains)
			}
			if !strings.Contains(compileErr.Context, "^") {
				t.Errorf("Context missing pointer: %q", compileErr.Context)
			}
		})
	}
}

func TestCompile_UnwrapsPhaseErrors(t *testing.T) {
	_, err := Compile("x = 12ab;")
	var lexErr *lexer.Error
	if !errors.As(err, &lexErr) {
		t.Errorf("expected to unwrap *lexer.Error from %v", err)
	}

	_, err = Compile("fn f() {")
	if !parser.IsIncomplete(err) {
		t.Errorf("expected incomplete input error, got %v", err)
	}
}

func TestCompileWithOptions_Debug(t *testing.T) {
	var buf bytes.Buffer
	_, err := CompileWithOptions(`x = 2 + 3 * 4;`, CompileOptions{DebugOutput: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"== tokens ==", "IDENT(x)", "NUMBER(4)", "EOF", "== ast ==", "(x = (2 + (3 * 4)))"} {
		if !strings.Contains(out, want) {
			t.Errorf("debug output missing %q:\n%s", want, out)
		}
	}
}

func TestCompileFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.em")
	if err := os.WriteFile(path, []byte("fn main() { print \"hi\"; }"), 0644); err != nil {
		t.Fatal(err)
	}

	program, s, err := CompileFile(path, "utf-8", CompileOptions{})
	if err != nil {
		t.Fatalf("CompileFile() error = %v", err)
	}
	if s.FileName != "hello.em" {
		t.Errorf("FileName = %q", s.FileName)
	}
	if len(program.Statements) != 1 {
		t.Errorf("expected 1 statement, got %d", len(program.Statements))
	}

	if _, _, err := CompileFile(filepath.Join(dir, "missing.em"), "utf-8", CompileOptions{}); err == nil {
		t.Error("expected error for missing file")
	}
}
