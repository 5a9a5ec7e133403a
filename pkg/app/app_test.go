package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"golang.org/x/text/encoding/japanese"

	"github.com/zurustar/gem/pkg/compiler"
	"github.com/zurustar/gem/pkg/vm"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"GEM_LOG_LEVEL", "GEM_TIMEOUT", "GEM_MAX_DEPTH", "GEM_CONFIG"} {
		t.Setenv(name, "")
	}
}

var testExamples = fstest.MapFS{
	"examples/hello.em": {Data: []byte("// Says hello.\nfn main() { println \"hello\"; }\n")},
	"examples/sum.em":   {Data: []byte("fn main() { println(1 + 2); }\n")},
	"examples/notes.md": {Data: []byte("not a script")},
}

func newTestApp(stdin string) (*Application, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	app := New(testExamples)
	app.stdin = strings.NewReader(stdin)
	app.stdout = &stdout
	app.stderr = &stderr
	return app, &stdout, &stderr
}

// writeScript 一時ディレクトリにスクリプトを書き出す
func writeScript(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_Help(t *testing.T) {
	clearEnv(t)
	app, stdout, _ := newTestApp("")

	if err := app.Run([]string{"--help"}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "Usage:") {
		t.Errorf("help output missing usage:\n%s", stdout.String())
	}
}

func TestRun_InvalidArgs(t *testing.T) {
	clearEnv(t)
	app, _, _ := newTestApp("")

	err := app.Run([]string{"run", "script.txt"})
	if err == nil || !strings.Contains(err.Error(), "failed to parse args") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestRun_Script(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name   string
		source string
		args   []string
		stdin  string
		want   string
	}{
		{
			name:   "hello world",
			source: `fn main() { println "hello world"; }`,
			want:   "hello world\n",
		},
		{
			name:   "arguments",
			source: `fn main(args) { for (i = 0; i < len(args); i++) { println("hello, " + args[i]); } }`,
			args:   []string{"Alice", "--timeout"},
			want:   "hello, Alice\nhello, --timeout\n",
		},
		{
			name:   "read from stdin",
			source: `fn main() { name = read(); println("hi " + name); }`,
			stdin:  "Bob\n",
			want:   "hi Bob\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScript(t, "main.em", tt.source)
			app, stdout, _ := newTestApp(tt.stdin)

			if err := app.Run(append([]string{"run", path}, tt.args...)); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if got := stdout.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRun_ScriptNameIgnoresCase(t *testing.T) {
	clearEnv(t)
	path := writeScript(t, "Hello.em", `fn main() { println "found"; }`)
	upper := filepath.Join(filepath.Dir(path), "HELLO.EM")

	app, stdout, _ := newTestApp("")
	if err := app.Run([]string{"run", upper}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stdout.String() != "found\n" {
		t.Errorf("output = %q, want %q", stdout.String(), "found\n")
	}
}

func TestRun_ShiftJIS(t *testing.T) {
	clearEnv(t)
	encoded, err := japanese.ShiftJIS.NewEncoder().String(`fn main() { println "こんにちは"; }`)
	if err != nil {
		t.Fatal(err)
	}
	path := writeScript(t, "sjis.em", encoded)

	app, stdout, _ := newTestApp("")
	if err := app.Run([]string{"-e", "shift_jis", "run", path}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stdout.String() != "こんにちは\n" {
		t.Errorf("output = %q, want %q", stdout.String(), "こんにちは\n")
	}
}

func TestRun_ScriptErrors(t *testing.T) {
	clearEnv(t)

	t.Run("missing file", func(t *testing.T) {
		app, _, _ := newTestApp("")
		err := app.Run([]string{"run", filepath.Join(t.TempDir(), "none.em")})
		if err == nil || !strings.Contains(err.Error(), "failed to compile script") {
			t.Errorf("expected load error, got %v", err)
		}
	})

	t.Run("syntax error", func(t *testing.T) {
		path := writeScript(t, "bad.em", "fn main() {\n  x = ;\n}\n")
		app, _, _ := newTestApp("")
		err := app.Run([]string{"run", path})

		var compileErr *compiler.CompileError
		if !errors.As(err, &compileErr) {
			t.Fatalf("expected *compiler.CompileError, got %v", err)
		}
		if compileErr.Line != 2 {
			t.Errorf("Line = %d, want 2", compileErr.Line)
		}
	})

	t.Run("runtime error", func(t *testing.T) {
		path := writeScript(t, "fail.em", `fn main() { x = [1]; println(x[5]); }`)
		app, _, _ := newTestApp("")
		err := app.Run([]string{"run", path})

		var rtErr *vm.RuntimeError
		if !errors.As(err, &rtErr) {
			t.Fatalf("expected *vm.RuntimeError, got %v", err)
		}
		if rtErr.Type != vm.ErrorIndexOutOfRange {
			t.Errorf("Type = %s, want %s", rtErr.Type, vm.ErrorIndexOutOfRange)
		}
	})

	t.Run("max depth", func(t *testing.T) {
		path := writeScript(t, "deep.em", `fn down(n) { return down(n + 1); } fn main() { down(0); }`)
		app, _, _ := newTestApp("")
		err := app.Run([]string{"--max-depth", "20", "run", path})

		var rtErr *vm.RuntimeError
		if !errors.As(err, &rtErr) || rtErr.Type != vm.ErrorStackOverflow {
			t.Errorf("expected STACK_OVERFLOW, got %v", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		path := writeScript(t, "loop.em", `fn main() { while (true) { } }`)
		app, _, _ := newTestApp("")
		err := app.Run([]string{"-t", "1", "run", path})

		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	})
}

func TestRun_DebugOutput(t *testing.T) {
	clearEnv(t)
	path := writeScript(t, "main.em", `fn main() { println(1); }`)

	app, stdout, stderr := newTestApp("")
	if err := app.Run([]string{"--debug", "run", path}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stdout.String() != "1\n" {
		t.Errorf("stdout = %q, want only script output", stdout.String())
	}
	for _, want := range []string{"== tokens ==", "== ast ==", "Script compiled"} {
		if !strings.Contains(stderr.String(), want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr.String())
		}
	}
}

func TestRun_Examples(t *testing.T) {
	clearEnv(t)
	dir := filepath.Join(t.TempDir(), "out")

	app, stdout, _ := newTestApp("")
	if err := app.Run([]string{"examples", dir}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, name := range []string{"hello.em", "sum.em"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.md")); err == nil {
		t.Error("non-script files should not be written")
	}
	if strings.Count(stdout.String(), "created") != 2 {
		t.Errorf("output = %q, want two created lines", stdout.String())
	}

	// 2回目は既存ファイルを上書きしない
	edited := []byte("fn main() { }")
	if err := os.WriteFile(filepath.Join(dir, "hello.em"), edited, 0644); err != nil {
		t.Fatal(err)
	}
	app, stdout, _ = newTestApp("")
	if err := app.Run([]string{"examples", dir}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if strings.Count(stdout.String(), "skipped") != 2 {
		t.Errorf("output = %q, want two skipped lines", stdout.String())
	}
	got, err := os.ReadFile(filepath.Join(dir, "hello.em"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, edited) {
		t.Errorf("hello.em was overwritten: %q", got)
	}
}

// lineReader は用意した行を順に返す
type lineReader struct {
	lines []string
}

func (r *lineReader) Prompt(string) (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *lineReader) PromptWithSuggestion(prompt, _ string, _ int) (string, error) {
	return r.Prompt(prompt)
}

func (r *lineReader) AppendHistory(string) {}

func TestNewRepl(t *testing.T) {
	clearEnv(t)
	app, stdout, _ := newTestApp("")
	if err := app.parseArgs([]string{"repl"}); err != nil {
		t.Fatal(err)
	}
	if err := app.initLogger(); err != nil {
		t.Fatal(err)
	}

	reader := &lineReader{lines: []string{`x = 40;`, `print "x";`, `x + 2;`, "load hello", `main();`, "exit", `x;`}}
	if err := app.newRepl(reader).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, want := range []string{"=> 40\n", "x=> null\n", "=> 42\n", "loaded hello.em: main\n", "hello\n=> null\n"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("output missing %q:\n%s", want, stdout.String())
		}
	}
	if len(reader.lines) != 1 {
		t.Errorf("exit should stop reading, %d lines left", len(reader.lines))
	}
}
