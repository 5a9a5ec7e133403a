// Package repl は gem の対話モードを提供する
//
// 入力ごとにコンパイルし、同じヒープとトップレベルのフレームで評価する。
// 入力の途中で終わった場合は継続プロンプトで次の行を読む。
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/zurustar/gem/pkg/compiler"
	"github.com/zurustar/gem/pkg/compiler/parser"
	"github.com/zurustar/gem/pkg/examples"
	"github.com/zurustar/gem/pkg/logger"
	"github.com/zurustar/gem/pkg/vm"
)

// ContinuationPrompt は入力が続く場合のプロンプト
const ContinuationPrompt = "... "

// DefaultPrompt はプロンプトの既定値
const DefaultPrompt = "> "

// LineReader は1行ずつ入力を読む
// *liner.State がこれを満たす
type LineReader interface {
	Prompt(prompt string) (string, error)
	PromptWithSuggestion(prompt, text string, pos int) (string, error)
	AppendHistory(item string)
}

// サンプルのスニペット（example N で入力欄に展開される）
var snippets = []string{
	`x = 2 + 3 * 4;`,
	`for (i = 0; i < 3; i++) { println(i); }`,
	`fn square(n) { return n * n; } square(7);`,
	`a = [1, 2, 3]; a[1] = 20; push(a, 4);`,
	`class Box { fn init(self, v) { self.v = v; } fn display(self) { return "Box(" + self.v + ")"; } } new Box(5);`,
}

// 画面を消去してカーソルを左上に戻す
const clearScreen = "\x1b[H\x1b[2J"

const helpText = `Commands:
  help        このヘルプを表示
  exit, stop  対話モードを終了
  clear       画面を消去（定義と変数は残る）
  reset       定義と変数をすべて消去
  example     サンプル一覧を表示
  example N   サンプル N を入力欄に展開（Enterで実行）
  load NAME   サンプルプログラム NAME の定義を読み込む

Statements end with ';'. Unfinished input continues on the next line.
`

// REPL は対話モードの状態を保持する
type REPL struct {
	session    *vm.Session
	reader     LineReader
	out        io.Writer
	debug      io.Writer
	prompt     string
	timeout    time.Duration
	log        *slog.Logger
	programs   *examples.Registry
	suggestion string // 次のプロンプトに展開する文字列
}

// Option は REPL の設定
type Option func(*REPL)

// WithOutput 結果とエラーの出力先を設定
func WithOutput(w io.Writer) Option {
	return func(r *REPL) {
		r.out = w
	}
}

// WithPrompt プロンプトを設定
func WithPrompt(prompt string) Option {
	return func(r *REPL) {
		if prompt != "" {
			r.prompt = prompt
		}
	}
}

// WithTimeout 1回の入力の評価時間を制限する（0は無制限）
func WithTimeout(d time.Duration) Option {
	return func(r *REPL) {
		r.timeout = d
	}
}

// WithDebugOutput トークン列とASTの出力先を設定
func WithDebugOutput(w io.Writer) Option {
	return func(r *REPL) {
		r.debug = w
	}
}

// WithExamples load で読み込めるサンプルプログラムを設定
func WithExamples(registry *examples.Registry) Option {
	return func(r *REPL) {
		r.programs = registry
	}
}

// WithLogger ロガーを設定
func WithLogger(log *slog.Logger) Option {
	return func(r *REPL) {
		r.log = log
	}
}

// New REPL を作成
func New(session *vm.Session, reader LineReader, opts ...Option) *REPL {
	r := &REPL{
		session: session,
		reader:  reader,
		out:     os.Stdout,
		prompt:  DefaultPrompt,
		log:     logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run 入力が終わるか exit が入力されるまで読み込みと評価を繰り返す
func (r *REPL) Run(ctx context.Context) error {
	r.banner()

	for {
		input, err := r.readInput()
		switch {
		case errors.Is(err, io.EOF):
			fmt.Fprintln(r.out)
			return nil
		case errors.Is(err, liner.ErrPromptAborted):
			// Ctrl-C は入力中の内容を捨てる
			r.log.Debug("Input aborted")
			continue
		case err != nil:
			return fmt.Errorf("failed to read input: %w", err)
		}

		if !r.Handle(ctx, input) {
			return nil
		}
	}
}

func (r *REPL) banner() {
	fmt.Fprintln(r.out, "gem interactive mode")
	fmt.Fprintln(r.out, "Type exit or stop to leave, or help for more info")
}

// readInput 1つの入力を読む
// パースが入力の終わりで止まった場合は次の行を続けて読む
func (r *REPL) readInput() (string, error) {
	var lines []string
	prompt := r.prompt

	for {
		line, err := r.readLine(prompt)
		if err != nil {
			// 途中まで入力済みならそれを評価してエラーを表示させる
			if errors.Is(err, io.EOF) && len(lines) > 0 {
				return strings.Join(lines, "\n"), nil
			}
			return "", err
		}
		lines = append(lines, line)
		code := strings.Join(lines, "\n")

		if len(lines) == 1 && r.isCommand(line) {
			return code, nil
		}
		if _, err := compiler.Compile(code); err != nil && parser.IsIncomplete(err) {
			prompt = ContinuationPrompt
			continue
		}
		return code, nil
	}
}

func (r *REPL) readLine(prompt string) (string, error) {
	if r.suggestion == "" {
		return r.reader.Prompt(prompt)
	}
	text := r.suggestion
	r.suggestion = ""
	return r.reader.PromptWithSuggestion(prompt, text, -1)
}

// Handle 1つの入力を処理する
// 対話モードを終了する場合は false を返す
func (r *REPL) Handle(ctx context.Context, input string) bool {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return true
	}
	r.reader.AppendHistory(strings.ReplaceAll(input, "\n", " "))

	if r.isCommand(trimmed) {
		fields := strings.Fields(trimmed)
		switch fields[0] {
		case "exit", "stop":
			return false
		case "help":
			fmt.Fprint(r.out, helpText)
		case "clear":
			fmt.Fprint(r.out, clearScreen)
			r.banner()
		case "reset":
			r.session.Reset()
			fmt.Fprintln(r.out, "session reset")
		case "example":
			r.example(fields[1:])
		case "load":
			r.load(ctx, fields[1])
		}
		return true
	}

	r.eval(ctx, input, true)
	return true
}

// isCommand 入力がコマンドかどうか
// "example = 1;" のようなコードはコマンドとみなさない
func (r *REPL) isCommand(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "exit", "stop", "help", "clear", "reset":
		return len(fields) == 1
	case "example":
		if len(fields) == 1 {
			return true
		}
		if len(fields) == 2 {
			_, err := strconv.Atoi(fields[1])
			return err == nil
		}
	case "load":
		// "load x;" は関数呼び出しとして扱う
		return r.programs != nil && len(fields) == 2 && !strings.ContainsAny(fields[1], ";(")
	}
	return false
}

// example サンプルの一覧を表示、または番号のサンプルを次の入力欄に展開する
func (r *REPL) example(args []string) {
	if len(args) == 0 {
		for i, s := range snippets {
			fmt.Fprintf(r.out, "%2d: %s\n", i+1, s)
		}
		r.listPrograms()
		return
	}

	n, _ := strconv.Atoi(args[0])
	if n < 1 || n > len(snippets) {
		fmt.Fprintf(r.out, "no example %d (choose 1-%d)\n", n, len(snippets))
		return
	}
	r.suggestion = snippets[n-1]
}

// listPrograms load で読み込めるサンプルプログラムを表示
func (r *REPL) listPrograms() {
	if r.programs == nil || len(r.programs.List()) == 0 {
		return
	}
	fmt.Fprintln(r.out, "Programs (load NAME):")
	for _, ex := range r.programs.List() {
		fmt.Fprintf(r.out, "  %-12s %s\n", strings.TrimSuffix(ex.Name, ".em"), ex.Description)
	}
}

// load サンプルプログラムをセッションで評価し、定義された関数を表示する
func (r *REPL) load(ctx context.Context, name string) {
	ex, ok := r.programs.Lookup(name)
	if !ok {
		fmt.Fprintf(r.out, "no program %s (type example to list them)\n", name)
		return
	}
	r.log.Debug("Loading example", "name", ex.Name, "functions", ex.Functions)

	if !r.eval(ctx, ex.Content, false) {
		return
	}
	fmt.Fprintf(r.out, "loaded %s: %s\n", ex.Name, strings.Join(ex.Functions, ", "))
	if ex.HasMain() {
		fmt.Fprintln(r.out, "call main to run it")
	}
}

// eval ソースをコンパイルしてセッションで評価する
// echo が false の場合は結果を表示しない。成功した場合は true を返す
func (r *REPL) eval(ctx context.Context, source string, echo bool) bool {
	program, err := compiler.CompileWithOptions(source, compiler.CompileOptions{DebugOutput: r.debug})
	if err != nil {
		r.printError(err)
		return false
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	result, err := r.session.Eval(ctx, program)
	if err != nil {
		r.printError(err)
		return false
	}
	if echo {
		fmt.Fprintf(r.out, "=> %s\n", result)
	}
	return true
}

func (r *REPL) printError(err error) {
	r.log.Debug("Evaluation failed", "error", err)
	fmt.Fprintf(r.out, "Error: %v\n", err)
}
