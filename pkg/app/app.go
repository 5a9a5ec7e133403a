package app

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/zurustar/gem/pkg/cli"
	"github.com/zurustar/gem/pkg/compiler"
	"github.com/zurustar/gem/pkg/examples"
	"github.com/zurustar/gem/pkg/logger"
	"github.com/zurustar/gem/pkg/repl"
	"github.com/zurustar/gem/pkg/vm"
)

// ExamplesDir は埋め込みファイルシステム内のサンプルのディレクトリ
const ExamplesDir = "examples"

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config     *cli.Config
	log        *slog.Logger
	examplesFS fs.FS

	// 入出力（テストで差し替える）
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// New Applicationを作成
func New(examplesFS fs.FS) *Application {
	return &Application{
		examplesFS: examplesFS,
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.config.ShowHelp {
		cli.PrintHelp(app.stdout)
		return nil
	}

	// 2. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.log.Info("Application started", "command", app.config.Command)

	// 3. サブコマンドの実行
	switch app.config.Command {
	case cli.CommandRun:
		if err := app.runScript(); err != nil {
			return err
		}
	case cli.CommandExamples:
		if err := app.writeExamples(); err != nil {
			return fmt.Errorf("failed to write examples: %w", err)
		}
	default:
		if err := app.runRepl(); err != nil {
			return fmt.Errorf("failed to run repl: %w", err)
		}
	}

	app.log.Info("Application terminated normally")
	return nil
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = config
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	if err := logger.InitLoggerWithWriter(app.config.LogLevel, app.stderr); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// compileOptions --debug の場合はトークン列とASTを標準エラー出力に書き出す
func (app *Application) compileOptions() compiler.CompileOptions {
	if app.config.Debug {
		return compiler.CompileOptions{DebugOutput: app.stderr}
	}
	return compiler.CompileOptions{}
}

// newVM 設定に従ってVMを作成
func (app *Application) newVM() *vm.VM {
	return vm.New(
		vm.WithLogger(app.log),
		vm.WithMaxDepth(app.config.MaxDepth),
		vm.WithStdout(app.stdout),
		vm.WithStdin(app.stdin),
	)
}

// runScript スクリプトをコンパイルして main を実行
func (app *Application) runScript() error {
	program, s, err := compiler.CompileFile(app.config.ScriptPath, app.config.Encoding, app.compileOptions())
	if err != nil {
		return fmt.Errorf("failed to compile script: %w", err)
	}

	app.log.Info("Script compiled", "name", s.FileName, "size", s.Size, "statements", len(program.Statements))
	app.log.Debug("Script content preview", "name", s.FileName, "preview", truncate(s.Content, 100))

	ctx, cancel := app.context()
	defer cancel()

	machine := app.newVM()
	if err := machine.Run(ctx, program, app.config.ScriptArgs); err != nil {
		return fmt.Errorf("failed to run script: %w", err)
	}
	return nil
}

// context タイムアウトが指定されていれば期限付きのコンテキストを返す
func (app *Application) context() (context.Context, context.CancelFunc) {
	if app.config.Timeout > 0 {
		app.log.Info("Timeout enabled", "duration", app.config.Timeout)
		return context.WithTimeout(context.Background(), app.config.Timeout)
	}
	return context.WithCancel(context.Background())
}

// writeExamples 埋め込みのサンプルを書き出す
func (app *Application) writeExamples() error {
	registry, err := examples.NewRegistry(app.examplesFS, ExamplesDir)
	if err != nil {
		return err
	}
	app.log.Info("Examples loaded", "count", len(registry.List()))

	fmt.Fprintf(app.stdout, "Generating example files at %s\n", app.config.ExamplesDir)
	result, err := registry.WriteTo(app.config.ExamplesDir)
	if err != nil {
		return err
	}

	for _, path := range result.Written {
		fmt.Fprintf(app.stdout, "  created %s\n", path)
	}
	for _, path := range result.Skipped {
		fmt.Fprintf(app.stdout, "  skipped %s (already exists)\n", path)
	}
	app.log.Info("Examples written", "written", len(result.Written), "skipped", len(result.Skipped))
	return nil
}

// runRepl 対話モードを起動
func (app *Application) runRepl() error {
	term := repl.OpenTerminal(app.config.HistoryFile, app.log)
	defer func() {
		if err := term.Close(); err != nil {
			app.log.Warn("Failed to close terminal", "error", err)
		}
	}()

	return app.newRepl(term).Run(context.Background())
}

// newRepl 入力元を指定してREPLを作成
func (app *Application) newRepl(reader repl.LineReader) *repl.REPL {
	opts := []repl.Option{
		repl.WithOutput(app.stdout),
		repl.WithPrompt(app.config.Prompt),
		repl.WithTimeout(app.config.Timeout),
		repl.WithLogger(app.log),
	}
	if app.config.Debug {
		opts = append(opts, repl.WithDebugOutput(app.stderr))
	}
	if registry, err := examples.NewRegistry(app.examplesFS, ExamplesDir); err != nil {
		app.log.Warn("Examples unavailable in repl", "error", err)
	} else {
		opts = append(opts, repl.WithExamples(registry))
	}
	return repl.New(vm.NewSession(app.newVM()), reader, opts...)
}

// truncate 文字列を指定した長さで切り詰める
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
