package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/zurustar/gem/pkg/config"
	"github.com/zurustar/gem/pkg/script"
)

// Command はサブコマンドの種類
type Command string

const (
	CommandRepl     Command = "repl"
	CommandRun      Command = "run"
	CommandExamples Command = "examples"
)

// デフォルト値
const (
	DefaultLogLevel    = "info"
	DefaultEncoding    = "utf-8"
	DefaultExamplesDir = "gem_examples"
	DefaultPrompt      = "> "
	DefaultHistoryFile = ".gem_history"
)

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	Command     Command       // サブコマンド（省略時は repl）
	ScriptPath  string        // run で実行する .em ファイル
	ScriptArgs  []string      // main に渡す引数
	ExamplesDir string        // examples の出力先ディレクトリ
	Timeout     time.Duration // タイムアウト時間（0は無制限）
	LogLevel    string        // ログレベル（debug, info, warn, error）
	Debug       bool          // トークン列とASTを出力する
	Encoding    string        // ソースファイルの文字コード
	MaxDepth    int           // 最大呼び出し深度（0はデフォルト）
	ConfigPath  string        // YAML設定ファイル
	HistoryFile string        // REPLの履歴ファイル
	Prompt      string        // REPLのプロンプト
	ShowHelp    bool          // ヘルプ表示フラグ
}

// 値を取らないフラグ
var boolFlags = map[string]bool{
	"-h": true, "--help": true, "-help": true,
	"-d": true, "--debug": true, "-debug": true,
}

// ParseArgs コマンドライン引数を解析してConfigを返す
// 優先順位: フラグ > 環境変数 > 設定ファイル > デフォルト
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("gem", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	config := &Config{}

	var timeoutSec int
	fs.IntVar(&timeoutSec, "timeout", 0, "タイムアウト時間（秒）")
	fs.IntVar(&timeoutSec, "t", 0, "タイムアウト時間（秒）（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", "", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "", "ログレベル（短縮形）")
	fs.BoolVar(&config.Debug, "debug", false, "トークン列とASTを表示")
	fs.BoolVar(&config.Debug, "d", false, "トークン列とASTを表示（短縮形）")
	fs.StringVar(&config.Encoding, "encoding", "", "ソースファイルの文字コード")
	fs.StringVar(&config.Encoding, "e", "", "ソースファイルの文字コード（短縮形）")
	fs.IntVar(&config.MaxDepth, "max-depth", 0, "最大呼び出し深度")
	fs.StringVar(&config.ConfigPath, "config", "", "YAML設定ファイル")
	fs.StringVar(&config.ConfigPath, "c", "", "YAML設定ファイル（短縮形）")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// 明示的に指定されたフラグを記録
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	timeoutSet := set["timeout"] || set["t"]

	// 環境変数からの設定（コマンドラインフラグが優先）
	if config.LogLevel == "" {
		config.LogLevel = strings.ToLower(os.Getenv("GEM_LOG_LEVEL"))
	}
	if !timeoutSet {
		if timeoutEnv := os.Getenv("GEM_TIMEOUT"); timeoutEnv != "" {
			t, err := strconv.Atoi(timeoutEnv)
			if err != nil {
				return nil, fmt.Errorf("invalid GEM_TIMEOUT: %q", timeoutEnv)
			}
			timeoutSec = t
			timeoutSet = true
		}
	}
	if config.MaxDepth == 0 {
		if depthEnv := os.Getenv("GEM_MAX_DEPTH"); depthEnv != "" {
			d, err := strconv.Atoi(depthEnv)
			if err != nil {
				return nil, fmt.Errorf("invalid GEM_MAX_DEPTH: %q", depthEnv)
			}
			config.MaxDepth = d
		}
	}
	if config.ConfigPath == "" {
		config.ConfigPath = os.Getenv("GEM_CONFIG")
	}

	// 設定ファイル（フラグと環境変数が優先）
	if config.ConfigPath != "" {
		file, err := loadConfigFile(config.ConfigPath)
		if err != nil {
			return nil, err
		}
		if config.LogLevel == "" {
			config.LogLevel = file.LogLevel
		}
		if !timeoutSet && file.Timeout != 0 {
			timeoutSec = file.Timeout
		}
		if config.MaxDepth == 0 {
			config.MaxDepth = file.MaxDepth
		}
		if config.Encoding == "" {
			config.Encoding = file.Encoding
		}
		config.HistoryFile = file.HistoryFile
		config.Prompt = file.Prompt
	}

	// デフォルト値
	if config.LogLevel == "" {
		config.LogLevel = DefaultLogLevel
	}
	if config.Encoding == "" {
		config.Encoding = DefaultEncoding
	}
	if config.Prompt == "" {
		config.Prompt = DefaultPrompt
	}
	if config.HistoryFile == "" {
		config.HistoryFile = defaultHistoryFile()
	}

	// タイムアウトの検証
	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	if config.MaxDepth < 0 {
		return nil, fmt.Errorf("max-depth must be non-negative, got %d", config.MaxDepth)
	}

	// ログレベルの検証
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	if !script.IsEncodingSupported(config.Encoding) {
		return nil, fmt.Errorf("unsupported encoding: %s (must be one of %s)", config.Encoding, strings.Join(script.ValidEncodings, ", "))
	}

	if config.ShowHelp {
		return config, nil
	}

	if err := parseCommand(config, fs.Args()); err != nil {
		return nil, err
	}
	return config, nil
}

// parseCommand 位置引数からサブコマンドを決定する
func parseCommand(config *Config, positional []string) error {
	if len(positional) == 0 {
		config.Command = CommandRepl
		return nil
	}

	switch Command(positional[0]) {
	case CommandRepl:
		if len(positional) > 1 {
			return fmt.Errorf("repl takes no arguments, got %d", len(positional)-1)
		}
		config.Command = CommandRepl

	case CommandRun:
		if len(positional) < 2 {
			return fmt.Errorf("run requires a script path")
		}
		path := positional[1]
		if !strings.EqualFold(filepath.Ext(path), script.Extension) {
			return fmt.Errorf("script must have the %s extension: %s", script.Extension, path)
		}
		config.Command = CommandRun
		config.ScriptPath = path
		config.ScriptArgs = positional[2:]

	case CommandExamples:
		if len(positional) > 2 {
			return fmt.Errorf("examples takes at most one directory, got %d arguments", len(positional)-1)
		}
		config.Command = CommandExamples
		config.ExamplesDir = DefaultExamplesDir
		if len(positional) == 2 {
			config.ExamplesDir = positional[1]
		}

	default:
		return fmt.Errorf("unknown command: %s", positional[0])
	}
	return nil
}

func loadConfigFile(path string) (*config.File, error) {
	file, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	return file, nil
}

// defaultHistoryFile ホームディレクトリの履歴ファイル
func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultHistoryFile
	}
	return filepath.Join(home, DefaultHistoryFile)
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
// run の後のスクリプト引数と "--" 以降はそのまま位置引数として扱う
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}

		// run PATH 以降はすべてスクリプトへの引数
		if len(positional) >= 2 && positional[0] == string(CommandRun) {
			positional = append(positional, args[i:]...)
			break
		}

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 1 && arg[0] == '-' {
			flags = append(flags, arg)

			// 次の引数が値である可能性をチェック
			// （-t 5 のような場合）
			if !strings.Contains(arg, "=") && !boolFlags[arg] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を後ろに配置
	if len(positional) == 0 {
		return flags
	}
	return append(append(flags, "--"), positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp(w io.Writer) {
	fmt.Fprintf(w, `gem - a small scripting language

Usage:
  gem [options] [command]

Commands:
  repl                        対話モードを起動（デフォルト）
  run <file.em> [args...]     スクリプトを実行し、args を main に渡す
  examples [dir]              サンプルスクリプトを dir に書き出す（デフォルト: %s）

Options:
  -t, --timeout <seconds>     指定秒数後に実行を中断（デフォルト: 無制限）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  -d, --debug                 トークン列とASTを表示
  -e, --encoding <name>       ソースの文字コード: %s（デフォルト: utf-8）
  --max-depth <n>             最大呼び出し深度（デフォルト: 1000）
  -c, --config <file>         YAML設定ファイル
  -h, --help                  このヘルプを表示

Environment Variables:
  GEM_LOG_LEVEL=<level>       ログレベル
  GEM_TIMEOUT=<seconds>       タイムアウト時間（秒）
  GEM_MAX_DEPTH=<n>           最大呼び出し深度
  GEM_CONFIG=<file>           YAML設定ファイル

Examples:
  gem                             対話モード
  gem run hello.em                スクリプトを実行
  gem run greet.em Alice Bob      main(args) に ["Alice", "Bob"] を渡す
  gem --timeout 5 run loop.em     5秒後に中断
  gem -e shift_jis run sjis.em    Shift_JIS のソースを実行
  gem examples ./samples          サンプルを書き出す
`, DefaultExamplesDir, strings.Join(script.ValidEncodings, ", "))
}
