package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// clearEnv 環境変数の影響を受けないようにする
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"GEM_LOG_LEVEL", "GEM_TIMEOUT", "GEM_MAX_DEPTH", "GEM_CONFIG"} {
		t.Setenv(name, "")
	}
}

func TestParseArgs_ValidArgs(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name     string
		args     []string
		expected Config
	}{
		{
			name:     "デフォルト設定",
			args:     []string{},
			expected: Config{Command: CommandRepl, LogLevel: "info", Encoding: "utf-8"},
		},
		{
			name:     "replコマンド",
			args:     []string{"repl"},
			expected: Config{Command: CommandRepl, LogLevel: "info", Encoding: "utf-8"},
		},
		{
			name:     "スクリプト実行",
			args:     []string{"run", "hello.em"},
			expected: Config{Command: CommandRun, ScriptPath: "hello.em", ScriptArgs: []string{}, LogLevel: "info", Encoding: "utf-8"},
		},
		{
			name: "スクリプト引数",
			args: []string{"run", "greet.em", "Alice", "-x", "--timeout", "3"},
			expected: Config{
				Command:    CommandRun,
				ScriptPath: "greet.em",
				ScriptArgs: []string{"Alice", "-x", "--timeout", "3"},
				LogLevel:   "info",
				Encoding:   "utf-8",
			},
		},
		{
			name:     "拡張子の大文字",
			args:     []string{"run", "MAIN.EM"},
			expected: Config{Command: CommandRun, ScriptPath: "MAIN.EM", ScriptArgs: []string{}, LogLevel: "info", Encoding: "utf-8"},
		},
		{
			name:     "タイムアウト指定",
			args:     []string{"--timeout", "10"},
			expected: Config{Command: CommandRepl, Timeout: 10 * time.Second, LogLevel: "info", Encoding: "utf-8"},
		},
		{
			name:     "タイムアウト指定（短縮形）",
			args:     []string{"-t", "5"},
			expected: Config{Command: CommandRepl, Timeout: 5 * time.Second, LogLevel: "info", Encoding: "utf-8"},
		},
		{
			name:     "ログレベル指定（短縮形）",
			args:     []string{"-l", "error"},
			expected: Config{Command: CommandRepl, LogLevel: "error", Encoding: "utf-8"},
		},
		{
			name:     "デバッグ出力",
			args:     []string{"-d", "run", "a.em"},
			expected: Config{Command: CommandRun, ScriptPath: "a.em", ScriptArgs: []string{}, Debug: true, LogLevel: "info", Encoding: "utf-8"},
		},
		{
			name:     "文字コード指定",
			args:     []string{"--encoding", "shift_jis", "run", "a.em"},
			expected: Config{Command: CommandRun, ScriptPath: "a.em", ScriptArgs: []string{}, LogLevel: "info", Encoding: "shift_jis"},
		},
		{
			name:     "最大深度指定",
			args:     []string{"--max-depth=200"},
			expected: Config{Command: CommandRepl, MaxDepth: 200, LogLevel: "info", Encoding: "utf-8"},
		},
		{
			name:     "ヘルプ表示",
			args:     []string{"--help"},
			expected: Config{LogLevel: "info", Encoding: "utf-8", ShowHelp: true},
		},
		{
			name:     "ヘルプ表示（短縮形）",
			args:     []string{"-h"},
			expected: Config{LogLevel: "info", Encoding: "utf-8", ShowHelp: true},
		},
		{
			name:     "サンプル出力（デフォルト）",
			args:     []string{"examples"},
			expected: Config{Command: CommandExamples, ExamplesDir: DefaultExamplesDir, LogLevel: "info", Encoding: "utf-8"},
		},
		{
			name:     "サンプル出力先指定",
			args:     []string{"examples", "./out"},
			expected: Config{Command: CommandExamples, ExamplesDir: "./out", LogLevel: "info", Encoding: "utf-8"},
		},
		{
			name: "位置引数の後にフラグ（順序に関係なく動作）",
			args: []string{"examples", "--timeout", "5", "-log-level", "debug"},
			expected: Config{
				Command:     CommandExamples,
				ExamplesDir: DefaultExamplesDir,
				Timeout:     5 * time.Second,
				LogLevel:    "debug",
				Encoding:    "utf-8",
			},
		},
		{
			name:     "-- 以降は位置引数",
			args:     []string{"--", "run", "a.em", "-h"},
			expected: Config{Command: CommandRun, ScriptPath: "a.em", ScriptArgs: []string{"-h"}, LogLevel: "info", Encoding: "utf-8"},
		},
	}

	// 環境依存の項目は比較しない
	ignore := cmpopts.IgnoreFields(Config{}, "HistoryFile", "Prompt")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := ParseArgs(tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.expected, *config, ignore, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("ParseArgs(%v) mismatch (-want +got):\n%s", tt.args, diff)
			}
		})
	}
}

func TestParseArgs_InvalidArgs(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"負のタイムアウト", []string{"--timeout", "-10"}},
		{"無効なログレベル", []string{"--log-level", "invalid"}},
		{"無効なログレベル（短縮形）", []string{"-l", "trace"}},
		{"未知のフラグ", []string{"--verbose"}},
		{"未知のコマンド", []string{"build"}},
		{"スクリプトパスなし", []string{"run"}},
		{"拡張子が違う", []string{"run", "main.txt"}},
		{"replに引数", []string{"repl", "x"}},
		{"examplesに引数が多すぎる", []string{"examples", "a", "b"}},
		{"未対応の文字コード", []string{"-e", "latin1"}},
		{"負の最大深度", []string{"--max-depth", "-1"}},
		{"存在しない設定ファイル", []string{"-c", "/nonexistent/gem.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(tt.args)
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestParseArgs_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEM_LOG_LEVEL", "WARN")
	t.Setenv("GEM_TIMEOUT", "7")
	t.Setenv("GEM_MAX_DEPTH", "64")

	config, err := ParseArgs(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", config.LogLevel)
	}
	if config.Timeout != 7*time.Second {
		t.Errorf("Timeout = %v, want 7s", config.Timeout)
	}
	if config.MaxDepth != 64 {
		t.Errorf("MaxDepth = %d, want 64", config.MaxDepth)
	}

	// コマンドラインフラグが優先
	config, err = ParseArgs([]string{"-l", "error", "-t", "0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want error", config.LogLevel)
	}
	if config.Timeout != 0 {
		t.Errorf("Timeout = %v, want 0 (flag overrides env)", config.Timeout)
	}
}

func TestParseArgs_InvalidEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEM_TIMEOUT", "soon")

	if _, err := ParseArgs(nil); err == nil {
		t.Error("expected error for non-numeric GEM_TIMEOUT")
	}
}

func TestParseArgs_ConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "gem.yaml")
	content := "log_level: debug\ntimeout: 20\nmax_depth: 300\nencoding: sjis\nhistory_file: /tmp/h\nprompt: \"gem> \"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("設定ファイルの値を使う", func(t *testing.T) {
		config, err := ParseArgs([]string{"--config", path})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := Config{
			Command:     CommandRepl,
			Timeout:     20 * time.Second,
			LogLevel:    "debug",
			Encoding:    "sjis",
			MaxDepth:    300,
			ConfigPath:  path,
			HistoryFile: "/tmp/h",
			Prompt:      "gem> ",
		}
		if diff := cmp.Diff(want, *config, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("環境変数で指定", func(t *testing.T) {
		t.Setenv("GEM_CONFIG", path)
		config, err := ParseArgs(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.MaxDepth != 300 {
			t.Errorf("MaxDepth = %d, want 300", config.MaxDepth)
		}
	})

	t.Run("フラグと環境変数が優先", func(t *testing.T) {
		t.Setenv("GEM_TIMEOUT", "2")
		config, err := ParseArgs([]string{"-c", path, "-l", "warn"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.LogLevel != "warn" {
			t.Errorf("LogLevel = %q, want warn", config.LogLevel)
		}
		if config.Timeout != 2*time.Second {
			t.Errorf("Timeout = %v, want 2s", config.Timeout)
		}
	})
}

func TestReorderArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"フラグのみ", []string{"-t", "5"}, []string{"-t", "5"}},
		{"位置引数が先", []string{"run", "a.em", "x"}, []string{"--", "run", "a.em", "x"}},
		{"フラグが後", []string{"examples", "-t", "5"}, []string{"-t", "5", "--", "examples"}},
		{"ブールフラグは値を取らない", []string{"-d", "run", "a.em"}, []string{"-d", "--", "run", "a.em"}},
		{"=形式", []string{"--max-depth=9", "repl"}, []string{"--max-depth=9", "--", "repl"}},
		{"スクリプト引数はそのまま", []string{"run", "a.em", "-t", "1"}, []string{"--", "run", "a.em", "-t", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, reorderArgs(tt.args)); diff != "" {
				t.Errorf("reorderArgs(%v) mismatch (-want +got):\n%s", tt.args, diff)
			}
		})
	}
}

func TestPrintHelp(t *testing.T) {
	var buf bytes.Buffer
	PrintHelp(&buf)

	for _, want := range []string{"Usage:", "run <file.em>", "--timeout", "GEM_CONFIG", "shift_jis"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("help output missing %q", want)
		}
	}
}
