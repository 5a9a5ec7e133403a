// Package config は gem の YAML 設定ファイルを読み込む
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// File は設定ファイルの内容を保持する
// 未指定の項目はゼロ値のまま残り、呼び出し側のデフォルトが使われる
type File struct {
	LogLevel    string `yaml:"log_level"`
	Timeout     int    `yaml:"timeout"` // 秒
	MaxDepth    int    `yaml:"max_depth"`
	Encoding    string `yaml:"encoding"`
	HistoryFile string `yaml:"history_file"`
	Prompt      string `yaml:"prompt"`
}

// ValidationError は設定値の検証エラーをまとめる
type ValidationError struct {
	Path   string
	Issues []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "config validation failed: %s", e.Path)
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Load 設定ファイルを読み込んで検証する
// 未知のキーはエラーになる
func Load(path string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("config: empty path")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode YAMLを読み込む。空の入力は空の設定として扱う
func Decode(r io.Reader) (*File, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	cfg := &File{}
	if err := decoder.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return nil, err
	}
	return cfg, nil
}

func (f *File) validate(path string) error {
	errs := &ValidationError{Path: path}
	switch f.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		errs.Issues = append(errs.Issues, fmt.Sprintf("log_level must be debug, info, warn or error, got %q", f.LogLevel))
	}
	if f.Timeout < 0 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("timeout must be non-negative, got %d", f.Timeout))
	}
	if f.MaxDepth < 0 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("max_depth must be non-negative, got %d", f.MaxDepth))
	}
	if len(errs.Issues) > 0 {
		return errs
	}
	return nil
}
