package repl

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/peterh/liner"
)

// Terminal は liner による行編集と履歴ファイルを扱う
type Terminal struct {
	*liner.State
	historyFile string
	log         *slog.Logger
}

// OpenTerminal 端末を開き、履歴ファイルがあれば読み込む
func OpenTerminal(historyFile string, log *slog.Logger) *Terminal {
	ln := liner.NewLiner()
	ln.SetCtrlCAborts(true)

	t := &Terminal{State: ln, historyFile: historyFile, log: log}
	if historyFile == "" {
		return t
	}

	f, err := os.Open(historyFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn("Failed to open history file", "file", historyFile, "error", err)
		}
		return t
	}
	defer f.Close()

	n, err := ln.ReadHistory(f)
	if err != nil {
		log.Warn("Failed to read history file", "file", historyFile, "error", err)
		return t
	}
	log.Debug("History loaded", "file", historyFile, "entries", n)
	return t
}

// Close 履歴を保存して端末を元に戻す
func (t *Terminal) Close() error {
	saveErr := t.saveHistory()
	if err := t.State.Close(); err != nil {
		return fmt.Errorf("failed to restore terminal: %w", err)
	}
	return saveErr
}

func (t *Terminal) saveHistory() error {
	if t.historyFile == "" {
		return nil
	}

	f, err := os.Create(t.historyFile)
	if err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	n, err := t.WriteHistory(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	t.log.Debug("History saved", "file", t.historyFile, "entries", n)
	return nil
}
