// Package examples は組み込みのサンプルスクリプトを管理する
package examples

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zurustar/gem/pkg/compiler/lexer"
	"github.com/zurustar/gem/pkg/compiler/token"
	"github.com/zurustar/gem/pkg/fileutil"
	"github.com/zurustar/gem/pkg/script"
)

// Example はサンプルスクリプト1つを表す
type Example struct {
	Name        string   // ファイル名（hello.em など）
	Path        string   // 埋め込みファイルシステム内のパス
	Content     string   // ソース
	Description string   // 先頭のコメント行
	Functions   []string // 定義されている関数名
}

// HasMain main関数を定義しているかどうか
func (e *Example) HasMain() bool {
	for _, fn := range e.Functions {
		if fn == "main" {
			return true
		}
	}
	return false
}

// Registry は埋め込みサンプルの一覧を保持する
type Registry struct {
	fsys     fs.FS
	dir      string
	examples []Example
}

// NewRegistry fsys の dir 以下にある .em ファイルを読み込む
// dir が存在しない場合は空のレジストリを返す
func NewRegistry(fsys fs.FS, dir string) (*Registry, error) {
	registry := &Registry{fsys: fsys, dir: dir}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return registry, nil
		}
		return nil, fmt.Errorf("failed to read examples: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(path.Ext(entry.Name()), script.Extension) {
			continue
		}

		p := path.Join(dir, entry.Name())
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("failed to read example %s: %w", p, err)
		}
		content := string(data)
		registry.examples = append(registry.examples, Example{
			Name:        entry.Name(),
			Path:        p,
			Content:     content,
			Description: ExtractDescription(content),
			Functions:   ExtractFunctions(content),
		})
	}

	sort.Slice(registry.examples, func(i, j int) bool {
		return registry.examples[i].Name < registry.examples[j].Name
	})
	return registry, nil
}

// List サンプル一覧を取得
func (r *Registry) List() []Example {
	return append([]Example(nil), r.examples...)
}

// Lookup 名前でサンプルを探す（拡張子は省略可、大文字小文字は区別しない）
func (r *Registry) Lookup(name string) (*Example, bool) {
	if !strings.EqualFold(path.Ext(name), script.Extension) {
		name += script.Extension
	}
	if len(r.examples) == 0 {
		return nil, false
	}
	p, err := fileutil.FindFileCaseInsensitiveFS(r.fsys, r.dir, name)
	if err != nil {
		return nil, false
	}
	for i := range r.examples {
		if r.examples[i].Path == p {
			return &r.examples[i], true
		}
	}
	return nil, false
}

// WriteResult は WriteTo の結果
type WriteResult struct {
	Written []string // 書き出したファイル
	Skipped []string // 既に存在したため書き出さなかったファイル
}

// WriteTo サンプルを dir に書き出す
// 既存のファイルは上書きしない
func (r *Registry) WriteTo(dir string) (*WriteResult, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create examples directory: %w", err)
	}

	result := &WriteResult{}
	for _, ex := range r.examples {
		dest := filepath.Join(dir, ex.Name)
		f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err != nil {
			if errors.Is(err, fs.ErrExist) {
				result.Skipped = append(result.Skipped, dest)
				continue
			}
			return result, fmt.Errorf("failed to create %s: %w", dest, err)
		}
		_, werr := f.WriteString(ex.Content)
		cerr := f.Close()
		if werr != nil {
			return result, fmt.Errorf("failed to write %s: %w", dest, werr)
		}
		if cerr != nil {
			return result, fmt.Errorf("failed to write %s: %w", dest, cerr)
		}
		result.Written = append(result.Written, dest)
	}
	return result, nil
}

// ExtractDescription 先頭の // コメント行を説明として取り出す
func ExtractDescription(content string) string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "//") {
			break
		}
		lines = append(lines, strings.TrimSpace(strings.TrimPrefix(line, "//")))
	}
	return strings.Join(lines, " ")
}

// ExtractFunctions 定義されている関数名を取り出す
// 構文解析せずにLexerのみを使用して軽量に抽出する
func ExtractFunctions(content string) []string {
	tokens, err := lexer.Tokenize(content)
	if err != nil {
		return nil
	}

	var names []string
	depth := 0
	for i, tok := range tokens {
		switch tok.Type {
		case token.LBRACE:
			depth++
		case token.RBRACE:
			depth--
		case token.FN:
			// クラスのメソッドは含めない
			if depth == 0 && i+1 < len(tokens) && tokens[i+1].Type == token.IDENT {
				names = append(names, tokens[i+1].Literal)
			}
		}
	}
	return names
}
