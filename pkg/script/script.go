package script

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/zurustar/gem/pkg/fileutil"
)

// Extension は gem スクリプトの拡張子
const Extension = ".em"

// Script はスクリプトファイルを表す
type Script struct {
	FileName string // ファイル名
	Path     string // 実際に読み込んだパス
	Content  string // UTF-8に変換された内容
	Size     int64  // ファイルサイズ
}

// LoadFile スクリプトファイルを読み込み、指定エンコーディングからUTF-8に変換する
// ファイルが見つからない場合は同じディレクトリを大文字小文字を区別せずに探す
func LoadFile(path, encodingName string) (*Script, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	content, err := Decode(data, encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to convert encoding: %w", err)
	}

	return &Script{
		FileName: filepath.Base(resolved),
		Path:     resolved,
		Content:  content,
		Size:     info.Size(),
	}, nil
}

// resolvePath パスが存在しなければ大文字小文字を無視して探す
func resolvePath(path string) (string, error) {
	_, err := os.Stat(path)
	if err == nil {
		return path, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to stat file: %w", err)
	}
	found, findErr := fileutil.FindFileCaseInsensitive(filepath.Dir(path), filepath.Base(path))
	if findErr != nil {
		return "", fmt.Errorf("script not found: %s: %w", path, fs.ErrNotExist)
	}
	return found, nil
}

// Decode バイト列を指定エンコーディングからUTF-8文字列に変換する
// UTF-8の場合は先頭のBOMを取り除く
func Decode(data []byte, encodingName string) (string, error) {
	enc, err := lookupEncoding(encodingName)
	if err != nil {
		return "", err
	}

	reader := transform.NewReader(strings.NewReader(string(data)), enc.NewDecoder())
	utf8Data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", encodingName, err)
	}
	return string(utf8Data), nil
}

// ValidEncodings は受け付けるエンコーディング名
var ValidEncodings = []string{"utf-8", "shift_jis", "euc-jp"}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return unicode.UTF8BOM, nil
	case "shift_jis", "shift-jis", "sjis":
		return japanese.ShiftJIS, nil
	case "euc-jp", "eucjp":
		return japanese.EUCJP, nil
	default:
		return nil, fmt.Errorf("unsupported encoding: %s (must be one of %s)", name, strings.Join(ValidEncodings, ", "))
	}
}

// IsEncodingSupported エンコーディング名が使えるかを返す
func IsEncodingSupported(name string) bool {
	_, err := lookupEncoding(name)
	return err == nil
}
