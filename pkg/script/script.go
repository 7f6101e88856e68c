// Package script はスクリプトモジュールと文字列テーブルの読み込みを行う
package script

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/grayfoxier/scummvm/pkg/fileutil"
	"github.com/grayfoxier/scummvm/pkg/vm"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding は文字列テーブルの文字コードを表す
type Encoding string

const (
	UTF8     Encoding = "utf-8"
	ShiftJIS Encoding = "shift_jis"
	CP437    Encoding = "cp437"
)

// ParseEncoding は文字コード名を解釈する（大文字小文字を無視）
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return UTF8, nil
	case "shift_jis", "shift-jis", "sjis":
		return ShiftJIS, nil
	case "cp437", "ibm437":
		return CP437, nil
	default:
		return "", fmt.Errorf("unknown encoding %q", name)
	}
}

func (e Encoding) codec() encoding.Encoding {
	switch e {
	case ShiftJIS:
		return japanese.ShiftJIS
	case CP437:
		return charmap.CodePage437
	default:
		return unicode.UTF8
	}
}

// Loader はタイトルディレクトリからスクリプト資源を読み込む
type Loader struct {
	fs fileutil.FileSystem
}

// NewLoader 実ファイルシステム上のLoaderを作成
func NewLoader(basePath string) *Loader {
	return &Loader{fs: fileutil.NewRealFS(basePath)}
}

// NewLoaderFS 任意のFileSystem上のLoaderを作成
func NewLoaderFS(fsys fileutil.FileSystem) *Loader {
	return &Loader{fs: fsys}
}

// LoadModules はモジュールファイルを順に読み込む
// モジュール番号はリスト中の位置になる
func (l *Loader) LoadModules(names []string) ([]*vm.Module, error) {
	modules := make([]*vm.Module, 0, len(names))
	for _, name := range names {
		m, err := l.loadModule(name)
		if err != nil {
			return nil, fmt.Errorf("failed to load module %s: %w", name, err)
		}
		modules = append(modules, m)
	}
	return modules, nil
}

func (l *Loader) loadModule(name string) (*vm.Module, error) {
	f, err := l.fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return vm.LoadModule(f)
}

// LoadStrings は文字列テーブルを読み込む
// ファイルはNUL区切りの文字列列で、encで指定した文字コードからUTF-8に変換される
func (l *Loader) LoadStrings(name string, enc Encoding) (*Table, error) {
	data, err := l.fs.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read string table %s: %w", name, err)
	}
	t, err := ParseTable(bytes.NewReader(data), enc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse string table %s: %w", name, err)
	}
	return t, nil
}

// Table は文字列IDで引く文字列テーブル
type Table struct {
	strings []string
}

// NewTable は文字列のスライスからテーブルを作成
func NewTable(strs ...string) *Table {
	return &Table{strings: strs}
}

// ParseTable はNUL区切りの文字列列を読み込む
func ParseTable(r io.Reader, enc Encoding) (*Table, error) {
	reader := transform.NewReader(r, enc.codec().NewDecoder())
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", enc, err)
	}
	s := strings.TrimSuffix(string(data), "\x00")
	if s == "" {
		return &Table{}, nil
	}
	return &Table{strings: strings.Split(s, "\x00")}, nil
}

// Len は文字列の数を返す
func (t *Table) Len() int {
	return len(t.strings)
}

// String はIDに対応する文字列を返す
func (t *Table) String(id int) (string, bool) {
	if t == nil || id < 0 || id >= len(t.strings) {
		return "", false
	}
	return t.strings[id], true
}

// Bank はモジュールごとの文字列テーブルの集合
type Bank []*Table

// String はモジュール番号と文字列IDから文字列を返す
func (b Bank) String(module, id int) (string, bool) {
	if module < 0 || module >= len(b) {
		return "", false
	}
	return b[module].String(id)
}
