// Package fileutil はゲームデータへのファイルアクセスを提供する
// DOS 由来のデータはファイル名の大文字小文字が揃っていないため、
// パスの各要素を大文字小文字を無視して解決する
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileSystem はゲームデータの読み込み元
type FileSystem interface {
	// Open はファイルを開く（大文字小文字を無視）
	Open(name string) (fs.File, error)
	// ReadFile はファイルの内容を読み込む（大文字小文字を無視）
	ReadFile(name string) ([]byte, error)
	// Exists はファイルが存在するかを返す
	Exists(name string) bool
}

// FS は fs.FS 上の FileSystem 実装
type FS struct {
	fsys     fs.FS
	embedded bool
}

// NewRealFS は basePath 以下の実ファイルシステムを扱う FS を作成する
func NewRealFS(basePath string) *FS {
	if basePath == "" {
		basePath = "."
	}
	return &FS{fsys: os.DirFS(basePath)}
}

// NewEmbedFS は fsys の dir 以下を扱う FS を作成する
func NewEmbedFS(fsys fs.FS, dir string) (*FS, error) {
	sub := fsys
	if dir != "" && dir != "." {
		var err error
		if sub, err = fs.Sub(fsys, dir); err != nil {
			return nil, err
		}
	}
	return &FS{fsys: sub, embedded: true}, nil
}

// IsEmbedded は埋め込みファイルシステムかどうかを返す
func (f *FS) IsEmbedded() bool { return f.embedded }

func (f *FS) Open(name string) (fs.File, error) {
	p, err := f.Resolve(name)
	if err != nil {
		return nil, err
	}
	return f.fsys.Open(p)
}

func (f *FS) ReadFile(name string) ([]byte, error) {
	p, err := f.Resolve(name)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(f.fsys, p)
}

func (f *FS) Exists(name string) bool {
	_, err := f.Resolve(name)
	return err == nil
}

// Resolve は name を実在するパスに解決する
func (f *FS) Resolve(name string) (string, error) {
	clean := path.Clean(strings.TrimLeft(strings.ReplaceAll(name, "\\", "/"), "/"))
	if !fs.ValidPath(clean) {
		return "", &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	// まず直接アクセスを試みる
	if _, err := fs.Stat(f.fsys, clean); err == nil {
		return clean, nil
	}

	dir := "."
	for _, elem := range strings.Split(clean, "/") {
		actual, err := findEntry(f.fsys, dir, elem)
		if err != nil {
			return "", &fs.PathError{Op: "open", Path: name, Err: err}
		}
		dir = path.Join(dir, actual)
	}
	return dir, nil
}

// findEntry は dir 内で name に大文字小文字を無視して一致する要素名を返す
func findEntry(fsys fs.FS, dir, name string) (string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fs.ErrNotExist
		}
		return "", err
	}
	for _, e := range entries {
		if strings.EqualFold(e.Name(), name) {
			return e.Name(), nil
		}
	}
	return "", fs.ErrNotExist
}

// FindFileCaseInsensitive は dir 内のファイルを大文字小文字を無視して検索し、
// 見つかったパスを返す
func FindFileCaseInsensitive(dir, filename string) (string, error) {
	actual, err := findEntry(os.DirFS(dir), ".", filename)
	if err != nil {
		return "", fmt.Errorf("file not found: %s (searched in %s): %w", filename, dir, err)
	}
	return filepath.Join(dir, actual), nil
}

// Layered は複数の FileSystem を順に探す FileSystem
// 最初に見つかったファイルを使う
type Layered []FileSystem

func (l Layered) pick(name string) (FileSystem, error) {
	for _, f := range l {
		if f.Exists(name) {
			return f, nil
		}
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

func (l Layered) Open(name string) (fs.File, error) {
	f, err := l.pick(name)
	if err != nil {
		return nil, err
	}
	return f.Open(name)
}

func (l Layered) ReadFile(name string) ([]byte, error) {
	f, err := l.pick(name)
	if err != nil {
		return nil, err
	}
	return f.ReadFile(name)
}

func (l Layered) Exists(name string) bool {
	_, err := l.pick(name)
	return err == nil
}
