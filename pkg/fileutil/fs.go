// Package fileutil gives case-insensitive access to game directories.
// Infinity Engine data is usually authored on case-insensitive file
// systems, so "ACTION.IDS" may be stored as "action.ids" or "Action.ids".
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

// ErrReadOnly is returned when writing to a file system that cannot be written.
var ErrReadOnly = errors.New("file system is read-only")

// FileSystem は実ファイルシステムと fs.FS を統一的に扱うインターフェース
type FileSystem interface {
	// ReadFile はファイルの内容を読み込む（大文字小文字を無視）
	ReadFile(name string) ([]byte, error)
	// WriteFile はファイルを書き込む
	WriteFile(name string, data []byte) error
	// FindFile は大文字小文字を無視してファイルを検索し、実際のパスを返す
	FindFile(dir, filename string) (string, error)
	// Walk はディレクトリを再帰的に走査する。パスはベースパスからの相対パス
	Walk(root string, fn fs.WalkDirFunc) error
	// BasePath はベースパスを返す
	BasePath() string
}

// RealFS は実ファイルシステムへのアクセスを提供する
type RealFS struct {
	basePath string
}

func NewRealFS(basePath string) *RealFS {
	return &RealFS{basePath: basePath}
}

func (r *RealFS) ReadFile(name string) ([]byte, error) {
	actual, err := r.find(r.resolve(name))
	if err != nil {
		return nil, err
	}
	return os.ReadFile(actual)
}

// WriteFile はファイルを書き込む。同名のファイルが大文字小文字違いで存在する場合はそれを上書きする
func (r *RealFS) WriteFile(name string, data []byte) error {
	p := r.resolve(name)
	if actual, err := r.find(p); err == nil {
		p = actual
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", name, err)
	}
	return os.WriteFile(p, data, 0o644)
}

func (r *RealFS) FindFile(dir, filename string) (string, error) {
	searchDir := dir
	if r.basePath != "" && !filepath.IsAbs(dir) {
		searchDir = filepath.Join(r.basePath, dir)
	}
	return FindFileCaseInsensitive(searchDir, filename)
}

func (r *RealFS) Walk(root string, fn fs.WalkDirFunc) error {
	p := root
	if r.basePath != "" && !filepath.IsAbs(root) {
		p = filepath.Join(r.basePath, root)
	}
	return filepath.WalkDir(p, func(walkPath string, d fs.DirEntry, err error) error {
		rel := walkPath
		if r.basePath != "" {
			if relPath, relErr := filepath.Rel(r.basePath, walkPath); relErr == nil {
				rel = filepath.ToSlash(relPath)
			}
		}
		return fn(rel, d, err)
	})
}

func (r *RealFS) BasePath() string {
	return r.basePath
}

func (r *RealFS) resolve(name string) string {
	// 先頭の "/" や "\" を除去
	clean := strings.TrimPrefix(strings.TrimPrefix(name, "/"), "\\")
	if filepath.IsAbs(name) {
		return name
	}
	if r.basePath != "" {
		return filepath.Join(r.basePath, clean)
	}
	return clean
}

func (r *RealFS) find(p string) (string, error) {
	// まず直接アクセスを試みる
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	return FindFileCaseInsensitive(filepath.Dir(p), filepath.Base(p))
}

// DirFS adapts a read-only fs.FS, such as fstest.MapFS or os.DirFS.
type DirFS struct {
	fsys fs.FS
}

func NewDirFS(fsys fs.FS) *DirFS {
	return &DirFS{fsys: fsys}
}

func (d *DirFS) ReadFile(name string) ([]byte, error) {
	name = strings.TrimPrefix(filepath.ToSlash(name), "/")
	if data, err := fs.ReadFile(d.fsys, name); err == nil {
		return data, nil
	}
	actual, err := FindFileCaseInsensitiveFS(d.fsys, path.Dir(name), path.Base(name))
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(d.fsys, actual)
}

func (d *DirFS) WriteFile(name string, data []byte) error {
	return fmt.Errorf("%s: %w", name, ErrReadOnly)
}

func (d *DirFS) FindFile(dir, filename string) (string, error) {
	return FindFileCaseInsensitiveFS(d.fsys, dir, filename)
}

func (d *DirFS) Walk(root string, fn fs.WalkDirFunc) error {
	if root == "" {
		root = "."
	}
	return fs.WalkDir(d.fsys, root, fn)
}

func (d *DirFS) BasePath() string {
	return ""
}

// FindFileCaseInsensitive searches dir for filename ignoring case and
// returns the actual path.
func FindFileCaseInsensitive(dir, filename string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(entry.Name(), filename) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("file not found: %s (searched in %s): %w", filename, dir, fs.ErrNotExist)
}

// FindFileCaseInsensitiveFS is FindFileCaseInsensitive over an fs.FS.
func FindFileCaseInsensitiveFS(fsys fs.FS, dir, filename string) (string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(entry.Name(), filename) {
			// fs.FS uses forward slashes
			return path.Join(dir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("file not found: %s (searched in %s): %w", filename, dir, fs.ErrNotExist)
}
