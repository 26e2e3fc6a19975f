// Package script reads and writes script files: source scripts (.BAF) and
// compiled scripts (.BCS).
package script

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/maruel/natural"

	"github.com/zurustar/iescript/pkg/fileutil"
)

// Kind はスクリプトの種類
type Kind int

const (
	Source   Kind = iota // .BAF
	Compiled             // .BCS
)

// Ext は拡張子（ドット付き大文字）を返す
func (k Kind) Ext() string {
	if k == Compiled {
		return ".BCS"
	}
	return ".BAF"
}

func (k Kind) String() string {
	if k == Compiled {
		return "compiled"
	}
	return "source"
}

// KindOf はファイル名から種類を判定する（大文字小文字を無視）
func KindOf(name string) (Kind, bool) {
	switch strings.ToUpper(path.Ext(name)) {
	case ".BAF":
		return Source, true
	case ".BCS":
		return Compiled, true
	}
	return 0, false
}

// Script はスクリプトファイルを表す
type Script struct {
	FileName string // ファイル名
	Path     string // ベースパスからの相対パス
	Kind     Kind
	Content  string // UTF-8に変換された内容
	Size     int64  // ファイルサイズ
}

// Loader はスクリプトファイルの読み書きを行う
type Loader struct {
	fs    fileutil.FileSystem
	codec Codec
}

// NewLoader Loaderを作成
func NewLoader(fsys fileutil.FileSystem, codec Codec) *Loader {
	return &Loader{fs: fsys, codec: codec}
}

// LoadAll は指定した種類のスクリプトをすべて読み込む。結果は自然順に並ぶ
func (l *Loader) LoadAll(kind Kind) ([]Script, error) {
	files, err := l.find(kind)
	if err != nil {
		return nil, fmt.Errorf("failed to find script files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files found in %s", kind.Ext(), l.fs.BasePath())
	}

	scripts := make([]Script, 0, len(files))
	for _, p := range files {
		s, err := l.Load(p)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, *s)
	}
	return scripts, nil
}

// find は拡張子が一致するファイルを検出する（case-insensitive）
func (l *Loader) find(kind Kind) ([]string, error) {
	var files []string
	err := l.fs.Walk(".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if k, ok := KindOf(p); ok && k == kind {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool {
		return natural.Less(strings.ToUpper(files[i]), strings.ToUpper(files[j]))
	})
	return files, nil
}

// Load は単一のスクリプトファイルを読み込む
func (l *Loader) Load(p string) (*Script, error) {
	kind, ok := KindOf(p)
	if !ok {
		return nil, fmt.Errorf("%s: not a script file", p)
	}
	data, err := l.fs.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}
	content, err := l.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", p, err)
	}
	return &Script{
		FileName: path.Base(p),
		Path:     p,
		Kind:     kind,
		Content:  content,
		Size:     int64(len(data)),
	}, nil
}

// Save はスクリプトを書き込む
func (l *Loader) Save(p, content string) error {
	data, err := l.codec.Encode(content)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", p, err)
	}
	if err := l.fs.WriteFile(p, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	return nil
}

// Counterpart は compiled/source の対になるファイル名を返す ("A.BAF" -> "A.BCS")
func Counterpart(p string) string {
	kind, ok := KindOf(p)
	base := strings.TrimSuffix(p, path.Ext(p))
	if ok && kind == Source {
		return base + Compiled.Ext()
	}
	return base + Source.Ext()
}
