// Package resource knows which game resources exist and what the game's
// string table says.
package resource

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/zurustar/iescript/pkg/fileutil"
)

// Index is an immutable set of resource names (upper-case NAME.EXT) with
// the path each was found at.
type Index struct {
	paths map[string]string
	Root  string
	Built time.Time
}

// NewIndex creates an index from resource names, for callers that already
// know what exists.
func NewIndex(names ...string) *Index {
	ix := &Index{paths: make(map[string]string, len(names)), Built: time.Now()}
	for _, n := range names {
		ix.paths[Key(n)] = n
	}
	return ix
}

// Key is the index key of a file: its upper-case base name.
func Key(p string) string {
	return strings.ToUpper(path.Base(strings.ReplaceAll(p, "\\", "/")))
}

// BuildIndex walks fsys and indexes every file whose slash-separated
// relative path matches one of globs (case-insensitive). No globs means all files.
func BuildIndex(fsys fileutil.FileSystem, globs []string) (*Index, error) {
	for _, g := range globs {
		if !doublestar.ValidatePattern(strings.ToLower(g)) {
			return nil, fmt.Errorf("invalid resource glob %q", g)
		}
	}

	ix := &Index{paths: make(map[string]string), Root: fsys.BasePath()}
	err := fsys.Walk(".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !matchAny(globs, p) {
			return nil
		}
		// 最初に見つかったものを優先
		if _, dup := ix.paths[Key(p)]; !dup {
			ix.paths[Key(p)] = p
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to index %s: %w", fsys.BasePath(), err)
	}
	ix.Built = time.Now()
	return ix, nil
}

func matchAny(globs []string, p string) bool {
	if len(globs) == 0 {
		return true
	}
	p = strings.ToLower(p)
	for _, g := range globs {
		if ok, _ := doublestar.Match(strings.ToLower(g), p); ok {
			return true
		}
	}
	return false
}

// Merge returns an index holding both sets of names. Entries of ix win,
// which is how an override directory shadows the game's own files.
func (ix *Index) Merge(other *Index) *Index {
	out := &Index{paths: make(map[string]string, ix.Len()+other.Len()), Root: ix.Root, Built: ix.Built}
	for k, v := range other.paths {
		out.paths[k] = v
	}
	for k, v := range ix.paths {
		out.paths[k] = v
	}
	return out
}

// Exists reports whether NAME.EXT is in the index.
func (ix *Index) Exists(name string) bool {
	if ix == nil {
		return false
	}
	_, ok := ix.paths[strings.ToUpper(name)]
	return ok
}

// Path returns where the resource was found.
func (ix *Index) Path(name string) (string, bool) {
	if ix == nil {
		return "", false
	}
	p, ok := ix.paths[strings.ToUpper(name)]
	return p, ok
}

func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.paths)
}

// Names returns all keys, sorted.
func (ix *Index) Names() []string {
	if ix == nil {
		return nil
	}
	names := make([]string, 0, len(ix.paths))
	for k := range ix.paths {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
