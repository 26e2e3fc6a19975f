package resource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/zurustar/iescript/pkg/fileutil"
	"github.com/zurustar/iescript/pkg/ids"
	"github.com/zurustar/iescript/pkg/ids/idstest"
)

func gameFS() fileutil.FileSystem {
	return fileutil.NewDirFS(fstest.MapFS{
		"override/imoen.cre":     {Data: []byte("x")},
		"override/AR0602.ARE":    {Data: []byte("x")},
		"override/sub/Cut01.bcs": {Data: []byte("x")},
		"data/MYSOUND.wav":       {Data: []byte("x")},
		"data/IMOEN.CRE":         {Data: []byte("x")},
		"readme.txt":             {Data: []byte("x")},
	})
}

func TestBuildIndex(t *testing.T) {
	tests := []struct {
		name  string
		globs []string
		want  []string
	}{
		{
			name:  "all files",
			globs: nil,
			want:  []string{"AR0602.ARE", "CUT01.BCS", "IMOEN.CRE", "MYSOUND.WAV", "README.TXT"},
		},
		{
			name:  "override only",
			globs: []string{"override/**"},
			want:  []string{"AR0602.ARE", "CUT01.BCS", "IMOEN.CRE"},
		},
		{
			name:  "case-insensitive extension glob",
			globs: []string{"**/*.CRE", "**/*.WAV"},
			want:  []string{"IMOEN.CRE", "MYSOUND.WAV"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix, err := BuildIndex(gameFS(), tt.globs)
			if err != nil {
				t.Fatal(err)
			}
			if got := ix.Names(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Names() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildIndex_InvalidGlob(t *testing.T) {
	if _, err := BuildIndex(gameFS(), []string{"[unclosed"}); err == nil {
		t.Error("expected error for invalid glob")
	}
}

func TestIndex_ExistsAndMerge(t *testing.T) {
	game := NewIndex("data/IMOEN.CRE", "data/MYSOUND.WAV")
	override := NewIndex("override/imoen.cre")

	merged := override.Merge(game)
	if !merged.Exists("imoen.cre") || !merged.Exists("MYSOUND.WAV") {
		t.Errorf("merged index missing entries: %v", merged.Names())
	}
	if p, _ := merged.Path("IMOEN.CRE"); p != "override/imoen.cre" {
		t.Errorf("override should win, got %q", p)
	}
	var nilIndex *Index
	if nilIndex.Exists("X.CRE") || nilIndex.Len() != 0 {
		t.Error("nil index should be empty")
	}
}

func TestParseStringTable(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
		want map[int64]string
	}{
		{
			name: "yaml",
			file: "dialog.yaml",
			data: "1234: Hello there\n42: \"The answer\"\n",
			want: map[int64]string{1234: "Hello there", 42: "The answer"},
		},
		{
			name: "tab separated",
			file: "dialog.tsv",
			data: "1234\tHello there\r\n\n42\tLine one\\nLine two\n",
			want: map[int64]string{1234: "Hello there", 42: "Line one\nLine two"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := ParseStringTable(tt.file, []byte(tt.data))
			if err != nil {
				t.Fatal(err)
			}
			if st.Len() != len(tt.want) {
				t.Errorf("Len() = %d", st.Len())
			}
			for i, w := range tt.want {
				if got, ok := st.Text(i); !ok || got != w {
					t.Errorf("Text(%d) = %q, %v; want %q", i, got, ok, w)
				}
			}
		})
	}

	if _, err := ParseStringTable("x.tsv", []byte("abc\tfoo\n")); err == nil {
		t.Error("expected error for invalid index")
	}
	if _, err := ParseStringTable("x.tsv", []byte("12 foo\n")); err == nil {
		t.Error("expected error for missing tab")
	}
}

func TestParseScriptNames(t *testing.T) {
	names := ParseScriptNames([]byte("# creatures\nImoen\n\n  Jaheira \n"))
	if names.Len() != 2 {
		t.Errorf("Len() = %d, want 2", names.Len())
	}
	for _, n := range []string{"imoen", "JAHEIRA"} {
		if !names.Known(n) {
			t.Errorf("Known(%q) = false", n)
		}
	}
	if names.Known("# creatures") {
		t.Error("comment treated as name")
	}
}

func TestParseTitles(t *testing.T) {
	titles, err := ParseTitles("titles.yml", []byte("imoen.cre: Imoen\n"))
	if err != nil {
		t.Fatal(err)
	}
	if titles["IMOEN.CRE"] != "Imoen" {
		t.Errorf("titles = %v", titles)
	}
	titles, err = ParseTitles("titles.txt", []byte("JAHEIRA.CRE\tJaheira\n"))
	if err != nil {
		t.Fatal(err)
	}
	if titles["JAHEIRA.CRE"] != "Jaheira" {
		t.Errorf("titles = %v", titles)
	}
}

func TestCatalog(t *testing.T) {
	cat := NewCatalog(Contents{
		Index:   NewIndex("IMOEN.CRE"),
		Strings: NewStringTable(map[int64]string{1: "one"}),
		Titles:  map[string]string{"IMOEN.CRE": "Imoen"},
	})

	if !cat.Exists("imoen.cre") || cat.Exists("JAHEIRA.CRE") {
		t.Error("Exists mismatch")
	}
	if s, ok := cat.StringRef(1); !ok || s != "one" {
		t.Errorf("StringRef(1) = %q, %v", s, ok)
	}
	if title, ok := cat.ResourceTitle("Imoen.cre"); !ok || title != "Imoen" {
		t.Errorf("ResourceTitle = %q, %v", title, ok)
	}
	if _, enabled := cat.ScriptNameKnown("Imoen"); enabled {
		t.Error("script names should be disabled without a list")
	}

	pinned := cat.PinResources()
	cat.Update(func(c *Contents) {
		c.Index = NewIndex("JAHEIRA.CRE")
		c.ScriptNames = ParseScriptNames([]byte("Jaheira\n"))
	})

	if pinned.Exists("JAHEIRA.CRE") || !pinned.Exists("IMOEN.CRE") {
		t.Error("pinned resources changed after update")
	}
	if !cat.Exists("JAHEIRA.CRE") {
		t.Error("update not visible")
	}
	if known, enabled := cat.ScriptNameKnown("jaheira"); !known || !enabled {
		t.Errorf("ScriptNameKnown = %v, %v", known, enabled)
	}
	if s, _ := cat.StringRef(1); s != "one" {
		t.Error("update dropped the string table")
	}
}

func TestCatalog_ConcurrentSwap(t *testing.T) {
	cat := NewCatalog(Contents{Index: NewIndex("A.CRE")})
	svc := ids.NewService(ids.NewRegistry(idstest.Snapshot()), cat)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			cat.Swap(Contents{Index: NewIndex("B.CRE")})
			cat.Swap(Contents{Index: NewIndex("A.CRE")})
		}()
		go func() {
			defer wg.Done()
			r := svc.Pin()
			// a pinned view sees exactly one of the two indexes
			a, b := r.ResourceExists("A.CRE"), r.ResourceExists("B.CRE")
			if a == b {
				t.Errorf("inconsistent view: A=%v B=%v", a, b)
			}
		}()
	}
	wg.Wait()
}

func TestCache_SaveLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache", "index.db")
	c, err := OpenCache(path)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err := c.LoadIndex(ctx, "/game"); !errors.Is(err, ErrNotIndexed) {
		t.Errorf("expected ErrNotIndexed, got %v", err)
	}

	ix := NewIndex("override/IMOEN.CRE", "data/MYSOUND.WAV")
	ix.Root = "/game"
	if err := c.SaveIndex(ctx, ix); err != nil {
		t.Fatal(err)
	}
	// saving again replaces the rows
	ix2 := NewIndex("override/IMOEN.CRE")
	ix2.Root = "/game"
	if err := c.SaveIndex(ctx, ix2); err != nil {
		t.Fatal(err)
	}

	got, err := c.LoadIndex(ctx, "/game")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Names(), []string{"IMOEN.CRE"}) {
		t.Errorf("Names() = %v", got.Names())
	}
	if p, _ := got.Path("imoen.cre"); p != "override/IMOEN.CRE" {
		t.Errorf("Path = %q", p)
	}
	if got.Built.UnixNano() != ix2.Built.UnixNano() {
		t.Errorf("Built = %v, want %v", got.Built, ix2.Built)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("cache file not created: %v", err)
	}
}
