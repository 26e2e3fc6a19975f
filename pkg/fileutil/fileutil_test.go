package fileutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"testing/fstest"
)

func TestFindFileCaseInsensitive(t *testing.T) {
	tmpDir := t.TempDir()
	for _, name := range []string{"ACTION.IDS", "trigger.ids", "Object.Ids"} {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte("IDS V1.0\n"), 0o644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}

	tests := []struct {
		name       string
		searchName string
		want       string
		shouldFind bool
	}{
		{"exact match", "ACTION.IDS", "ACTION.IDS", true},
		{"lowercase search", "action.ids", "ACTION.IDS", true},
		{"uppercase search for lowercase file", "TRIGGER.IDS", "trigger.ids", true},
		{"mixed case", "OBJECT.IDS", "Object.Ids", true},
		{"missing", "EA.IDS", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindFileCaseInsensitive(tmpDir, tt.searchName)
			if !tt.shouldFind {
				if !errors.Is(err, fs.ErrNotExist) {
					t.Errorf("expected fs.ErrNotExist, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if filepath.Base(got) != tt.want {
				t.Errorf("got %s, want %s", filepath.Base(got), tt.want)
			}
		})
	}
}

func TestRealFS_ReadWrite(t *testing.T) {
	tmpDir := t.TempDir()
	fsys := NewRealFS(tmpDir)

	if err := fsys.WriteFile("scripts/Imoen.baf", []byte("IF")); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	data, err := fsys.ReadFile("scripts/IMOEN.BAF")
	if err != nil || string(data) != "IF" {
		t.Fatalf("ReadFile() = %q, %v", data, err)
	}

	// Overwriting through a differently cased name keeps the original file.
	if err := fsys.WriteFile("scripts/IMOEN.BAF", []byte("IF2")); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(filepath.Join(tmpDir, "scripts"))
	if len(entries) != 1 || entries[0].Name() != "Imoen.baf" {
		t.Errorf("entries = %v", entries)
	}
}

func TestWalk(t *testing.T) {
	mapFS := fstest.MapFS{
		"override/IMOEN.CRE":  {Data: []byte{}},
		"override/AR0602.ARE": {Data: []byte{}},
		"scripts/a.baf":       {Data: []byte{}},
	}
	tmpDir := t.TempDir()
	for name := range mapFS {
		p := filepath.Join(tmpDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	for _, fsys := range []FileSystem{NewDirFS(mapFS), NewRealFS(tmpDir)} {
		var files []string
		err := fsys.Walk(".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Walk() error: %v", err)
		}
		sort.Strings(files)
		want := []string{"override/AR0602.ARE", "override/IMOEN.CRE", "scripts/a.baf"}
		if len(files) != len(want) {
			t.Fatalf("%T: files = %v, want %v", fsys, files, want)
		}
		for i := range want {
			if files[i] != want[i] {
				t.Errorf("%T: files = %v, want %v", fsys, files, want)
				break
			}
		}
	}
}

func TestDirFS_ReadOnly(t *testing.T) {
	fsys := NewDirFS(fstest.MapFS{"ea.ids": {Data: []byte("0 ANYONE")}})
	data, err := fsys.ReadFile("EA.IDS")
	if err != nil || string(data) != "0 ANYONE" {
		t.Errorf("ReadFile() = %q, %v", data, err)
	}
	if err := fsys.WriteFile("EA.IDS", nil); !errors.Is(err, ErrReadOnly) {
		t.Errorf("WriteFile() error = %v, want ErrReadOnly", err)
	}
}
