package ids

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"lukechampine.com/blake3"
)

var ErrTableNotFound = errors.New("ids table not found")

// ErrOutOfRange is returned for numbers that do not fit a 32-bit field.
var ErrOutOfRange = errors.New("value out of 32-bit range")

// Snapshot is an immutable set of tables.
type Snapshot struct {
	tables map[string]*Table
}

func NewSnapshot(tables ...*Table) *Snapshot {
	s := &Snapshot{tables: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		s.tables[t.Name] = t
	}
	return s
}

// Table returns the named table; the ".IDS" suffix is optional.
func (s *Snapshot) Table(name string) (*Table, error) {
	t, ok := s.tables[TableName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, TableName(name))
	}
	return t, nil
}

// Names returns the table names in sorted order.
func (s *Snapshot) Names() []string {
	names := make([]string, 0, len(s.tables))
	for n := range s.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s *Snapshot) Lookup(table, name string) (*Entry, bool) {
	t, err := s.Table(table)
	if err != nil {
		return nil, false
	}
	return t.Lookup(name)
}

func (s *Snapshot) LookupID(table string, id int64) (*Entry, bool) {
	t, err := s.Table(table)
	if err != nil {
		return nil, false
	}
	return t.LookupID(id)
}

func (s *Snapshot) LookupOverflow(table string, id int64) (*Entry, bool) {
	t, err := s.Table(table)
	if err != nil {
		return nil, false
	}
	return t.LookupOverflow(id)
}

// Fingerprint is a BLAKE3 digest over every table, stable across loads of
// identical content.
func (s *Snapshot) Fingerprint() string {
	h := blake3.New(32, nil)
	for _, name := range s.Names() {
		h.Write([]byte(name))
		h.Write([]byte{0})
		for _, e := range s.tables[name].entries {
			h.Write([]byte(strconv.FormatInt(e.ID, 10)))
			h.Write([]byte{' '})
			h.Write([]byte(e.Text))
			h.Write([]byte{'\n'})
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// LoadDir parses every *.IDS file (any case) found directly under dir.
func LoadDir(fsys fs.FS, dir string) (*Snapshot, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read ids directory %s: %w", dir, err)
	}

	var tables []*Table
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(path.Ext(entry.Name()), ".ids") {
			continue
		}
		f, err := fsys.Open(path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", entry.Name(), err)
		}
		t, err := ParseTable(entry.Name(), f)
		f.Close()
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no ids files found in %s", dir)
	}
	return NewSnapshot(tables...), nil
}

// Registry publishes the current Snapshot. Reloads replace the snapshot as a
// whole so readers never observe a partially updated set of tables.
type Registry struct {
	cur atomic.Pointer[Snapshot]
}

func NewRegistry(s *Snapshot) *Registry {
	r := &Registry{}
	r.cur.Store(s)
	return r
}

func (r *Registry) Snapshot() *Snapshot {
	return r.cur.Load()
}

// Swap installs s and returns the previous snapshot.
func (r *Registry) Swap(s *Snapshot) *Snapshot {
	return r.cur.Swap(s)
}
