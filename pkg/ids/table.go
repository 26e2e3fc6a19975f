package ids

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Table is one parsed IDS file.
type Table struct {
	Name     string
	entries  []*Entry
	byID     map[int64]*Entry
	overflow map[int64]*Entry
	byName   map[string][]*Entry
}

// NewTable builds a table from entries in definition order. The first entry
// for an id is its base definition; a later entry with a different text
// becomes the overflow definition.
func NewTable(name string, entries []*Entry) *Table {
	t := &Table{
		Name:     TableName(name),
		byID:     make(map[int64]*Entry),
		overflow: make(map[int64]*Entry),
		byName:   make(map[string][]*Entry),
	}
	for _, e := range entries {
		t.add(e)
	}
	return t
}

func (t *Table) add(e *Entry) {
	t.entries = append(t.entries, e)
	if base, ok := t.byID[e.ID]; !ok {
		t.byID[e.ID] = e
	} else if _, ok := t.overflow[e.ID]; !ok && !strings.EqualFold(base.Text, e.Text) {
		t.overflow[e.ID] = e
	}
	key := strings.ToUpper(e.Name)
	t.byName[key] = append(t.byName[key], e)
}

// Lookup returns the first definition registered under name.
func (t *Table) Lookup(name string) (*Entry, bool) {
	all := t.byName[strings.ToUpper(strings.TrimSpace(name))]
	if len(all) == 0 {
		return nil, false
	}
	return all[0], true
}

// LookupAll returns every definition registered under name, in file order.
func (t *Table) LookupAll(name string) []*Entry {
	return t.byName[strings.ToUpper(strings.TrimSpace(name))]
}

func (t *Table) LookupID(id int64) (*Entry, bool) {
	e, ok := t.byID[id]
	return e, ok
}

func (t *Table) LookupOverflow(id int64) (*Entry, bool) {
	e, ok := t.overflow[id]
	return e, ok
}

// Entries returns the definitions in file order.
func (t *Table) Entries() []*Entry {
	return t.entries
}

func (t *Table) Len() int {
	return len(t.entries)
}

// ParseTable reads an IDS file. The optional "IDS V1.0" header and entry
// count line are skipped; every other non-blank line is "<id> <text>", the
// two separated by a space or a tab.
func ParseTable(name string, r io.Reader) (*Table, error) {
	var entries []*Entry
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if lineNo <= 2 && isHeaderLine(line) {
			continue
		}

		sep := strings.IndexAny(line, " \t")
		if sep < 0 {
			// Some tables carry stray single tokens; they define nothing.
			continue
		}
		id, err := ParseID(line[:sep])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", name, lineNo, err)
		}
		text := strings.TrimSpace(line[sep+1:])
		disp, params, err := ParseSignature(text)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", name, lineNo, err)
		}
		entries = append(entries, &Entry{ID: id, Name: disp, Text: text, Params: params})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return NewTable(name, entries), nil
}

func isHeaderLine(line string) bool {
	if strings.HasPrefix(strings.ToUpper(line), "IDS") {
		return true
	}
	_, err := strconv.Atoi(line)
	return err == nil
}

// ParseID parses a decimal or 0x-prefixed identifier and folds it into the
// signed 32-bit range the engine stores.
func ParseID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	var (
		v   int64
		err error
	)
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		var u uint64
		u, err = strconv.ParseUint(s[2:], 16, 64)
		if err == nil && u >= 1<<32 {
			return 0, fmt.Errorf("%w: %q", ErrOutOfRange, s)
		}
		v = int64(u)
	} else {
		v, err = strconv.ParseInt(s, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	if v < -1<<31 || v >= 1<<32 {
		return 0, fmt.Errorf("%w: %q", ErrOutOfRange, s)
	}
	return Normalize(v), nil
}

// Normalize maps values in [2^31, 2^32) onto their signed 32-bit equivalent.
func Normalize(v int64) int64 {
	if v >= 1<<31 && v < 1<<32 {
		return v - 1<<32
	}
	return v
}
