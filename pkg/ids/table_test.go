package ids

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"
)

const actionIDS = `IDS V1.0
4
0 NoAction()
200 PlaySound(S:Sound*)
200 PlaySound(S:Sound*,I:Channel*)
0x80000000 HighBit()
`

func TestParseTable(t *testing.T) {
	table, err := ParseTable("action.ids", strings.NewReader(actionIDS))
	if err != nil {
		t.Fatalf("ParseTable() error: %v", err)
	}
	if table.Name != "ACTION.IDS" {
		t.Errorf("Name = %q, want ACTION.IDS", table.Name)
	}
	if table.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", table.Len())
	}

	base, ok := table.LookupID(200)
	if !ok || len(base.Params) != 1 {
		t.Fatalf("LookupID(200) = %+v, %v", base, ok)
	}
	ov, ok := table.LookupOverflow(200)
	if !ok || len(ov.Params) != 2 {
		t.Fatalf("LookupOverflow(200) = %+v, %v", ov, ok)
	}
	if _, ok := table.LookupOverflow(0); ok {
		t.Error("NoAction has no overflow definition")
	}

	if e, ok := table.Lookup("playsound"); !ok || e != base {
		t.Error("Lookup should be case-insensitive and return the base definition")
	}
	if all := table.LookupAll("PlaySound"); len(all) != 2 {
		t.Errorf("LookupAll() returned %d entries, want 2", len(all))
	}

	high, ok := table.Lookup("HighBit")
	if !ok || high.ID != -2147483648 {
		t.Errorf("HighBit id = %v, want -2147483648", high)
	}
}

func TestParseTable_InvalidID(t *testing.T) {
	_, err := ParseTable("bad.ids", strings.NewReader("IDS V1.0\nzz Foo\n"))
	if err == nil {
		t.Fatal("expected error for invalid id")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error %q should mention the line", err)
	}
}

func TestParseTable_TabSeparated(t *testing.T) {
	table, err := ParseTable("EA.IDS", strings.NewReader("IDS V1.0\n2\tPC\n255\tENEMY\n0x1F \t EVILCUTOFF\n"))
	if err != nil {
		t.Fatalf("ParseTable() error: %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", table.Len())
	}
	tests := []struct {
		name string
		id   int64
	}{
		{"PC", 2},
		{"ENEMY", 255},
		{"EVILCUTOFF", 31},
	}
	for _, tt := range tests {
		e, ok := table.Lookup(tt.name)
		if !ok || e.ID != tt.id {
			t.Errorf("Lookup(%q) = %+v, %v; want id %d", tt.name, e, ok, tt.id)
		}
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"42", 42},
		{"-1", -1},
		{"0x4023", 16419},
		{"0xFFFFFFFF", -1},
		{"2147483648", -2147483648},
	}
	for _, tt := range tests {
		got, err := ParseID(tt.in)
		if err != nil {
			t.Errorf("ParseID(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseID(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseID_OutOfRange(t *testing.T) {
	for _, in := range []string{"4294967296", "-2147483649", "0x100000000", "0xFFFFFFFFFFFFFFFF"} {
		if _, err := ParseID(in); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("ParseID(%q) error = %v, want ErrOutOfRange", in, err)
		}
	}
	if v, err := ParseID("-2147483648"); err != nil || v != -2147483648 {
		t.Errorf("ParseID(-2147483648) = %d, %v", v, err)
	}
}

func TestLoadDir(t *testing.T) {
	fsys := fstest.MapFS{
		"ids/ACTION.IDS": {Data: []byte(actionIDS)},
		"ids/ea.ids":     {Data: []byte("IDS V1.0\n0 ANYONE\n255 ENEMY\n")},
		"ids/readme.txt": {Data: []byte("ignored")},
	}
	snap, err := LoadDir(fsys, "ids")
	if err != nil {
		t.Fatalf("LoadDir() error: %v", err)
	}
	if got := snap.Names(); len(got) != 2 || got[0] != "ACTION.IDS" || got[1] != "EA.IDS" {
		t.Errorf("Names() = %v", got)
	}
	if e, ok := snap.Lookup("ea", "enemy"); !ok || e.ID != 255 {
		t.Errorf("Lookup(ea, enemy) = %v, %v", e, ok)
	}
	if _, err := snap.Table("SPELL"); err == nil {
		t.Error("expected ErrTableNotFound")
	}
}

func TestLoadDir_Empty(t *testing.T) {
	fsys := fstest.MapFS{"ids/readme.txt": {Data: []byte("x")}}
	if _, err := LoadDir(fsys, "ids"); err == nil {
		t.Fatal("expected error for directory without ids files")
	}
}
