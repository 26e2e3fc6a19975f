package ids

import (
	"strings"
	"sync"
	"testing"
)

func mustTable(t *testing.T, name, text string) *Table {
	t.Helper()
	table, err := ParseTable(name, strings.NewReader(text))
	if err != nil {
		t.Fatalf("ParseTable(%s) error: %v", name, err)
	}
	return table
}

func TestSnapshotFingerprint(t *testing.T) {
	a := NewSnapshot(mustTable(t, "EA.IDS", "0 ANYONE\n255 ENEMY\n"))
	b := NewSnapshot(mustTable(t, "EA.IDS", "0 ANYONE\n255 ENEMY\n"))
	c := NewSnapshot(mustTable(t, "EA.IDS", "0 ANYONE\n254 ENEMY\n"))

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical tables should share a fingerprint")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("different tables should not share a fingerprint")
	}
	if len(a.Fingerprint()) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(a.Fingerprint()))
	}
}

func TestRegistrySwap(t *testing.T) {
	first := NewSnapshot(mustTable(t, "EA.IDS", "255 ENEMY\n"))
	second := NewSnapshot(mustTable(t, "EA.IDS", "255 FOE\n"))
	reg := NewRegistry(first)

	svc := NewService(reg, nil)
	pinned := svc.Pin()

	if old := reg.Swap(second); old != first {
		t.Error("Swap should return the previous snapshot")
	}
	if _, ok := pinned.Lookup("EA", "ENEMY"); !ok {
		t.Error("a pinned resolver keeps seeing its snapshot")
	}
	if _, ok := svc.Lookup("EA", "FOE"); !ok {
		t.Error("the service should see the new snapshot")
	}
}

func TestRegistryConcurrentReaders(t *testing.T) {
	reg := NewRegistry(NewSnapshot(mustTable(t, "EA.IDS", "255 ENEMY\n")))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, ok := reg.Snapshot().LookupID("EA", 255); !ok {
					t.Error("lookup failed during swap")
					return
				}
			}
		}()
	}
	for i := 0; i < 50; i++ {
		reg.Swap(NewSnapshot(mustTable(t, "EA.IDS", "255 ENEMY\n")))
	}
	wg.Wait()
}

func TestServiceWithoutResources(t *testing.T) {
	svc := NewService(NewRegistry(NewSnapshot()), nil)
	if svc.ResourceExists("AR0602.ARE") {
		t.Error("no resources configured")
	}
	if svc.StringRef(1) != "" {
		t.Error("no string table configured")
	}
}
