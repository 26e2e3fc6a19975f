package opcode

import (
	"errors"
	"reflect"
	"testing"
)

func TestDecode_EncodedRecords(t *testing.T) {
	for _, name := range []string{"bg2", "iwd", "pst", "iwd2"} {
		t.Run(name, func(t *testing.T) {
			p := profile(t, name)
			obj := NewObject(p)
			obj.IDs[0] = 255
			obj.IDs[p.Width()-1] = 2
			obj.Qualifiers[0] = 17
			obj.Name = "Imoen"
			if p.Rect {
				obj.Rect = Rect{1, 2, 3, 4}
			}

			tr := Trigger{ID: 0x400F, Int1: 5, Negated: true, Int3: -1, String1: "GLOBALvar", Object: obj}
			if p.TriggerPoint {
				tr.Point = Point{X: 7, Y: 8}
			}
			ac := Action{ID: 30, Int1: 1, Point: Point{X: 100, Y: 200}, String1: "a b", String2: "c",
				Objects: [3]Object{NewObject(p), obj, NewObject(p)}}

			e := NewEncoder(p)
			e.marker(MarkResponse)
			e.int(100)
			e.Action(&ac)
			e.Action(&ac)
			e.newline()
			e.marker(MarkResponse)
			e.Trigger(&tr)

			d := NewDecoder(p, e.String())
			if err := d.Expect(MarkResponse); err != nil {
				t.Fatal(err)
			}
			if w, err := d.Number(); err != nil || w != 100 {
				t.Fatalf("weight = %d, %v", w, err)
			}
			for i := 0; i < 2; i++ {
				got, err := d.Action()
				if err != nil {
					t.Fatalf("Action() error: %v", err)
				}
				got.Line = 0
				if !reflect.DeepEqual(got, ac) {
					t.Errorf("Action() = %+v\nwant %+v", got, ac)
				}
			}
			if err := d.Expect(MarkResponse); err != nil {
				t.Fatal(err)
			}
			got, err := d.Trigger()
			if err != nil {
				t.Fatalf("Trigger() error: %v", err)
			}
			got.Line = 0
			if !reflect.DeepEqual(got, tr) {
				t.Errorf("Trigger() = %+v\nwant %+v", got, tr)
			}
			if !d.AtEOF() {
				t.Errorf("unconsumed tokens at %d", d.Line())
			}
		})
	}
}

func TestDecode_MalformedRecordResynchronises(t *testing.T) {
	p := profile(t, "bg2")
	input := "TR\n16419 0 0 0 \"\" \"\" OB\n0 0 0 0 0 0 0 0 0 0 0 0 \"\"OB\nTR\n" +
		"TR\n16419 0 0 0 0 \"\" \"\" OB\n0 0 0 0 0 0 0 0 0 0 0 0 \"\"OB\nTR\n"
	d := NewDecoder(p, input)

	_, err := d.Trigger()
	var rerr *RecordError
	if !errors.As(err, &rerr) {
		t.Fatalf("error = %v, want *RecordError", err)
	}
	if rerr.Line != 2 {
		t.Errorf("error line = %d, want 2", rerr.Line)
	}

	tr, err := d.Trigger()
	if err != nil {
		t.Fatalf("second Trigger() error: %v", err)
	}
	if tr.ID != 16419 || tr.Line != 5 {
		t.Errorf("second trigger = id %d line %d", tr.ID, tr.Line)
	}
}

func TestDecode_Placeholder(t *testing.T) {
	p := profile(t, "bg2")
	d := NewDecoder(p, "AC\nError - Bogus not found in ACTION.IDS\nAC\nRE\n")
	_, err := d.Action()
	var rerr *RecordError
	if !errors.As(err, &rerr) || !rerr.Placeholder {
		t.Fatalf("error = %v, want placeholder", err)
	}
	if rerr.Message != "Bogus not found in ACTION.IDS" {
		t.Errorf("message = %q", rerr.Message)
	}
	if !d.Peek().Is(MarkResponse) {
		t.Errorf("decoder should be positioned after the placeholder, at %+v", d.Peek())
	}
}

func TestObjectIsEmpty(t *testing.T) {
	p := profile(t, "iwd")
	o := NewObject(p)
	if !o.IsEmpty() {
		t.Error("new object should be empty")
	}
	o.Qualifiers[4] = 1
	if o.IsEmpty() {
		t.Error("object with a qualifier is not empty")
	}
}
