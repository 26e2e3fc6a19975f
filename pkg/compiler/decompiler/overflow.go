package decompiler

import (
	"github.com/zurustar/iescript/pkg/ids"
	"github.com/zurustar/iescript/pkg/opcode"
)

// Slots counts the non-default fields of a decoded record per parameter kind.
type Slots struct {
	Ints    int
	Strings int
	Objects int
	Points  int
}

// TriggerSlots counts the fields of t that carry a value.
func TriggerSlots(t *opcode.Trigger) Slots {
	var s Slots
	s.Ints = nonZero(t.Int1, t.Int2, t.Int3)
	s.Strings = nonEmpty(t.String1, t.String2)
	if !t.Object.IsEmpty() {
		s.Objects++
	}
	if !t.Point.IsZero() {
		s.Points++
	}
	return s
}

// ActionSlots counts the fields of a that carry a value. The override
// actor is not a parameter and is not counted.
func ActionSlots(a *opcode.Action) Slots {
	var s Slots
	s.Ints = nonZero(a.Int1, a.Int2, a.Int3)
	s.Strings = nonEmpty(a.String1, a.String2)
	for _, o := range a.Objects[1:] {
		if !o.IsEmpty() {
			s.Objects++
		}
	}
	if !a.Point.IsZero() {
		s.Points++
	}
	return s
}

// UseOverflow reports whether the slots in use exceed what base declares
// in any category, meaning the record was written for the overflow
// definition.
func UseOverflow(base *ids.Entry, used Slots) bool {
	return used.Ints > base.Count(ids.Integer) ||
		used.Strings > base.Count(ids.String) ||
		used.Objects > base.Count(ids.Object) ||
		used.Points > base.Count(ids.Point)
}

// definition returns the base definition of id, or its overflow definition
// when the record uses more slots than the base declares.
func definition(res ids.Resolver, table string, id int64, used Slots) (*ids.Entry, bool) {
	base, ok := res.LookupID(table, id)
	if !ok {
		return nil, false
	}
	if UseOverflow(base, used) {
		if ov, ok := res.LookupOverflow(table, id); ok {
			return ov, true
		}
	}
	return base, true
}

func nonZero(vs ...int64) int {
	n := 0
	for _, v := range vs {
		if v != 0 {
			n++
		}
	}
	return n
}

func nonEmpty(vs ...string) int {
	n := 0
	for _, v := range vs {
		if v != "" {
			n++
		}
	}
	return n
}
