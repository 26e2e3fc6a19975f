package opcode

import (
	"strconv"
	"strings"

	"github.com/zurustar/iescript/pkg/game"
)

// Encoder writes records in the compiled layout of one game profile.
type Encoder struct {
	p *game.Profile
	b strings.Builder
}

// NewEncoder returns an empty encoder for profile p.
func NewEncoder(p *game.Profile) *Encoder {
	return &Encoder{p: p}
}

// Encode renders a whole script.
func Encode(p *game.Profile, blocks []Block) string {
	e := NewEncoder(p)
	e.marker(MarkScript)
	for i := range blocks {
		e.Block(&blocks[i])
	}
	e.marker(MarkScript)
	return e.String()
}

// String returns everything written so far.
func (e *Encoder) String() string {
	return e.b.String()
}

func (e *Encoder) marker(m Marker) {
	e.b.WriteString(string(m))
	e.b.WriteByte('\n')
}

// newline ends the current line unless it is already ended.
func (e *Encoder) newline() {
	s := e.b.String()
	if len(s) > 0 && s[len(s)-1] != '\n' {
		e.b.WriteByte('\n')
	}
}

func (e *Encoder) int(v int64) {
	e.b.WriteString(strconv.FormatInt(v, 10))
}

func (e *Encoder) str(s string) {
	e.b.WriteByte('"')
	e.b.WriteString(s)
	e.b.WriteByte('"')
}

func (e *Encoder) placeholder(m Marker, msg string) {
	e.marker(m)
	e.b.WriteString(ErrorPrefix)
	e.b.WriteString(strings.ReplaceAll(msg, "\n", " "))
	e.b.WriteByte('\n')
	e.marker(m)
}

// Block writes CR CO ... CO RS ... RS CR.
func (e *Encoder) Block(blk *Block) {
	e.marker(MarkBlock)
	e.marker(MarkCondition)
	for i := range blk.Triggers {
		e.Trigger(&blk.Triggers[i])
	}
	e.marker(MarkCondition)
	e.marker(MarkResponseSet)
	for i := range blk.Responses {
		e.Response(&blk.Responses[i])
	}
	e.marker(MarkResponseSet)
	e.marker(MarkBlock)
}

// Trigger writes TR id int1 flag int2 int3 [point] str1 str2 OB obj OB TR,
// or a placeholder when t failed to compile.
func (e *Encoder) Trigger(t *Trigger) {
	if t.Error != "" {
		e.placeholder(MarkTrigger, t.Error)
		return
	}
	e.marker(MarkTrigger)
	e.int(t.ID)
	e.b.WriteByte(' ')
	e.int(t.Int1)
	e.b.WriteByte(' ')
	if t.Negated {
		e.int(1)
	} else {
		e.int(0)
	}
	e.b.WriteByte(' ')
	e.int(t.Int2)
	e.b.WriteByte(' ')
	e.int(t.Int3)
	e.b.WriteByte(' ')
	if e.p.TriggerPoint {
		e.int(t.Point.X)
		e.b.WriteByte(' ')
		e.int(t.Point.Y)
		e.b.WriteByte(' ')
	}
	e.str(t.String1)
	e.b.WriteByte(' ')
	e.str(t.String2)
	e.b.WriteString(" ")
	e.marker(MarkObject)
	e.Object(&t.Object)
	e.marker(MarkObject)
	e.marker(MarkTrigger)
}

// Response writes RE weight, its actions and the closing RE.
func (e *Encoder) Response(r *Response) {
	e.marker(MarkResponse)
	e.int(r.Weight)
	for i := range r.Actions {
		e.Action(&r.Actions[i])
	}
	e.newline()
	e.marker(MarkResponse)
}

// Action writes AC id OB obj OB OB obj OB OB obj OB ints strings AC.
// The opening marker follows the response weight or the previous action on
// the same line.
func (e *Encoder) Action(a *Action) {
	if a.Error != "" {
		e.newline()
		e.placeholder(MarkAction, a.Error)
		return
	}
	e.marker(MarkAction)
	e.int(a.ID)
	for i := range a.Objects {
		e.marker(MarkObject)
		e.Object(&a.Objects[i])
		e.marker(MarkObject)
	}
	e.int(a.Int1)
	e.b.WriteByte(' ')
	e.int(a.Point.X)
	e.b.WriteByte(' ')
	e.int(a.Point.Y)
	e.b.WriteByte(' ')
	e.int(a.Int2)
	e.b.WriteByte(' ')
	e.int(a.Int3)
	e.str(a.String1)
	e.b.WriteByte(' ')
	e.str(a.String2)
	e.b.WriteString(" ")
	e.marker(MarkAction)
}

// Object writes the object fields; the caller writes the surrounding markers.
func (e *Encoder) Object(o *Object) {
	ids := o.IDs
	if len(ids) < e.p.Width() {
		padded := make([]int64, e.p.Width())
		copy(padded, ids)
		ids = padded
	}
	for _, v := range ids[:e.p.Leading] {
		e.int(v)
		e.b.WriteByte(' ')
	}
	for _, v := range o.Qualifiers {
		e.int(v)
		e.b.WriteByte(' ')
	}
	if e.p.Rect {
		e.b.WriteByte('[')
		for i, v := range o.Rect {
			if i > 0 {
				e.b.WriteByte('.')
			}
			e.int(v)
		}
		e.b.WriteString("] ")
	}
	e.str(o.Name)
	for _, v := range ids[e.p.Leading:e.p.Width()] {
		e.b.WriteByte(' ')
		e.int(v)
	}
	if e.p.Trailing() > 0 {
		e.b.WriteByte(' ')
	}
}
