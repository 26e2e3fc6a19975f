package opcode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zurustar/iescript/pkg/game"
)

// RecordError reports a record that could not be read. The decoder has
// already skipped past the record's closing marker.
type RecordError struct {
	Line        int
	Message     string
	Placeholder bool // the record was an error placeholder written by the compiler
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Decoder reads records from a token stream.
type Decoder struct {
	p    *game.Profile
	toks []Token
	pos  int
}

// NewDecoder tokenizes text in the layout of profile p.
func NewDecoder(p *game.Profile, text string) *Decoder {
	return &Decoder{p: p, toks: Tokenize(text)}
}

// Peek returns the next token without consuming it.
func (d *Decoder) Peek() Token {
	if d.pos >= len(d.toks) {
		line := 0
		if len(d.toks) > 0 {
			line = d.toks[len(d.toks)-1].Line
		}
		return Token{Kind: EOF, Line: line}
	}
	return d.toks[d.pos]
}

func (d *Decoder) next() Token {
	t := d.Peek()
	if d.pos < len(d.toks) {
		d.pos++
	}
	return t
}

// AtEOF reports whether all tokens are consumed.
func (d *Decoder) AtEOF() bool {
	return d.pos >= len(d.toks)
}

// Line returns the line of the next token.
func (d *Decoder) Line() int {
	return d.Peek().Line
}

// Accept consumes the next token if it is marker m.
func (d *Decoder) Accept(m Marker) bool {
	if d.Peek().Is(m) {
		d.pos++
		return true
	}
	return false
}

// Expect consumes marker m or fails without consuming anything.
func (d *Decoder) Expect(m Marker) error {
	t := d.Peek()
	if !t.Is(m) {
		return &RecordError{Line: t.Line, Message: fmt.Sprintf("expected %s, found %s", m, describe(t))}
	}
	d.pos++
	return nil
}

// SkipPast discards tokens up to and including the next marker m.
func (d *Decoder) SkipPast(m Marker) {
	for !d.AtEOF() {
		if d.next().Is(m) {
			return
		}
	}
}

// Number reads a number token, used for response weights.
func (d *Decoder) Number() (int64, error) {
	t := d.Peek()
	if t.Kind != TokNumber {
		return 0, &RecordError{Line: t.Line, Message: fmt.Sprintf("expected number, found %s", describe(t))}
	}
	d.pos++
	return t.Num, nil
}

func describe(t Token) string {
	switch t.Kind {
	case EOF:
		return "end of input"
	case TokString:
		return strconv.Quote(t.Text)
	case TokError:
		return ErrorPrefix + t.Text
	}
	return fmt.Sprintf("%q", t.Text)
}

// fieldReader reads a fixed sequence of fields and keeps the first failure.
type fieldReader struct {
	d   *Decoder
	err error
}

func (f *fieldReader) num() int64 {
	if f.err != nil {
		return 0
	}
	t := f.d.next()
	if t.Kind != TokNumber {
		f.err = &RecordError{Line: t.Line, Message: fmt.Sprintf("expected number, found %s", describe(t))}
		return 0
	}
	return t.Num
}

func (f *fieldReader) str() string {
	if f.err != nil {
		return ""
	}
	t := f.d.next()
	if t.Kind != TokString {
		f.err = &RecordError{Line: t.Line, Message: fmt.Sprintf("expected string, found %s", describe(t))}
		return ""
	}
	return t.Text
}

func (f *fieldReader) marker(m Marker) {
	if f.err != nil {
		return
	}
	t := f.d.next()
	if !t.Is(m) {
		f.err = &RecordError{Line: t.Line, Message: fmt.Sprintf("expected %s, found %s", m, describe(t))}
	}
}

func (f *fieldReader) rect() Rect {
	if f.err != nil {
		return NoRect
	}
	t := f.d.next()
	r, err := ParseRect(t.Text)
	if t.Kind != TokRect || err != nil {
		f.err = &RecordError{Line: t.Line, Message: fmt.Sprintf("expected region, found %s", describe(t))}
		return NoRect
	}
	return r
}

// ParseRect parses "[x.y.w.h]".
func ParseRect(s string) (Rect, error) {
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return NoRect, fmt.Errorf("invalid region %q", s)
	}
	parts := strings.Split(s[1:len(s)-1], ".")
	if len(parts) != 4 {
		return NoRect, fmt.Errorf("invalid region %q", s)
	}
	var r Rect
	for i, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return NoRect, fmt.Errorf("invalid region %q", s)
		}
		r[i] = v
	}
	return r, nil
}

// placeholder consumes an error placeholder record if one is next.
func (d *Decoder) placeholder(m Marker) *RecordError {
	t := d.Peek()
	if t.Kind != TokError {
		return nil
	}
	d.pos++
	d.SkipPast(m)
	return &RecordError{Line: t.Line, Message: t.Text, Placeholder: true}
}

// Trigger reads TR ... TR.
func (d *Decoder) Trigger() (Trigger, error) {
	line := d.Line()
	if err := d.Expect(MarkTrigger); err != nil {
		return Trigger{}, err
	}
	if perr := d.placeholder(MarkTrigger); perr != nil {
		return Trigger{Line: line}, perr
	}

	start := d.pos
	f := &fieldReader{d: d}
	t := Trigger{Line: line}
	t.ID = f.num()
	t.Int1 = f.num()
	t.Negated = f.num()&1 != 0
	t.Int2 = f.num()
	t.Int3 = f.num()
	if d.p.TriggerPoint {
		t.Point.X = f.num()
		t.Point.Y = f.num()
	}
	t.String1 = f.str()
	t.String2 = f.str()
	f.marker(MarkObject)
	t.Object = d.object(f)
	f.marker(MarkObject)
	f.marker(MarkTrigger)
	if f.err != nil {
		d.pos = start
		d.SkipPast(MarkTrigger)
		return t, f.err
	}
	return t, nil
}

// Action reads AC ... AC.
func (d *Decoder) Action() (Action, error) {
	line := d.Line()
	if err := d.Expect(MarkAction); err != nil {
		return Action{}, err
	}
	if perr := d.placeholder(MarkAction); perr != nil {
		return Action{Line: line}, perr
	}

	start := d.pos
	f := &fieldReader{d: d}
	a := Action{Line: line}
	a.ID = f.num()
	for i := range a.Objects {
		f.marker(MarkObject)
		a.Objects[i] = d.object(f)
		f.marker(MarkObject)
	}
	a.Int1 = f.num()
	a.Point.X = f.num()
	a.Point.Y = f.num()
	a.Int2 = f.num()
	a.Int3 = f.num()
	a.String1 = f.str()
	a.String2 = f.str()
	f.marker(MarkAction)
	if f.err != nil {
		d.pos = start
		d.SkipPast(MarkAction)
		return a, f.err
	}
	return a, nil
}

func (d *Decoder) object(f *fieldReader) Object {
	o := NewObject(d.p)
	for i := 0; i < d.p.Leading; i++ {
		o.IDs[i] = f.num()
	}
	for i := range o.Qualifiers {
		o.Qualifiers[i] = f.num()
	}
	if d.p.Rect {
		o.Rect = f.rect()
	}
	o.Name = f.str()
	for i := d.p.Leading; i < d.p.Width(); i++ {
		o.IDs[i] = f.num()
	}
	return o
}
