// Package decompiler translates compiled code (BCS) back into source script
// (BAF), resolving numeric identifiers to their IDS names.
package decompiler

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/zurustar/iescript/pkg/compiler/diag"
	"github.com/zurustar/iescript/pkg/game"
	"github.com/zurustar/iescript/pkg/ids"
	"github.com/zurustar/iescript/pkg/opcode"
)

const indent = "  "

// Options tunes a Decompiler.
type Options struct {
	// NoComments suppresses the "// ..." annotations after string
	// references and resources.
	NoComments bool
}

// Result is the outcome of one decompilation.
type Result struct {
	Source string
	// ResourcesUsed lists the existing resources the script refers to, as
	// upper-case NAME.EXT, sorted.
	ResourcesUsed []string
	// StringRefsUsed lists the string table indexes the script refers to, sorted.
	StringRefsUsed []int64
	// Diags is empty unless diagnostics were requested.
	Diags *diag.Set
}

// Decompiler is safe for concurrent use.
type Decompiler struct {
	res  ids.Resolver
	p    *game.Profile
	opts Options
}

func New(res ids.Resolver, p *game.Profile, opts Options) *Decompiler {
	return &Decompiler{res: res, p: p, opts: opts}
}

// decompilation is the state of one Decompile call.
type decompilation struct {
	*Decompiler
	res     ids.Resolver
	dec     *opcode.Decoder
	out     strings.Builder
	collect bool
	diags   *diag.Set

	resources  map[string]bool
	stringRefs map[int64]bool
}

// Decompile translates compiled code into source text. Diagnostics are
// recorded only when collect is set.
func (d *Decompiler) Decompile(code string, collect bool) *Result {
	res := d.res
	if p, ok := res.(ids.Pinner); ok {
		res = p.Pin()
	}
	dc := &decompilation{
		Decompiler: d,
		res:        res,
		dec:        opcode.NewDecoder(d.p, code),
		collect:    collect,
		diags:      &diag.Set{},
		resources:  make(map[string]bool),
		stringRefs: make(map[int64]bool),
	}
	dc.script()

	r := &Result{Source: dc.out.String(), Diags: dc.diags}
	for name := range dc.resources {
		r.ResourcesUsed = append(r.ResourcesUsed, name)
	}
	sort.Strings(r.ResourcesUsed)
	for ref := range dc.stringRefs {
		r.StringRefsUsed = append(r.StringRefsUsed, ref)
	}
	sort.Slice(r.StringRefsUsed, func(i, j int) bool { return r.StringRefsUsed[i] < r.StringRefsUsed[j] })
	return r
}

func (dc *decompilation) errorf(line int, format string, args ...any) {
	if dc.collect {
		dc.diags.Errorf(line, format, args...)
	}
}

func (dc *decompilation) warnf(line int, format string, args ...any) {
	if dc.collect {
		dc.diags.Warnf(line, format, args...)
	}
}

// fail records a decoding error.
func (dc *decompilation) fail(err error) {
	var rerr *opcode.RecordError
	if errors.As(err, &rerr) {
		dc.errorf(rerr.Line, "%s", rerr.Message)
		return
	}
	dc.errorf(dc.dec.Line(), "%s", err.Error())
}

func (dc *decompilation) script() {
	if dc.dec.AtEOF() {
		return
	}
	if err := dc.dec.Expect(opcode.MarkScript); err != nil {
		dc.fail(err)
	}
	if t := dc.dec.Peek(); t.Kind == opcode.TokError {
		// Script rejected as a whole by the compiler.
		dc.errorf(t.Line, "%s", t.Text)
		dc.dec.SkipPast(opcode.MarkScript)
		return
	}
	for !dc.dec.AtEOF() {
		switch t := dc.dec.Peek(); {
		case t.Is(opcode.MarkBlock):
			dc.block()
		case t.Is(opcode.MarkScript):
			dc.dec.Accept(opcode.MarkScript)
			if !dc.dec.AtEOF() {
				dc.errorf(dc.dec.Line(), "Unexpected data after end of script")
			}
			return
		default:
			dc.errorf(t.Line, "Expected CR, found %s", t.Text)
			dc.dec.SkipPast(opcode.MarkBlock)
		}
	}
	dc.errorf(dc.dec.Line(), "Missing SC")
}

// block decodes CR CO triggers CO RS responses RS CR.
func (dc *decompilation) block() {
	dc.dec.Accept(opcode.MarkBlock)
	if err := dc.dec.Expect(opcode.MarkCondition); err != nil {
		dc.fail(err)
		dc.dec.SkipPast(opcode.MarkBlock)
		return
	}

	dc.out.WriteString("IF\n")
	orLeft := int64(0)
	for dc.dec.Peek().Is(opcode.MarkTrigger) {
		t, err := dc.dec.Trigger()
		depth := 1
		if orLeft > 0 {
			depth = 2
			orLeft--
		}
		if err != nil {
			dc.fail(err)
			dc.errorLine(depth, err)
			continue
		}
		line, isOr := dc.trigger(&t)
		dc.writeLine(depth, line)
		if isOr {
			orLeft = t.Int1
		}
	}
	if err := dc.expect(opcode.MarkCondition); err != nil {
		return
	}

	dc.out.WriteString("THEN\n")
	if err := dc.expect(opcode.MarkResponseSet); err != nil {
		return
	}
	for dc.dec.Accept(opcode.MarkResponse) {
		w, err := dc.dec.Number()
		if err != nil {
			dc.fail(err)
		}
		dc.writeLine(1, "RESPONSE #"+strconv.FormatInt(w, 10))
		for dc.dec.Peek().Is(opcode.MarkAction) {
			a, err := dc.dec.Action()
			if err != nil {
				dc.fail(err)
				dc.errorLine(2, err)
				continue
			}
			dc.writeLine(2, dc.action(&a))
		}
		if err := dc.expect(opcode.MarkResponse); err != nil {
			return
		}
	}
	if err := dc.expect(opcode.MarkResponseSet); err != nil {
		return
	}
	dc.out.WriteString("END\n\n")
	if err := dc.dec.Expect(opcode.MarkBlock); err != nil {
		dc.fail(err)
		dc.dec.SkipPast(opcode.MarkBlock)
	}
}

// expect consumes marker m inside a block, closing the block on failure.
func (dc *decompilation) expect(m opcode.Marker) error {
	err := dc.dec.Expect(m)
	if err != nil {
		dc.fail(err)
		dc.out.WriteString("END\n\n")
		dc.dec.SkipPast(opcode.MarkBlock)
	}
	return err
}

func (dc *decompilation) writeLine(depth int, text string) {
	dc.out.WriteString(strings.Repeat(indent, depth))
	dc.out.WriteString(text)
	dc.out.WriteByte('\n')
}

// errorLine keeps an unreadable record visible in the output as a comment.
func (dc *decompilation) errorLine(depth int, err error) {
	msg := err.Error()
	var rerr *opcode.RecordError
	if errors.As(err, &rerr) {
		msg = rerr.Message
	}
	dc.writeLine(depth, "// "+opcode.ErrorPrefix+msg)
}
