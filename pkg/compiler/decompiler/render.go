package decompiler

import (
	"strconv"
	"strings"

	"github.com/zurustar/iescript/pkg/ids"
	"github.com/zurustar/iescript/pkg/opcode"
)

// flagTables are decomposed into "A | B" when no single entry matches.
var flagTables = map[string]bool{
	"STATE.IDS":    true,
	"AREATYPE.IDS": true,
	"AREAFLAG.IDS": true,
	"BITS.IDS":     true,
}

// call accumulates the rendered arguments and trailing comments of one
// statement.
type call struct {
	args     []string
	comments []string
}

func (c *call) render(name string) string {
	s := name + "(" + strings.Join(c.args, ",") + ")"
	if len(c.comments) > 0 {
		s += "  // " + strings.Join(c.comments, ", ")
	}
	return s
}

// fields are the raw record fields handed to the signature walk.
type fields struct {
	id    int64
	line  int
	ints  [3]int64
	strs  [2]string
	objs  []opcode.Object
	point opcode.Point
}

// trigger renders t and reports whether it opens an OR group.
func (dc *decompilation) trigger(t *opcode.Trigger) (string, bool) {
	e, ok := definition(dc.res, ids.TriggerTable, t.ID, TriggerSlots(t))
	if !ok {
		dc.errorf(t.Line, "%d not found in %s", t.ID, ids.TriggerTable)
		return "// " + opcode.ErrorPrefix + strconv.FormatInt(t.ID, 10) + " not found in " + ids.TriggerTable, false
	}
	c := dc.args(e, &fields{
		id:    t.ID,
		line:  t.Line,
		ints:  [3]int64{t.Int1, t.Int2, t.Int3},
		strs:  [2]string{t.String1, t.String2},
		objs:  []opcode.Object{t.Object},
		point: t.Point,
	})
	s := c.render(e.Name)
	if t.Negated {
		s = "!" + s
	}
	return s, strings.EqualFold(e.Name, "OR")
}

// action renders a, wrapped in ActionOverride when it carries an actor.
func (dc *decompilation) action(a *opcode.Action) string {
	e, ok := definition(dc.res, ids.ActionTable, a.ID, ActionSlots(a))
	if !ok {
		dc.errorf(a.Line, "%d not found in %s", a.ID, ids.ActionTable)
		return "// " + opcode.ErrorPrefix + strconv.FormatInt(a.ID, 10) + " not found in " + ids.ActionTable
	}
	c := dc.args(e, &fields{
		id:    a.ID,
		line:  a.Line,
		ints:  [3]int64{a.Int1, a.Int2, a.Int3},
		strs:  [2]string{a.String1, a.String2},
		objs:  []opcode.Object{a.Objects[1], a.Objects[2]},
		point: a.Point,
	})
	if a.Objects[0].IsEmpty() {
		return c.render(e.Name)
	}

	actor := dc.object(&a.Objects[0], a.Line)
	inner := c.args
	c.args = []string{actor, e.Name + "(" + strings.Join(inner, ",") + ")"}
	return c.render(dc.overrideName())
}

// overrideName returns the name of the action taking a nested action.
func (dc *decompilation) overrideName() string {
	if e, ok := dc.res.Lookup(ids.ActionTable, "ActionOverride"); ok {
		return e.Name
	}
	return "ActionOverride"
}

// args walks the signature and renders each parameter from its field.
func (dc *decompilation) args(e *ids.Entry, f *fields) *call {
	c := &call{}

	var area []bool
	for _, p := range e.Params {
		if p.Kind == ids.String {
			area = append(area, p.IsArea())
		}
	}
	var strs []string
	if opcode.MergeSuppressed(f.id) {
		strs = f.strs[:]
	} else {
		strs = opcode.SplitStrings(f.strs[:], area, dc.isNamespace)
	}

	var ni, si, oi int
	for _, p := range e.Params {
		switch p.Kind {
		case ids.Integer:
			var v int64
			if ni < len(f.ints) {
				v = f.ints[ni]
			}
			ni++
			c.args = append(c.args, dc.integer(c, p, v, f.line))
		case ids.String:
			var s string
			if si < len(strs) {
				s = strs[si]
			}
			si++
			c.args = append(c.args, dc.str(c, p, s))
		case ids.Object:
			o := opcode.NewObject(dc.p)
			if oi < len(f.objs) {
				o = f.objs[oi]
			}
			oi++
			c.args = append(c.args, dc.object(&o, f.line))
		case ids.Point:
			c.args = append(c.args, "["+strconv.FormatInt(f.point.X, 10)+"."+strconv.FormatInt(f.point.Y, 10)+"]")
		}
	}
	return c
}

func (dc *decompilation) isNamespace(s string) bool {
	return opcode.IsNamespace(s, dc.res.ResourceExists)
}

// integer renders v symbolically when the parameter names a table.
func (dc *decompilation) integer(c *call, p ids.Param, v int64, line int) string {
	raw := strconv.FormatInt(v, 10)
	if p.IsStrRef() {
		if v >= 0 {
			dc.stringRefs[v] = true
			if text := dc.res.StringRef(v); text != "" && !dc.opts.NoComments {
				c.comments = append(c.comments, strconv.Quote(text))
			}
		}
		return raw
	}

	table := p.TableName()
	if table == "" {
		return raw
	}
	if e, ok := dc.res.LookupID(table, v); ok {
		return e.Name
	}
	if flagTables[table] {
		if s, ok := dc.flags(table, v); ok {
			return s
		}
		dc.warnf(line, "Unresolved flags %d in %s", v, table)
		return raw
	}
	if v != 0 {
		dc.warnf(line, "%d not found in %s", v, table)
	}
	return raw
}

// flags decomposes v bit by bit, lowest first.
func (dc *decompilation) flags(table string, v int64) (string, bool) {
	bits := uint32(v)
	var names []string
	for i := 0; i < 32 && bits != 0; i++ {
		bit := uint32(1) << i
		if bits&bit == 0 {
			continue
		}
		e, ok := dc.res.LookupID(table, ids.Normalize(int64(bit)))
		if !ok {
			return "", false
		}
		names = append(names, e.Name)
		bits &^= bit
	}
	if len(names) == 0 {
		return "", false
	}
	return strings.Join(names, " | "), true
}

// str quotes s and notes the resource it refers to.
func (dc *decompilation) str(c *call, p ids.Param, s string) string {
	if ext, ok := p.ResourceExt(); ok && s != "" {
		name := strings.ToUpper(s) + "." + ext
		if dc.res.ResourceExists(name) {
			dc.resources[name] = true
			if tr, ok := dc.res.(ids.TitleResolver); ok && !dc.opts.NoComments {
				if title, ok := tr.ResourceTitle(name); ok && title != "" {
					c.comments = append(c.comments, title)
				}
			}
		}
	}
	return `"` + s + `"`
}

// object reconstructs an object expression. Qualifiers wrap the core
// payload outermost first; an object with nothing set is [ANYONE].
func (dc *decompilation) object(o *opcode.Object, line int) string {
	n := 0
	for i, q := range o.Qualifiers {
		if q != 0 {
			n = i + 1
		}
	}
	quals := o.Qualifiers[:n]

	var core string
	switch {
	case o.Name != "":
		core = `"` + o.Name + `"`
	case dc.hasVector(o):
		core = dc.vector(o, line)
	case n > 0:
		core = dc.qualifier(quals[n-1], line)
		quals = quals[:n-1]
	default:
		core = "[ANYONE]" + dc.region(o)
	}

	for i := len(quals) - 1; i >= 0; i-- {
		core = dc.qualifier(quals[i], line) + "(" + core + ")"
	}
	return core
}

func (dc *decompilation) hasVector(o *opcode.Object) bool {
	for _, v := range o.IDs {
		if v != 0 {
			return true
		}
	}
	return false
}

// vector renders [EA.GENERAL...] without trailing zero components.
func (dc *decompilation) vector(o *opcode.Object, line int) string {
	last := 0
	for i, v := range o.IDs {
		if v != 0 {
			last = i
		}
	}
	parts := make([]string, last+1)
	for i := 0; i <= last; i++ {
		v := o.IDs[i]
		parts[i] = strconv.FormatInt(v, 10)
		if v == 0 || i >= len(dc.p.ObjectTables) {
			continue
		}
		table := ids.TableName(dc.p.ObjectTables[i])
		if e, ok := dc.res.LookupID(table, v); ok {
			parts[i] = e.Name
		} else {
			dc.warnf(line, "%d not found in %s", v, table)
		}
	}
	return "[" + strings.Join(parts, ".") + "]" + dc.region(o)
}

// region renders the rect suffix when it differs from the default.
func (dc *decompilation) region(o *opcode.Object) string {
	if !dc.p.Rect || o.Rect == opcode.NoRect {
		return ""
	}
	parts := make([]string, len(o.Rect))
	for i, v := range o.Rect {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return "[" + strings.Join(parts, ".") + "]"
}

func (dc *decompilation) qualifier(id int64, line int) string {
	if e, ok := dc.res.LookupID(ids.ObjectTable, id); ok {
		return e.Name
	}
	dc.warnf(line, "%d not found in %s", id, ids.ObjectTable)
	return strconv.FormatInt(id, 10)
}
