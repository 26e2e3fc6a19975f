package compiler

import (
	"strings"

	"github.com/zurustar/iescript/pkg/ids"
	"github.com/zurustar/iescript/pkg/opcode"
)

// Record capacities of the compiled layout.
const (
	maxInts          = 3
	maxStrings       = 2
	maxTriggerObject = 1
	maxActionObjects = 2
)

// args holds the encoded arguments of one call, grouped by kind in
// signature order.
type args struct {
	ints   []int64
	strs   []string
	objs   []opcode.Object
	points []opcode.Point
}

// definition looks up name and picks the overflow definition when only it
// matches the number of arguments given.
func (cc *compilation) definition(table, name string, argc int) (*ids.Entry, error) {
	e, ok := cc.res.Lookup(table, name)
	if !ok {
		return nil, failf("%s not found in %s", name, table)
	}
	if len(e.Params) != argc {
		if ov, ok := cc.res.LookupOverflow(table, e.ID); ok && len(ov.Params) == argc && strings.EqualFold(ov.Name, e.Name) {
			return ov, nil
		}
	}
	switch {
	case argc < len(e.Params):
		return nil, failf("Too few arguments for %s", e.Name)
	case argc > len(e.Params):
		return nil, failf("Too many arguments for %s", e.Name)
	}
	return e, nil
}

// trigger compiles "[!]Name(args)".
func (cc *compilation) trigger(text string, line int) (opcode.Trigger, error) {
	t := opcode.Trigger{Line: line, Object: opcode.NewObject(cc.p)}
	if strings.HasPrefix(text, "!") {
		t.Negated = true
		text = strings.TrimSpace(text[1:])
	}
	name, argv, err := parseCall(text)
	if err != nil {
		return t, err
	}
	e, err := cc.definition(ids.TriggerTable, name, len(argv))
	if err != nil {
		return t, err
	}
	a, err := cc.encodeArgs(e, argv, line)
	if err != nil {
		return t, err
	}

	t.ID = e.ID
	if err := a.check(maxTriggerObject, cc.pointSlots()); err != nil {
		return t, err
	}
	ints := a.paddedInts()
	t.Int1, t.Int2, t.Int3 = ints[0], ints[1], ints[2]
	if t.String1, t.String2, err = cc.packStrings(e.ID, a); err != nil {
		return t, err
	}
	if len(a.objs) > 0 {
		t.Object = a.objs[0]
	}
	if len(a.points) > 0 {
		t.Point = a.points[0]
	}
	return t, nil
}

func (cc *compilation) pointSlots() int {
	if cc.p.TriggerPoint {
		return 1
	}
	return 0
}

// action compiles "Name(args)" and the ActionOverride(actor, Name(args)) form.
func (cc *compilation) action(text string, line int) (opcode.Action, error) {
	a := opcode.Action{Line: line}
	for i := range a.Objects {
		a.Objects[i] = opcode.NewObject(cc.p)
	}
	name, argv, err := parseCall(text)
	if err != nil {
		return a, err
	}
	e, err := cc.definition(ids.ActionTable, name, len(argv))
	if err != nil {
		return a, err
	}

	if i := actionParam(e); i >= 0 {
		return cc.override(e, argv, i, line)
	}

	enc, err := cc.encodeArgs(e, argv, line)
	if err != nil {
		return a, err
	}
	if err := enc.check(maxActionObjects, 1); err != nil {
		return a, err
	}
	a.ID = e.ID
	ints := enc.paddedInts()
	a.Int1, a.Int2, a.Int3 = ints[0], ints[1], ints[2]
	if a.String1, a.String2, err = cc.packStrings(e.ID, enc); err != nil {
		return a, err
	}
	for i, o := range enc.objs {
		a.Objects[i+1] = o
	}
	if len(enc.points) > 0 {
		a.Point = enc.points[0]
	}
	return a, nil
}

// actionParam returns the index of the nested action parameter, or -1.
func actionParam(e *ids.Entry) int {
	for i, p := range e.Params {
		if p.Kind == ids.Action {
			return i
		}
	}
	return -1
}

// override compiles the actor object and the nested action, and redirects
// the nested action to the actor.
func (cc *compilation) override(e *ids.Entry, argv []string, actionIdx, line int) (opcode.Action, error) {
	var actor opcode.Object
	haveActor := false
	for i, p := range e.Params {
		if p.Kind != ids.Object {
			continue
		}
		o, err := cc.object(argv[i], line)
		if err != nil {
			return opcode.Action{Line: line}, err
		}
		actor, haveActor = o, true
		break
	}
	if !haveActor {
		return opcode.Action{Line: line}, failf("%s has no actor parameter", e.Name)
	}

	inner := argv[actionIdx]
	if name, _, err := parseCall(inner); err == nil {
		if ie, ok := cc.res.Lookup(ids.ActionTable, name); ok && actionParam(ie) >= 0 {
			return opcode.Action{Line: line}, failf("Nested %s", e.Name)
		}
	}
	a, err := cc.action(inner, line)
	if err != nil {
		return a, err
	}
	a.Objects[0] = actor
	return a, nil
}

// encodeArgs routes every argument to the encoder for its parameter kind.
func (cc *compilation) encodeArgs(e *ids.Entry, argv []string, line int) (*args, error) {
	a := &args{}
	for i, p := range e.Params {
		arg := argv[i]
		switch p.Kind {
		case ids.Integer:
			v, err := cc.integer(arg, p)
			if err != nil {
				return nil, err
			}
			a.ints = append(a.ints, v)
		case ids.String:
			s, err := cc.str(arg, p, line)
			if err != nil {
				return nil, err
			}
			a.strs = append(a.strs, s)
		case ids.Object:
			o, err := cc.object(arg, line)
			if err != nil {
				return nil, err
			}
			a.objs = append(a.objs, o)
		case ids.Point:
			pt, err := point(arg)
			if err != nil {
				return nil, err
			}
			a.points = append(a.points, pt)
		default:
			return nil, failf("Unexpected %s parameter %s in %s", p.Kind, p.Name, e.Name)
		}
	}
	return a, nil
}

// check verifies the arguments fit the record.
func (a *args) check(objects, points int) error {
	switch {
	case len(a.ints) > maxInts:
		return failf("Too many integer parameters")
	case len(a.objs) > objects:
		return failf("Too many object parameters")
	case len(a.points) > points:
		return failf("Too many point parameters")
	}
	return nil
}

func (a *args) paddedInts() [maxInts]int64 {
	var out [maxInts]int64
	copy(out[:], a.ints)
	return out
}

// packStrings merges namespace pairs into the two string fields.
func (cc *compilation) packStrings(id int64, a *args) (string, string, error) {
	strs := a.strs
	if !opcode.MergeSuppressed(id) {
		strs = opcode.MergeStrings(strs, cc.isNamespace)
	}
	if len(strs) > maxStrings {
		return "", "", failf("Too many string parameters")
	}
	var out [maxStrings]string
	copy(out[:], strs)
	return out[0], out[1], nil
}

func (cc *compilation) isNamespace(s string) bool {
	return opcode.IsNamespace(s, cc.res.ResourceExists)
}
