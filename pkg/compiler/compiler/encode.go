package compiler

import (
	"strings"

	"github.com/zurustar/iescript/pkg/ids"
	"github.com/zurustar/iescript/pkg/opcode"
)

const maxStringLen = 32

// integer encodes a decimal or hex literal, or a symbol (or "A | B" list of
// symbols) from the parameter's IDS table.
func (cc *compilation) integer(arg string, p ids.Param) (int64, error) {
	arg = strings.TrimSpace(arg)
	if isNumber(arg) {
		v, ok := parseNumber(arg)
		if !ok {
			return 0, failf("Invalid integer %s for %s", arg, p.Name)
		}
		return v, nil
	}
	table := p.TableName()
	if table == "" {
		return 0, failf("Invalid integer %s for %s", arg, p.Name)
	}

	var sum int64
	for _, part := range strings.Split(arg, "|") {
		part = strings.TrimSpace(part)
		if isNumber(part) {
			v, ok := parseNumber(part)
			if !ok {
				return 0, failf("Invalid integer %s for %s", part, p.Name)
			}
			sum += v
			continue
		}
		e, ok := cc.res.Lookup(table, part)
		if !ok {
			return 0, failf("%s not found in %s", part, table)
		}
		sum += e.ID
	}
	return ids.Normalize(sum), nil
}

// isNumber reports whether s is written as a number, in range or not.
func isNumber(s string) bool {
	s = strings.TrimPrefix(s, "-")
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

// parseNumber parses a decimal or 0x literal folded to signed 32 bits.
// Values outside [-2^31, 2^32) are rejected.
func parseNumber(s string) (int64, bool) {
	if !isNumber(s) {
		return 0, false
	}
	v, err := ids.ParseID(s)
	return v, err == nil
}

// str encodes a quoted string argument and reports the advisory warnings.
func (cc *compilation) str(arg string, p ids.Param, line int) (string, error) {
	s, ok := unquote(strings.TrimSpace(arg))
	if !ok {
		return "", failf("Invalid string %s for %s", arg, p.Name)
	}
	if len(s) > maxStringLen {
		cc.diags.Warnf(line, "String longer than %d characters", maxStringLen)
	}
	if p.IsArea() && s != "" && !cc.isNamespace(s) {
		if len(s) > opcode.NamespaceLen && cc.res.ResourceExists(strings.ToUpper(s)+".ARE") {
			cc.diags.Warnf(line, "Namespace %q longer than %d characters", s, opcode.NamespaceLen)
		} else {
			cc.diags.Warnf(line, "Unknown namespace %q", s)
		}
	}
	if ext, ok := p.ResourceExt(); ok && s != "" && !cc.opts.SkipResourceChecks {
		name := strings.ToUpper(s) + "." + ext
		if !cc.res.ResourceExists(name) {
			cc.diags.Warnf(line, "Resource not found: %s", name)
		}
	}
	return s, nil
}

// point encodes "[x.y]".
func point(arg string) (opcode.Point, error) {
	parts, ok := bracketed(arg)
	if !ok || len(parts) != 2 {
		return opcode.Point{}, failf("Invalid point %s", arg)
	}
	var v [2]int64
	for i, part := range parts {
		n, ok := parseNumber(part)
		if !ok {
			return opcode.Point{}, failf("Invalid point %s", arg)
		}
		v[i] = n
	}
	return opcode.Point{X: v[0], Y: v[1]}, nil
}

// bracketed splits "[a.b.c]" into its dot-separated components.
func bracketed(arg string) ([]string, bool) {
	arg = strings.TrimSpace(arg)
	if len(arg) < 2 || arg[0] != '[' || arg[len(arg)-1] != ']' {
		return nil, false
	}
	parts := strings.Split(arg[1:len(arg)-1], ".")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, true
}

// object encodes an object reference: qualifier calls wrapping an
// identifier vector, a quoted script name, or a bare OBJECT.IDS symbol.
// Qualifiers are stored outermost first.
func (cc *compilation) object(arg string, line int) (opcode.Object, error) {
	o := opcode.NewObject(cc.p)
	payload := strings.TrimSpace(arg)
	var chain []int64

	for {
		open := strings.IndexByte(payload, '(')
		if open <= 0 || payload[0] == '[' || payload[0] == '"' {
			break
		}
		if !strings.HasSuffix(payload, ")") {
			return o, failf("Invalid object %s", arg)
		}
		name := strings.TrimSpace(payload[:open])
		e, ok := cc.res.Lookup(ids.ObjectTable, name)
		if !ok {
			return o, failf("%s not found in %s", name, ids.ObjectTable)
		}
		chain = append(chain, e.ID)
		payload = strings.TrimSpace(payload[open+1 : len(payload)-1])
	}

	switch {
	case payload == "":
		if len(chain) == 0 {
			return o, failf("Missing object")
		}
	case payload[0] == '[':
		if err := cc.vector(&o, payload); err != nil {
			return o, err
		}
	case payload[0] == '"':
		name, ok := unquote(payload)
		if !ok {
			return o, failf("Invalid object %s", arg)
		}
		cc.checkScriptName(name, line)
		o.Name = name
	default:
		e, ok := cc.res.Lookup(ids.ObjectTable, payload)
		if !ok {
			return o, failf("%s not found in %s", payload, ids.ObjectTable)
		}
		chain = append(chain, e.ID)
	}

	if len(chain) > opcode.QualifierSlots {
		return o, failf("Too many object qualifiers in %s", arg)
	}
	copy(o.Qualifiers[:], chain)
	return o, nil
}

// vector encodes "[EA.GENERAL...]" with an optional "[x.y.w.h]" region
// suffix. Components are resolved against the profile's object tables;
// numbers are taken verbatim and empty components are zero.
func (cc *compilation) vector(o *opcode.Object, payload string) error {
	vec, region := payload, ""
	if i := strings.Index(payload, "]["); i >= 0 {
		vec, region = payload[:i+1], payload[i+1:]
	}

	parts, ok := bracketed(vec)
	if !ok {
		return failf("Invalid object %s", payload)
	}
	if len(parts) > cc.p.Width() {
		return failf("Too many object identifiers in %s", payload)
	}
	for i, part := range parts {
		if part == "" {
			continue
		}
		if isNumber(part) {
			v, ok := parseNumber(part)
			if !ok {
				return failf("Invalid object identifier %s", part)
			}
			o.IDs[i] = v
			continue
		}
		table := ids.TableName(cc.p.ObjectTables[i])
		e, ok := cc.res.Lookup(table, part)
		if !ok {
			return failf("%s not found in %s", part, table)
		}
		o.IDs[i] = e.ID
	}

	if region != "" {
		if !cc.p.Rect {
			return failf("Regions are not supported by %s", cc.p.Name)
		}
		r, err := opcode.ParseRect(region)
		if err != nil {
			return failf("Invalid region %s", region)
		}
		o.Rect = r
	}
	return nil
}

func (cc *compilation) checkScriptName(name string, line int) {
	if len(name) > maxStringLen {
		cc.diags.Warnf(line, "String longer than %d characters", maxStringLen)
	}
	sn, ok := cc.res.(ids.ScriptNameResolver)
	if !ok || name == "" {
		return
	}
	if known, enabled := sn.ScriptNameKnown(name); enabled && !known {
		cc.diags.Warnf(line, "Unknown script name %q", name)
	}
}
