// Package ids models the IDS symbol tables of the Infinity Engine: named
// tables mapping integer identifiers to symbolic names and, for the ACTION
// and TRIGGER tables, positional parameter signatures.
package ids

import (
	"fmt"
	"strings"
)

// Kind is the type letter of a signature parameter.
type Kind byte

const (
	Integer Kind = 'I'
	String  Kind = 'S'
	Object  Kind = 'O'
	Point   Kind = 'P'
	Action  Kind = 'A'
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "Integer"
	case String:
		return "String"
	case Object:
		return "Object"
	case Point:
		return "Point"
	case Action:
		return "Action"
	}
	return fmt.Sprintf("Kind(%c)", byte(k))
}

// Well-known table names.
const (
	ActionTable  = "ACTION.IDS"
	TriggerTable = "TRIGGER.IDS"
	ObjectTable  = "OBJECT.IDS"
)

// resourceExts maps string parameter names to the resource type they refer to.
var resourceExts = map[string]string{
	"NEWOBJECT":  "CRE",
	"CREATURE":   "CRE",
	"ITEM":       "ITM",
	"SOUND":      "WAV",
	"DIALOGFILE": "DLG",
	"SCRIPTFILE": "BCS",
	"CUTSCENE":   "BCS",
	"STORE":      "STO",
	"SPELL":      "SPL",
	"MOVIE":      "MVE",
}

// Param is one "Kind:Name*Table" token of a parameter signature.
type Param struct {
	Kind  Kind
	Name  string
	Table string // IDS table without extension, empty when untyped
}

func (p Param) String() string {
	s := string(rune(p.Kind)) + ":" + p.Name + "*"
	if p.Table != "" {
		s += p.Table
	}
	return s
}

// TableName returns the IDS table qualifying this parameter, or "".
func (p Param) TableName() string {
	if p.Table == "" {
		return ""
	}
	return TableName(p.Table)
}

// IsArea reports whether a string parameter names a scripting namespace.
func (p Param) IsArea() bool {
	if p.Kind != String {
		return false
	}
	n := strings.ToUpper(p.Name)
	return strings.HasPrefix(n, "AREA") || n == "SCOPE"
}

// IsStrRef reports whether an integer parameter is a string table reference.
func (p Param) IsStrRef() bool {
	return p.Kind == Integer && strings.Contains(strings.ToUpper(p.Name), "STRREF")
}

// ResourceExt returns the resource extension a string parameter refers to.
func (p Param) ResourceExt() (string, bool) {
	if p.Kind != String {
		return "", false
	}
	ext, ok := resourceExts[strings.ToUpper(p.Name)]
	return ext, ok
}

// Entry is a single IDS definition. Entries are immutable once a table is built.
type Entry struct {
	ID     int64
	Name   string // display name, the part before "(" for signed entries
	Text   string // the definition as written in the IDS file
	Params []Param
}

// Count returns how many parameters of kind k the signature declares.
func (e *Entry) Count(k Kind) int {
	n := 0
	for _, p := range e.Params {
		if p.Kind == k {
			n++
		}
	}
	return n
}

// TableName canonicalises a table reference: "ea" and "EA.IDS" both become "EA.IDS".
func TableName(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	if !strings.HasSuffix(name, ".IDS") {
		name += ".IDS"
	}
	return name
}

// ParseSignature splits "Name(I:A*,S:B*TABLE)" into its name and parameters.
// Text without parentheses is returned as a bare name.
func ParseSignature(text string) (string, []Param, error) {
	text = strings.TrimSpace(text)
	open := strings.IndexByte(text, '(')
	if open < 0 {
		return text, nil, nil
	}
	name := strings.TrimSpace(text[:open])
	close := strings.LastIndexByte(text, ')')
	if close < open {
		return name, nil, fmt.Errorf("unterminated signature: %s", text)
	}
	inner := strings.TrimSpace(text[open+1 : close])
	if inner == "" {
		return name, nil, nil
	}

	var params []Param
	for _, tok := range strings.Split(inner, ",") {
		p, err := parseParam(strings.TrimSpace(tok))
		if err != nil {
			return name, nil, fmt.Errorf("%s: %w", name, err)
		}
		params = append(params, p)
	}
	return name, params, nil
}

func parseParam(tok string) (Param, error) {
	if len(tok) < 2 || tok[1] != ':' {
		return Param{}, fmt.Errorf("invalid parameter %q", tok)
	}
	k := Kind(tok[0])
	switch k {
	case Integer, String, Object, Point, Action:
	default:
		return Param{}, fmt.Errorf("unknown parameter kind %q", tok[:1])
	}
	rest := tok[2:]
	p := Param{Kind: k, Name: rest}
	if star := strings.IndexByte(rest, '*'); star >= 0 {
		p.Name = rest[:star]
		p.Table = strings.ToUpper(strings.TrimSpace(rest[star+1:]))
	}
	p.Name = strings.TrimSpace(p.Name)
	return p, nil
}
