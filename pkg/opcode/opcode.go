// Package opcode defines the compiled script format: the paired two-letter
// markers that delimit records, and the trigger, action and object records
// carried between them. The compiler encodes records with an Encoder and
// the decompiler reads them back with a Decoder.
package opcode

import (
	"github.com/zurustar/iescript/pkg/game"
)

// Marker is a two-letter sentinel. Every marker opens and closes its record.
type Marker string

const (
	MarkScript      Marker = "SC"
	MarkBlock       Marker = "CR"
	MarkCondition   Marker = "CO"
	MarkTrigger     Marker = "TR"
	MarkResponseSet Marker = "RS"
	MarkResponse    Marker = "RE"
	MarkAction      Marker = "AC"
	MarkObject      Marker = "OB"
)

var markers = map[string]Marker{
	"SC": MarkScript,
	"CR": MarkBlock,
	"CO": MarkCondition,
	"TR": MarkTrigger,
	"RS": MarkResponseSet,
	"RE": MarkResponse,
	"AC": MarkAction,
	"OB": MarkObject,
}

// ErrorPrefix starts the placeholder written in place of a record that
// failed to compile.
const ErrorPrefix = "Error - "

// QualifierSlots is the number of nested object identifier slots.
const QualifierSlots = 5

// Point is an (x, y) coordinate parameter.
type Point struct {
	X, Y int64
}

// IsZero reports whether p is the default [0.0].
func (p Point) IsZero() bool {
	return p.X == 0 && p.Y == 0
}

// Rect is the region field of games whose profile enables it.
type Rect [4]int64

// NoRect is the default region.
var NoRect = Rect{-1, -1, -1, -1}

// Object is an object reference: identifier vector, qualifier slots
// (outermost first), optional region and literal script name.
type Object struct {
	IDs        []int64
	Qualifiers [QualifierSlots]int64
	Rect       Rect
	Name       string
}

// NewObject returns the empty object for profile p.
func NewObject(p *game.Profile) Object {
	return Object{IDs: make([]int64, p.Width()), Rect: NoRect}
}

// IsEmpty reports whether o carries no identifiers, qualifiers or name.
func (o Object) IsEmpty() bool {
	if o.Name != "" || o.Rect != NoRect {
		return false
	}
	for _, v := range o.IDs {
		if v != 0 {
			return false
		}
	}
	for _, v := range o.Qualifiers {
		if v != 0 {
			return false
		}
	}
	return true
}

// Trigger is one TR record.
type Trigger struct {
	ID      int64
	Int1    int64
	Negated bool
	Int2    int64
	Int3    int64
	Point   Point // encoded only when the profile has trigger points
	String1 string
	String2 string
	Object  Object

	// Error replaces the record with a placeholder when set.
	Error string
	// Line is the source line the record came from.
	Line int
}

// Action is one AC record. Objects[0] is the actor an ActionOverride
// redirects the action to; Objects[1] and [2] are the object parameters.
type Action struct {
	ID      int64
	Objects [3]Object
	Int1    int64
	Point   Point
	Int2    int64
	Int3    int64
	String1 string
	String2 string

	Error string
	Line  int
}

// Response is one weighted RE record.
type Response struct {
	Weight  int64
	Actions []Action
}

// Block is one CR record: a condition and its response set.
type Block struct {
	Triggers  []Trigger
	Responses []Response
}
