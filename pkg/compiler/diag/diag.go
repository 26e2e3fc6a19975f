// Package diag collects translation diagnostics keyed by line number.
//
// A later diagnostic on the same line replaces the earlier one.
package diag

import (
	"fmt"

	"github.com/tidwall/btree"
)

// Severity classifies a diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Diagnostic is one message attached to a line.
type Diagnostic struct {
	Severity Severity
	Line     int
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d: %s: %s", d.Line, d.Severity, d.Message)
}

// Set is the per-call accumulator. The zero value is ready to use; a Set must
// not be shared between concurrent translations.
type Set struct {
	errors   btree.Map[int, string]
	warnings btree.Map[int, string]
}

func (s *Set) Errorf(line int, format string, args ...any) {
	s.errors.Set(line, fmt.Sprintf(format, args...))
}

func (s *Set) Warnf(line int, format string, args ...any) {
	s.warnings.Set(line, fmt.Sprintf(format, args...))
}

func (s *Set) HasErrors() bool {
	return s.errors.Len() > 0
}

func (s *Set) ErrorCount() int {
	return s.errors.Len()
}

func (s *Set) WarningCount() int {
	return s.warnings.Len()
}

// ErrorAt returns the error recorded for line.
func (s *Set) ErrorAt(line int) (string, bool) {
	return s.errors.Get(line)
}

// WarningAt returns the warning recorded for line.
func (s *Set) WarningAt(line int) (string, bool) {
	return s.warnings.Get(line)
}

// Errors returns the errors in line order.
func (s *Set) Errors() []Diagnostic {
	return collect(&s.errors, Error)
}

// Warnings returns the warnings in line order.
func (s *Set) Warnings() []Diagnostic {
	return collect(&s.warnings, Warning)
}

// All returns errors and warnings merged in line order, errors first on ties.
func (s *Set) All() []Diagnostic {
	errs, warns := s.Errors(), s.Warnings()
	out := make([]Diagnostic, 0, len(errs)+len(warns))
	i, j := 0, 0
	for i < len(errs) || j < len(warns) {
		if j >= len(warns) || (i < len(errs) && errs[i].Line <= warns[j].Line) {
			out = append(out, errs[i])
			i++
		} else {
			out = append(out, warns[j])
			j++
		}
	}
	return out
}

func collect(m *btree.Map[int, string], sev Severity) []Diagnostic {
	out := make([]Diagnostic, 0, m.Len())
	m.Scan(func(line int, msg string) bool {
		out = append(out, Diagnostic{Severity: sev, Line: line, Message: msg})
		return true
	})
	return out
}
