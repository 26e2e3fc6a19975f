package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zurustar/iescript/pkg/compiler/diag"
)

// CompileError is a diagnostic with its location and the surrounding
// source text. Both errors and warnings are reported as CompileError.
type CompileError struct {
	// Phase is "compiler" or "decompiler".
	Phase    string
	Severity diag.Severity
	Message  string
	// Line is 1-indexed and refers to the input of the phase.
	Line int
	// Context holds the source lines around Line (see GenerateErrorContext).
	Context string
}

func (e *CompileError) Error() string {
	head := fmt.Sprintf("%s %s at line %d: %s", e.Phase, e.Severity, e.Line, e.Message)
	if e.Context != "" {
		return head + "\n" + e.Context
	}
	return head
}

func (e *CompileError) IsWarning() bool {
	return e.Severity == diag.Warning
}

// IsCompileError reports whether err is or wraps a *CompileError.
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}

// Diagnostics converts a diagnostic set into CompileError values ordered by
// line, errors before warnings on the same line. source is the text the
// line numbers refer to; it may be empty.
func Diagnostics(set *diag.Set, phase, source string) []*CompileError {
	if set == nil {
		return nil
	}
	all := set.All()
	out := make([]*CompileError, 0, len(all))
	for _, d := range all {
		out = append(out, &CompileError{
			Phase:    phase,
			Severity: d.Severity,
			Message:  d.Message,
			Line:     d.Line,
			Context:  GenerateErrorContext(source, d.Line, 0),
		})
	}
	return out
}

// GenerateErrorContext renders the lines around an error: 2 before and 2
// after, with line numbers, the error line marked with ">" and, when
// column > 0, a "^" under the error column.
//
// Example output:
//
//	  3 | THEN
//	  4 | RESPONSE #100
//	> 5 | Bogus()
//	  6 | END
func GenerateErrorContext(source string, line, column int) string {
	if source == "" || line <= 0 {
		return ""
	}
	lines := strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
	if line > len(lines) {
		return ""
	}

	start := max(line-3, 0)
	end := min(line+2, len(lines))
	width := len(fmt.Sprint(end))

	var buf strings.Builder
	for i := start; i < end; i++ {
		n := i + 1
		if n != line {
			fmt.Fprintf(&buf, "  %*d | %s\n", width, n, lines[i])
			continue
		}
		fmt.Fprintf(&buf, "> %*d | %s\n", width, n, lines[i])
		if column > 0 {
			// "> " + width + " | "
			indent := 2 + width + 3 + column - 1
			buf.WriteString(strings.Repeat(" ", indent) + "^\n")
		}
	}
	return buf.String()
}
