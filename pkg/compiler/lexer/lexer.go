// Package lexer splits script text into logical lines for the compiler and
// decompiler. Comments and blank lines are dropped, but the physical line
// number of every returned line is preserved for diagnostics.
package lexer

import (
	"strings"
)

// Reader yields trimmed, comment-free, non-blank lines on demand.
type Reader struct {
	raw       []string
	next      int  // index of the next physical line to scan
	inComment bool // inside a /* */ block that spans lines

	peeked   bool
	peekText string
	peekLine int
	peekOK   bool

	line int // physical line number of the last line returned by Next
}

// New creates a Reader over text.
func New(text string) *Reader {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return &Reader{raw: strings.Split(text, "\n")}
}

// Next returns the next logical line. ok is false at end of input.
func (r *Reader) Next() (string, bool) {
	if r.peeked {
		r.peeked = false
		if r.peekOK {
			r.line = r.peekLine
		}
		return r.peekText, r.peekOK
	}
	text, line, ok := r.scan()
	if ok {
		r.line = line
	}
	return text, ok
}

// Peek returns the next logical line without consuming it.
func (r *Reader) Peek() (string, bool) {
	if !r.peeked {
		r.peekText, r.peekLine, r.peekOK = r.scan()
		r.peeked = true
	}
	return r.peekText, r.peekOK
}

// Line returns the 1-based physical line number of the last line returned
// by Next, or 0 before the first call.
func (r *Reader) Line() int {
	return r.line
}

// PeekLine returns the physical line number of the line Peek would return,
// or the number of physical lines when input is exhausted.
func (r *Reader) PeekLine() int {
	r.Peek()
	if !r.peekOK {
		return len(r.raw)
	}
	return r.peekLine
}

// Reset rewinds the reader to the start of the input.
func (r *Reader) Reset() {
	r.next = 0
	r.inComment = false
	r.peeked = false
	r.line = 0
}

func (r *Reader) scan() (string, int, bool) {
	for r.next < len(r.raw) {
		lineNo := r.next + 1
		text := r.strip(r.raw[r.next])
		r.next++
		if text != "" {
			return text, lineNo, true
		}
	}
	return "", 0, false
}

// strip removes // and /* */ comments outside double quotes and trims the result.
func (r *Reader) strip(s string) string {
	var b strings.Builder
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if r.inComment {
			if c == '*' && i+1 < len(s) && s[i+1] == '/' {
				r.inComment = false
				i++
			}
			continue
		}
		if c == '"' {
			inQuote = !inQuote
		} else if !inQuote && c == '/' && i+1 < len(s) {
			if s[i+1] == '/' {
				break
			}
			if s[i+1] == '*' {
				r.inComment = true
				i++
				continue
			}
		}
		b.WriteByte(c)
	}
	return strings.TrimSpace(b.String())
}
