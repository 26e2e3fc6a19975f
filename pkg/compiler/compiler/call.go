package compiler

import (
	"fmt"
	"strings"
)

// failure is a statement-level error. Its text becomes both the diagnostic
// and the placeholder written into the compiled stream.
type failure string

func (f failure) Error() string {
	return string(f)
}

func failf(format string, args ...any) error {
	return failure(fmt.Sprintf(format, args...))
}

// parseCall splits "Name(arg, arg)" into its name and top-level arguments.
func parseCall(text string) (string, []string, error) {
	text = strings.TrimSpace(text)
	open := strings.IndexByte(text, '(')
	if open <= 0 || !strings.HasSuffix(text, ")") {
		return "", nil, failf("Syntax error: %s", text)
	}
	name := strings.TrimSpace(text[:open])
	if strings.ContainsAny(name, " \t\"[],") {
		return "", nil, failf("Syntax error: %s", text)
	}
	args, err := splitArgs(text[open+1 : len(text)-1])
	if err != nil {
		return "", nil, err
	}
	return name, args, nil
}

// splitArgs splits on commas that are outside quotes, brackets and
// parentheses, so nested calls and coordinate lists stay whole.
func splitArgs(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var args []string
	depth, start := 0, 0
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			depth--
			if depth < 0 {
				return nil, failf("Unbalanced brackets: %s", s)
			}
		case c == ',' && depth == 0:
			args = append(args, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	if inQuote {
		return nil, failf("Unterminated string: %s", s)
	}
	if depth != 0 {
		return nil, failf("Unbalanced brackets: %s", s)
	}
	return append(args, strings.TrimSpace(s[start:])), nil
}

// unquote returns the text between a pair of double quotes.
func unquote(arg string) (string, bool) {
	if len(arg) < 2 || arg[0] != '"' || arg[len(arg)-1] != '"' {
		return "", false
	}
	return arg[1 : len(arg)-1], true
}
