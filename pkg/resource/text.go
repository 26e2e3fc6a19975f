package resource

import (
	"bufio"
	"bytes"
	"fmt"
	"path"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// StringTable maps string references to their text.
type StringTable struct {
	text map[int64]string
}

func NewStringTable(text map[int64]string) *StringTable {
	return &StringTable{text: text}
}

// ParseStringTable reads a string table. Files named *.yaml or *.yml hold a
// mapping of index to text; anything else holds "index<TAB>text" lines.
// Escapes \n and \t in the tab format are expanded.
func ParseStringTable(name string, data []byte) (*StringTable, error) {
	t := &StringTable{text: make(map[int64]string)}
	if isYAML(name) {
		if err := yaml.Unmarshal(data, &t.text); err != nil {
			return nil, fmt.Errorf("failed to parse string table %s: %w", name, err)
		}
		return t, nil
	}

	err := eachLine(data, func(n int, line string) error {
		idx, text, ok := strings.Cut(line, "\t")
		if !ok {
			return fmt.Errorf("%s:%d: missing tab", name, n)
		}
		i, err := strconv.ParseInt(strings.TrimSpace(idx), 10, 64)
		if err != nil {
			return fmt.Errorf("%s:%d: invalid index %q", name, n, idx)
		}
		t.text[i] = unescape(text)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func unescape(s string) string {
	return strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\\`, `\`).Replace(s)
}

func (t *StringTable) Text(index int64) (string, bool) {
	if t == nil {
		return "", false
	}
	s, ok := t.text[index]
	return s, ok
}

func (t *StringTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.text)
}

// ScriptNames is the set of script names given to the game's creatures.
type ScriptNames struct {
	names map[string]struct{}
}

// ParseScriptNames reads one name per line. Blank lines and lines starting
// with "#" are ignored.
func ParseScriptNames(data []byte) *ScriptNames {
	s := &ScriptNames{names: make(map[string]struct{})}
	_ = eachLine(data, func(_ int, line string) error {
		if line = strings.TrimSpace(line); line != "" && !strings.HasPrefix(line, "#") {
			s.names[strings.ToUpper(line)] = struct{}{}
		}
		return nil
	})
	return s
}

func (s *ScriptNames) Known(name string) bool {
	_, ok := s.names[strings.ToUpper(name)]
	return ok
}

func (s *ScriptNames) Len() int {
	return len(s.names)
}

// ParseTitles reads resource display names: a YAML mapping for *.yaml and
// *.yml files, "NAME.EXT<TAB>title" lines otherwise. Keys are upper-cased.
func ParseTitles(name string, data []byte) (map[string]string, error) {
	raw := make(map[string]string)
	if isYAML(name) {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse titles %s: %w", name, err)
		}
	} else {
		err := eachLine(data, func(n int, line string) error {
			res, title, ok := strings.Cut(line, "\t")
			if !ok {
				return fmt.Errorf("%s:%d: missing tab", name, n)
			}
			raw[strings.TrimSpace(res)] = title
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	titles := make(map[string]string, len(raw))
	for k, v := range raw {
		titles[strings.ToUpper(k)] = v
	}
	return titles, nil
}

func isYAML(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// eachLine calls fn for every non-empty line, numbered from 1.
func eachLine(data []byte, fn func(n int, line string) error) error {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}
	return sc.Err()
}
