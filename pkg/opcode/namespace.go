package opcode

import (
	"strings"
)

// NamespaceLen is the width of the namespace prefix packed in front of a
// variable name ("GLOBAL", "LOCALS", "AR0602").
const NamespaceLen = 6

var reservedNamespaces = map[string]bool{
	"GLOBAL": true,
	"LOCALS": true,
	"MYAREA": true,
	"KAPUTZ": true,
}

// noMerge lists the trigger ids whose string arguments are never packed.
var noMerge = map[int64]bool{
	16448: true,
	16449: true,
	16566: true,
}

// MergeSuppressed reports whether the strings of opcode id stay unpacked.
func MergeSuppressed(id int64) bool {
	return noMerge[id]
}

// IsNamespace reports whether s names a scripting namespace: a reserved
// scope, an area code "ARdddd", or an existing area resource. The packed
// prefix is exactly NamespaceLen wide, so longer area names never qualify.
// areaExists may be nil.
func IsNamespace(s string, areaExists func(string) bool) bool {
	u := strings.ToUpper(s)
	if len(u) != NamespaceLen {
		return false
	}
	if reservedNamespaces[u] {
		return true
	}
	if strings.HasPrefix(u, "AR") && isDigits(u[2:]) {
		return true
	}
	return areaExists != nil && areaExists(u+".ARE")
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// MergeStrings packs adjacent (name, namespace) pairs into one field,
// namespace first. A pair merges only when exactly one side is a namespace;
// pairs are taken left to right and a merged pair is not reconsidered.
func MergeStrings(strs []string, isNamespace func(string) bool) []string {
	out := make([]string, 0, len(strs))
	for i := 0; i < len(strs); i++ {
		if i+1 < len(strs) {
			a, b := isNamespace(strs[i]), isNamespace(strs[i+1])
			if a != b {
				if a {
					out = append(out, strs[i]+strs[i+1])
				} else {
					out = append(out, strs[i+1]+strs[i])
				}
				i++
				continue
			}
		}
		out = append(out, strs[i])
	}
	return out
}

// SplitStrings undoes MergeStrings using the signature: area[i] tells
// whether the i-th string parameter is a namespace. Fields are split only
// while there are fewer fields than parameters, and only where the prefix
// passes isNamespace (nil accepts any prefix).
func SplitStrings(fields []string, area []bool, isNamespace func(string) bool) []string {
	// Trailing empty fields are unused slots, not empty arguments.
	used := len(fields)
	for used > 0 && fields[used-1] == "" {
		used--
	}
	extra := len(area) - used

	out := make([]string, 0, len(area))
	fi := 0
	for i := 0; i < len(area); i++ {
		var f string
		if fi < len(fields) {
			f = fields[fi]
		}
		fi++
		if extra > 0 && i+1 < len(area) && area[i] != area[i+1] && len(f) >= NamespaceLen &&
			(isNamespace == nil || isNamespace(f[:NamespaceLen])) {
			ns, rest := f[:NamespaceLen], f[NamespaceLen:]
			if area[i] {
				out = append(out, ns, rest)
			} else {
				out = append(out, rest, ns)
			}
			i++
			extra--
			continue
		}
		out = append(out, f)
	}
	return out
}
