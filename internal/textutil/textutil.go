package textutil

import "strings"

// EnsureTrailingLF appends a single \n if not already present.
func EnsureTrailingLF(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// Indent prefixes every non-empty line of s with prefix.
func Indent(s, prefix string) string {
	lines := strings.SplitAfter(s, "\n")
	var b strings.Builder
	for _, ln := range lines {
		if ln != "" && ln != "\n" {
			b.WriteString(prefix)
		}
		b.WriteString(ln)
	}
	return b.String()
}
