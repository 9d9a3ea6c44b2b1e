package utils

import "strings"

// FileExtension returns the text after the last dot of name, or "" when
// name has no dot.
func FileExtension(name string) string {
	i := strings.LastIndex(name, ".")
	if i == -1 {
		return ""
	}
	return name[i+1:]
}
