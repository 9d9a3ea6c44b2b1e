package utils

import (
	"strconv"
	"strings"
)

// ToInt parses a decimal string, returning def when s is empty or malformed.
func ToInt(s string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return i
}

// ToBool reports whether s is a truthy flag value ("1", "true", "yes", any case).
func ToBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
