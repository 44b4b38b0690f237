package utils

import (
	"strconv"
	"strings"
)

// ParseOptionalID parses a positive id; blank, zero or garbage yields nil.
func ParseOptionalID(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

// ParseFlag treats checkbox-style values ("1", "true", "on", "yes") as true.
func ParseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes", "y":
		return true
	}
	return false
}
