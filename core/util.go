package core

import (
	"strings"
	"time"
)

// Clock returns the current instant. Services take one so tests can pin time.
type Clock func() time.Time

// SystemClock is the default Clock. SQL stores keep milliseconds, so it does too.
func SystemClock() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// SameUsername compares usernames case-insensitively, ignoring surrounding whitespace.
func SameUsername(a, b string) bool {
	return strings.EqualFold(CleanString(a), CleanString(b))
}

// ContainsUsername reports whether uname is in unames (see SameUsername).
func ContainsUsername(unames []string, uname string) bool {
	for _, u := range unames {
		if SameUsername(u, uname) {
			return true
		}
	}
	return false
}
