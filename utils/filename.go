package utils

import (
	"strings"
	"unicode/utf8"
)

const (
	trimChars     = "..."
	trimAllowance = 5
)

// Extension returns the text after the last dot of the final path
// component, or "" when there is none.
func Extension(name string) string {
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[i+1:]
}

// Stem returns name without its extension.
func Stem(name string) string {
	ext := Extension(name)
	if ext == "" {
		return name
	}
	return strings.TrimSuffix(name, "."+ext)
}

// TruncateBytes cuts s to at most n bytes without splitting a rune.
func TruncateBytes(s string, n int) string {
	if n < 0 {
		n = 0
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// TrimFilename shortens name so that it fits maxLength. maxLength <= 0 means
// no limit. The shortened form is stem + "...." + ext, cut to maxLength
// when the extension alone is too long.
func TrimFilename(name string, maxLength int) string {
	if maxLength <= 0 {
		return name
	}
	ext := Extension(name)
	allow := maxLength - len(trimChars) - len(ext) - trimAllowance
	if allow < 0 {
		allow = 0
	}
	if len(name) <= allow {
		return name
	}
	stem := TruncateBytes(Stem(name), allow)
	return TruncateBytes(stem+"...."+ext, maxLength)
}
