// Package sanitizer normalizes user input before validation and storage.
package sanitizer

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	whitespaceRegex     = regexp.MustCompile(`\s+`)
	unsafeFilenameRegex = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// Apply runs transforms over value in order.
func Apply[T any](value T, transforms ...func(T) T) T {
	for _, transform := range transforms {
		value = transform(value)
	}
	return value
}

func Trim(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeWhitespace collapses runs of whitespace into single spaces and trims the ends.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SanitizeFilename strips any directory part and replaces characters outside
// [a-zA-Z0-9._-] with underscores. Empty results become "file".
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	safe := unsafeFilenameRegex.ReplaceAllString(name, "_")
	safe = strings.Trim(safe, " .")
	if len(safe) > 200 {
		safe = safe[len(safe)-200:]
	}
	if safe == "" || safe == "_" {
		return "file"
	}
	return safe
}
