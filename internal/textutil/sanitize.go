package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// maxFileNameLength caps sanitized path segments so deeply nested library
// layouts stay under common filesystem limits.
const maxFileNameLength = 120

// fileNameReplacer replaces filesystem-unsafe characters with underscores.
var fileNameReplacer = strings.NewReplacer(
	"<", "_",
	">", "_",
	":", "_",
	"\"", "_",
	"/", "_",
	"\\", "_",
	"|", "_",
	"?", "_",
	"*", "_",
)

var titleCaser = cases.Title(language.English, cases.NoLower)

// SanitizeFileName makes a string safe for use as a single path segment.
// Unsafe characters become underscores, surrounding whitespace and trailing
// dots are trimmed, and the result is capped at 120 characters. Returns ""
// when nothing usable remains; callers substitute their own fallback.
func SanitizeFileName(name string) string {
	name = fileNameReplacer.Replace(strings.TrimSpace(name))
	name = strings.TrimRight(name, ". ")
	runes := []rune(name)
	if len(runes) > maxFileNameLength {
		name = strings.TrimRight(string(runes[:maxFileNameLength]), ". ")
	}
	return name
}

// TitleCase capitalizes the first letter of each word without lowering
// existing capitals, so acronyms in tag values survive.
func TitleCase(value string) string {
	return titleCaser.String(strings.TrimSpace(value))
}

// Ternary returns a if cond is true, b otherwise.
func Ternary[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
