package utils

import (
	"regexp"
	"strings"
)

// sanitize.go - Input sanitization utilities for security

// MaxSearchLength bounds user-supplied search terms.
const MaxSearchLength = 100

var (
	scriptTagRegex = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

// EscapeSQLWildcards escapes SQL LIKE/ILIKE wildcard characters to prevent injection
// This is used when user input is used in LIKE/ILIKE queries
func EscapeSQLWildcards(input string) string {
	// Escape backslash first (as it's the escape character)
	input = strings.ReplaceAll(input, "\\", "\\\\")
	// Escape SQL wildcards
	input = strings.ReplaceAll(input, "%", "\\%")
	input = strings.ReplaceAll(input, "_", "\\_")
	return input
}

// SanitizeSearchQuery prepares a search string for safe case-insensitive LIKE usage.
// Returns the lower-cased term wrapped with % for partial matching
func SanitizeSearchQuery(input string) string {
	input = strings.TrimSpace(input)
	if len([]rune(input)) > MaxSearchLength {
		input = string([]rune(input)[:MaxSearchLength])
	}
	input = EscapeSQLWildcards(strings.ToLower(input))
	return "%" + input + "%"
}

// StripScriptTags removes <script> blocks from user-generated text.
func StripScriptTags(input string) string {
	return scriptTagRegex.ReplaceAllString(input, "")
}

// CollapseSpaces lower-cases s, trims it and folds internal whitespace runs to one space.
func CollapseSpaces(s string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}
