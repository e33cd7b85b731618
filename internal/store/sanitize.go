package store

import (
	"strings"
	"unicode"
)

// SanitizeCategory normalizes a category name to canonical form: trimmed,
// lowercased, with the first rune capitalized. Sanitizing an
// already-sanitized string returns it unchanged.
func SanitizeCategory(category string) string {
	trimmed := strings.ToLower(strings.TrimSpace(category))
	if trimmed == "" {
		return ""
	}
	runes := []rune(trimmed)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// SanitizeUsername normalizes a username: trimmed, lowercased, with all
// internal whitespace removed.
func SanitizeUsername(username string) string {
	return strings.Join(strings.Fields(strings.ToLower(username)), "")
}

// IsReservedUsername reports whether the username collides with the
// reserved master identity.
func IsReservedUsername(username string) bool {
	return SanitizeUsername(username) == MasterUser
}
