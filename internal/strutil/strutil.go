// Package strutil provides string helpers for node labels and identifiers.
package strutil

import (
	"strings"
	"unicode"
)

// ToSnakeCase converts a string to snake_case.
// Examples: contactCountry -> contact_country, Contact Country -> contact_country
func ToSnakeCase(s string) string {
	if s == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(s) + 4)

	for i, r := range s {
		if unicode.IsUpper(r) {
			// Underscore before an uppercase rune when the previous rune is
			// lowercase, or when it starts a new word inside an acronym run
			// ("HTTPServer" -> "http_server").
			if i > 0 {
				prev := rune(s[i-1])
				if unicode.IsLower(prev) {
					result.WriteByte('_')
				} else if i+1 < len(s) && unicode.IsLower(rune(s[i+1])) {
					result.WriteByte('_')
				}
			}
			result.WriteRune(unicode.ToLower(r))
		} else if r == '-' || r == ' ' {
			result.WriteByte('_')
		} else {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// LabelSlug normalizes a human-entered migration label into a filename slug.
// Anything that is not a letter, digit, or underscore collapses to a single
// underscore; leading and trailing underscores are trimmed.
func LabelSlug(label string) string {
	snake := ToSnakeCase(strings.TrimSpace(label))

	var result strings.Builder
	result.Grow(len(snake))
	lastUnderscore := false
	for _, r := range snake {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			result.WriteRune(unicode.ToLower(r))
			lastUnderscore = false
		case !lastUnderscore:
			result.WriteByte('_')
			lastUnderscore = true
		}
	}

	return strings.Trim(result.String(), "_")
}
