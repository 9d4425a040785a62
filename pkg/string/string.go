// Package string holds small text-normalization helpers for request and
// register input. Imported under the alias s by convention.
package string

import (
	"strings"
	"unicode"
)

// TrimStrings trims leading and trailing whitespace in place.
func TrimStrings(ss ...*string) {
	for _, s := range ss {
		*s = strings.TrimSpace(*s)
	}
}

// TrimSlice trims every element in place.
func TrimSlice(ss []string) {
	for i, s := range ss {
		ss[i] = strings.TrimSpace(s)
	}
}

// ToSnakeCase converts a Go field name to its snake_case wire form:
// "ConsentType" becomes "consent_type", "UserID" becomes "user_id".
func ToSnakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(runes) + 4)

	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prevLower := unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || nextLower {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
