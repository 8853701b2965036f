// Package quoting provides identifier and literal quoting for PostgreSQL.
package quoting

import "strings"

// DoubleQuote quotes a SQL identifier using double quotes.
// Internal double quotes are escaped by doubling them.
func DoubleQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// EscapeString escapes a string literal body by doubling single quotes.
// Backslashes are left alone; standard_conforming_strings is assumed.
func EscapeString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// IsBareIdentifier reports whether s can be written into SQL unquoted:
// a letter or underscore followed by letters, digits or underscores.
func IsBareIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
