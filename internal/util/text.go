package util

import "strings"

// SanitizeText drops invalid UTF-8 sequences and NUL bytes, both of which
// PostgreSQL rejects in text columns.
func SanitizeText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}
