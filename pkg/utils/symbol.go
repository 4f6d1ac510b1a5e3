// Package utils provides small helpers shared by the CLI and API layers.
package utils

import (
	"regexp"
	"strings"
)

// symbolPattern matches US-style ticker symbols: 1-6 letters optionally
// followed by a class suffix, e.g. "AAPL", "BRK.B", "RDS-A".
var symbolPattern = regexp.MustCompile(`^[A-Z]{1,6}([.\-][A-Z]{1,2})?$`)

// NormalizeSymbol uppercases and trims a raw ticker string.
func NormalizeSymbol(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ValidSymbol reports whether s is a plausible ticker symbol after
// normalization.
func ValidSymbol(s string) bool {
	return symbolPattern.MatchString(s)
}
