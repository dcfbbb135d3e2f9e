package validator

import (
	"regexp"
	"strings"
)

// emailPattern accepts local@domain.tld: one '@', a dot inside the domain part
// and no whitespace anywhere.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// IsEmail reports whether value is a syntactically acceptable address.
func IsEmail(value string) bool {
	return emailPattern.MatchString(value)
}
