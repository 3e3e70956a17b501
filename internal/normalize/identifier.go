// Package normalize cleans individual field values returned by the extraction model.
// Failures are signalled with sentinels ("" or 0.0), never errors, so one bad field
// only drops its own record.
package normalize

import (
	"fmt"
	"regexp"
	"strings"
)

// IdentifierLength is the width of a seat number (SBD).
const IdentifierLength = 5

var reDigits = regexp.MustCompile(`\d+`)

// Identifier concatenates every digit run in raw, left-pads with zeros to five
// characters and keeps the last five. Returns "" when raw has no digits.
func Identifier(raw any) string {
	digits := strings.Join(reDigits.FindAllString(stringify(raw), -1), "")
	if digits == "" {
		return ""
	}
	if len(digits) < IdentifierLength {
		digits = strings.Repeat("0", IdentifierLength-len(digits)) + digits
	}
	return digits[len(digits)-IdentifierLength:]
}

// ValidIdentifier reports whether s is exactly five ASCII digits.
func ValidIdentifier(s string) bool {
	if len(s) != IdentifierLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func stringify(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		// JSON numbers arrive as float64; 12345 must not render as 1.2345e+04.
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
