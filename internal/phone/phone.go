// Package phone canonicalizes phone numbers for lead matching.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// defaultRegion is assumed for numbers without an explicit country code.
// The ads platform and field-service system both report US numbers.
const defaultRegion = "US"

// Normalize canonicalizes a phone number to its last 10 digits. Formatting
// characters and country codes are dropped. Returns "" for empty input or
// input with no digits; the ads platform reports unfetchable phones as empty
// strings, which must behave like absent values.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if num, err := phonenumbers.Parse(raw, defaultRegion); err == nil {
		return lastTen(phonenumbers.GetNationalSignificantNumber(num))
	}

	return lastTen(stripNonDigits(raw))
}

// Match reports whether two raw phone numbers refer to the same line.
// Two numbers match only if both normalize to a non-empty value; two absent
// phones are never considered equal.
func Match(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func lastTen(digits string) string {
	if len(digits) > 10 {
		return digits[len(digits)-10:]
	}
	return digits
}
