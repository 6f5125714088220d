package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Empty(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("   "))
}

func TestNormalize_NoDigits(t *testing.T) {
	assert.Equal(t, "", Normalize("ext."))
}

func TestNormalize_Formatted(t *testing.T) {
	assert.Equal(t, "5551234567", Normalize("+1 (555) 123-4567"))
	assert.Equal(t, "5551234567", Normalize("(555) 123-4567"))
	assert.Equal(t, "5551234567", Normalize("555.123.4567"))
}

func TestNormalize_DropsCountryCode(t *testing.T) {
	assert.Equal(t, "5551234567", Normalize("15551234567"))
	assert.Equal(t, "5551234567", Normalize("+15551234567"))
}

func TestNormalize_Bare10Digit(t *testing.T) {
	assert.Equal(t, "5551234567", Normalize("5551234567"))
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, raw := range []string{"", "+1 (555) 123-4567", "5551234567", "15551234567"} {
		once := Normalize(raw)
		assert.Equal(t, once, Normalize(once), "normalize should be idempotent for %q", raw)
	}
}

func TestMatch_Symmetric(t *testing.T) {
	a, b := "+1 (555) 123-4567", "5551234567"
	assert.True(t, Match(a, b))
	assert.True(t, Match(b, a))
}

func TestMatch_AbsentNeverMatches(t *testing.T) {
	assert.False(t, Match("", "5551234567"))
	assert.False(t, Match("5551234567", ""))
	assert.False(t, Match("", ""))
}

func TestMatch_DifferentNumbers(t *testing.T) {
	assert.False(t, Match("5551234567", "5559876543"))
}
