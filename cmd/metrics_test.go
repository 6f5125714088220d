package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateFlag(t *testing.T) {
	got, err := parseDateFlag("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = parseDateFlag("2026-03-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), got)

	got, err = parseDateFlag("2026-03-15T10:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Hour())

	_, err = parseDateFlag("not-a-date")
	assert.Error(t, err)
}
