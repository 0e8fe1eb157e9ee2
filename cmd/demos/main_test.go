package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demos/internal/bizdate"
	"demos/internal/domain"
)

func TestParseDateAssignment(t *testing.T) {
	clock := bizdate.Eastern()

	v, err := parseDateAssignment("Effective Date=2025-07-01", clock)
	require.NoError(t, err)
	assert.Equal(t, domain.DateEffective, v.DateType)
	assert.True(t, v.Value.Equal(time.Date(2025, 7, 1, 4, 0, 0, 0, time.UTC)), v.Value)

	v, err = parseDateAssignment("Expiration Date = 2025-12-31", clock)
	require.NoError(t, err)
	assert.True(t, v.Value.Equal(time.Date(2026, 1, 1, 4, 59, 59, 999_000_000, time.UTC)), v.Value)

	v, err = parseDateAssignment("Concept Start Date=2025-03-10T04:00:00Z", clock)
	require.NoError(t, err)
	assert.True(t, v.Value.Equal(time.Date(2025, 3, 10, 4, 0, 0, 0, time.UTC)))
}

func TestParseDateAssignmentErrors(t *testing.T) {
	clock := bizdate.Eastern()
	for _, raw := range []string{
		"Effective Date",
		"Go Live Date=2025-01-01",
		"Effective Date=07/01/2025",
	} {
		_, err := parseDateAssignment(raw, clock)
		assert.Error(t, err, raw)
	}
}
