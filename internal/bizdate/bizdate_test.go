package bizdate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demos/internal/domain"
)

func TestDayBoundariesAcrossDST(t *testing.T) {
	c := Eastern()
	// 2025-03-09 is the spring-forward day in New York.
	noon := time.Date(2025, 3, 9, 16, 0, 0, 0, time.UTC)

	assert.True(t, c.StartOfDay(noon).Equal(time.Date(2025, 3, 9, 5, 0, 0, 0, time.UTC)))
	assert.True(t, c.EndOfDay(noon).Equal(time.Date(2025, 3, 10, 3, 59, 59, 999_000_000, time.UTC)))

	next := c.AddDays(c.StartOfDay(noon), 1)
	assert.True(t, next.Equal(time.Date(2025, 3, 10, 4, 0, 0, 0, time.UTC)), next)
}

func TestNormalizeAndMatches(t *testing.T) {
	c := Eastern()
	at := time.Date(2025, 7, 4, 18, 30, 0, 0, time.UTC)

	sod := c.Normalize(at, domain.StartOfDay)
	eod := c.Normalize(at, domain.EndOfDay)
	assert.True(t, c.Matches(sod, domain.StartOfDay))
	assert.True(t, c.Matches(eod, domain.EndOfDay))
	assert.False(t, c.Matches(at, domain.StartOfDay))
	assert.False(t, c.Matches(sod, domain.EndOfDay))
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTimezone, c.Loc.String())

	_, err = Load("Nowhere/Special")
	assert.Error(t, err)

	var zero Clock
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.True(t, zero.StartOfDay(at).Equal(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)))
}
