// Package bizdate normalises instants to calendar days in the business timezone.
package bizdate

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"demos/internal/domain"
)

const DefaultTimezone = "America/New_York"

// Clock resolves day boundaries in one location.
type Clock struct {
	Loc *time.Location
}

// Load returns a Clock for the named IANA zone. Empty means DefaultTimezone.
func Load(name string) (Clock, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Clock{}, fmt.Errorf("load timezone %s: %w", name, err)
	}
	return Clock{Loc: loc}, nil
}

// Eastern returns the default business clock.
func Eastern() Clock {
	c, err := Load(DefaultTimezone)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) loc() *time.Location {
	if c.Loc == nil {
		return time.UTC
	}
	return c.Loc
}

// StartOfDay returns 00:00:00.000 of t's calendar day.
func (c Clock) StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(c.loc()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc())
}

// EndOfDay returns 23:59:59.999 of t's calendar day.
func (c Clock) EndOfDay(t time.Time) time.Time {
	y, m, d := t.In(c.loc()).Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), c.loc())
}

// Normalize moves t to the boundary demanded by want.
func (c Clock) Normalize(t time.Time, want domain.ExpectedTimestamp) time.Time {
	if want == domain.EndOfDay {
		return c.EndOfDay(t)
	}
	return c.StartOfDay(t)
}

// Matches reports whether t already sits on the boundary demanded by want.
func (c Clock) Matches(t time.Time, want domain.ExpectedTimestamp) bool {
	return c.Normalize(t, want).Equal(t)
}

// AddDays shifts t by n calendar days, keeping the wall clock across DST changes.
func (c Clock) AddDays(t time.Time, n int) time.Time {
	local := t.In(c.loc())
	return local.AddDate(0, 0, n)
}
