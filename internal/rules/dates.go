// Package rules holds the static workflow tables: date validation checks,
// phase completion actions and completion preconditions.
package rules

import "demos/internal/domain"

// OffsetCheck requires a date to equal Other shifted by Days calendar days,
// normalised to Timestamp.
type OffsetCheck struct {
	Other     domain.DateType
	Days      int
	Timestamp domain.ExpectedTimestamp
}

// DateChecks is the validation rule set of one date type.
type DateChecks struct {
	Expected           domain.ExpectedTimestamp
	GreaterThan        []domain.DateType
	GreaterThanOrEqual []domain.DateType
	Offsets            []OffsetCheck
}

// DateRules maps each date type to its checks.
type DateRules map[domain.DateType]DateChecks

var endOfDayTypes = map[domain.DateType]bool{
	domain.DateFederalCommentPeriodEnd: true,
	domain.DateCompletenessReviewDue:   true,
	domain.DateExpiration:              true,
}

var dateRules = buildDateRules()

// Dates returns the shared date rule table. Callers must not modify it.
func Dates() DateRules { return dateRules }

func buildDateRules() DateRules {
	r := make(DateRules, len(domain.DateTypes))
	for _, dt := range domain.DateTypes {
		c := DateChecks{Expected: domain.StartOfDay}
		if endOfDayTypes[dt] {
			c.Expected = domain.EndOfDay
		}
		r[dt] = c
	}
	gte := func(dt, other domain.DateType) {
		c := r[dt]
		c.GreaterThanOrEqual = append(c.GreaterThanOrEqual, other)
		r[dt] = c
	}
	gt := func(dt, other domain.DateType) {
		c := r[dt]
		c.GreaterThan = append(c.GreaterThan, other)
		r[dt] = c
	}
	offset := func(dt, other domain.DateType, days int, ts domain.ExpectedTimestamp) {
		c := r[dt]
		c.Offsets = append(c.Offsets, OffsetCheck{Other: other, Days: days, Timestamp: ts})
		r[dt] = c
	}

	// A phase may complete on the day it started.
	gte(domain.DateConceptCompletion, domain.DateConceptStart)
	gte(domain.DateApplicationIntakeCompletion, domain.DateApplicationIntakeStart)
	gte(domain.DateApplicationIntakeCompletion, domain.DateConceptCompletion)
	gte(domain.DateCompletenessCompletion, domain.DateCompletenessStart)
	gte(domain.DateCompletenessCompletion, domain.DateApplicationIntakeCompletion)
	gt(domain.DateStateApplicationDeemedComplete, domain.DateStateApplicationSubmitted)

	offset(domain.DateCompletenessReviewDue, domain.DateStateApplicationSubmitted, 15, domain.EndOfDay)
	offset(domain.DateFederalCommentPeriodStart, domain.DateStateApplicationDeemedComplete, 1, domain.StartOfDay)
	offset(domain.DateFederalCommentPeriodEnd, domain.DateFederalCommentPeriodStart, 30, domain.EndOfDay)
	return r
}
