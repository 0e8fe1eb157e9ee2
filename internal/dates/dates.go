// Package dates merges and validates the milestone date set of an application.
package dates

import (
	"sort"
	"time"

	"demos/internal/bizdate"
	"demos/internal/domain"
	"demos/internal/errs"
	"demos/internal/rules"
)

// Set maps each present date type to its value.
type Set map[domain.DateType]time.Time

// Value is one incoming date upsert.
type Value struct {
	DateType domain.DateType `json:"date_type"`
	Value    time.Time       `json:"date_value"`
}

// Clone returns an independent copy of s.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Sorted returns the entries of s in date type declaration order.
func (s Set) Sorted() []Value {
	out := make([]Value, 0, len(s))
	for dt, v := range s {
		out = append(out, Value{DateType: dt, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateType.Index() < out[j].DateType.Index() })
	return out
}

// Merge applies upserts then deletes to a copy of existing. A date type may
// appear at most once across both lists, except for repeated upserts of the
// same instant.
func Merge(existing Set, upserts []Value, deletes []domain.DateType) (Set, error) {
	seen := make(map[domain.DateType]time.Time, len(upserts))
	for _, u := range upserts {
		if !u.DateType.IsValid() {
			return nil, &domain.DeserializationError{Kind: "date type", Value: string(u.DateType)}
		}
		if prev, ok := seen[u.DateType]; ok && !prev.Equal(u.Value) {
			return nil, errs.DateConflictError{DateType: u.DateType, Reason: "is set twice with different values"}
		}
		seen[u.DateType] = u.Value
	}
	for _, dt := range deletes {
		if !dt.IsValid() {
			return nil, &domain.DeserializationError{Kind: "date type", Value: string(dt)}
		}
		if _, ok := seen[dt]; ok {
			return nil, errs.DateConflictError{DateType: dt, Reason: "is both set and cleared"}
		}
	}

	out := existing.Clone()
	for _, u := range upserts {
		out[u.DateType] = u.Value
	}
	for _, dt := range deletes {
		delete(out, dt)
	}
	return out, nil
}

// Validator checks a candidate date set against a rule table.
type Validator struct {
	Rules rules.DateRules
	Clock bizdate.Clock
}

// NewValidator returns a validator over the shared rule table.
func NewValidator(clock bizdate.Clock) Validator {
	return Validator{Rules: rules.Dates(), Clock: clock}
}

// Validate returns the first violated check, walking date types in
// declaration order. Checks against absent date types are skipped.
func (v Validator) Validate(candidate Set) error {
	for _, dt := range domain.DateTypes {
		value, ok := candidate[dt]
		if !ok {
			continue
		}
		checks, ok := v.Rules[dt]
		if !ok {
			continue
		}
		if err := v.check(dt, value, checks, candidate); err != nil {
			return err
		}
	}
	return nil
}

func (v Validator) check(dt domain.DateType, value time.Time, checks rules.DateChecks, candidate Set) error {
	if checks.Expected != "" && !v.Clock.Matches(value, checks.Expected) {
		return errs.DateFormatError{DateType: dt, Value: value, Expected: checks.Expected}
	}
	for _, other := range checks.GreaterThan {
		ref, ok := candidate[other]
		if ok && !value.After(ref) {
			return errs.DateOrderError{DateType: dt, Other: other, Strict: true}
		}
	}
	for _, other := range checks.GreaterThanOrEqual {
		ref, ok := candidate[other]
		if ok && value.Before(ref) {
			return errs.DateOrderError{DateType: dt, Other: other}
		}
	}
	for _, off := range checks.Offsets {
		ref, ok := candidate[off.Other]
		if !ok {
			continue
		}
		want := v.Clock.Normalize(v.Clock.AddDays(ref, off.Days), off.Timestamp)
		if !want.Equal(value) {
			return errs.DateOffsetError{
				DateType: dt,
				Other:    off.Other,
				Days:     off.Days,
				Expected: off.Timestamp,
				Want:     want,
				Got:      value,
			}
		}
	}
	return nil
}
