package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demos/internal/domain"
)

func TestEveryDateTypeHasRules(t *testing.T) {
	r := Dates()
	require.Len(t, r, len(domain.DateTypes))
	for _, dt := range domain.DateTypes {
		checks, ok := r[dt]
		require.True(t, ok, dt)
		for _, other := range append(checks.GreaterThan, checks.GreaterThanOrEqual...) {
			assert.True(t, other.IsValid(), "%s refers to %s", dt, other)
		}
	}
	assert.Equal(t, domain.EndOfDay, r[domain.DateExpiration].Expected)
	assert.Equal(t, domain.StartOfDay, r[domain.DateEffective].Expected)
}

func TestOffsetsAreOneWay(t *testing.T) {
	r := Dates()
	count := 0
	for dt, checks := range r {
		for _, o := range checks.Offsets {
			count++
			assert.Positive(t, o.Days, "%s offset from %s", dt, o.Other)
			assert.Equal(t, checks.Expected, o.Timestamp, "%s offset timestamp", dt)
			for _, back := range r[o.Other].Offsets {
				assert.NotEqual(t, dt, back.Other, "%s and %s check each other", dt, o.Other)
			}
		}
	}
	assert.Equal(t, 3, count)
}

func TestOrderingChecks(t *testing.T) {
	r := Dates()
	assert.ElementsMatch(t,
		[]domain.DateType{domain.DateApplicationIntakeStart, domain.DateConceptCompletion},
		r[domain.DateApplicationIntakeCompletion].GreaterThanOrEqual)
	assert.ElementsMatch(t,
		[]domain.DateType{domain.DateCompletenessStart, domain.DateApplicationIntakeCompletion},
		r[domain.DateCompletenessCompletion].GreaterThanOrEqual)
	assert.Equal(t, []domain.DateType{domain.DateStateApplicationSubmitted},
		r[domain.DateStateApplicationDeemedComplete].GreaterThan)
	assert.Empty(t, r[domain.DateExpiration].GreaterThan)
	assert.Empty(t, r[domain.DateReviewCompletion].GreaterThanOrEqual)
}

func TestActions(t *testing.T) {
	assert.Equal(t, ActionNotPermitted, Action(domain.PhaseFederalComment).Kind)
	assert.Equal(t, ActionNotImplemented, Action("Unknown").Kind)

	concept := Action(domain.PhaseConcept)
	assert.Equal(t, ActionPermitted, concept.Kind)
	assert.True(t, concept.HasNext())
	assert.Equal(t, domain.PhaseApplicationIntake, concept.NextPhase)

	assert.False(t, Action(domain.PhaseCompleteness).HasNext())
	assert.False(t, Action(domain.PhaseApprovalSummary).HasNext())
	assert.Equal(t, "Not Permitted", ActionNotPermitted.String())
}

func TestCompletionDatesAreOwnedByTheirPhase(t *testing.T) {
	for _, p := range domain.Phases {
		for _, dt := range Completion(p).Dates {
			assert.Contains(t, PhaseDates(p), dt, "%s should own %s", p, dt)
		}
	}
	assert.True(t, Completion(domain.PhaseFederalComment).NoValidation)
}

func TestOwningPhases(t *testing.T) {
	assert.Equal(t, []domain.PhaseName{domain.PhaseCompleteness, domain.PhaseFederalComment},
		OwningPhases(domain.DateFederalCommentPeriodStart))

	first, ok := FirstOwningPhase(domain.DateFederalCommentPeriodEnd)
	require.True(t, ok)
	assert.Equal(t, domain.PhaseCompleteness, first)

	_, ok = FirstOwningPhase(domain.DateEffective)
	assert.False(t, ok)

	_, ok = StartDate(domain.PhaseFederalComment)
	assert.False(t, ok)
	start, ok := StartDate(domain.PhaseReview)
	require.True(t, ok)
	assert.Equal(t, domain.DateReviewStart, start)
}
