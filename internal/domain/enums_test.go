package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupPhase(t *testing.T) {
	cases := map[string]PhaseName{
		"Concept":            PhaseConcept,
		"application-intake": PhaseApplicationIntake,
		"SDG-Preparation":    PhaseSDGPreparation,
		" Approval Summary ": PhaseApprovalSummary,
	}
	for in, want := range cases {
		got, err := LookupPhase(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := LookupPhase("Public Hearing")
	var desErr *DeserializationError
	require.True(t, errors.As(err, &desErr))
	assert.Equal(t, "phase name", desErr.Kind)
	assert.Equal(t, `unknown phase name "Public Hearing"`, err.Error())
}

func TestPhaseOrder(t *testing.T) {
	require.Len(t, Phases, 8)
	for i, p := range Phases {
		assert.Equal(t, i+1, p.Number())
	}
	assert.Equal(t, 0, PhaseName("Nope").Number())
	assert.Equal(t, "federal-comment", PhaseFederalComment.Slug())
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, PhaseCompleted.IsTerminal())
	assert.True(t, PhaseSkipped.IsTerminal())
	assert.False(t, PhaseStarted.IsTerminal())
	assert.False(t, PhaseNotStarted.IsTerminal())
}

func TestParseRejectsUnknownValues(t *testing.T) {
	_, err := ParseDateType("Signature Date")
	assert.Error(t, err)
	_, err = ParsePhaseStatus("Paused")
	assert.Error(t, err)
	_, err = ParseDocumentType("Memo")
	assert.Error(t, err)

	dt, err := ParseDateType("Concept Start Date")
	require.NoError(t, err)
	assert.Equal(t, DateConceptStart, dt)
}
