package engine

import (
	"testing"

	"github.com/felixgeelhaar/statekit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demos/internal/domain"
	"demos/internal/errs"
)

func TestPhaseTransitions(t *testing.T) {
	cases := []struct {
		phase domain.PhaseName
		from  domain.PhaseStatus
		evt   statekit.EventType
		want  domain.PhaseStatus
	}{
		{domain.PhaseReview, domain.PhaseNotStarted, evtStart, domain.PhaseStarted},
		{domain.PhaseReview, domain.PhaseStarted, evtComplete, domain.PhaseCompleted},
		{domain.PhaseConcept, domain.PhaseStarted, evtSkip, domain.PhaseSkipped},
		{domain.PhaseConcept, domain.PhaseNotStarted, evtSkip, domain.PhaseSkipped},
	}
	for _, tc := range cases {
		got, err := transition(tc.phase, tc.from, tc.evt)
		require.NoError(t, err, "%s %s %s", tc.phase, tc.from, tc.evt)
		assert.Equal(t, tc.want, got)
	}
}

func TestPhaseTransitionsRejected(t *testing.T) {
	cases := []struct {
		phase domain.PhaseName
		from  domain.PhaseStatus
		evt   statekit.EventType
	}{
		{domain.PhaseReview, domain.PhaseNotStarted, evtComplete},
		{domain.PhaseReview, domain.PhaseStarted, evtStart},
		{domain.PhaseReview, domain.PhaseStarted, evtSkip},
		{domain.PhaseConcept, domain.PhaseCompleted, evtSkip},
		{domain.PhaseConcept, domain.PhaseSkipped, evtStart},
		{domain.PhaseConcept, domain.PhaseStatus("Paused"), evtStart},
	}
	for _, tc := range cases {
		_, err := transition(tc.phase, tc.from, tc.evt)
		var transErr errs.PhaseTransitionError
		require.ErrorAs(t, err, &transErr, "%s %s %s", tc.phase, tc.from, tc.evt)
		assert.Equal(t, tc.from, transErr.From)
	}
}

func TestPhaseContextRecordsAcceptedEventsOnly(t *testing.T) {
	machine, err := loadPhaseMachine()
	require.NoError(t, err)

	pc := &phaseContext{Phase: domain.PhaseReview}
	interp := statekit.NewInterpreter(machine)
	require.NoError(t, interp.Restore(statekit.Snapshot[*phaseContext]{
		MachineID:    phaseMachineID,
		CurrentState: stateStarted,
		Context:      pc,
	}))

	interp.Send(statekit.Event{Type: evtSkip})
	assert.Empty(t, pc.Fired, "guarded skip must not record")
	assert.False(t, pc.fired(evtSkip))

	interp.Send(statekit.Event{Type: evtComplete})
	assert.Equal(t, []statekit.EventType{evtComplete}, pc.Fired)
	assert.True(t, pc.fired(evtComplete))
	assert.Equal(t, stateCompleted, interp.State().Value)
}
