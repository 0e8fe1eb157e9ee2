package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/statekit"

	"demos/internal/domain"
	"demos/internal/errs"
)

const phaseMachineID = "application-phase"

// Phase lifecycle events.
const (
	evtStart    statekit.EventType = "START"
	evtComplete statekit.EventType = "COMPLETE"
	evtSkip     statekit.EventType = "SKIP"
)

const (
	stateNotStarted = statekit.StateID(domain.PhaseNotStarted)
	stateStarted    = statekit.StateID(domain.PhaseStarted)
	stateCompleted  = statekit.StateID(domain.PhaseCompleted)
	stateSkipped    = statekit.StateID(domain.PhaseSkipped)
)

// phaseContext is the machine context for one (application, phase) pair.
type phaseContext struct {
	Phase domain.PhaseName
	Fired []statekit.EventType
}

// skippablePhases may go to Skipped. Only Concept can be skipped today.
var skippablePhases = map[domain.PhaseName]bool{
	domain.PhaseConcept: true,
}

func newPhaseMachine() (*statekit.MachineConfig[*phaseContext], error) {
	return statekit.NewMachine[*phaseContext](phaseMachineID).
		WithInitial(stateNotStarted).
		WithContext(&phaseContext{}).
		WithAction("record", recordEvent).
		WithGuard("skippable", guardSkippable).
		State(stateNotStarted).
			On(evtStart).Target(stateStarted).Do("record").
			On(evtSkip).Target(stateSkipped).Guard("skippable").Do("record").
			Done().
		State(stateStarted).
			On(evtComplete).Target(stateCompleted).Do("record").
			On(evtSkip).Target(stateSkipped).Guard("skippable").Do("record").
			Done().
		State(stateCompleted).
			Final().
			Done().
		State(stateSkipped).
			Final().
			Done().
		Build()
}

func recordEvent(ctx **phaseContext, e statekit.Event) {
	if *ctx == nil {
		return
	}
	(*ctx).Fired = append((*ctx).Fired, e.Type)
}

func (c *phaseContext) fired(evt statekit.EventType) bool {
	return len(c.Fired) > 0 && c.Fired[len(c.Fired)-1] == evt
}

func guardSkippable(ctx *phaseContext, _ statekit.Event) bool {
	return ctx != nil && skippablePhases[ctx.Phase]
}

var loadPhaseMachine = sync.OnceValues(newPhaseMachine)

// transition resolves the status reached by firing evt on a phase currently
// in from. Events the lifecycle does not accept fail with PhaseTransitionError.
func transition(phase domain.PhaseName, from domain.PhaseStatus, evt statekit.EventType) (domain.PhaseStatus, error) {
	rejected := errs.PhaseTransitionError{Phase: phase, From: from, Event: string(evt)}
	if from.IsTerminal() || !from.IsValid() {
		return "", rejected
	}
	machine, err := loadPhaseMachine()
	if err != nil {
		return "", fmt.Errorf("build phase machine: %w", err)
	}
	pc := &phaseContext{Phase: phase}
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **phaseContext) {
		*c = pc
	})
	if err := interp.Restore(statekit.Snapshot[*phaseContext]{
		MachineID:    phaseMachineID,
		CurrentState: statekit.StateID(from),
		Context:      pc,
		CreatedAt:    time.Now(),
	}); err != nil {
		return "", fmt.Errorf("restore phase %s at %s: %w", phase, from, err)
	}

	interp.Send(statekit.Event{Type: evt, Payload: phase})
	// Every accepted transition runs "record"; no entry means no transition.
	if !pc.fired(evt) {
		return "", rejected
	}
	return domain.PhaseStatus(interp.State().Value), nil
}
