package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"demos/internal/dates"
	"demos/internal/domain"
	"demos/internal/errs"
	"demos/internal/events"
	"demos/internal/rules"
)

// CompletePhase checks the completion preconditions of phase, stamps its
// completion date, marks it Completed and starts the phase it hands off to.
// All missing preconditions are reported together in a PhaseIncompleteError.
func (e Engine) CompletePhase(ctx context.Context, applicationID string, phase domain.PhaseName, actorID string) (domain.ApplicationAggregate, error) {
	if !phase.IsValid() {
		return domain.ApplicationAggregate{}, &domain.DeserializationError{Kind: "phase name", Value: string(phase)}
	}
	action := rules.Action(phase)
	if action.Kind != rules.ActionPermitted {
		return domain.ApplicationAggregate{}, errs.PhaseActionError{
			Phase:  phase,
			Reason: fmt.Sprintf("completion is %s", action.Kind),
		}
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ApplicationAggregate{}, err
	}
	defer tx.Rollback()

	app, err := e.Repo.GetApplication(ctx, tx, applicationID)
	if err != nil {
		return domain.ApplicationAggregate{}, err
	}
	phases, err := e.loadPhases(ctx, tx, applicationID)
	if err != nil {
		return domain.ApplicationAggregate{}, err
	}
	existing, err := e.Repo.ListDates(ctx, tx, applicationID)
	if err != nil {
		return domain.ApplicationAggregate{}, err
	}
	docs, err := e.Repo.ListDocuments(ctx, tx, applicationID)
	if err != nil {
		return domain.ApplicationAggregate{}, err
	}

	if missing := missingForCompletion(phase, phases, existing, docs); len(missing) > 0 {
		return domain.ApplicationAggregate{}, errs.PhaseIncompleteError{Phase: phase, Missing: missing}
	}
	completed, err := transition(phase, phases[phase], evtComplete)
	if err != nil {
		return domain.ApplicationAggregate{}, err
	}

	now := e.now()
	changes := changeSet{ApplicationID: applicationID}
	changes.upsert(action.DateToComplete, e.stamp(now, action.DateToComplete))
	changes.phase(phase, phases[phase], completed, events.PhaseCompleted)

	if action.HasNext() {
		if e.startPhase(&changes, action.NextPhase, phases[action.NextPhase], now) {
			if action.NextPhase == domain.PhaseApplicationIntake && app.Status == domain.StatusPreSubmission {
				changes.AppStatus = domain.StatusUnderReview
			}
		}
	}
	if phase == domain.PhaseApprovalSummary {
		changes.AppStatus = domain.StatusApproved
	}

	candidate, err := dates.Merge(existing, changes.Upserts, nil)
	if err != nil {
		return domain.ApplicationAggregate{}, err
	}
	if err := e.validator().Validate(candidate); err != nil {
		return domain.ApplicationAggregate{}, err
	}
	if err := e.apply(ctx, tx, changes, actorID, now); err != nil {
		return domain.ApplicationAggregate{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ApplicationAggregate{}, err
	}
	e.log().Info("phase completed",
		zap.String("application_id", applicationID),
		zap.String("phase", string(phase)),
		zap.String("actor_id", actorID))
	return e.GetApplication(ctx, applicationID)
}

// startPhase records a Not Started phase as Started and stamps its start
// date unless the change set already carries one. It reports whether the
// phase was started.
func (e Engine) startPhase(changes *changeSet, phase domain.PhaseName, current domain.PhaseStatus, now time.Time) bool {
	if current != domain.PhaseNotStarted {
		return false
	}
	started, err := transition(phase, current, evtStart)
	if err != nil {
		return false
	}
	changes.phase(phase, current, started, events.PhaseStarted)
	if dt, ok := rules.StartDate(phase); ok && !changes.has(dt) {
		changes.upsert(dt, e.stamp(now, dt))
	}
	return true
}

// missingForCompletion lists every unmet precondition for completing phase.
func missingForCompletion(phase domain.PhaseName, phases map[domain.PhaseName]domain.PhaseStatus, existing dates.Set, docs []domain.Document) []errs.MissingItem {
	var missing []errs.MissingItem
	if st := phases[phase]; st != domain.PhaseStarted {
		missing = append(missing, errs.MissingItem{Kind: errs.NotStarted, Name: string(st)})
	}
	checks := rules.Completion(phase)
	if checks.NoValidation {
		return missing
	}
	for _, dt := range checks.Dates {
		if _, ok := existing[dt]; !ok {
			missing = append(missing, errs.MissingItem{Kind: errs.MissingDate, Name: string(dt)})
		}
	}
	for _, want := range checks.DocumentTypes {
		found := false
		for _, d := range docs {
			if d.PhaseName == phase && d.DocumentType == want {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, errs.MissingItem{Kind: errs.MissingDocument, Name: string(want)})
		}
	}
	for _, p := range checks.Phases {
		if phases[p] != domain.PhaseCompleted {
			missing = append(missing, errs.MissingItem{Kind: errs.MissingPhase, Name: string(p)})
		}
	}
	return missing
}

// CompletionChecklist returns the unmet completion preconditions of a phase
// without changing anything.
func (e Engine) CompletionChecklist(ctx context.Context, applicationID string, phase domain.PhaseName) ([]errs.MissingItem, error) {
	if !phase.IsValid() {
		return nil, &domain.DeserializationError{Kind: "phase name", Value: string(phase)}
	}
	if _, err := e.Repo.GetApplication(ctx, e.DB, applicationID); err != nil {
		return nil, err
	}
	phases, err := e.loadPhases(ctx, e.DB, applicationID)
	if err != nil {
		return nil, err
	}
	existing, err := e.Repo.ListDates(ctx, e.DB, applicationID)
	if err != nil {
		return nil, err
	}
	docs, err := e.Repo.ListDocuments(ctx, e.DB, applicationID)
	if err != nil {
		return nil, err
	}
	return missingForCompletion(phase, phases, existing, docs), nil
}

// SkipConceptPhase marks Concept as Skipped, stamps the skip date and starts
// Application Intake when it has not started yet.
func (e Engine) SkipConceptPhase(ctx context.Context, applicationID, actorID string) (domain.ApplicationAggregate, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ApplicationAggregate{}, err
	}
	defer tx.Rollback()

	app, err := e.Repo.GetApplication(ctx, tx, applicationID)
	if err != nil {
		return domain.ApplicationAggregate{}, err
	}
	phases, err := e.loadPhases(ctx, tx, applicationID)
	if err != nil {
		return domain.ApplicationAggregate{}, err
	}
	existing, err := e.Repo.ListDates(ctx, tx, applicationID)
	if err != nil {
		return domain.ApplicationAggregate{}, err
	}
	skipped, err := transition(domain.PhaseConcept, phases[domain.PhaseConcept], evtSkip)
	if err != nil {
		return domain.ApplicationAggregate{}, err
	}

	now := e.now()
	changes := changeSet{ApplicationID: applicationID}
	changes.upsert(domain.DateConceptSkipped, e.stamp(now, domain.DateConceptSkipped))
	changes.phase(domain.PhaseConcept, phases[domain.PhaseConcept], skipped, events.PhaseSkipped)
	if e.startPhase(&changes, domain.PhaseApplicationIntake, phases[domain.PhaseApplicationIntake], now) &&
		app.Status == domain.StatusPreSubmission {
		changes.AppStatus = domain.StatusUnderReview
	}

	candidate, err := dates.Merge(existing, changes.Upserts, nil)
	if err != nil {
		return domain.ApplicationAggregate{}, err
	}
	if err := e.validator().Validate(candidate); err != nil {
		return domain.ApplicationAggregate{}, err
	}
	if err := e.apply(ctx, tx, changes, actorID, now); err != nil {
		return domain.ApplicationAggregate{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ApplicationAggregate{}, err
	}
	e.log().Info("concept phase skipped", zap.String("application_id", applicationID), zap.String("actor_id", actorID))
	return e.GetApplication(ctx, applicationID)
}

// SetApplicationPhaseStatus overwrites a phase status without precondition
// checks or date side effects. It is meant for administrative corrections.
func (e Engine) SetApplicationPhaseStatus(ctx context.Context, applicationID string, phase domain.PhaseName, status domain.PhaseStatus, actorID string) (domain.ApplicationPhase, error) {
	if !phase.IsValid() {
		return domain.ApplicationPhase{}, &domain.DeserializationError{Kind: "phase name", Value: string(phase)}
	}
	if !status.IsValid() {
		return domain.ApplicationPhase{}, &domain.DeserializationError{Kind: "phase status", Value: string(status)}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ApplicationPhase{}, err
	}
	defer tx.Rollback()

	if _, err := e.Repo.GetApplication(ctx, tx, applicationID); err != nil {
		return domain.ApplicationPhase{}, err
	}
	prev, err := e.Repo.FindPhaseStatus(ctx, tx, applicationID, phase)
	if err != nil {
		return domain.ApplicationPhase{}, err
	}
	now := e.now()
	changes := changeSet{ApplicationID: applicationID}
	changes.phase(phase, prev, status, events.PhaseStatusSet)
	if err := e.apply(ctx, tx, changes, actorID, now); err != nil {
		return domain.ApplicationPhase{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ApplicationPhase{}, err
	}
	e.log().Warn("phase status overridden",
		zap.String("application_id", applicationID),
		zap.String("phase", string(phase)),
		zap.String("from", string(prev)),
		zap.String("to", string(status)),
		zap.String("actor_id", actorID))
	return domain.ApplicationPhase{
		ApplicationID: applicationID,
		PhaseName:     phase,
		PhaseNumber:   phase.Number(),
		Status:        status,
	}, nil
}
