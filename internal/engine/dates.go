package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"demos/internal/dates"
	"demos/internal/domain"
	"demos/internal/errs"
	"demos/internal/rules"
)

// DatesUpdateOptions carries one batch of date edits for an application.
type DatesUpdateOptions struct {
	ApplicationID string
	Upserts       []dates.Value
	Deletes       []domain.DateType
	ActorID       string
}

// ValidateAndUpdateDates merges the edits into the stored dates, rejects the
// batch if any resulting date breaks a rule and otherwise writes it. Setting a
// date owned by a Not Started phase starts that phase.
func (e Engine) ValidateAndUpdateDates(ctx context.Context, opts DatesUpdateOptions) ([]domain.ApplicationDate, error) {
	// Conflicts are judged on the raw request, before unchanged entries drop out.
	if _, err := dates.Merge(nil, opts.Upserts, opts.Deletes); err != nil {
		return nil, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	app, err := e.Repo.GetApplication(ctx, tx, opts.ApplicationID)
	if err != nil {
		return nil, err
	}
	existing, err := e.Repo.ListDates(ctx, tx, opts.ApplicationID)
	if err != nil {
		return nil, err
	}
	phases, err := e.loadPhases(ctx, tx, opts.ApplicationID)
	if err != nil {
		return nil, err
	}

	changes := changeSet{ApplicationID: opts.ApplicationID}
	changes.Upserts, changes.Deletes = changedDates(existing, opts.Upserts, opts.Deletes)
	if err := lockedByFinishedPhases(phases, changes); err != nil {
		return nil, err
	}

	now := e.now()
	e.startPhasesByDates(&changes, app, phases, now)

	candidate, err := dates.Merge(existing, changes.Upserts, changes.Deletes)
	if err != nil {
		return nil, err
	}
	if err := e.validator().Validate(candidate); err != nil {
		return nil, err
	}
	if err := e.apply(ctx, tx, changes, opts.ActorID, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	if len(changes.Upserts) > 0 || len(changes.Deletes) > 0 {
		e.log().Info("application dates updated",
			zap.String("application_id", opts.ApplicationID),
			zap.Int("set", len(changes.Upserts)),
			zap.Int("cleared", len(changes.Deletes)),
			zap.String("actor_id", opts.ActorID))
	}
	return toApplicationDates(opts.ApplicationID, candidate), nil
}

// startPhasesByDates starts the first owning phase of every upserted date
// that is still Not Started. Leaving Pre-Submission moves the application to
// Under Review.
func (e Engine) startPhasesByDates(changes *changeSet, app domain.Application, phases map[domain.PhaseName]domain.PhaseStatus, now time.Time) {
	requested := changes.Upserts
	for _, u := range requested {
		owner, ok := rules.FirstOwningPhase(u.DateType)
		if !ok {
			continue
		}
		if !e.startPhase(changes, owner, phases[owner], now) {
			continue
		}
		phases[owner] = domain.PhaseStarted
		if owner != domain.PhaseConcept && app.Status == domain.StatusPreSubmission {
			changes.AppStatus = domain.StatusUnderReview
		}
	}
}

// GetApplicationDates returns every stored date of an application in date
// type order.
func (e Engine) GetApplicationDates(ctx context.Context, applicationID string) ([]domain.ApplicationDate, error) {
	if _, err := e.Repo.GetApplication(ctx, e.DB, applicationID); err != nil {
		return nil, err
	}
	set, err := e.Repo.ListDates(ctx, e.DB, applicationID)
	if err != nil {
		return nil, err
	}
	return toApplicationDates(applicationID, set), nil
}

// changedDates drops upserts equal to the stored value and deletes of dates
// that are not stored.
func changedDates(existing dates.Set, upserts []dates.Value, deletes []domain.DateType) ([]dates.Value, []domain.DateType) {
	var (
		outUpserts []dates.Value
		outDeletes []domain.DateType
		seen       = map[domain.DateType]bool{}
	)
	for _, u := range upserts {
		if seen[u.DateType] {
			continue
		}
		seen[u.DateType] = true
		v := u.Value.UTC().Truncate(time.Millisecond)
		if prev, ok := existing[u.DateType]; ok && prev.Equal(v) {
			continue
		}
		outUpserts = append(outUpserts, dates.Value{DateType: u.DateType, Value: v})
	}
	for _, dt := range deletes {
		if seen[dt] {
			continue
		}
		seen[dt] = true
		if _, ok := existing[dt]; ok {
			outDeletes = append(outDeletes, dt)
		}
	}
	return outUpserts, outDeletes
}

// lockedByFinishedPhases fails when a changed date belongs to a Completed or
// Skipped phase.
func lockedByFinishedPhases(phases map[domain.PhaseName]domain.PhaseStatus, c changeSet) error {
	var locked []errs.LockedDate
	check := func(dt domain.DateType) {
		for _, p := range rules.OwningPhases(dt) {
			if phases[p].IsTerminal() {
				locked = append(locked, errs.LockedDate{DateType: dt, Phase: p})
			}
		}
	}
	for _, u := range c.Upserts {
		check(u.DateType)
	}
	for _, dt := range c.Deletes {
		check(dt)
	}
	if len(locked) > 0 {
		return errs.DateChangeNotAllowedError{Dates: locked}
	}
	return nil
}
