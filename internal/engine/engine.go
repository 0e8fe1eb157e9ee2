package engine

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"demos/internal/bizdate"
	"demos/internal/dates"
	"demos/internal/db"
	"demos/internal/domain"
	"demos/internal/events"
	"demos/internal/repo"
)

// Engine runs every workflow operation inside one database transaction.
type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Clock  bizdate.Clock
	Logger *zap.Logger
	Now    func() time.Time
}

func New(conn *sql.DB, dialect db.Dialect, clock bizdate.Clock, logger *zap.Logger) Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Engine{
		DB:     conn,
		Repo:   repo.New(conn, dialect),
		Events: events.Writer{Dialect: dialect},
		Clock:  clock,
		Logger: logger,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) log() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e Engine) validator() dates.Validator {
	return dates.NewValidator(e.Clock)
}

func (e Engine) events() events.Writer {
	w := e.Events
	if w.Now == nil {
		w.Now = e.now
	}
	return w
}

// stamp returns today's boundary for dt in the business timezone.
func (e Engine) stamp(now time.Time, dt domain.DateType) time.Time {
	checks := e.validator().Rules[dt]
	return e.Clock.Normalize(now, checks.Expected)
}

func nowString(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// statusChange is one phase status write plus the event that records it.
type statusChange struct {
	Phase domain.PhaseName
	From  domain.PhaseStatus
	To    domain.PhaseStatus
	Event string
}

// changeSet collects the writes of one operation so they can be validated
// before anything touches the database.
type changeSet struct {
	ApplicationID string
	Upserts       []dates.Value
	Deletes       []domain.DateType
	Phases        []statusChange
	AppStatus     domain.ApplicationStatus
}

func (c *changeSet) upsert(dt domain.DateType, v time.Time) {
	for i := range c.Upserts {
		if c.Upserts[i].DateType == dt {
			c.Upserts[i].Value = v
			return
		}
	}
	c.Upserts = append(c.Upserts, dates.Value{DateType: dt, Value: v})
}

func (c *changeSet) has(dt domain.DateType) bool {
	for _, u := range c.Upserts {
		if u.DateType == dt {
			return true
		}
	}
	return false
}

func (c *changeSet) drop(dt domain.DateType) {
	for i := range c.Upserts {
		if c.Upserts[i].DateType == dt {
			c.Upserts = append(c.Upserts[:i], c.Upserts[i+1:]...)
			return
		}
	}
}

func (c *changeSet) phase(p domain.PhaseName, from, to domain.PhaseStatus, evt string) {
	c.Phases = append(c.Phases, statusChange{Phase: p, From: from, To: to, Event: evt})
}

// apply writes the change set and its events inside tx.
func (e Engine) apply(ctx context.Context, tx *sql.Tx, c changeSet, actorID string, now time.Time) error {
	ts := nowString(now)
	for _, u := range c.Upserts {
		if err := e.Repo.UpsertDate(ctx, tx, c.ApplicationID, u.DateType, u.Value, ts); err != nil {
			return err
		}
	}
	for _, dt := range c.Deletes {
		if err := e.Repo.DeleteDate(ctx, tx, c.ApplicationID, dt); err != nil {
			return err
		}
	}
	if len(c.Upserts) > 0 || len(c.Deletes) > 0 {
		payload := events.EventPayload{}
		if len(c.Upserts) > 0 {
			set := map[string]string{}
			for _, u := range c.Upserts {
				set[string(u.DateType)] = repo.FormatTime(u.Value)
			}
			payload["set"] = set
		}
		if len(c.Deletes) > 0 {
			cleared := make([]string, 0, len(c.Deletes))
			for _, dt := range c.Deletes {
				cleared = append(cleared, string(dt))
			}
			payload["cleared"] = cleared
		}
		if err := e.events().Append(ctx, tx, events.DatesUpdated, c.ApplicationID, "application", c.ApplicationID, actorID, payload); err != nil {
			return err
		}
	}
	for _, p := range c.Phases {
		if err := e.Repo.UpsertPhaseStatus(ctx, tx, c.ApplicationID, p.Phase, p.To, ts); err != nil {
			return err
		}
		if err := e.events().Append(ctx, tx, p.Event, c.ApplicationID, "phase", string(p.Phase), actorID, events.EventPayload{
			"phase": string(p.Phase),
			"from":  string(p.From),
			"to":    string(p.To),
		}); err != nil {
			return err
		}
	}
	if c.AppStatus != "" {
		if err := e.Repo.UpdateApplicationStatus(ctx, tx, c.ApplicationID, c.AppStatus, ts); err != nil {
			return err
		}
		if err := e.events().Append(ctx, tx, events.ApplicationStatusChanged, c.ApplicationID, "application", c.ApplicationID, actorID, events.EventPayload{
			"status": string(c.AppStatus),
		}); err != nil {
			return err
		}
	}
	return nil
}

// loadPhases returns every phase status, defaulting absent rows to Not Started.
func (e Engine) loadPhases(ctx context.Context, q repo.Querier, applicationID string) (map[domain.PhaseName]domain.PhaseStatus, error) {
	stored, err := e.Repo.ListPhaseStatuses(ctx, q, applicationID)
	if err != nil {
		return nil, err
	}
	out := make(map[domain.PhaseName]domain.PhaseStatus, len(domain.Phases))
	for _, p := range domain.Phases {
		st, ok := stored[p]
		if !ok {
			st = domain.PhaseNotStarted
		}
		out[p] = st
	}
	return out, nil
}

func toApplicationDates(applicationID string, set dates.Set) []domain.ApplicationDate {
	sorted := set.Sorted()
	out := make([]domain.ApplicationDate, 0, len(sorted))
	for _, v := range sorted {
		out = append(out, domain.ApplicationDate{ApplicationID: applicationID, DateType: v.DateType, Value: v.Value})
	}
	return out
}
