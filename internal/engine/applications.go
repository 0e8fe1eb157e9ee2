package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"demos/internal/dates"
	"demos/internal/domain"
	"demos/internal/events"
	"demos/internal/rules"
)

type ApplicationCreateOptions struct {
	ID      string
	Type    domain.ApplicationType
	Name    string
	ActorID string
}

// CreateApplication inserts an application in Pre-Submission with Concept
// Started and every other phase Not Started.
func (e Engine) CreateApplication(ctx context.Context, opts ApplicationCreateOptions) (domain.ApplicationAggregate, error) {
	if strings.TrimSpace(opts.Name) == "" {
		return domain.ApplicationAggregate{}, fmt.Errorf("application name is required")
	}
	if opts.Type == "" {
		opts.Type = domain.ApplicationDemonstration
	}
	if _, err := domain.ParseApplicationType(string(opts.Type)); err != nil {
		return domain.ApplicationAggregate{}, err
	}
	now := e.now()
	ts := nowString(now)
	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ApplicationAggregate{}, err
	}
	defer tx.Rollback()

	app := domain.Application{
		ID:        id,
		Type:      opts.Type,
		Name:      opts.Name,
		Status:    domain.StatusPreSubmission,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := e.Repo.InsertApplication(ctx, tx, app); err != nil {
		return domain.ApplicationAggregate{}, err
	}
	if err := e.events().Append(ctx, tx, events.ApplicationCreated, id, "application", id, opts.ActorID, events.EventPayload{
		"name":             app.Name,
		"application_type": string(app.Type),
	}); err != nil {
		return domain.ApplicationAggregate{}, err
	}
	for _, p := range domain.Phases {
		if err := e.Repo.UpsertPhaseStatus(ctx, tx, id, p, domain.PhaseNotStarted, ts); err != nil {
			return domain.ApplicationAggregate{}, err
		}
	}
	changes := changeSet{ApplicationID: id}
	e.startPhase(&changes, domain.PhaseConcept, domain.PhaseNotStarted, now)
	if err := e.apply(ctx, tx, changes, opts.ActorID, now); err != nil {
		return domain.ApplicationAggregate{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ApplicationAggregate{}, err
	}
	e.log().Info("application created",
		zap.String("application_id", id),
		zap.String("application_type", string(app.Type)),
		zap.String("actor_id", opts.ActorID))
	return e.GetApplication(ctx, id)
}

// GetApplication returns the application with every phase, date and document.
func (e Engine) GetApplication(ctx context.Context, id string) (domain.ApplicationAggregate, error) {
	app, err := e.Repo.GetApplication(ctx, e.DB, id)
	if err != nil {
		return domain.ApplicationAggregate{}, err
	}
	phases, err := e.loadPhases(ctx, e.DB, id)
	if err != nil {
		return domain.ApplicationAggregate{}, err
	}
	set, err := e.Repo.ListDates(ctx, e.DB, id)
	if err != nil {
		return domain.ApplicationAggregate{}, err
	}
	docs, err := e.Repo.ListDocuments(ctx, e.DB, id)
	if err != nil {
		return domain.ApplicationAggregate{}, err
	}
	agg := domain.ApplicationAggregate{
		Application: app,
		Dates:       toApplicationDates(id, set),
		Documents:   docs,
	}
	for _, p := range domain.Phases {
		agg.Phases = append(agg.Phases, domain.ApplicationPhase{
			ApplicationID: id,
			PhaseName:     p,
			PhaseNumber:   p.Number(),
			Status:        phases[p],
		})
	}
	if agg.Documents == nil {
		agg.Documents = []domain.Document{}
	}
	return agg, nil
}

func (e Engine) ListApplications(ctx context.Context, limit int) ([]domain.Application, error) {
	return e.Repo.ListApplications(ctx, e.DB, limit)
}

type DocumentAddOptions struct {
	ApplicationID string
	Phase         domain.PhaseName
	DocumentType  domain.DocumentType
	Name          string
	ActorID       string
}

// AddDocument attaches a document to a phase. Uploading into a Not Started
// phase starts it and stamps its start date. A State Application uploaded to
// Application Intake also stamps the submission dates.
func (e Engine) AddDocument(ctx context.Context, opts DocumentAddOptions) (domain.Document, error) {
	if !opts.Phase.IsValid() {
		return domain.Document{}, &domain.DeserializationError{Kind: "phase name", Value: string(opts.Phase)}
	}
	if !opts.DocumentType.IsValid() {
		return domain.Document{}, &domain.DeserializationError{Kind: "document type", Value: string(opts.DocumentType)}
	}
	if opts.Name == "" {
		opts.Name = string(opts.DocumentType)
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Document{}, err
	}
	defer tx.Rollback()

	app, err := e.Repo.GetApplication(ctx, tx, opts.ApplicationID)
	if err != nil {
		return domain.Document{}, err
	}
	phases, err := e.loadPhases(ctx, tx, opts.ApplicationID)
	if err != nil {
		return domain.Document{}, err
	}
	existing, err := e.Repo.ListDates(ctx, tx, opts.ApplicationID)
	if err != nil {
		return domain.Document{}, err
	}

	now := e.now()
	doc := domain.Document{
		ID:            uuid.New().String(),
		ApplicationID: opts.ApplicationID,
		PhaseName:     opts.Phase,
		DocumentType:  opts.DocumentType,
		Name:          opts.Name,
		CreatedAt:     nowString(now),
	}
	if err := e.Repo.InsertDocument(ctx, tx, doc); err != nil {
		return domain.Document{}, err
	}
	if err := e.events().Append(ctx, tx, events.DocumentAdded, opts.ApplicationID, "document", doc.ID, opts.ActorID, events.EventPayload{
		"phase":         string(doc.PhaseName),
		"document_type": string(doc.DocumentType),
		"name":          doc.Name,
	}); err != nil {
		return domain.Document{}, err
	}

	changes := changeSet{ApplicationID: opts.ApplicationID}
	if opts.DocumentType == domain.DocStateApplication && opts.Phase == domain.PhaseApplicationIntake {
		changes.Upserts, _ = changedDates(existing, e.submissionDates(now), nil)
		if err := lockedByFinishedPhases(phases, changes); err != nil {
			return domain.Document{}, err
		}
	}
	if e.startPhase(&changes, opts.Phase, phases[opts.Phase], now) {
		phases[opts.Phase] = domain.PhaseStarted
		// A start date entered by hand wins over the upload stamp.
		if dt, ok := rules.StartDate(opts.Phase); ok {
			if _, set := existing[dt]; set {
				changes.drop(dt)
			}
		}
		if opts.Phase != domain.PhaseConcept && app.Status == domain.StatusPreSubmission {
			changes.AppStatus = domain.StatusUnderReview
		}
	}
	e.startPhasesByDates(&changes, app, phases, now)
	if len(changes.Upserts) > 0 {
		candidate := existing.Clone()
		for _, u := range changes.Upserts {
			candidate[u.DateType] = u.Value
		}
		if err := e.validator().Validate(candidate); err != nil {
			return domain.Document{}, err
		}
	}
	if err := e.apply(ctx, tx, changes, opts.ActorID, now); err != nil {
		return domain.Document{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Document{}, err
	}
	e.log().Info("document added",
		zap.String("application_id", opts.ApplicationID),
		zap.String("phase", string(opts.Phase)),
		zap.String("document_type", string(opts.DocumentType)),
		zap.String("actor_id", opts.ActorID))
	return doc, nil
}

// submissionDates are stamped when a State Application arrives in Application
// Intake: submitted today, the completeness review due per its offset rule and
// Completeness started.
func (e Engine) submissionDates(now time.Time) []dates.Value {
	submitted := e.stamp(now, domain.DateStateApplicationSubmitted)
	due := e.Clock.Normalize(submitted, domain.EndOfDay)
	for _, o := range e.validator().Rules[domain.DateCompletenessReviewDue].Offsets {
		if o.Other == domain.DateStateApplicationSubmitted {
			due = e.Clock.Normalize(e.Clock.AddDays(submitted, o.Days), o.Timestamp)
		}
	}
	return []dates.Value{
		{DateType: domain.DateStateApplicationSubmitted, Value: submitted},
		{DateType: domain.DateCompletenessReviewDue, Value: due},
		{DateType: domain.DateCompletenessStart, Value: e.stamp(now, domain.DateCompletenessStart)},
	}
}

func (e Engine) ListDocuments(ctx context.Context, applicationID string) ([]domain.Document, error) {
	if _, err := e.Repo.GetApplication(ctx, e.DB, applicationID); err != nil {
		return nil, err
	}
	docs, err := e.Repo.ListDocuments(ctx, e.DB, applicationID)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return docs, nil
}
