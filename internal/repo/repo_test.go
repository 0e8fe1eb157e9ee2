package repo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demos/internal/db"
	"demos/internal/domain"
	"demos/internal/errs"
	"demos/internal/migrate"
	"demos/internal/repo"
)

func newRepo(t *testing.T) repo.Repo {
	t.Helper()
	conn, dialect, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(context.Background(), conn, dialect))
	return repo.New(conn, dialect)
}

func sampleApplication(id string) domain.Application {
	ts := "2025-03-10T15:00:00Z"
	return domain.Application{
		ID:        id,
		Type:      domain.ApplicationDemonstration,
		Name:      "Healthy Futures",
		Status:    domain.StatusPreSubmission,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

func TestDuplicateApplicationIsConstraintViolation(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	require.NoError(t, r.InsertApplication(ctx, r.DB, sampleApplication("app-1")))

	err := r.InsertApplication(ctx, r.DB, sampleApplication("app-1"))
	var cv errs.ConstraintViolationError
	require.True(t, errors.As(err, &cv), "got %v", err)
	assert.Contains(t, err.Error(), "applications.id")
}

func TestDocumentForMissingApplicationIsConstraintViolation(t *testing.T) {
	r := newRepo(t)
	err := r.InsertDocument(context.Background(), r.DB, domain.Document{
		ID:            "doc-1",
		ApplicationID: "missing",
		PhaseName:     domain.PhaseConcept,
		DocumentType:  domain.DocPreSubmission,
		Name:          "pre.pdf",
		CreatedAt:     "2025-03-10T15:00:00Z",
	})
	var cv errs.ConstraintViolationError
	require.True(t, errors.As(err, &cv), "got %v", err)
}

func TestGetApplicationNotFound(t *testing.T) {
	r := newRepo(t)
	_, err := r.GetApplication(context.Background(), r.DB, "nope")
	assert.ErrorIs(t, err, repo.ErrNotFound)
	var nf errs.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "application", nf.Entity)
}

func TestDatesRoundTripInUTCMilliseconds(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	require.NoError(t, r.InsertApplication(ctx, r.DB, sampleApplication("app-1")))

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	eod := time.Date(2025, 3, 31, 23, 59, 59, 999_999_999, ny)
	require.NoError(t, r.UpsertDate(ctx, r.DB, "app-1", domain.DateExpiration, eod, "2025-03-10T15:00:00Z"))

	set, err := r.ListDates(ctx, r.DB, "app-1")
	require.NoError(t, err)
	got, ok := set[domain.DateExpiration]
	require.True(t, ok)
	assert.True(t, got.Equal(time.Date(2025, 4, 1, 3, 59, 59, 999_000_000, time.UTC)), got)

	require.NoError(t, r.DeleteDate(ctx, r.DB, "app-1", domain.DateExpiration))
	set, err = r.ListDates(ctx, r.DB, "app-1")
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestListEventsCursors(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := r.DB.ExecContext(ctx, `INSERT INTO events(ts,type,application_id,entity_kind,entity_id,actor_id,payload_json) VALUES (?,?,?,?,?,?,?)`,
			"2025-03-10T15:00:00Z", "phase.started", "app-1", "phase", "Concept", "tester", "{}")
		require.NoError(t, err)
	}
	latest, err := r.LatestEventID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), latest)

	newest, err := r.ListEvents(ctx, repo.EventFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, newest, 2)
	assert.Equal(t, int64(5), newest[0].ID)

	older, err := r.ListEvents(ctx, repo.EventFilter{Before: 4, Limit: 10})
	require.NoError(t, err)
	require.Len(t, older, 3)
	assert.Equal(t, int64(3), older[0].ID)

	after, err := r.ListEvents(ctx, repo.EventFilter{After: 3, Limit: 10})
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, int64(4), after[0].ID)
}

func TestAPIKeyLookupByHash(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	hash := repo.HashAPIKey(" dmk_secret ")
	assert.Equal(t, repo.HashAPIKey("dmk_secret"), hash)

	require.NoError(t, r.InsertAPIKey(ctx, r.DB, domain.APIKey{
		ID:        "key-1",
		ActorID:   "svc",
		KeyHash:   hash,
		Roles:     []string{"admin", "reader"},
		CreatedAt: "2025-03-10T15:00:00Z",
	}))
	key, err := r.GetAPIKeyByHash(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "reader"}, key.Roles)
	assert.Equal(t, "", key.Name)

	err = r.InsertAPIKey(ctx, r.DB, domain.APIKey{ID: "key-2", ActorID: "svc", KeyHash: hash, CreatedAt: "2025-03-10T15:00:00Z"})
	var cv errs.ConstraintViolationError
	assert.True(t, errors.As(err, &cv), "got %v", err)
}
