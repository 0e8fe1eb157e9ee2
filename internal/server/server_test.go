package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"demos/internal/bizdate"
	"demos/internal/config"
	"demos/internal/db"
	"demos/internal/engine"
	"demos/internal/migrate"
	demossdk "demos/sdk/go"
)

const testSecret = "test-secret"

type testServer struct {
	URL    string
	Engine engine.Engine
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func (s *testServer) SDK(actorID string) *demossdk.Client {
	c := demossdk.New(s.URL)
	c.ActorID = actorID
	return c
}

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	conn, dialect, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(context.Background(), conn, dialect); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, dialect, bizdate.Eastern(), zap.NewNop())
	handler, err := New(Config{
		Engine:   e,
		BasePath: "/v0",
		Auth:     AuthConfig{JWTSecret: testSecret, AllowActorHeader: true},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		Engine: e,
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func requireAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var apiErr *demossdk.APIError
	require.True(t, errors.As(err, &apiErr), "expected api error, got %v", err)
	assert.Equal(t, status, apiErr.StatusCode, apiErr.Body)
	assert.Equal(t, code, apiErr.Code, apiErr.Body)
}

func daysAgo(n int) time.Time {
	clock := bizdate.Eastern()
	return clock.StartOfDay(clock.AddDays(time.Now(), -n))
}

func TestHealthIsOpen(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, body := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/health", nil, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))

	res, body = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/applications", nil, nil)
	require.Equal(t, http.StatusUnauthorized, res.StatusCode, string(body))
}

func TestCompleteConceptOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	ctx := context.Background()
	c := srv.SDK("analyst")

	app, err := c.CreateApplication(ctx, "Demonstration", "Healthy Futures")
	require.NoError(t, err)
	id := app.Application.ID
	assert.Equal(t, "Pre-Submission", app.Application.Status)
	assert.Equal(t, "Started", app.PhaseStatus("Concept"))

	_, err = c.CompletePhase(ctx, id, "Concept")
	requireAPIError(t, err, http.StatusUnprocessableEntity, "phase_incomplete")

	list, err := c.PhaseChecklist(ctx, id, "Concept")
	require.NoError(t, err)
	assert.False(t, list.Ready)
	assert.Len(t, list.Missing, 2)

	_, err = c.AddDocument(ctx, id, "Concept", "Pre-Submission", "pre-submission.pdf")
	require.NoError(t, err)
	_, err = c.UpdateDates(ctx, id, []demossdk.Date{{DateType: "Pre-Submission Submitted Date", DateValue: daysAgo(10)}}, nil)
	require.NoError(t, err)

	app, err = c.CompletePhase(ctx, id, "concept")
	require.NoError(t, err)
	assert.Equal(t, "Completed", app.PhaseStatus("Concept"))
	assert.Equal(t, "Started", app.PhaseStatus("Application Intake"))
	assert.Equal(t, "Under Review", app.Application.Status)

	page, err := c.EventsPage(ctx, id, 50, "")
	require.NoError(t, err)
	types := map[string]bool{}
	for _, evt := range page.Items {
		types[evt.Type] = true
		assert.Equal(t, "analyst", evt.ActorID)
	}
	assert.True(t, types["phase.completed"])
	assert.True(t, types["phase.started"])
	assert.True(t, types["application.status.changed"])
}

func TestErrorMapping(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	ctx := context.Background()
	c := srv.SDK("analyst")

	app, err := c.CreateApplication(ctx, "Amendment", "Bridge Plan")
	require.NoError(t, err)
	id := app.Application.ID

	_, err = c.CompletePhase(ctx, id, "Federal Comment")
	requireAPIError(t, err, http.StatusUnprocessableEntity, "phase_action_not_permitted")

	_, err = c.CompletePhase(ctx, id, "Public Hearing")
	requireAPIError(t, err, http.StatusBadRequest, "bad_request")

	_, err = c.UpdateDates(ctx, id, []demossdk.Date{{DateType: "Effective Date", DateValue: daysAgo(1).Add(9 * time.Hour)}}, nil)
	requireAPIError(t, err, http.StatusUnprocessableEntity, "date_validation_failed")

	_, err = c.UpdateDates(ctx, id, []demossdk.Date{{DateType: "Effective Date", DateValue: daysAgo(1)}}, []string{"Effective Date"})
	requireAPIError(t, err, http.StatusBadRequest, "date_conflict")

	_, err = c.GetApplication(ctx, "missing")
	requireAPIError(t, err, http.StatusNotFound, "not_found")

	_, err = c.SkipConceptPhase(ctx, id)
	require.NoError(t, err)
	_, err = c.SkipConceptPhase(ctx, id)
	requireAPIError(t, err, http.StatusConflict, "invalid_transition")

	_, err = c.UpdateDates(ctx, id, nil, []string{"Concept Start Date"})
	requireAPIError(t, err, http.StatusConflict, "date_locked")

	dates, err := c.Dates(ctx, id)
	require.NoError(t, err)
	assert.Len(t, dates, 3, "concept start, concept skipped and intake start")
}

func TestSetPhaseStatusRequiresAdmin(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	ctx := context.Background()
	c := srv.SDK("analyst")

	app, err := c.CreateApplication(ctx, "Demonstration", "Coverage Expansion")
	require.NoError(t, err)
	id := app.Application.ID

	_, err = c.SetPhaseStatus(ctx, id, "Federal Comment", "Completed")
	requireAPIError(t, err, http.StatusForbidden, "forbidden")

	admin := demossdk.New(srv.URL)
	_, err = admin.DevLogin(ctx, "admin-user", RoleAdmin)
	require.NoError(t, err)
	phase, err := admin.SetPhaseStatus(ctx, id, "federal-comment", "Completed")
	require.NoError(t, err)
	assert.Equal(t, "Completed", phase.PhaseStatus)
	assert.Equal(t, 4, phase.PhaseNumber)

	bad := demossdk.New(srv.URL)
	bad.BearerToken = "not-a-token"
	_, err = bad.GetApplication(ctx, id)
	requireAPIError(t, err, http.StatusUnauthorized, "invalid_credentials")
}

func TestAPIKeyAuthentication(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	ctx := context.Background()

	app, err := srv.SDK("analyst").CreateApplication(ctx, "Demonstration", "Keyed")
	require.NoError(t, err)

	_, secret, err := srv.Engine.CreateAPIKey(ctx, engine.APIKeyCreateOptions{
		ActorID:   "intake-service",
		Roles:     []string{RoleAdmin},
		CreatedBy: "ops",
	})
	require.NoError(t, err)

	svc := demossdk.New(srv.URL)
	svc.APIKey = secret
	phase, err := svc.SetPhaseStatus(ctx, app.Application.ID, "sdg-preparation", "Started")
	require.NoError(t, err)
	assert.Equal(t, "Started", phase.PhaseStatus)

	page, err := svc.EventsPage(ctx, app.Application.ID, 1, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "phase.status.set", page.Items[0].Type)
	assert.Equal(t, "intake-service", page.Items[0].ActorID)
	assert.NotEmpty(t, page.NextCursor)

	svc.APIKey = "dmk_revoked"
	_, err = svc.GetApplication(ctx, app.Application.ID)
	requireAPIError(t, err, http.StatusUnauthorized, "invalid_credentials")
}

func TestWebhookDelivery(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	ctx := context.Background()

	var (
		mu       sync.Mutex
		received []webhookEvent
		secrets  []string
	)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var evt webhookEvent
		_ = json.NewDecoder(r.Body).Decode(&evt)
		mu.Lock()
		received = append(received, evt)
		secrets = append(secrets, r.Header.Get("X-Demos-Secret"))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer hook.Close()

	d := NewWebhookDispatcher(srv.Engine.Repo, []config.Webhook{{
		URL:    hook.URL,
		Events: []string{"phase.*"},
		Secret: "s3cret",
	}}, zap.NewNop())
	require.NotNil(t, d)
	d.DispatchAll(ctx)

	c := srv.SDK("analyst")
	app, err := c.CreateApplication(ctx, "Extension", "Renewal")
	require.NoError(t, err)
	_, err = c.SkipConceptPhase(ctx, app.Application.ID)
	require.NoError(t, err)
	d.DispatchAll(ctx)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, received)
	for i, evt := range received {
		assert.Contains(t, []string{"phase.started", "phase.skipped"}, evt.Type)
		assert.Equal(t, "s3cret", secrets[i])
	}

	assert.Nil(t, NewWebhookDispatcher(srv.Engine.Repo, nil, nil))
}
