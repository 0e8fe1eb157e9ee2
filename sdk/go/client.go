package demossdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal DEMOS workflow HTTP API client.
type Client struct {
	BaseURL     string
	BasePath    string
	ActorID     string
	BearerToken string
	APIKey      string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "/v0",
		Timeout:  10 * time.Second,
	}
}

type Application struct {
	ID              string `json:"id"`
	ApplicationType string `json:"application_type"`
	Name            string `json:"name"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

type Phase struct {
	ApplicationID string `json:"application_id"`
	PhaseName     string `json:"phase_name"`
	PhaseNumber   int    `json:"phase_number"`
	PhaseStatus   string `json:"phase_status"`
}

type Date struct {
	ApplicationID string    `json:"application_id,omitempty"`
	DateType      string    `json:"date_type"`
	DateValue     time.Time `json:"date_value"`
}

type Document struct {
	ID            string `json:"id"`
	ApplicationID string `json:"application_id"`
	PhaseName     string `json:"phase_name"`
	DocumentType  string `json:"document_type"`
	Name          string `json:"name"`
	CreatedAt     string `json:"created_at"`
}

// ApplicationDetail is an application with every phase, date and document.
type ApplicationDetail struct {
	Application Application `json:"application"`
	Phases      []Phase     `json:"phases"`
	Dates       []Date      `json:"dates"`
	Documents   []Document  `json:"documents"`
}

// PhaseStatus returns the status of the named phase, or "" if absent.
func (a ApplicationDetail) PhaseStatus(name string) string {
	for _, p := range a.Phases {
		if p.PhaseName == name {
			return p.PhaseStatus
		}
	}
	return ""
}

type MissingItem struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

type Checklist struct {
	PhaseName   string        `json:"phase_name"`
	PhaseStatus string        `json:"phase_status"`
	Ready       bool          `json:"ready"`
	Missing     []MissingItem `json:"missing"`
}

// Event represents a log entry.
type Event struct {
	ID            int64          `json:"id"`
	TS            string         `json:"ts"`
	Type          string         `json:"type"`
	ApplicationID string         `json:"application_id"`
	EntityKind    string         `json:"entity_kind"`
	EntityID      string         `json:"entity_id"`
	ActorID       string         `json:"actor_id"`
	Payload       map[string]any `json:"payload"`
}

// PaginatedEvents wraps list responses with cursors.
type PaginatedEvents struct {
	Items      []Event `json:"items"`
	NextCursor string  `json:"next_cursor"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateApplication creates an application in Pre-Submission.
func (c *Client) CreateApplication(ctx context.Context, applicationType, name string) (ApplicationDetail, error) {
	body := map[string]any{
		"application_type": applicationType,
		"name":             name,
	}
	var resp ApplicationDetail
	err := c.do(ctx, http.MethodPost, "applications", body, &resp)
	return resp, err
}

func (c *Client) GetApplication(ctx context.Context, id string) (ApplicationDetail, error) {
	var resp ApplicationDetail
	err := c.do(ctx, http.MethodGet, "applications/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

func (c *Client) ListApplications(ctx context.Context, limit int) ([]Application, error) {
	endpoint := "applications"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp struct {
		Items []Application `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Items, err
}

func (c *Client) Dates(ctx context.Context, applicationID string) ([]Date, error) {
	var resp struct {
		Items []Date `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "applications/"+url.PathEscape(applicationID)+"/dates", nil, &resp)
	return resp.Items, err
}

// UpdateDates validates and writes a batch of date edits, returning the full
// date set afterwards.
func (c *Client) UpdateDates(ctx context.Context, applicationID string, upserts []Date, deletes []string) ([]Date, error) {
	type upsert struct {
		DateType  string    `json:"date_type"`
		DateValue time.Time `json:"date_value"`
	}
	body := struct {
		Upserts []upsert `json:"upserts,omitempty"`
		Deletes []string `json:"deletes,omitempty"`
	}{Deletes: deletes}
	for _, u := range upserts {
		body.Upserts = append(body.Upserts, upsert{DateType: u.DateType, DateValue: u.DateValue})
	}
	var resp struct {
		Items []Date `json:"items"`
	}
	err := c.do(ctx, http.MethodPut, "applications/"+url.PathEscape(applicationID)+"/dates", body, &resp)
	return resp.Items, err
}

func (c *Client) CompletePhase(ctx context.Context, applicationID, phase string) (ApplicationDetail, error) {
	var resp ApplicationDetail
	err := c.do(ctx, http.MethodPost, phasePath(applicationID, phase, "complete"), nil, &resp)
	return resp, err
}

func (c *Client) SkipConceptPhase(ctx context.Context, applicationID string) (ApplicationDetail, error) {
	var resp ApplicationDetail
	err := c.do(ctx, http.MethodPost, phasePath(applicationID, "concept", "skip"), nil, &resp)
	return resp, err
}

func (c *Client) PhaseChecklist(ctx context.Context, applicationID, phase string) (Checklist, error) {
	var resp Checklist
	err := c.do(ctx, http.MethodGet, phasePath(applicationID, phase, "checklist"), nil, &resp)
	return resp, err
}

// SetPhaseStatus overrides a phase status. The caller needs the admin role.
func (c *Client) SetPhaseStatus(ctx context.Context, applicationID, phase, status string) (Phase, error) {
	var resp Phase
	err := c.do(ctx, http.MethodPut, phasePath(applicationID, phase, "status"), map[string]any{"phase_status": status}, &resp)
	return resp, err
}

func (c *Client) AddDocument(ctx context.Context, applicationID, phase, documentType, name string) (Document, error) {
	body := map[string]any{
		"phase_name":    phase,
		"document_type": documentType,
		"name":          name,
	}
	var resp Document
	err := c.do(ctx, http.MethodPost, "applications/"+url.PathEscape(applicationID)+"/documents", body, &resp)
	return resp, err
}

func (c *Client) Documents(ctx context.Context, applicationID string) ([]Document, error) {
	var resp struct {
		Items []Document `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "applications/"+url.PathEscape(applicationID)+"/documents", nil, &resp)
	return resp.Items, err
}

// EventsPage returns a page of events, newest first.
func (c *Client) EventsPage(ctx context.Context, applicationID string, limit int, cursor string) (PaginatedEvents, error) {
	q := url.Values{}
	if applicationID != "" {
		q.Set("application_id", applicationID)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	endpoint := "events"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp PaginatedEvents
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// DevLogin mints a token from a server running with a JWT secret and stores
// it on the client.
func (c *Client) DevLogin(ctx context.Context, actorID string, roles ...string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "auth/dev/login", map[string]any{"actor_id": actorID, "roles": roles}, &resp); err != nil {
		return "", err
	}
	c.BearerToken = resp.Token
	return resp.Token, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	target := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	case c.ActorID != "":
		req.Header.Set("X-Actor-Id", c.ActorID)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var env struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &env) == nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func phasePath(applicationID, phase, action string) string {
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(phase), " ", "-"))
	return fmt.Sprintf("applications/%s/phases/%s/%s", url.PathEscape(applicationID), url.PathEscape(slug), action)
}

func (c *Client) base() string {
	base := strings.TrimRight(c.BaseURL, "/")
	if c.BasePath != "" {
		base += "/" + strings.Trim(c.BasePath, "/")
	}
	return base
}
