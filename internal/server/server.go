package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"demos/internal/dates"
	"demos/internal/domain"
	"demos/internal/engine"
	"demos/internal/errs"
	"demos/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
	Logger   *zap.Logger
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"date_validation_failed"`
	Message string         `json:"message" example:"Expiration Date must be greater than Effective Date"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope shared by every route.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the DEMOS workflow API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// Schema/request validation errors should be 400 bad_request
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(logger))
	router.Use(newAuthMiddleware(basePath, cfg.Auth, cfg.Engine.AuthenticateAPIKey, logger))
	hcfg := huma.DefaultConfig("DEMOS Workflow API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = ""
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	h := handlers{engine: cfg.Engine, logger: logger}
	registerDocs(router, basePath)
	registerHealth(group)
	h.registerApplications(group)
	h.registerDates(group)
	h.registerPhases(group)
	h.registerDocuments(group)
	h.registerEvents(group)
	registerDevAuth(group, cfg.Auth)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

type handlers struct {
	engine engine.Engine
	logger *zap.Logger
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func (h handlers) handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var (
		desErr     *domain.DeserializationError
		conflict   errs.DateConflictError
		formatErr  errs.DateFormatError
		orderErr   errs.DateOrderError
		offsetErr  errs.DateOffsetError
		locked     errs.DateChangeNotAllowedError
		actionErr  errs.PhaseActionError
		incomplete errs.PhaseIncompleteError
		transition errs.PhaseTransitionError
		constraint errs.ConstraintViolationError
	)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.As(err, &desErr):
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), map[string]any{"kind": desErr.Kind, "value": desErr.Value})
	case errors.As(err, &conflict):
		return newAPIError(http.StatusBadRequest, "date_conflict", err.Error(), map[string]any{"date_type": conflict.DateType})
	case errors.As(err, &formatErr):
		return newAPIError(http.StatusUnprocessableEntity, "date_validation_failed", err.Error(), map[string]any{
			"date_type": formatErr.DateType,
			"expected":  formatErr.Expected,
		})
	case errors.As(err, &orderErr):
		return newAPIError(http.StatusUnprocessableEntity, "date_validation_failed", err.Error(), map[string]any{
			"date_type": orderErr.DateType,
			"other":     orderErr.Other,
		})
	case errors.As(err, &offsetErr):
		return newAPIError(http.StatusUnprocessableEntity, "date_validation_failed", err.Error(), map[string]any{
			"date_type": offsetErr.DateType,
			"other":     offsetErr.Other,
			"days":      offsetErr.Days,
		})
	case errors.As(err, &locked):
		return newAPIError(http.StatusConflict, "date_locked", err.Error(), map[string]any{"dates": locked.Dates})
	case errors.As(err, &actionErr):
		return newAPIError(http.StatusUnprocessableEntity, "phase_action_not_permitted", err.Error(), map[string]any{"phase_name": actionErr.Phase})
	case errors.As(err, &incomplete):
		return newAPIError(http.StatusUnprocessableEntity, "phase_incomplete", err.Error(), map[string]any{
			"phase_name": incomplete.Phase,
			"missing":    incomplete.Missing,
		})
	case errors.As(err, &transition):
		return newAPIError(http.StatusConflict, "invalid_transition", err.Error(), map[string]any{
			"phase_name": transition.Phase,
			"from":       transition.From,
		})
	case errors.As(err, &constraint):
		return newAPIError(http.StatusConflict, "constraint_violation", err.Error(), map[string]any{"constraint": constraint.Constraint})
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "invalid") || strings.Contains(lowered, "required"):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	default:
		h.logger.Error("request failed", zap.Error(err))
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{Ref: "#/components/schemas/ApiError"},
					},
				},
			}
		}
	}
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	oas.Components.SecuritySchemes["apiKeyAuth"] = &huma.SecurityScheme{
		Type: "apiKey",
		In:   "header",
		Name: "X-Api-Key",
	}
	security := []map[string][]string{{"bearerAuth": {}}, {"apiKeyAuth": {}}}
	oas.Security = security
	open := map[string]bool{
		path.Join(basePath, "health"):         true,
		path.Join(basePath, "auth/dev/login"): true,
	}
	for route, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if open[route] {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>DEMOS Workflow API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with Authorization: Bearer &lt;token&gt;.
    </p>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

type applicationPath struct {
	ApplicationID string `path:"application_id"`
}

type aggregateOutput struct {
	Body domain.ApplicationAggregate `json:"body"`
}

var writeErrors = []int{
	http.StatusBadRequest,
	http.StatusUnauthorized,
	http.StatusNotFound,
	http.StatusConflict,
	http.StatusUnprocessableEntity,
	http.StatusInternalServerError,
}

func (h handlers) registerApplications(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-application",
		Method:        http.MethodPost,
		Path:          "/applications",
		Summary:       "Create application",
		DefaultStatus: http.StatusCreated,
		Errors:        writeErrors,
	}, func(ctx context.Context, input *struct {
		Body CreateApplicationRequest `json:"body"`
	}) (*aggregateOutput, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		agg, err := h.engine.CreateApplication(ctx, engine.ApplicationCreateOptions{
			ID:      strings.TrimSpace(input.Body.ID),
			Type:    domain.ApplicationType(input.Body.ApplicationType),
			Name:    input.Body.Name,
			ActorID: actorID,
		})
		if err != nil {
			return nil, h.handleError(err)
		}
		return &aggregateOutput{Body: agg}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-applications",
		Method:      http.MethodGet,
		Path:        "/applications",
		Summary:     "List applications",
	}, func(ctx context.Context, input *struct {
		Limit int `query:"limit" default:"50"`
	}) (*struct {
		Body ApplicationList `json:"body"`
	}, error) {
		items, err := h.engine.ListApplications(ctx, normalizeLimit(input.Limit))
		if err != nil {
			return nil, h.handleError(err)
		}
		if items == nil {
			items = []domain.Application{}
		}
		return &struct {
			Body ApplicationList `json:"body"`
		}{Body: ApplicationList{Items: items}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-application",
		Method:      http.MethodGet,
		Path:        "/applications/{application_id}",
		Summary:     "Get application with phases, dates and documents",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *applicationPath) (*aggregateOutput, error) {
		agg, err := h.engine.GetApplication(ctx, input.ApplicationID)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &aggregateOutput{Body: agg}, nil
	})
}

func (h handlers) registerDates(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-application-dates",
		Method:      http.MethodGet,
		Path:        "/applications/{application_id}/dates",
		Summary:     "List application dates",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *applicationPath) (*struct {
		Body DateList `json:"body"`
	}, error) {
		items, err := h.engine.GetApplicationDates(ctx, input.ApplicationID)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body DateList `json:"body"`
		}{Body: DateList{Items: items}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-application-dates",
		Method:      http.MethodPut,
		Path:        "/applications/{application_id}/dates",
		Summary:     "Validate and write application dates",
		Description: "Upserts and deletes are merged with the stored dates and validated as one set. Nothing is written if any date fails.",
		Errors:      writeErrors,
	}, func(ctx context.Context, input *struct {
		ApplicationID string             `path:"application_id"`
		Body          UpdateDatesRequest `json:"body"`
	}) (*struct {
		Body DateList `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		opts := engine.DatesUpdateOptions{ApplicationID: input.ApplicationID, ActorID: actorID}
		for _, u := range input.Body.Upserts {
			opts.Upserts = append(opts.Upserts, dates.Value{DateType: domain.DateType(u.DateType), Value: u.DateValue})
		}
		for _, d := range input.Body.Deletes {
			opts.Deletes = append(opts.Deletes, domain.DateType(d))
		}
		items, err := h.engine.ValidateAndUpdateDates(ctx, opts)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body DateList `json:"body"`
		}{Body: DateList{Items: items}}, nil
	})
}

type phasePath struct {
	ApplicationID string `path:"application_id"`
	Phase         string `path:"phase" doc:"Phase name or slug, e.g. Application Intake or application-intake"`
}

func (h handlers) registerPhases(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "complete-phase",
		Method:      http.MethodPost,
		Path:        "/applications/{application_id}/phases/{phase}/complete",
		Summary:     "Complete a phase",
		Errors:      writeErrors,
	}, func(ctx context.Context, input *phasePath) (*aggregateOutput, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		phase, err := domain.LookupPhase(input.Phase)
		if err != nil {
			return nil, h.handleError(err)
		}
		agg, err := h.engine.CompletePhase(ctx, input.ApplicationID, phase, actorID)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &aggregateOutput{Body: agg}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "skip-concept-phase",
		Method:      http.MethodPost,
		Path:        "/applications/{application_id}/phases/concept/skip",
		Summary:     "Skip the Concept phase",
		Errors:      writeErrors,
	}, func(ctx context.Context, input *applicationPath) (*aggregateOutput, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		agg, err := h.engine.SkipConceptPhase(ctx, input.ApplicationID, actorID)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &aggregateOutput{Body: agg}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "phase-checklist",
		Method:      http.MethodGet,
		Path:        "/applications/{application_id}/phases/{phase}/checklist",
		Summary:     "List unmet completion preconditions",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *phasePath) (*struct {
		Body ChecklistResponse `json:"body"`
	}, error) {
		phase, err := domain.LookupPhase(input.Phase)
		if err != nil {
			return nil, h.handleError(err)
		}
		missing, err := h.engine.CompletionChecklist(ctx, input.ApplicationID, phase)
		if err != nil {
			return nil, h.handleError(err)
		}
		agg, err := h.engine.GetApplication(ctx, input.ApplicationID)
		if err != nil {
			return nil, h.handleError(err)
		}
		if missing == nil {
			missing = []errs.MissingItem{}
		}
		return &struct {
			Body ChecklistResponse `json:"body"`
		}{Body: ChecklistResponse{
			PhaseName:   phase,
			PhaseStatus: agg.Phase(phase),
			Ready:       len(missing) == 0,
			Missing:     missing,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-phase-status",
		Method:      http.MethodPut,
		Path:        "/applications/{application_id}/phases/{phase}/status",
		Summary:     "Override a phase status",
		Description: "Administrative override. No preconditions are checked and no dates are written.",
		Errors:      append([]int{http.StatusForbidden}, writeErrors...),
	}, func(ctx context.Context, input *struct {
		ApplicationID string                `path:"application_id"`
		Phase         string                `path:"phase"`
		Body          SetPhaseStatusRequest `json:"body"`
	}) (*struct {
		Body domain.ApplicationPhase `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := requireRole(ctx, RoleAdmin); err != nil {
			return nil, err
		}
		phase, err := domain.LookupPhase(input.Phase)
		if err != nil {
			return nil, h.handleError(err)
		}
		out, err := h.engine.SetApplicationPhaseStatus(ctx, input.ApplicationID, phase, domain.PhaseStatus(input.Body.Status), actorID)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body domain.ApplicationPhase `json:"body"`
		}{Body: out}, nil
	})
}

func (h handlers) registerDocuments(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "add-document",
		Method:        http.MethodPost,
		Path:          "/applications/{application_id}/documents",
		Summary:       "Attach a document to a phase",
		DefaultStatus: http.StatusCreated,
		Errors:        writeErrors,
	}, func(ctx context.Context, input *struct {
		ApplicationID string             `path:"application_id"`
		Body          AddDocumentRequest `json:"body"`
	}) (*struct {
		Body domain.Document `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		phase, err := domain.LookupPhase(input.Body.PhaseName)
		if err != nil {
			return nil, h.handleError(err)
		}
		doc, err := h.engine.AddDocument(ctx, engine.DocumentAddOptions{
			ApplicationID: input.ApplicationID,
			Phase:         phase,
			DocumentType:  domain.DocumentType(input.Body.DocumentType),
			Name:          input.Body.Name,
			ActorID:       actorID,
		})
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body domain.Document `json:"body"`
		}{Body: doc}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-documents",
		Method:      http.MethodGet,
		Path:        "/applications/{application_id}/documents",
		Summary:     "List application documents",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *applicationPath) (*struct {
		Body DocumentList `json:"body"`
	}, error) {
		docs, err := h.engine.ListDocuments(ctx, input.ApplicationID)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body DocumentList `json:"body"`
		}{Body: DocumentList{Items: docs}}, nil
	})
}

func (h handlers) registerEvents(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List recent events",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		ApplicationID string `query:"application_id"`
		Type          string `query:"type"`
		EntityKind    string `query:"entity_kind" enum:"application,phase,document,api_key"`
		Limit         int    `query:"limit" default:"50"`
		Cursor        string `query:"cursor"`
	}) (*struct {
		Body paginatedEvents `json:"body"`
	}, error) {
		limit := normalizeLimit(input.Limit)
		var cursorID int64
		if input.Cursor != "" {
			parsed, err := strconv.ParseInt(input.Cursor, 10, 64)
			if err != nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid cursor", map[string]any{"cursor": input.Cursor})
			}
			cursorID = parsed
		}
		items, err := h.engine.Repo.ListEvents(ctx, repo.EventFilter{
			ApplicationID: input.ApplicationID,
			Type:          input.Type,
			EntityKind:    input.EntityKind,
			Limit:         limit + 1,
			Before:        cursorID,
		})
		if err != nil {
			return nil, h.handleError(err)
		}
		resp := paginatedEvents{Items: []EventResponse{}}
		if len(items) > limit {
			resp.NextCursor = fmt.Sprintf("%d", items[limit-1].ID)
			items = items[:limit]
		}
		for _, evt := range items {
			resp.Items = append(resp.Items, eventResponse(evt))
		}
		return &struct {
			Body paginatedEvents `json:"body"`
		}{Body: resp}, nil
	})
}

func registerDevAuth(api huma.API, authCfg AuthConfig) {
	huma.Register(api, huma.Operation{
		OperationID: "dev-login",
		Method:      http.MethodPost,
		Path:        "/auth/dev/login",
		Summary:     "DEV ONLY: mint a JWT for local testing",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body DevLoginRequest `json:"body"`
	}) (*struct {
		Body DevLoginResponse `json:"body"`
	}, error) {
		actor := strings.TrimSpace(input.Body.ActorID)
		if actor == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "actor_id is required", nil)
		}
		token, err := SignToken(authCfg.JWTSecret, actor, input.Body.Roles, time.Hour)
		if err != nil {
			return nil, newAPIError(http.StatusInternalServerError, "internal_error", err.Error(), nil)
		}
		return &struct {
			Body DevLoginResponse `json:"body"`
		}{Body: DevLoginResponse{Token: token}}, nil
	})
}

func normalizeLimit(in int) int {
	if in <= 0 {
		return 50
	}
	if in > 500 {
		return 500
	}
	return in
}
