package server

import (
	"encoding/json"
	"time"

	"demos/internal/domain"
	"demos/internal/errs"
)

// Request payloads

type CreateApplicationRequest struct {
	ID              string `json:"id,omitempty"`
	ApplicationType string `json:"application_type,omitempty" enum:"Demonstration,Amendment,Extension"`
	Name            string `json:"name" minLength:"1"`
}

type DateValueRequest struct {
	DateType  string    `json:"date_type"`
	DateValue time.Time `json:"date_value"`
}

type UpdateDatesRequest struct {
	Upserts []DateValueRequest `json:"upserts,omitempty"`
	Deletes []string           `json:"deletes,omitempty"`
}

type SetPhaseStatusRequest struct {
	Status string `json:"phase_status" enum:"Not Started,Started,Completed,Skipped"`
}

type AddDocumentRequest struct {
	PhaseName    string `json:"phase_name"`
	DocumentType string `json:"document_type"`
	Name         string `json:"name,omitempty"`
}

type DevLoginRequest struct {
	ActorID string   `json:"actor_id"`
	Roles   []string `json:"roles,omitempty"`
}

// Response payloads

type ApplicationList struct {
	Items []domain.Application `json:"items"`
}

type DateList struct {
	Items []domain.ApplicationDate `json:"items"`
}

type DocumentList struct {
	Items []domain.Document `json:"items"`
}

type ChecklistResponse struct {
	PhaseName   domain.PhaseName   `json:"phase_name"`
	PhaseStatus domain.PhaseStatus `json:"phase_status"`
	Ready       bool               `json:"ready"`
	Missing     []errs.MissingItem `json:"missing"`
}

type EventResponse struct {
	ID            int64          `json:"id"`
	TS            string         `json:"ts"`
	Type          string         `json:"type"`
	ApplicationID string         `json:"application_id,omitempty"`
	EntityKind    string         `json:"entity_kind"`
	EntityID      string         `json:"entity_id,omitempty"`
	ActorID       string         `json:"actor_id"`
	Payload       map[string]any `json:"payload"`
}

type paginatedEvents struct {
	Items      []EventResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type DevLoginResponse struct {
	Token string `json:"token"`
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:            e.ID,
		TS:            e.TS,
		Type:          e.Type,
		ApplicationID: e.ApplicationID,
		EntityKind:    e.EntityKind,
		EntityID:      e.EntityID,
		ActorID:       e.ActorID,
		Payload:       decodeJSONMap(e.Payload),
	}
}

func decodeJSONMap(raw string) map[string]any {
	out := map[string]any{}
	if raw == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return map[string]any{"raw": raw}
	}
	return out
}
