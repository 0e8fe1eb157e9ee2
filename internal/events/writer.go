package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"demos/internal/db"
)

// Event types appended by the engine.
const (
	ApplicationCreated       = "application.created"
	ApplicationStatusChanged = "application.status.changed"
	PhaseStarted             = "phase.started"
	PhaseCompleted           = "phase.completed"
	PhaseSkipped             = "phase.skipped"
	PhaseStatusSet           = "phase.status.set"
	DatesUpdated             = "dates.updated"
	DocumentAdded            = "document.added"
	APIKeyCreated            = "api_key.created"
	APIKeyRevoked            = "api_key.revoked"
)

type Writer struct {
	Dialect db.Dialect
	Now     func() time.Time
}

type EventPayload map[string]any

// Append writes one event inside tx so it commits with the change it records.
func (w Writer) Append(ctx context.Context, tx *sql.Tx, evtType, applicationID, entityKind, entityID, actorID string, payload EventPayload) error {
	if w.Now == nil {
		w.Now = time.Now
	}
	ts := w.Now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, db.Rebind(w.Dialect, `INSERT INTO events(ts,type,application_id,entity_kind,entity_id,actor_id,payload_json) VALUES (?,?,?,?,?,?,?)`),
		ts, evtType, nullable(applicationID), entityKind, nullable(entityID), actorID, string(data))
	if err != nil {
		return fmt.Errorf("append %s event: %w", evtType, err)
	}
	return nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
