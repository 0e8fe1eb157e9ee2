package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"demos/internal/domain"
)

// EventFilter narrows event queries. Zero values match everything.
type EventFilter struct {
	ApplicationID string
	Type          string
	EntityKind    string
	Limit         int
	// Before returns events with smaller ids; After returns larger ids in
	// ascending order.
	Before int64
	After  int64
}

// ListEvents returns events newest first, or oldest first when After is set.
func (r Repo) ListEvents(ctx context.Context, f EventFilter) ([]domain.Event, error) {
	if f.Limit <= 0 {
		f.Limit = 100
	}
	clauses := []string{"1=1"}
	var args []any
	if f.ApplicationID != "" {
		clauses = append(clauses, "application_id=?")
		args = append(args, f.ApplicationID)
	}
	if f.Type != "" {
		clauses = append(clauses, "type=?")
		args = append(args, f.Type)
	}
	if f.EntityKind != "" {
		clauses = append(clauses, "entity_kind=?")
		args = append(args, f.EntityKind)
	}
	order := "DESC"
	if f.Before > 0 {
		clauses = append(clauses, "id<?")
		args = append(args, f.Before)
	}
	if f.After > 0 {
		clauses = append(clauses, "id>?")
		args = append(args, f.After)
		order = "ASC"
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := fmt.Sprintf(`SELECT id,ts,type,application_id,entity_kind,entity_id,actor_id,payload_json FROM events %s ORDER BY id %s LIMIT ?`, where, order)
	args = append(args, f.Limit)
	rows, err := r.DB.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		var appID, entityID sql.NullString
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &appID, &e.EntityKind, &entityID, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		e.ApplicationID = appID.String
		e.EntityID = entityID.String
		res = append(res, e)
	}
	return res, rows.Err()
}

// LatestEventID returns the most recent event id, or 0 on an empty log.
func (r Repo) LatestEventID(ctx context.Context) (int64, error) {
	var id int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COALESCE(MAX(id),0) FROM events`).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
