package repo

import (
	"context"
	"fmt"
	"time"

	"demos/internal/dates"
	"demos/internal/domain"
)

// ListDates returns every stored date of an application. Unknown date type
// strings fail with a DeserializationError.
func (r Repo) ListDates(ctx context.Context, q Querier, applicationID string) (dates.Set, error) {
	rows, err := q.QueryContext(ctx, r.q(`SELECT date_type,date_value FROM application_dates WHERE application_id=?`), applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := dates.Set{}
	for rows.Next() {
		var typ, value string
		if err := rows.Scan(&typ, &value); err != nil {
			return nil, err
		}
		dt, err := domain.ParseDateType(typ)
		if err != nil {
			return nil, err
		}
		t, err := ParseTime(value)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", dt, err)
		}
		out[dt] = t
	}
	return out, rows.Err()
}

// UpsertDate inserts or overwrites one date keyed by (application, date type).
func (r Repo) UpsertDate(ctx context.Context, q Querier, applicationID string, dt domain.DateType, value time.Time, now string) error {
	_, err := q.ExecContext(ctx, r.q(`INSERT INTO application_dates(application_id,date_type,date_value,created_at,updated_at) VALUES (?,?,?,?,?)
ON CONFLICT(application_id,date_type) DO UPDATE SET date_value=excluded.date_value, updated_at=excluded.updated_at`),
		applicationID, string(dt), FormatTime(value), now, now)
	return mapErr(err)
}

// DeleteDate removes one date. Deleting an absent date is not an error.
func (r Repo) DeleteDate(ctx context.Context, q Querier, applicationID string, dt domain.DateType) error {
	_, err := q.ExecContext(ctx, r.q(`DELETE FROM application_dates WHERE application_id=? AND date_type=?`), applicationID, string(dt))
	return mapErr(err)
}
