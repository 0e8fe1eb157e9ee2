package repo

import (
	"context"
	"database/sql"
	"errors"

	"demos/internal/domain"
	"demos/internal/errs"
)

// GetPhaseStatus reads a phase row that must exist.
func (r Repo) GetPhaseStatus(ctx context.Context, q Querier, applicationID string, phase domain.PhaseName) (domain.PhaseStatus, error) {
	var status string
	err := q.QueryRowContext(ctx, r.q(`SELECT phase_status FROM application_phases WHERE application_id=? AND phase_name=?`),
		applicationID, string(phase)).Scan(&status)
	if err == sql.ErrNoRows {
		return "", errs.NotFoundError{Entity: "application phase", Key: applicationID + "/" + string(phase)}
	}
	if err != nil {
		return "", err
	}
	return domain.ParsePhaseStatus(status)
}

// FindPhaseStatus reads a phase row, defaulting to Not Started when absent.
func (r Repo) FindPhaseStatus(ctx context.Context, q Querier, applicationID string, phase domain.PhaseName) (domain.PhaseStatus, error) {
	st, err := r.GetPhaseStatus(ctx, q, applicationID, phase)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return domain.PhaseNotStarted, nil
		}
		return "", err
	}
	return st, nil
}

// ListPhaseStatuses returns the stored phase rows only; missing phases are
// omitted.
func (r Repo) ListPhaseStatuses(ctx context.Context, q Querier, applicationID string) (map[domain.PhaseName]domain.PhaseStatus, error) {
	rows, err := q.QueryContext(ctx, r.q(`SELECT phase_name,phase_status FROM application_phases WHERE application_id=?`), applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[domain.PhaseName]domain.PhaseStatus{}
	for rows.Next() {
		var name, status string
		if err := rows.Scan(&name, &status); err != nil {
			return nil, err
		}
		p, err := domain.ParsePhaseName(name)
		if err != nil {
			return nil, err
		}
		st, err := domain.ParsePhaseStatus(status)
		if err != nil {
			return nil, err
		}
		out[p] = st
	}
	return out, rows.Err()
}

// UpsertPhaseStatus writes a phase row, creating it when absent.
func (r Repo) UpsertPhaseStatus(ctx context.Context, q Querier, applicationID string, phase domain.PhaseName, status domain.PhaseStatus, now string) error {
	_, err := q.ExecContext(ctx, r.q(`INSERT INTO application_phases(application_id,phase_name,phase_status,updated_at) VALUES (?,?,?,?)
ON CONFLICT(application_id,phase_name) DO UPDATE SET phase_status=excluded.phase_status, updated_at=excluded.updated_at`),
		applicationID, string(phase), string(status), now)
	return mapErr(err)
}
