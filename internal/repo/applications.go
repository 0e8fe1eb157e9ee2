package repo

import (
	"context"
	"database/sql"

	"demos/internal/domain"
	"demos/internal/errs"
)

func (r Repo) InsertApplication(ctx context.Context, q Querier, a domain.Application) error {
	_, err := q.ExecContext(ctx, r.q(`INSERT INTO applications(id,application_type,name,status,created_at,updated_at) VALUES (?,?,?,?,?,?)`),
		a.ID, string(a.Type), a.Name, string(a.Status), a.CreatedAt, a.UpdatedAt)
	return mapErr(err)
}

func (r Repo) GetApplication(ctx context.Context, q Querier, id string) (domain.Application, error) {
	var (
		a           domain.Application
		typ, status string
	)
	err := q.QueryRowContext(ctx, r.q(`SELECT id,application_type,name,status,created_at,updated_at FROM applications WHERE id=?`), id).
		Scan(&a.ID, &typ, &a.Name, &status, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return a, errs.NotFoundError{Entity: "application", Key: id}
	}
	if err != nil {
		return a, err
	}
	return a, parseApplication(&a, typ, status)
}

func parseApplication(a *domain.Application, typ, status string) error {
	var err error
	if a.Type, err = domain.ParseApplicationType(typ); err != nil {
		return err
	}
	a.Status, err = domain.ParseApplicationStatus(status)
	return err
}

func (r Repo) ListApplications(ctx context.Context, q Querier, limit int) ([]domain.Application, error) {
	query := `SELECT id,application_type,name,status,created_at,updated_at FROM applications ORDER BY created_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := q.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Application
	for rows.Next() {
		var (
			a           domain.Application
			typ, status string
		)
		if err := rows.Scan(&a.ID, &typ, &a.Name, &status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		if err := parseApplication(&a, typ, status); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// UpdateApplicationStatus sets the status and fails with NotFoundError when
// the application does not exist.
func (r Repo) UpdateApplicationStatus(ctx context.Context, q Querier, id string, status domain.ApplicationStatus, updatedAt string) error {
	res, err := q.ExecContext(ctx, r.q(`UPDATE applications SET status=?, updated_at=? WHERE id=?`), string(status), updatedAt, id)
	if err != nil {
		return mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.NotFoundError{Entity: "application", Key: id}
	}
	return nil
}
