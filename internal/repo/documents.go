package repo

import (
	"context"

	"demos/internal/domain"
)

func (r Repo) InsertDocument(ctx context.Context, q Querier, d domain.Document) error {
	_, err := q.ExecContext(ctx, r.q(`INSERT INTO documents(id,application_id,phase_name,document_type,name,created_at) VALUES (?,?,?,?,?,?)`),
		d.ID, d.ApplicationID, string(d.PhaseName), string(d.DocumentType), d.Name, d.CreatedAt)
	return mapErr(err)
}

func (r Repo) ListDocuments(ctx context.Context, q Querier, applicationID string) ([]domain.Document, error) {
	rows, err := q.QueryContext(ctx, r.q(`SELECT id,application_id,phase_name,document_type,name,created_at FROM documents WHERE application_id=? ORDER BY created_at, id`), applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Document
	for rows.Next() {
		var (
			d           domain.Document
			phase, kind string
		)
		if err := rows.Scan(&d.ID, &d.ApplicationID, &phase, &kind, &d.Name, &d.CreatedAt); err != nil {
			return nil, err
		}
		if d.PhaseName, err = domain.ParsePhaseName(phase); err != nil {
			return nil, err
		}
		if d.DocumentType, err = domain.ParseDocumentType(kind); err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}
