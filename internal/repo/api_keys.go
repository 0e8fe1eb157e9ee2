package repo

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"

	"demos/internal/domain"
)

// HashAPIKey returns a stable SHA-256 hex digest for the provided key.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(key)))
	return hex.EncodeToString(sum[:])
}

// InsertAPIKey stores a hashed API key. KeyHash must already contain the hashed value.
func (r Repo) InsertAPIKey(ctx context.Context, q Querier, key domain.APIKey) error {
	if key.ID == "" {
		return errors.New("api key id required")
	}
	if key.ActorID == "" {
		return errors.New("api key actor_id required")
	}
	if key.KeyHash == "" {
		return errors.New("api key hash required")
	}
	_, err := q.ExecContext(ctx, r.q(`INSERT INTO api_keys(id,actor_id,name,key_hash,roles,created_at) VALUES (?,?,?,?,?,?)`),
		key.ID, key.ActorID, nullable(key.Name), key.KeyHash, strings.Join(key.Roles, ","), key.CreatedAt)
	return mapErr(err)
}

const apiKeyColumns = `id,actor_id,COALESCE(name,''),key_hash,roles,created_at`

// GetAPIKeyByHash returns an API key by its hashed value.
func (r Repo) GetAPIKeyByHash(ctx context.Context, hash string) (domain.APIKey, error) {
	row := r.DB.QueryRowContext(ctx, r.q(`SELECT `+apiKeyColumns+` FROM api_keys WHERE key_hash=? LIMIT 1`), hash)
	key, err := scanAPIKey(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.APIKey{}, ErrNotFound
	}
	return key, err
}

// ListAPIKeys returns API keys, optionally filtered by actor ID.
func (r Repo) ListAPIKeys(ctx context.Context, actorID string) ([]domain.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys`
	var args []any
	if actorID != "" {
		query += ` WHERE actor_id=?`
		args = append(args, actorID)
	}
	query += ` ORDER BY created_at DESC, id`
	rows, err := r.DB.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []domain.APIKey
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// DeleteAPIKey deletes an API key by ID.
func (r Repo) DeleteAPIKey(ctx context.Context, q Querier, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("api key id required")
	}
	res, err := q.ExecContext(ctx, r.q(`DELETE FROM api_keys WHERE id=?`), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAPIKey(s rowScanner) (domain.APIKey, error) {
	var (
		key   domain.APIKey
		roles string
	)
	if err := s.Scan(&key.ID, &key.ActorID, &key.Name, &key.KeyHash, &roles, &key.CreatedAt); err != nil {
		return domain.APIKey{}, err
	}
	key.Roles = []string{}
	for _, r := range strings.Split(roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			key.Roles = append(key.Roles, r)
		}
	}
	return key, nil
}
