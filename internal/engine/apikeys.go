package engine

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"demos/internal/domain"
	"demos/internal/events"
	"demos/internal/repo"
)

const apiKeyPrefix = "dmk_"

type APIKeyCreateOptions struct {
	ActorID   string
	Name      string
	Roles     []string
	CreatedBy string
}

// CreateAPIKey issues a key for a service caller. The plain secret is
// returned once and never stored.
func (e Engine) CreateAPIKey(ctx context.Context, opts APIKeyCreateOptions) (domain.APIKey, string, error) {
	if strings.TrimSpace(opts.ActorID) == "" {
		return domain.APIKey{}, "", fmt.Errorf("api key actor_id is required")
	}
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return domain.APIKey{}, "", fmt.Errorf("generate api key: %w", err)
	}
	secret := apiKeyPrefix + hex.EncodeToString(buf)
	roles := []string{}
	for _, r := range opts.Roles {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	key := domain.APIKey{
		ID:        uuid.New().String(),
		ActorID:   opts.ActorID,
		Name:      opts.Name,
		KeyHash:   repo.HashAPIKey(secret),
		Roles:     roles,
		CreatedAt: nowString(e.now()),
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.APIKey{}, "", err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertAPIKey(ctx, tx, key); err != nil {
		return domain.APIKey{}, "", err
	}
	if err := e.events().Append(ctx, tx, events.APIKeyCreated, "", "api_key", key.ID, opts.CreatedBy, events.EventPayload{
		"actor_id": key.ActorID,
		"roles":    key.Roles,
	}); err != nil {
		return domain.APIKey{}, "", err
	}
	if err := tx.Commit(); err != nil {
		return domain.APIKey{}, "", err
	}
	e.log().Info("api key created", zap.String("key_id", key.ID), zap.String("actor_id", key.ActorID))
	return key, secret, nil
}

func (e Engine) ListAPIKeys(ctx context.Context, actorID string) ([]domain.APIKey, error) {
	keys, err := e.Repo.ListAPIKeys(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if keys == nil {
		keys = []domain.APIKey{}
	}
	return keys, nil
}

func (e Engine) RevokeAPIKey(ctx context.Context, id, actorID string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteAPIKey(ctx, tx, id); err != nil {
		return err
	}
	if err := e.events().Append(ctx, tx, events.APIKeyRevoked, "", "api_key", id, actorID, nil); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	e.log().Info("api key revoked", zap.String("key_id", id), zap.String("actor_id", actorID))
	return nil
}

// AuthenticateAPIKey resolves a presented secret to its key.
func (e Engine) AuthenticateAPIKey(ctx context.Context, secret string) (domain.APIKey, error) {
	secret = strings.TrimSpace(secret)
	if !strings.HasPrefix(secret, apiKeyPrefix) {
		return domain.APIKey{}, repo.ErrNotFound
	}
	return e.Repo.GetAPIKeyByHash(ctx, repo.HashAPIKey(secret))
}
