package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"demos/internal/config"
	"demos/internal/domain"
	"demos/internal/repo"
)

const (
	defaultWebhookInterval = 2 * time.Second
	defaultWebhookBatch    = 100
)

// WebhookDispatcher polls the event log and POSTs new events to every
// subscribed webhook. Each hook keeps its own cursor; a failed delivery is
// retried on the next tick.
type WebhookDispatcher struct {
	Repo     repo.Repo
	Webhooks []config.Webhook
	Logger   *zap.Logger
	Interval time.Duration

	client  *http.Client
	mu      sync.Mutex
	cursors map[int]int64
}

// NewWebhookDispatcher returns nil when no hook is enabled.
func NewWebhookDispatcher(r repo.Repo, hooks []config.Webhook, logger *zap.Logger) *WebhookDispatcher {
	enabled := false
	for _, h := range hooks {
		if h.IsEnabled() && strings.TrimSpace(h.URL) != "" {
			enabled = true
		}
	}
	if !enabled {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookDispatcher{
		Repo:     r,
		Webhooks: hooks,
		Logger:   logger.Named("webhooks"),
		Interval: defaultWebhookInterval,
		client:   &http.Client{},
		cursors:  make(map[int]int64),
	}
}

// Run dispatches until ctx is done.
func (d *WebhookDispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.Interval)
	defer ticker.Stop()
	for {
		d.DispatchAll(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// DispatchAll runs one delivery pass over every enabled hook.
func (d *WebhookDispatcher) DispatchAll(ctx context.Context) {
	for i, hook := range d.Webhooks {
		if !hook.IsEnabled() || strings.TrimSpace(hook.URL) == "" {
			continue
		}
		d.dispatchWebhook(ctx, i, hook)
	}
}

func (d *WebhookDispatcher) dispatchWebhook(ctx context.Context, idx int, hook config.Webhook) {
	cursor := d.cursorFor(ctx, idx)
	events, err := d.Repo.ListEvents(ctx, repo.EventFilter{After: cursor, Limit: defaultWebhookBatch})
	if err != nil {
		d.Logger.Warn("fetch events failed", zap.Error(err))
		return
	}
	for _, evt := range events {
		if !hook.Wants(evt.Type) {
			d.setCursor(idx, evt.ID)
			continue
		}
		if err := d.postEvent(ctx, hook, evt); err != nil {
			d.Logger.Warn("delivery failed",
				zap.String("url", hook.URL),
				zap.Int64("event_id", evt.ID),
				zap.Error(err))
			return
		}
		d.setCursor(idx, evt.ID)
	}
}

// cursorFor starts a hook at the tail of the log so history is not replayed.
func (d *WebhookDispatcher) cursorFor(ctx context.Context, idx int) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cur, ok := d.cursors[idx]; ok {
		return cur
	}
	cur, err := d.Repo.LatestEventID(ctx)
	if err != nil {
		d.Logger.Warn("init cursor failed", zap.Error(err))
		cur = 0
	}
	d.cursors[idx] = cur
	return cur
}

func (d *WebhookDispatcher) setCursor(idx int, value int64) {
	d.mu.Lock()
	d.cursors[idx] = value
	d.mu.Unlock()
}

type webhookEvent struct {
	ID            int64           `json:"id"`
	Type          string          `json:"type"`
	ApplicationID string          `json:"application_id,omitempty"`
	EntityKind    string          `json:"entity_kind"`
	EntityID      string          `json:"entity_id,omitempty"`
	ActorID       string          `json:"actor_id"`
	TS            string          `json:"ts"`
	Payload       json.RawMessage `json:"payload"`
}

func (d *WebhookDispatcher) postEvent(ctx context.Context, hook config.Webhook, evt domain.Event) error {
	payload := json.RawMessage("{}")
	if evt.Payload != "" && json.Valid([]byte(evt.Payload)) {
		payload = json.RawMessage(evt.Payload)
	}
	data, err := json.Marshal(webhookEvent{
		ID:            evt.ID,
		Type:          evt.Type,
		ApplicationID: evt.ApplicationID,
		EntityKind:    evt.EntityKind,
		EntityID:      evt.EntityID,
		ActorID:       evt.ActorID,
		TS:            evt.TS,
		Payload:       payload,
	})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, hook.Timeout())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Demos-Event", evt.Type)
	req.Header.Set("X-Demos-Delivery", fmt.Sprintf("%d", evt.ID))
	if strings.TrimSpace(hook.Secret) != "" {
		req.Header.Set("X-Demos-Secret", hook.Secret)
	}
	res, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	d.Logger.Debug("event delivered", zap.String("url", hook.URL), zap.Int64("event_id", evt.ID))
	return nil
}
