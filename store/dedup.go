package store

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const dedupTTL = 24 * time.Hour

// WebhookDedup is a best-effort first-seen check for provider callbacks, backed by Redis
// SET NX with a TTL. The pending-status guard in Transactions.MarkTerminal remains the hard
// idempotency barrier; this just short-circuits obvious redeliveries.
type WebhookDedup struct {
	Client *redis.Client
}

func NewWebhookDedup(client *redis.Client) *WebhookDedup {
	return &WebhookDedup{Client: client}
}

// Seen marks the event id and reports whether it had been seen before. Without a Redis
// client, or on a Redis error, it reports false so processing proceeds.
func (d *WebhookDedup) Seen(ctx context.Context, eventID string) bool {
	if d == nil || d.Client == nil || eventID == "" {
		return false
	}
	ok, err := d.Client.SetNX(ctx, "webhook:seen:"+eventID, time.Now().Unix(), dedupTTL).Result()
	if err != nil {
		return false
	}
	return !ok
}

// Forget releases a claimed event id so the provider's retry is processed again.
// Called when handling fails after Seen claimed the id.
func (d *WebhookDedup) Forget(ctx context.Context, eventID string) {
	if d == nil || d.Client == nil || eventID == "" {
		return
	}
	d.Client.Del(ctx, "webhook:seen:"+eventID)
}
