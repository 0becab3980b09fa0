// Package notify pushes item-change events onto per-owner Redis pub/sub
// channels so every open cart or admin view can reload. Delivery is
// fire-and-forget: the core never depends on a message arriving, only on
// recomputation from persisted state being idempotent.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	redis "github.com/redis/go-redis/v9"

	"github.com/travela-id/backend-travela/internal/events"
	"github.com/travela-id/backend-travela/internal/obs"
)

// ChangeMessage is the wire shape pushed to sync channels.
type ChangeMessage struct {
	ItemID     string `json:"itemId"`
	ChangeKind string `json:"changeKind"`
}

// Publisher pushes item-change events to a Redis pub/sub channel.
type Publisher struct {
	R       *redis.Client
	Channel string
}

// Notify implements events.Notifier.
func (p Publisher) Notify(ctx context.Context, event events.Event) error {
	return p.publish(ctx, event)
}

func (p Publisher) publish(ctx context.Context, event events.Event) error {
	if p.R == nil {
		return errors.New("notify: redis client not configured")
	}
	channel := strings.TrimSpace(p.Channel)
	if channel == "" {
		channel = "travela:sync"
	}
	msg := ChangeMessage{ItemID: event.ItemID.String(), ChangeKind: event.Topic}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := p.R.Publish(ctx, channel, data).Err(); err != nil {
		obs.IncSyncPublish("error")
		return err
	}
	obs.IncSyncPublish("ok")
	return nil
}
