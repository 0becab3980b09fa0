package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/travela-id/backend-travela/internal/events"
)

// OutboxStore persists the item-event outbox consumed by the relay worker.
type OutboxStore struct {
	DB Querier
}

// InsertItemEvent appends an undelivered event.
func (s OutboxStore) InsertItemEvent(ctx context.Context, topic string, itemID uuid.UUID, payload []byte) (events.Event, error) {
	var ev events.Event
	err := s.DB.QueryRow(ctx, `
INSERT INTO item_events (topic, item_id, payload)
VALUES ($1, $2, $3)
RETURNING id, topic, item_id, payload, occurred_at, delivered_at`,
		topic, itemID, payload,
	).Scan(&ev.ID, &ev.Topic, &ev.ItemID, &ev.Payload, &ev.OccurredAt, &ev.DeliveredAt)
	if err != nil {
		return events.Event{}, fmt.Errorf("insert item event: %w", err)
	}
	return ev, nil
}

// ListUndelivered returns the oldest undelivered events up to limit.
func (s OutboxStore) ListUndelivered(ctx context.Context, limit int) ([]events.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.Query(ctx, `
SELECT id, topic, item_id, payload, occurred_at, delivered_at
FROM item_events WHERE delivered_at IS NULL
ORDER BY occurred_at LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list undelivered events: %w", err)
	}
	defer rows.Close()
	var result []events.Event
	for rows.Next() {
		var ev events.Event
		if err := rows.Scan(&ev.ID, &ev.Topic, &ev.ItemID, &ev.Payload, &ev.OccurredAt, &ev.DeliveredAt); err != nil {
			return nil, fmt.Errorf("scan item event: %w", err)
		}
		result = append(result, ev)
	}
	return result, rows.Err()
}

// MarkDelivered stamps an event as pushed to the sync channel.
func (s OutboxStore) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	tag, err := s.DB.Exec(ctx, `
UPDATE item_events SET delivered_at = now() WHERE id = $1 AND delivered_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("mark event delivered: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
