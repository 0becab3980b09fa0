package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/travela-id/backend-travela/internal/events"
)

// OutboxSource lists and acknowledges undelivered item events.
type OutboxSource interface {
	ListUndelivered(ctx context.Context, limit int) ([]events.Event, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) error
}

// Relay re-publishes undelivered outbox events to the sync channel. The API
// process publishes inline on emit; the relay covers events whose inline
// push failed (Redis blip, process crash between commit and publish).
// Re-delivery is safe because viewers recompute from persisted state.
type Relay struct {
	Source    OutboxSource
	Publisher Publisher
	BatchSize int
	Interval  time.Duration
	Logger    *zerolog.Logger
}

// Run polls the outbox until the context is cancelled.
func (r Relay) Run(ctx context.Context) error {
	interval := r.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.WorkOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				if r.Logger != nil {
					r.Logger.Error().Err(err).Msg("relay pass failed")
				}
			}
		}
	}
}

// WorkOnce relays a single batch. Events that fail to publish stay in the
// outbox for the next pass.
func (r Relay) WorkOnce(ctx context.Context) error {
	if r.Source == nil {
		return errors.New("notify: outbox source not configured")
	}
	batch := r.BatchSize
	if batch <= 0 {
		batch = 50
	}
	pending, err := r.Source.ListUndelivered(ctx, batch)
	if err != nil {
		return err
	}
	for _, event := range pending {
		if err := r.Publisher.publish(ctx, event); err != nil {
			if r.Logger != nil {
				r.Logger.Warn().Err(err).Str("event_id", event.ID.String()).Msg("publish sync event")
			}
			continue
		}
		if err := r.Source.MarkDelivered(ctx, event.ID); err != nil {
			if r.Logger != nil {
				r.Logger.Warn().Err(err).Str("event_id", event.ID.String()).Msg("mark event delivered")
			}
		}
	}
	return nil
}
