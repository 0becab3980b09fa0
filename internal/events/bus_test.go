package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/travela-id/backend-travela/internal/events"
)

type stubStore struct {
	lastTopic   string
	lastItemID  uuid.UUID
	lastPayload []byte
}

func (s *stubStore) InsertItemEvent(_ context.Context, topic string, itemID uuid.UUID, payload []byte) (events.Event, error) {
	s.lastTopic = topic
	s.lastItemID = itemID
	s.lastPayload = payload
	return events.Event{
		ID:         uuid.New(),
		Topic:      topic,
		ItemID:     itemID,
		Payload:    payload,
		OccurredAt: time.Now(),
	}, nil
}

type captureNotifier struct {
	events []events.Event
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return c.err
}

func TestEmitPersistsAndFansOut(t *testing.T) {
	store := &stubStore{}
	first := &captureNotifier{}
	second := &captureNotifier{}
	bus := &events.Bus{Store: store, Notifiers: []events.Notifier{first, second}}

	itemID := uuid.New()
	ev, err := bus.Emit(context.Background(), events.TopicCouponApplied, itemID, map[string]any{"couponTitle": "SUMMER20"})
	require.NoError(t, err)
	require.Equal(t, events.TopicCouponApplied, store.lastTopic)
	require.Equal(t, itemID, store.lastItemID)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(store.lastPayload, &payload))
	require.Equal(t, "SUMMER20", payload["couponTitle"])

	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)
	require.Equal(t, ev.ID, first.events[0].ID)
}

func TestEmitNotifierFailureDoesNotDropEvent(t *testing.T) {
	store := &stubStore{}
	failing := &captureNotifier{err: errors.New("channel down")}
	bus := &events.Bus{Store: store, Notifiers: []events.Notifier{failing}}

	ev, err := bus.Emit(context.Background(), events.TopicItemUpdated, uuid.New(), nil)
	require.Error(t, err)
	require.NotEqual(t, uuid.Nil, ev.ID)
	require.Equal(t, events.TopicItemUpdated, store.lastTopic)
}

func TestEmitValidatesInput(t *testing.T) {
	bus := &events.Bus{Store: &stubStore{}}
	_, err := bus.Emit(context.Background(), "", uuid.New(), nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicItemUpdated, uuid.Nil, nil)
	require.Error(t, err)
}
