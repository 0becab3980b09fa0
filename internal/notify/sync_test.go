package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/travela-id/backend-travela/internal/events"
)

func TestPublisherPushesChangeMessage(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	sub := rdb.Subscribe(context.Background(), "travela:sync")
	defer sub.Close()
	_, err = sub.Receive(context.Background())
	require.NoError(t, err)

	itemID := uuid.New()
	pub := Publisher{R: rdb, Channel: "travela:sync"}
	err = pub.Notify(context.Background(), events.Event{
		ID:     uuid.New(),
		Topic:  events.TopicItemUpdated,
		ItemID: itemID,
	})
	require.NoError(t, err)

	select {
	case msg := <-sub.Channel():
		var change ChangeMessage
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &change))
		require.Equal(t, itemID.String(), change.ItemID)
		require.Equal(t, events.TopicItemUpdated, change.ChangeKind)
	case <-time.After(2 * time.Second):
		t.Fatal("no sync message received")
	}
}

type memOutbox struct {
	pending   []events.Event
	delivered map[uuid.UUID]bool
}

func (m *memOutbox) ListUndelivered(_ context.Context, limit int) ([]events.Event, error) {
	var out []events.Event
	for _, ev := range m.pending {
		if m.delivered[ev.ID] {
			continue
		}
		out = append(out, ev)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memOutbox) MarkDelivered(_ context.Context, id uuid.UUID) error {
	if m.delivered == nil {
		m.delivered = map[uuid.UUID]bool{}
	}
	m.delivered[id] = true
	return nil
}

func TestRelayDrainsOutbox(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	outbox := &memOutbox{pending: []events.Event{
		{ID: uuid.New(), Topic: events.TopicCouponApplied, ItemID: uuid.New()},
		{ID: uuid.New(), Topic: events.TopicItemRemoved, ItemID: uuid.New()},
	}}
	relay := Relay{Source: outbox, Publisher: Publisher{R: rdb}}

	require.NoError(t, relay.WorkOnce(context.Background()))
	require.Len(t, outbox.delivered, 2)

	// nothing left to deliver on the second pass
	require.NoError(t, relay.WorkOnce(context.Background()))
	require.Len(t, outbox.delivered, 2)
}
