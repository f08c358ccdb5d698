// internal/events/inbox.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kmbertalan/turing-lobby/internal/store"
)

// Channel delivers events to a player, at least once, in push order.
// Duplicate delivery of a sender's own message is possible and must be
// filtered client-side by message id.
type Channel interface {
	Push(ctx context.Context, playerID string, typ Type, payload interface{}) error
}

// Inbox is the store-backed Channel. One Push serves both delivery styles:
// the event is appended to the player's inbox list (for the polling reader)
// and published on the player's channel (for push subscribers). The inbox
// TTL is refreshed on every push.
type Inbox struct {
	store store.Store
	now   func() time.Time
}

// NewInbox builds a Channel over the given store.
func NewInbox(st store.Store) *Inbox {
	return &Inbox{store: st, now: time.Now}
}

func (in *Inbox) Push(ctx context.Context, playerID string, typ Type, payload interface{}) error {
	ev := Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Payload:   payload,
		CreatedAt: in.now().UnixMilli(),
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", typ, err)
	}

	key := store.PlayerEventsKey(playerID)
	if err := in.store.ListAppend(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to append %s event for player %s: %w", typ, playerID, err)
	}
	if err := in.store.Expire(ctx, key, store.EventsTTL); err != nil {
		return fmt.Errorf("failed to refresh inbox ttl for player %s: %w", playerID, err)
	}
	// Best effort: pollers will still see the event if nobody is subscribed.
	return in.store.Publish(ctx, key, string(data))
}

// Events reads the inbox from sinceIndex onward and returns the decoded
// events plus the next cursor. The cursor is monotonic; as long as the inbox
// has not expired, no event between two successive polls is lost.
func (in *Inbox) Events(ctx context.Context, playerID string, sinceIndex int64) ([]Event, int64, error) {
	raw, err := in.store.ListRange(ctx, store.PlayerEventsKey(playerID), sinceIndex, -1)
	if err != nil {
		return nil, sinceIndex, fmt.Errorf("failed to read inbox for player %s: %w", playerID, err)
	}

	evs := make([]Event, 0, len(raw))
	for _, r := range raw {
		ev, err := Decode([]byte(r))
		if err != nil {
			return nil, sinceIndex, err
		}
		evs = append(evs, ev)
	}
	return evs, sinceIndex + int64(len(raw)), nil
}
