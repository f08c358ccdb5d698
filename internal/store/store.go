// internal/store/store.go
package store

import (
	"context"
	"fmt"
	"time"
)

// Retention windows. Sessions and per-player event inboxes expire after ten
// minutes; a session straddling that boundary is abandoned, not recovered.
// Lobby and player records get a wider ambient window since a lobby may sit
// open while people trickle in.
const (
	GameTTL   = 10 * time.Minute
	EventsTTL = 10 * time.Minute
	LobbyTTL  = time.Hour
	PlayerTTL = time.Hour
	QueueTTL  = time.Hour
)

// Store is the shared key-value layer every component is handed. All
// cross-request state lives behind it; there is no in-process session state.
// Implementations must make each single operation atomic, but sequences of
// operations (e.g. a queue read followed by a delete) carry no combined
// atomicity guarantee.
type Store interface {
	// Get returns (value, true, nil) if the key exists, ("", false, nil) if it
	// does not.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes the value. A zero ttl means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// Set operations back queue and lobby membership. SetAdd is idempotent.
	SetAdd(ctx context.Context, key, member string) error
	SetMembers(ctx context.Context, key string) ([]string, error)
	SetRemove(ctx context.Context, key string, members ...string) error
	SetCard(ctx context.Context, key string) (int64, error)

	// List operations back the per-player event inboxes.
	ListAppend(ctx context.Context, key, value string) error
	ListRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Publish/Subscribe carry the push-style delivery fan-out. Subscribe
	// returns a receive channel and a cancel func that releases it.
	Publish(ctx context.Context, channel, payload string) error
	Subscribe(ctx context.Context, channel string) (<-chan string, func(), error)
}

// Key namespaces. Everything the service persists lives under one of these.
func LobbyKey(lobbyID string) string        { return fmt.Sprintf("lobby:%s", lobbyID) }
func LobbyCodeKey(code string) string       { return fmt.Sprintf("lobby:code:%s", code) }
func LobbyPlayersKey(lobbyID string) string { return fmt.Sprintf("lobby:%s:players", lobbyID) }
func QueueKey(lobbyID string) string        { return fmt.Sprintf("queue:%s", lobbyID) }
func GameKey(gameID string) string          { return fmt.Sprintf("game:%s", gameID) }
func PlayerKey(playerID string) string      { return fmt.Sprintf("player:%s", playerID) }

// PlayerEventsKey is both the inbox list key and the pub/sub channel name for
// a player's event stream.
func PlayerEventsKey(playerID string) string { return fmt.Sprintf("player:%s:events", playerID) }
