// internal/events/event.go
package events

import (
	"encoding/json"
	"fmt"

	"github.com/kmbertalan/turing-lobby/internal/models"
)

// Type tags the payload carried by an event envelope.
type Type string

const (
	TypeMessage    Type = "message"
	TypeGameStart  Type = "game-start"
	TypeGameUpdate Type = "game-update"
)

// Event is the wire envelope pushed into a player's delivery channel. Events
// only notify of session mutations that already happened; the stored Game
// record stays authoritative.
type Event struct {
	ID        string      `json:"id"`
	Type      Type        `json:"type"`
	Payload   interface{} `json:"payload"`
	CreatedAt int64       `json:"createdAt"`
}

// GameStartPayload tells a participant their session began. OpponentName is
// the counterpart's display name, or "AI" for AI games.
type GameStartPayload struct {
	GameID       string `json:"gameId"`
	OpponentName string `json:"opponentName"`
	IsAiGame     bool   `json:"isAiGame"`
}

// GuessResult is the final outcome attached to a game-update once the
// receiving player has guessed. OpponentCorrect is omitted for AI games
// since there is no opposing human guess.
type GuessResult struct {
	IsAiGame        bool  `json:"isAiGame"`
	YouCorrect      bool  `json:"youCorrect"`
	OpponentCorrect *bool `json:"opponentCorrect,omitempty"`
}

// GameUpdatePayload reports guessing progress to one participant. Result is
// nil until that participant has a recorded guess.
type GameUpdatePayload struct {
	YourGuess       *models.Guess `json:"yourGuess,omitempty"`
	OpponentGuessed bool          `json:"opponentGuessed"`
	Result          *GuessResult  `json:"result"`
}

// envelope mirrors Event with the payload left raw for two-phase decoding.
type envelope struct {
	ID        string          `json:"id"`
	Type      Type            `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt int64           `json:"createdAt"`
}

// Decode parses a serialized envelope into an Event with a concretely typed
// payload (models.Message, GameStartPayload or GameUpdatePayload).
func Decode(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Event{}, fmt.Errorf("failed to decode event envelope: %w", err)
	}

	ev := Event{ID: env.ID, Type: env.Type, CreatedAt: env.CreatedAt}
	switch env.Type {
	case TypeMessage:
		var p models.Message
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return Event{}, fmt.Errorf("failed to decode message payload: %w", err)
		}
		ev.Payload = p
	case TypeGameStart:
		var p GameStartPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return Event{}, fmt.Errorf("failed to decode game-start payload: %w", err)
		}
		ev.Payload = p
	case TypeGameUpdate:
		var p GameUpdatePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return Event{}, fmt.Errorf("failed to decode game-update payload: %w", err)
		}
		ev.Payload = p
	default:
		return Event{}, fmt.Errorf("unknown event type %q", env.Type)
	}
	return ev, nil
}
