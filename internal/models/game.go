// internal/models/game.go
package models

// GameStatus is the session lifecycle. Transitions only move forward:
// active -> guessing -> finished.
type GameStatus string

const (
	GameActive   GameStatus = "active"
	GameGuessing GameStatus = "guessing"
	GameFinished GameStatus = "finished"
)

// Guess is a participant's verdict on their chat partner.
type Guess string

const (
	GuessHuman Guess = "human"
	GuessAI    Guess = "ai"
)

// Personality tags the behavioral profile handed to the generation backend
// for an AI-controlled session slot.
type Personality string

const (
	PersonalityNormal     Personality = "normal"
	PersonalityQuirky     Personality = "quirky"
	PersonalityTooPerfect Personality = "too-perfect"
	PersonalitySuspicious Personality = "suspicious"
)

// Personalities is the fixed pool matchmaking draws from for AI games.
var Personalities = []Personality{
	PersonalityNormal,
	PersonalityQuirky,
	PersonalityTooPerfect,
	PersonalitySuspicious,
}

// Message is one immutable chat line inside a session.
type Message struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Content    string `json:"content"`
	Timestamp  int64  `json:"timestamp"`
}

// Game is one two-party session: the conversation plus its guessing outcome.
// Player2ID may be the AISenderID sentinel. The stored record is the single
// source of truth; events derived from it are best-effort notifications.
type Game struct {
	ID            string      `json:"id"`
	LobbyID       string      `json:"lobbyId"`
	Player1ID     string      `json:"player1Id"`
	Player2ID     string      `json:"player2Id"`
	Player1Name   string      `json:"player1Name"`
	Player2Name   string      `json:"player2Name"`
	IsAiGame      bool        `json:"isAiGame"`
	AIPersonality Personality `json:"aiPersonality,omitempty"`
	Messages      []Message   `json:"messages"`
	StartedAt     int64       `json:"startedAt"`
	EndedAt       int64       `json:"endedAt,omitempty"`

	Player1Guess   *Guess `json:"player1Guess,omitempty"`
	Player2Guess   *Guess `json:"player2Guess,omitempty"`
	Player1Correct *bool  `json:"player1Correct,omitempty"`
	Player2Correct *bool  `json:"player2Correct,omitempty"`

	Status GameStatus `json:"status"`
}

// ParticipantName returns the display name recorded for playerID, or "" for
// a non-participant.
func (g *Game) ParticipantName(playerID string) string {
	switch playerID {
	case g.Player1ID:
		return g.Player1Name
	case g.Player2ID:
		return g.Player2Name
	}
	return ""
}

// OpponentID returns the other participant's id, or "" if playerID is not a
// participant of this game.
func (g *Game) OpponentID(playerID string) string {
	switch playerID {
	case g.Player1ID:
		return g.Player2ID
	case g.Player2ID:
		return g.Player1ID
	}
	return ""
}

// CorrectGuess is the verdict that wins this game.
func (g *Game) CorrectGuess() Guess {
	if g.IsAiGame {
		return GuessAI
	}
	return GuessHuman
}
