// internal/models/player.go
package models

// AISenderID is the fixed participant identity for the automated counterpart.
// It occupies a session's player2 slot in AI games and appears as the sender
// id on AI-authored messages. It is never a real Player record.
const AISenderID = "ai"

// Player is an ephemeral participant scoped to one lobby. Created on lobby
// join; only session resolution mutates it (score / gamesPlayed increments).
type Player struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	LobbyID     string `json:"lobbyId"`
	Score       int    `json:"score"`
	GamesPlayed int    `json:"gamesPlayed"`
}
