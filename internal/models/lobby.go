// internal/models/lobby.go
package models

// LobbyState is the lobby lifecycle: open lobbies accept joins, closed ones
// reject them. A lobby closes when its host triggers matchmaking and never
// reopens.
type LobbyState string

const (
	LobbyOpen   LobbyState = "open"
	LobbyClosed LobbyState = "closed"
)

// Lobby is a joinable room identified by a short shareable code.
type Lobby struct {
	ID         string     `json:"id"`
	Code       string     `json:"code"`
	CreatedAt  int64      `json:"createdAt"`
	MaxPlayers int        `json:"maxPlayers"`
	State      LobbyState `json:"state"`
	CreatorID  string     `json:"creatorId"`
}
