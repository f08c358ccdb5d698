// internal/store/records.go
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kmbertalan/turing-lobby/internal/models"
)

// Domain records are serialized as JSON strings under the key namespaces in
// store.go. Every load returns (record, found, error); every save applies the
// record's retention window.

func LoadLobby(ctx context.Context, st Store, lobbyID string) (*models.Lobby, bool, error) {
	data, ok, err := st.Get(ctx, LobbyKey(lobbyID))
	if err != nil || !ok {
		return nil, false, err
	}
	var l models.Lobby
	if err := json.Unmarshal([]byte(data), &l); err != nil {
		return nil, false, fmt.Errorf("failed to decode lobby %s: %w", lobbyID, err)
	}
	return &l, true, nil
}

func SaveLobby(ctx context.Context, st Store, l *models.Lobby) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to marshal lobby %s: %w", l.ID, err)
	}
	if err := st.Set(ctx, LobbyKey(l.ID), string(data), LobbyTTL); err != nil {
		return fmt.Errorf("failed to persist lobby %s: %w", l.ID, err)
	}
	return nil
}

func LoadPlayer(ctx context.Context, st Store, playerID string) (*models.Player, bool, error) {
	data, ok, err := st.Get(ctx, PlayerKey(playerID))
	if err != nil || !ok {
		return nil, false, err
	}
	var p models.Player
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, false, fmt.Errorf("failed to decode player %s: %w", playerID, err)
	}
	return &p, true, nil
}

func SavePlayer(ctx context.Context, st Store, p *models.Player) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal player %s: %w", p.ID, err)
	}
	if err := st.Set(ctx, PlayerKey(p.ID), string(data), PlayerTTL); err != nil {
		return fmt.Errorf("failed to persist player %s: %w", p.ID, err)
	}
	return nil
}

func LoadGame(ctx context.Context, st Store, gameID string) (*models.Game, bool, error) {
	data, ok, err := st.Get(ctx, GameKey(gameID))
	if err != nil || !ok {
		return nil, false, err
	}
	var g models.Game
	if err := json.Unmarshal([]byte(data), &g); err != nil {
		return nil, false, fmt.Errorf("failed to decode game %s: %w", gameID, err)
	}
	return &g, true, nil
}

func SaveGame(ctx context.Context, st Store, g *models.Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to marshal game %s: %w", g.ID, err)
	}
	if err := st.Set(ctx, GameKey(g.ID), string(data), GameTTL); err != nil {
		return fmt.Errorf("failed to persist game %s: %w", g.ID, err)
	}
	return nil
}
