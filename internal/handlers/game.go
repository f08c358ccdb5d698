// internal/handlers/game.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kmbertalan/turing-lobby/internal/auth"
	"github.com/kmbertalan/turing-lobby/internal/models"
)

type gameRequest struct {
	Action   string `json:"action"`
	LobbyID  string `json:"lobbyId,omitempty"`
	PlayerID string `json:"playerId,omitempty"`
	GameID   string `json:"gameId,omitempty"`
	Content  string `json:"content,omitempty"`
	Guess    string `json:"guess,omitempty"`
}

// GameHandler serves POST /game (action: queue | trigger | message | guess)
// and GET /game?gameId for session re-sync.
func (s *Server) GameHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.gameAction(w, r)
	case http.MethodGet:
		s.gameQuery(w, r)
	default:
		s.respondErrorMsg(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) gameAction(w http.ResponseWriter, r *http.Request) {
	var req gameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Action {
	case "queue":
		if req.PlayerID == "" || req.LobbyID == "" {
			s.respondErrorMsg(w, http.StatusBadRequest, "playerId and lobbyId required")
			return
		}
		if err := s.Lobbies.Enqueue(r.Context(), req.LobbyID, req.PlayerID); err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]bool{"matched": false})

	case "trigger":
		if req.LobbyID == "" {
			s.respondErrorMsg(w, http.StatusBadRequest, "lobbyId required")
			return
		}
		// Only the lobby host may run a matchmaking pass.
		callerID, err := auth.Authenticate(requestToken(r))
		if err != nil {
			s.respondErrorMsg(w, http.StatusForbidden, "invalid token")
			return
		}
		isHost, err := s.Lobbies.IsHost(r.Context(), req.LobbyID, callerID)
		if err != nil {
			s.respondError(w, err)
			return
		}
		if !isHost {
			s.respondErrorMsg(w, http.StatusForbidden, "only the host can trigger matchmaking")
			return
		}
		res, err := s.Match.Trigger(r.Context(), req.LobbyID)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"triggered":      true,
			"gamesCreated":   res.GamesCreated,
			"playersMatched": res.PlayersMatched,
		})

	case "message":
		if req.GameID == "" || req.PlayerID == "" || req.Content == "" {
			s.respondErrorMsg(w, http.StatusBadRequest, "gameId, playerId and content required")
			return
		}
		if _, err := s.Games.SendMessage(r.Context(), req.GameID, req.PlayerID, req.Content); err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]bool{"success": true})

	case "guess":
		if req.GameID == "" || req.PlayerID == "" {
			s.respondErrorMsg(w, http.StatusBadRequest, "gameId and playerId required")
			return
		}
		guess := models.Guess(req.Guess)
		if guess != models.GuessHuman && guess != models.GuessAI {
			s.respondErrorMsg(w, http.StatusBadRequest, "guess must be 'human' or 'ai'")
			return
		}
		if _, err := s.Games.SubmitGuess(r.Context(), req.GameID, req.PlayerID, guess); err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]bool{"success": true})

	default:
		s.respondErrorMsg(w, http.StatusBadRequest, "Invalid action")
	}
}

func (s *Server) gameQuery(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("gameId")
	if gameID == "" {
		s.respondErrorMsg(w, http.StatusBadRequest, "Game ID required")
		return
	}
	g, err := s.Games.Get(r.Context(), gameID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, g)
}
