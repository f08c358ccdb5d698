// internal/handlers/lobby.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kmbertalan/turing-lobby/internal/auth"
)

type lobbyRequest struct {
	Action     string `json:"action"`
	HostName   string `json:"hostName,omitempty"`
	Code       string `json:"code,omitempty"`
	PlayerName string `json:"playerName,omitempty"`
}

// LobbyHandler serves POST /lobby (action: create | join) and GET /lobby
// (?checkHost / ?queueSize) for waiting-room polling.
func (s *Server) LobbyHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.lobbyAction(w, r)
	case http.MethodGet:
		s.lobbyQuery(w, r)
	default:
		s.respondErrorMsg(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) lobbyAction(w http.ResponseWriter, r *http.Request) {
	var req lobbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Action {
	case "create":
		res, err := s.Lobbies.Create(r.Context(), req.HostName)
		if err != nil {
			s.respondError(w, err)
			return
		}
		token, err := auth.CreateToken(res.HostPlayerID)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"lobbyId":  res.LobbyID,
			"code":     res.Code,
			"playerId": res.HostPlayerID,
			"token":    token,
		})

	case "join":
		if req.Code == "" {
			s.respondErrorMsg(w, http.StatusBadRequest, "code required")
			return
		}
		res, err := s.Lobbies.Join(r.Context(), req.Code, req.PlayerName)
		if err != nil {
			s.respondError(w, err)
			return
		}
		token, err := auth.CreateToken(res.PlayerID)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"playerId": res.PlayerID,
			"lobbyId":  res.LobbyID,
			"code":     res.Code,
			"token":    token,
		})

	default:
		s.respondErrorMsg(w, http.StatusBadRequest, "Invalid action")
	}
}

func (s *Server) lobbyQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lobbyID := q.Get("lobbyId")
	if lobbyID == "" {
		s.respondErrorMsg(w, http.StatusBadRequest, "lobbyId required")
		return
	}

	if q.Has("queueSize") {
		n, err := s.Lobbies.QueueSize(r.Context(), lobbyID)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]int64{"queueSize": n})
		return
	}

	if q.Has("checkHost") {
		playerID := q.Get("playerId")
		if playerID == "" {
			s.respondErrorMsg(w, http.StatusBadRequest, "playerId required")
			return
		}
		isHost, err := s.Lobbies.IsHost(r.Context(), lobbyID, playerID)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]bool{"isHost": isHost})
		return
	}

	s.respondErrorMsg(w, http.StatusBadRequest, "checkHost or queueSize required")
}
