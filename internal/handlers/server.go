// internal/handlers/server.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/kmbertalan/turing-lobby/internal/events"
	"github.com/kmbertalan/turing-lobby/internal/game"
	"github.com/kmbertalan/turing-lobby/internal/lobby"
	"github.com/kmbertalan/turing-lobby/internal/match"
)

// Server bundles the services the HTTP surface dispatches into.
type Server struct {
	Lobbies *lobby.Service
	Games   *game.Service
	Match   *match.Matchmaker
	Inbox   *events.Inbox
	Log     *logrus.Logger
}

// NewServer wires a handler server over the given services.
func NewServer(ls *lobby.Service, gs *game.Service, mm *match.Matchmaker, in *events.Inbox, log *logrus.Logger) *Server {
	return &Server{Lobbies: ls, Games: gs, Match: mm, Inbox: in, Log: log}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.Log.WithError(err).Warn("failed to encode response")
	}
}

func (s *Server) respondErrorMsg(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]string{"error": msg})
}

// respondError maps service errors onto the HTTP taxonomy: unknown code or
// session -> 404, closed lobby -> 403, too few queued players -> 400,
// anything else -> 500 with a generic message.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lobby.ErrNotFound):
		s.respondErrorMsg(w, http.StatusNotFound, "Invalid lobby code")
	case errors.Is(err, game.ErrNotFound):
		s.respondErrorMsg(w, http.StatusNotFound, "Game not found")
	case errors.Is(err, lobby.ErrClosed):
		s.respondErrorMsg(w, http.StatusForbidden, "Lobby is closed")
	case errors.Is(err, match.ErrInsufficientPlayers):
		s.respondErrorMsg(w, http.StatusBadRequest, "Need at least 2 players to trigger match")
	default:
		s.Log.WithError(err).Error("request failed")
		s.respondErrorMsg(w, http.StatusInternalServerError, "Internal server error")
	}
}
