// internal/handlers/events.go
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/coder/websocket"

	"github.com/kmbertalan/turing-lobby/internal/events"
	"github.com/kmbertalan/turing-lobby/internal/store"
)

// EventsHandler is the polling delivery backend: GET /events?playerId&lastIndex
// returns everything appended to the player's inbox since the cursor, plus the
// next cursor. Events come back in push order, at least once; a client seeing
// its own message echoed filters it by message id.
func (s *Server) EventsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondErrorMsg(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		s.respondErrorMsg(w, http.StatusBadRequest, "playerId required")
		return
	}
	lastIndex, err := strconv.ParseInt(r.URL.Query().Get("lastIndex"), 10, 64)
	if err != nil {
		lastIndex = 0
	}

	evs, next, err := s.Inbox.Events(r.Context(), playerID, lastIndex)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if evs == nil {
		evs = []events.Event{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"events":    evs,
		"nextIndex": next,
	})
}

// EventsWSHandler is the push delivery backend: it subscribes to the player's
// channel and forwards event envelopes over a WebSocket as they are
// published. Events published before the subscription established are only
// visible to the polling backend; clients typically poll once on connect.
func EventsWSHandler(s *Server, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := r.URL.Query().Get("playerId")
		if playerID == "" {
			s.respondErrorMsg(w, http.StatusBadRequest, "playerId required")
			return
		}

		ch, cancel, err := st.Subscribe(r.Context(), store.PlayerEventsKey(playerID))
		if err != nil {
			s.respondError(w, err)
			return
		}
		defer cancel()

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			s.Log.WithError(err).Warn("websocket accept failed")
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler exit")

		s.Log.WithField("player", playerID).Info("event stream connected")

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				c.Close(websocket.StatusNormalClosure, "client gone")
				return
			case payload, ok := <-ch:
				if !ok {
					c.Close(websocket.StatusNormalClosure, "subscription closed")
					return
				}
				writeCtx, cancelWrite := context.WithTimeout(ctx, writeTimeout)
				err := c.Write(writeCtx, websocket.MessageText, []byte(payload))
				cancelWrite()
				if err != nil {
					s.Log.WithError(err).WithField("player", playerID).Info("event stream disconnected")
					return
				}
			}
		}
	}
}
