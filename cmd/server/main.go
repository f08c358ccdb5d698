// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/kmbertalan/turing-lobby/internal/ai"
	"github.com/kmbertalan/turing-lobby/internal/auth"
	"github.com/kmbertalan/turing-lobby/internal/events"
	"github.com/kmbertalan/turing-lobby/internal/game"
	"github.com/kmbertalan/turing-lobby/internal/handlers"
	"github.com/kmbertalan/turing-lobby/internal/lobby"
	"github.com/kmbertalan/turing-lobby/internal/match"
	"github.com/kmbertalan/turing-lobby/internal/middleware"
	"github.com/kmbertalan/turing-lobby/internal/store"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	if err := auth.Init(); err != nil {
		log.Fatalf("auth init failed: %v", err)
	}

	rdb, err := store.Connect(context.Background())
	if err != nil {
		log.Fatalf("redis connect failed: %v", err)
	}
	st := store.NewRedisStore(rdb)

	inbox := events.NewInbox(st)
	orchestrator := ai.NewOrchestrator(st, inbox, ai.NewGroqClient(), logger)

	lobbies := lobby.NewService(st, logger)
	games := game.NewService(st, inbox, logger, orchestrator)
	matchmaker := match.NewMatchmaker(st, inbox, logger, orchestrator)

	srv := handlers.NewServer(lobbies, games, matchmaker, inbox, logger)

	mux := http.NewServeMux()
	logged := middleware.LogMiddleware(logger)

	mux.Handle("/lobby", logged(http.HandlerFunc(srv.LobbyHandler)))
	mux.Handle("/game", logged(http.HandlerFunc(srv.GameHandler)))
	mux.Handle("/events", logged(http.HandlerFunc(srv.EventsHandler)))
	mux.Handle("/events/ws", logged(handlers.EventsWSHandler(srv, st)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
