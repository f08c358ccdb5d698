// internal/game/service.go
package game

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kmbertalan/turing-lobby/internal/events"
	"github.com/kmbertalan/turing-lobby/internal/models"
	"github.com/kmbertalan/turing-lobby/internal/store"
)

// ErrNotFound means the session id resolves to nothing (possibly expired).
var ErrNotFound = errors.New("game not found")

// Replier schedules a delayed AI answer to a human message. Implemented by
// the ai.Orchestrator; a nil-safe no-op in tests that don't care.
type Replier interface {
	ScheduleReply(gameID, incoming string)
}

// Service drives the per-session state machine: message append, guess
// collection and terminal resolution. Session records are read-modify-write
// against the store; two near-simultaneous writers race and the later write
// wins.
type Service struct {
	store   store.Store
	channel events.Channel
	log     *logrus.Logger
	replier Replier
	now     func() time.Time
}

// NewService builds a session service. replier may be nil for games that can
// never have an AI slot (not the case in production wiring).
func NewService(st store.Store, ch events.Channel, log *logrus.Logger, replier Replier) *Service {
	return &Service{
		store:   st,
		channel: ch,
		log:     log,
		replier: replier,
		now:     time.Now,
	}
}

// Get loads a session record.
func (s *Service) Get(ctx context.Context, gameID string) (*models.Game, error) {
	g, ok, err := store.LoadGame(ctx, s.store, gameID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return g, nil
}

// SendMessage appends a chat line from senderID and notifies the opponent.
// A human opponent gets a message event; the AI sentinel gets a scheduled
// reply instead. The sender renders its own message optimistically and must
// drop any echo of its own message id.
func (s *Service) SendMessage(ctx context.Context, gameID, senderID, content string) (*models.Message, error) {
	g, err := s.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}

	msg := models.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		SenderName: g.ParticipantName(senderID),
		Content:    content,
		Timestamp:  s.now().UnixMilli(),
	}
	g.Messages = append(g.Messages, msg)
	if err := store.SaveGame(ctx, s.store, g); err != nil {
		return nil, err
	}

	opponentID := g.OpponentID(senderID)
	if opponentID == models.AISenderID {
		if s.replier != nil {
			s.replier.ScheduleReply(g.ID, content)
		}
		return &msg, nil
	}
	if opponentID != "" {
		if err := s.channel.Push(ctx, opponentID, events.TypeMessage, msg); err != nil {
			// The record is already persisted; delivery is best effort.
			s.log.WithError(err).WithField("game", gameID).Warn("failed to deliver message event")
		}
	}
	return &msg, nil
}

// SubmitGuess records a verdict for playerID and recomputes the session
// status. A repeat guess overwrites the previous one and correctness is
// recomputed, even after the session finished (last write wins). Scores
// settle exactly once, on the transition into finished.
func (s *Service) SubmitGuess(ctx context.Context, gameID, playerID string, guess models.Guess) (*models.Game, error) {
	g, err := s.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}

	correct := guess == g.CorrectGuess()
	if playerID == g.Player1ID {
		g.Player1Guess = &guess
		g.Player1Correct = &correct
	} else {
		g.Player2Guess = &guess
		g.Player2Correct = &correct
	}

	p1Guessed := g.Player1Guess != nil
	// The AI never guesses; its side of the condition is always satisfied.
	p2Guessed := g.IsAiGame || g.Player2Guess != nil

	wasFinished := g.Status == models.GameFinished
	if p1Guessed && p2Guessed {
		g.Status = models.GameFinished
		if g.EndedAt == 0 {
			g.EndedAt = s.now().UnixMilli()
		}
	} else {
		g.Status = models.GameGuessing
	}

	if err := store.SaveGame(ctx, s.store, g); err != nil {
		return nil, err
	}

	if g.Status == models.GameFinished && !wasFinished {
		s.settleScores(ctx, g)
	}
	s.pushUpdates(ctx, g)
	return g, nil
}

// settleScores increments score and gamesPlayed for every human participant
// whose recorded guess is correct. The AI sentinel earns nothing.
func (s *Service) settleScores(ctx context.Context, g *models.Game) {
	s.creditIfCorrect(ctx, g.Player1ID, g.Player1Correct)
	if !g.IsAiGame {
		s.creditIfCorrect(ctx, g.Player2ID, g.Player2Correct)
	}
}

func (s *Service) creditIfCorrect(ctx context.Context, playerID string, correct *bool) {
	if correct == nil || !*correct {
		return
	}
	p, ok, err := store.LoadPlayer(ctx, s.store, playerID)
	if err != nil || !ok {
		s.log.WithError(err).WithField("player", playerID).Warn("failed to load player for score settlement")
		return
	}
	p.Score++
	p.GamesPlayed++
	if err := store.SavePlayer(ctx, s.store, p); err != nil {
		s.log.WithError(err).WithField("player", playerID).Warn("failed to persist score")
	}
}

// pushUpdates fans a game-update out to each human participant with their
// own view of the guessing progress.
func (s *Service) pushUpdates(ctx context.Context, g *models.Game) {
	p1Result := s.resultFor(g, g.Player1Guess != nil, g.Player1Correct, g.Player2Correct)
	s.pushUpdate(ctx, g, g.Player1ID, events.GameUpdatePayload{
		YourGuess:       g.Player1Guess,
		OpponentGuessed: g.IsAiGame || g.Player2Guess != nil,
		Result:          p1Result,
	})

	if !g.IsAiGame {
		p2Result := s.resultFor(g, g.Player2Guess != nil, g.Player2Correct, g.Player1Correct)
		s.pushUpdate(ctx, g, g.Player2ID, events.GameUpdatePayload{
			YourGuess:       g.Player2Guess,
			OpponentGuessed: g.Player1Guess != nil,
			Result:          p2Result,
		})
	}
}

// resultFor builds the result object for one participant, or nil if that
// participant has not guessed yet. Opponent correctness is only attached for
// human games once the opponent's guess exists.
func (s *Service) resultFor(g *models.Game, guessed bool, own, opponent *bool) *events.GuessResult {
	if !guessed {
		return nil
	}
	res := &events.GuessResult{
		IsAiGame:   g.IsAiGame,
		YouCorrect: own != nil && *own,
	}
	if !g.IsAiGame && opponent != nil {
		res.OpponentCorrect = opponent
	}
	return res
}

func (s *Service) pushUpdate(ctx context.Context, g *models.Game, playerID string, payload events.GameUpdatePayload) {
	if err := s.channel.Push(ctx, playerID, events.TypeGameUpdate, payload); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"game": g.ID, "player": playerID}).
			Warn("failed to deliver game-update event")
	}
}
