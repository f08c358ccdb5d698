// internal/match/matchmaker.go
package match

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kmbertalan/turing-lobby/internal/events"
	"github.com/kmbertalan/turing-lobby/internal/models"
	"github.com/kmbertalan/turing-lobby/internal/store"
)

// ErrInsufficientPlayers means the queue held fewer than two members; the
// queue is left untouched in that case.
var ErrInsufficientPlayers = errors.New("need at least 2 players to trigger match")

// AIChance is the per-player probability of being matched against the AI
// rather than another human.
const AIChance = 0.5

// settleDelay gives freshly notified clients a moment to establish their
// event subscription before game-start lands.
const settleDelay = time.Second

// Greeter lets the matchmaker hand freshly created AI sessions to the turn
// orchestrator for a possible unsolicited opening message.
type Greeter interface {
	ScheduleGreeting(g *models.Game)
}

// Result summarizes one matchmaking pass.
type Result struct {
	GamesCreated   int `json:"gamesCreated"`
	PlayersMatched int `json:"playersMatched"`
}

// Matchmaker drains a lobby queue into sessions. The random inputs (shuffle,
// AI draw, personality pick) and the delayed fan-out are injectable so tests
// can pin the pairing logic without touching randomness or wall clocks.
type Matchmaker struct {
	store   store.Store
	channel events.Channel
	log     *logrus.Logger
	greeter Greeter

	Shuffle         func([]string)
	AIDraw          func() bool
	PickPersonality func() models.Personality
	Schedule        func(d time.Duration, fn func())
	now             func() time.Time
}

// NewMatchmaker builds a matchmaker with production randomness. greeter may
// be nil, in which case AI sessions simply never open the conversation.
func NewMatchmaker(st store.Store, ch events.Channel, log *logrus.Logger, greeter Greeter) *Matchmaker {
	return &Matchmaker{
		store:   st,
		channel: ch,
		log:     log,
		greeter: greeter,
		Shuffle: func(ids []string) {
			rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		},
		AIDraw: func() bool { return rand.Float64() < AIChance },
		PickPersonality: func() models.Personality {
			return models.Personalities[rand.Intn(len(models.Personalities))]
		},
		Schedule: func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
		now:      time.Now,
	}
}

// Trigger runs one matchmaking pass for the lobby:
//
//  1. drain the queue (read then delete; an enqueue racing the drain is an
//     accepted loss, one landing after it waits for a future pass),
//  2. close the lobby against further joins,
//  3. shuffle, then split members into an AI pool and a human pool by
//     independent AIChance draws,
//  4. if the human pool is odd, move its last member to the AI pool so
//     nobody is left unpaired,
//  5. create the sessions and, after a short settle delay, fan game-start
//     out to every human participant.
func (m *Matchmaker) Trigger(ctx context.Context, lobbyID string) (*Result, error) {
	queueKey := store.QueueKey(lobbyID)
	members, err := m.store.SetMembers(ctx, queueKey)
	if err != nil {
		return nil, err
	}
	if len(members) < 2 {
		return nil, ErrInsufficientPlayers
	}
	if err := m.store.Delete(ctx, queueKey); err != nil {
		return nil, err
	}

	m.closeLobby(ctx, lobbyID)

	m.Shuffle(members)

	var aiPool, humanPool []string
	for _, id := range members {
		if m.AIDraw() {
			aiPool = append(aiPool, id)
		} else {
			humanPool = append(humanPool, id)
		}
	}
	if len(humanPool)%2 == 1 {
		last := humanPool[len(humanPool)-1]
		humanPool = humanPool[:len(humanPool)-1]
		aiPool = append(aiPool, last)
	}

	var games []*models.Game
	for _, playerID := range aiPool {
		g, err := m.createAIGame(ctx, lobbyID, playerID)
		if err != nil {
			m.log.WithError(err).WithField("player", playerID).Warn("skipping AI pairing")
			continue
		}
		games = append(games, g)
	}
	for i := 0; i+1 < len(humanPool); i += 2 {
		g, err := m.createHumanGame(ctx, lobbyID, humanPool[i], humanPool[i+1])
		if err != nil {
			m.log.WithError(err).Warn("skipping human pairing")
			continue
		}
		games = append(games, g)
	}

	m.Schedule(settleDelay, func() { m.announce(context.Background(), games) })

	for _, g := range games {
		if g.IsAiGame && m.greeter != nil {
			m.greeter.ScheduleGreeting(g)
		}
	}

	m.log.WithFields(logrus.Fields{"lobby": lobbyID, "games": len(games)}).Info("matchmaking pass complete")
	return &Result{GamesCreated: len(games), PlayersMatched: len(games) * 2}, nil
}

// closeLobby flips the lobby to closed so late joins are rejected. A missing
// lobby record is tolerated; the queue alone drives the pass.
func (m *Matchmaker) closeLobby(ctx context.Context, lobbyID string) {
	l, ok, err := store.LoadLobby(ctx, m.store, lobbyID)
	if err != nil || !ok {
		if err != nil {
			m.log.WithError(err).WithField("lobby", lobbyID).Warn("failed to load lobby for close")
		}
		return
	}
	l.State = models.LobbyClosed
	if err := store.SaveLobby(ctx, m.store, l); err != nil {
		m.log.WithError(err).WithField("lobby", lobbyID).Warn("failed to close lobby")
	}
}

func (m *Matchmaker) createAIGame(ctx context.Context, lobbyID, playerID string) (*models.Game, error) {
	p, ok, err := store.LoadPlayer(ctx, m.store, playerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("queued player record expired")
	}

	g := &models.Game{
		ID:            uuid.NewString(),
		LobbyID:       lobbyID,
		Player1ID:     playerID,
		Player2ID:     models.AISenderID,
		Player1Name:   p.Name,
		Player2Name:   "AI",
		IsAiGame:      true,
		AIPersonality: m.PickPersonality(),
		Messages:      []models.Message{},
		StartedAt:     m.now().UnixMilli(),
		Status:        models.GameActive,
	}
	if err := store.SaveGame(ctx, m.store, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (m *Matchmaker) createHumanGame(ctx context.Context, lobbyID, p1ID, p2ID string) (*models.Game, error) {
	p1, ok1, err := store.LoadPlayer(ctx, m.store, p1ID)
	if err != nil {
		return nil, err
	}
	p2, ok2, err := store.LoadPlayer(ctx, m.store, p2ID)
	if err != nil {
		return nil, err
	}
	if !ok1 || !ok2 {
		return nil, errors.New("queued player record expired")
	}

	g := &models.Game{
		ID:          uuid.NewString(),
		LobbyID:     lobbyID,
		Player1ID:   p1ID,
		Player2ID:   p2ID,
		Player1Name: p1.Name,
		Player2Name: p2.Name,
		IsAiGame:    false,
		Messages:    []models.Message{},
		StartedAt:   m.now().UnixMilli(),
		Status:      models.GameActive,
	}
	if err := store.SaveGame(ctx, m.store, g); err != nil {
		return nil, err
	}
	return g, nil
}

// announce pushes game-start to every human participant. AI games show "AI"
// as the opponent; human games show the counterpart's real name.
func (m *Matchmaker) announce(ctx context.Context, games []*models.Game) {
	for _, g := range games {
		opponentName := "AI"
		if !g.IsAiGame {
			opponentName = g.Player2Name
		}
		m.push(ctx, g.Player1ID, events.GameStartPayload{
			GameID:       g.ID,
			OpponentName: opponentName,
			IsAiGame:     g.IsAiGame,
		})
		if !g.IsAiGame {
			m.push(ctx, g.Player2ID, events.GameStartPayload{
				GameID:       g.ID,
				OpponentName: g.Player1Name,
				IsAiGame:     false,
			})
		}
	}
}

func (m *Matchmaker) push(ctx context.Context, playerID string, payload events.GameStartPayload) {
	if err := m.channel.Push(ctx, playerID, events.TypeGameStart, payload); err != nil {
		m.log.WithError(err).WithField("player", playerID).Warn("failed to deliver game-start event")
	}
}
