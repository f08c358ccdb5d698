// internal/ai/orchestrator.go
package ai

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kmbertalan/turing-lobby/internal/events"
	"github.com/kmbertalan/turing-lobby/internal/models"
	"github.com/kmbertalan/turing-lobby/internal/store"
)

// greetChance is the probability an AI session opens the conversation
// unprompted.
const greetChance = 0.5

// generateTimeout bounds one call to the generation collaborator.
const generateTimeout = 20 * time.Second

// Orchestrator injects AI-authored messages into live sessions without being
// a participant itself. All actions are scheduled, never blocking: the
// triggering request returns immediately and the delayed task re-reads the
// then-current session record, so intervening human activity (or the session
// finishing) is respected. Generation failures are logged and swallowed; the
// human just gets no reply that turn.
type Orchestrator struct {
	store   store.Store
	channel events.Channel
	gen     Generator
	log     *logrus.Logger

	schedule   func(d time.Duration, fn func())
	randFloat  func() float64
	greetDelay func() time.Duration
	replyDelay func(incoming string) time.Duration
	now        func() time.Time
}

// NewOrchestrator builds an orchestrator with production timing: greetings
// fire after 1-3 s, replies after 1-3 s plus a typing-time component scaled
// by the incoming message length.
func NewOrchestrator(st store.Store, ch events.Channel, gen Generator, log *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		store:      st,
		channel:    ch,
		gen:        gen,
		log:        log,
		schedule:   func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
		randFloat:  rand.Float64,
		greetDelay: randomDelay,
		replyDelay: typingDelay,
		now:        time.Now,
	}
}

func randomDelay() time.Duration {
	return time.Second + time.Duration(rand.Int63n(int64(2*time.Second)))
}

// typingDelay adds up to two seconds of simulated typing time on top of the
// base delay, proportional to how much the human just wrote.
func typingDelay(incoming string) time.Duration {
	typing := 25 * time.Millisecond * time.Duration(len([]rune(incoming)))
	if typing > 2*time.Second {
		typing = 2 * time.Second
	}
	return randomDelay() + typing
}

// ScheduleGreeting arms an unsolicited opening message for a fresh AI
// session, with greetChance probability. The fired task aborts if any
// message landed first, so a fast human opener always wins.
func (o *Orchestrator) ScheduleGreeting(g *models.Game) {
	if !g.IsAiGame || g.AIPersonality == "" {
		return
	}
	if o.randFloat() >= greetChance {
		return
	}
	gameID := g.ID
	o.schedule(o.greetDelay(), func() { o.greet(gameID) })
}

func (o *Orchestrator) greet(gameID string) {
	ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	defer cancel()

	g, ok, err := store.LoadGame(ctx, o.store, gameID)
	if err != nil || !ok {
		return
	}
	if g.Status != models.GameActive || len(g.Messages) > 0 {
		return
	}

	content, err := o.gen.GenerateGreeting(ctx, g.AIPersonality)
	if err != nil {
		o.log.WithError(err).WithField("game", gameID).Warn("AI greeting generation failed")
		return
	}
	o.appendAndDeliver(ctx, g, content)
}

// ScheduleReply arms exactly one delayed AI answer to the human message just
// appended to the session.
func (o *Orchestrator) ScheduleReply(gameID, incoming string) {
	o.schedule(o.replyDelay(incoming), func() { o.reply(gameID) })
}

func (o *Orchestrator) reply(gameID string) {
	ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	defer cancel()

	g, ok, err := store.LoadGame(ctx, o.store, gameID)
	if err != nil || !ok {
		return
	}
	// A session that moved past active while this task was pending is left
	// alone; the pending reply discards itself.
	if g.Status != models.GameActive {
		return
	}
	// Never answer twice for one human message: if the latest line is
	// already AI-authored, a racing task got here first.
	if n := len(g.Messages); n == 0 || g.Messages[n-1].SenderID == models.AISenderID {
		return
	}

	content, err := o.gen.GenerateReply(ctx, g.AIPersonality, g.Messages)
	if err != nil {
		o.log.WithError(err).WithField("game", gameID).Warn("AI reply generation failed")
		return
	}
	o.appendAndDeliver(ctx, g, content)
}

func (o *Orchestrator) appendAndDeliver(ctx context.Context, g *models.Game, content string) {
	msg := models.Message{
		ID:         uuid.NewString(),
		SenderID:   models.AISenderID,
		SenderName: g.Player2Name,
		Content:    content,
		Timestamp:  o.now().UnixMilli(),
	}
	g.Messages = append(g.Messages, msg)
	if err := store.SaveGame(ctx, o.store, g); err != nil {
		o.log.WithError(err).WithField("game", g.ID).Warn("failed to persist AI message")
		return
	}
	if err := o.channel.Push(ctx, g.Player1ID, events.TypeMessage, msg); err != nil {
		o.log.WithError(err).WithField("game", g.ID).Warn("failed to deliver AI message event")
	}
}
