// internal/game/service_test.go
package game

import (
	"context"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmbertalan/turing-lobby/internal/events"
	"github.com/kmbertalan/turing-lobby/internal/models"
	"github.com/kmbertalan/turing-lobby/internal/store"
)

// recorderChannel collects pushed events instead of delivering them.
type recorderChannel struct {
	mu     sync.Mutex
	pushes []recordedPush
}

type recordedPush struct {
	playerID string
	typ      events.Type
	payload  interface{}
}

func (r *recorderChannel) Push(_ context.Context, playerID string, typ events.Type, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes = append(r.pushes, recordedPush{playerID: playerID, typ: typ, payload: payload})
	return nil
}

func (r *recorderChannel) forPlayer(playerID string) []recordedPush {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedPush
	for _, p := range r.pushes {
		if p.playerID == playerID {
			out = append(out, p)
		}
	}
	return out
}

func (r *recorderChannel) lastUpdateFor(t *testing.T, playerID string) events.GameUpdatePayload {
	t.Helper()
	pushes := r.forPlayer(playerID)
	for i := len(pushes) - 1; i >= 0; i-- {
		if pushes[i].typ == events.TypeGameUpdate {
			return pushes[i].payload.(events.GameUpdatePayload)
		}
	}
	t.Fatalf("no game-update pushed for player %s", playerID)
	return events.GameUpdatePayload{}
}

// recorderReplier records scheduled AI replies.
type recorderReplier struct {
	calls []string
}

func (r *recorderReplier) ScheduleReply(gameID, _ string) {
	r.calls = append(r.calls, gameID)
}

func setupTestGame(t *testing.T, isAI bool) (*Service, *store.MemoryStore, *recorderChannel, *recorderReplier, *models.Game) {
	t.Helper()
	st := store.NewMemoryStore()
	ch := &recorderChannel{}
	rep := &recorderReplier{}
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	svc := NewService(st, ch, log, rep)

	ctx := context.Background()
	p1 := &models.Player{ID: "p1", Name: "Alice", LobbyID: "l1"}
	require.NoError(t, store.SavePlayer(ctx, st, p1))

	g := &models.Game{
		ID:          "g1",
		LobbyID:     "l1",
		Player1ID:   "p1",
		Player1Name: "Alice",
		Messages:    []models.Message{},
		Status:      models.GameActive,
	}
	if isAI {
		g.Player2ID = models.AISenderID
		g.Player2Name = "AI"
		g.IsAiGame = true
		g.AIPersonality = models.PersonalityNormal
	} else {
		g.Player2ID = "p2"
		g.Player2Name = "Bob"
		p2 := &models.Player{ID: "p2", Name: "Bob", LobbyID: "l1"}
		require.NoError(t, store.SavePlayer(ctx, st, p2))
	}
	require.NoError(t, store.SaveGame(ctx, st, g))
	return svc, st, ch, rep, g
}

func TestSendMessageRoundTrip(t *testing.T) {
	svc, _, ch, _, g := setupTestGame(t, false)
	ctx := context.Background()

	m1, err := svc.SendMessage(ctx, g.ID, "p1", "hello")
	require.NoError(t, err)
	m2, err := svc.SendMessage(ctx, g.ID, "p2", "hi back")
	require.NoError(t, err)

	got, err := svc.Get(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, m1.ID, got.Messages[0].ID)
	assert.Equal(t, "hello", got.Messages[0].Content)
	assert.Equal(t, "p1", got.Messages[0].SenderID)
	assert.Equal(t, m2.ID, got.Messages[1].ID)
	assert.Equal(t, "hi back", got.Messages[1].Content)

	// each message landed as an event for the opponent only
	p2Events := ch.forPlayer("p2")
	require.Len(t, p2Events, 1)
	assert.Equal(t, events.TypeMessage, p2Events[0].typ)
	assert.Equal(t, "hello", p2Events[0].payload.(models.Message).Content)

	p1Events := ch.forPlayer("p1")
	require.Len(t, p1Events, 1)
	assert.Equal(t, "hi back", p1Events[0].payload.(models.Message).Content)
}

func TestSendMessageToAISchedulesReply(t *testing.T) {
	svc, _, ch, rep, g := setupTestGame(t, true)

	_, err := svc.SendMessage(context.Background(), g.ID, "p1", "hi")
	require.NoError(t, err)

	assert.Equal(t, []string{g.ID}, rep.calls)
	// no delivery event for the sentinel
	assert.Empty(t, ch.pushes)
}

func TestSendMessageUnknownGame(t *testing.T) {
	svc, _, _, _, _ := setupTestGame(t, false)

	_, err := svc.SendMessage(context.Background(), "nope", "p1", "hi")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGuessOverwriteLastWins(t *testing.T) {
	svc, _, _, _, g := setupTestGame(t, true)
	ctx := context.Background()

	_, err := svc.SubmitGuess(ctx, g.ID, "p1", models.GuessHuman)
	require.NoError(t, err)
	got, err := svc.SubmitGuess(ctx, g.ID, "p1", models.GuessAI)
	require.NoError(t, err)

	require.NotNil(t, got.Player1Guess)
	assert.Equal(t, models.GuessAI, *got.Player1Guess)
	require.NotNil(t, got.Player1Correct)
	assert.True(t, *got.Player1Correct)
	assert.Nil(t, got.Player2Guess)
}

func TestAIGameFinishesOnSingleGuess(t *testing.T) {
	svc, st, ch, _, g := setupTestGame(t, true)
	ctx := context.Background()

	got, err := svc.SubmitGuess(ctx, g.ID, "p1", models.GuessAI)
	require.NoError(t, err)

	assert.Equal(t, models.GameFinished, got.Status)
	assert.NotZero(t, got.EndedAt)

	p1, ok, err := store.LoadPlayer(ctx, st, "p1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, p1.Score)
	assert.Equal(t, 1, p1.GamesPlayed)

	upd := ch.lastUpdateFor(t, "p1")
	require.NotNil(t, upd.YourGuess)
	assert.Equal(t, models.GuessAI, *upd.YourGuess)
	assert.True(t, upd.OpponentGuessed)
	require.NotNil(t, upd.Result)
	assert.True(t, upd.Result.IsAiGame)
	assert.True(t, upd.Result.YouCorrect)
	assert.Nil(t, upd.Result.OpponentCorrect)

	// the sentinel never receives events
	assert.Empty(t, ch.forPlayer(models.AISenderID))
}

func TestHumanGameWaitsForBothGuesses(t *testing.T) {
	svc, st, ch, _, g := setupTestGame(t, false)
	ctx := context.Background()

	got, err := svc.SubmitGuess(ctx, g.ID, "p1", models.GuessHuman)
	require.NoError(t, err)
	assert.Equal(t, models.GameGuessing, got.Status)
	assert.Zero(t, got.EndedAt)

	// p1 sees their own result already, without opponent correctness
	upd1 := ch.lastUpdateFor(t, "p1")
	assert.False(t, upd1.OpponentGuessed)
	require.NotNil(t, upd1.Result)
	assert.True(t, upd1.Result.YouCorrect)
	assert.Nil(t, upd1.Result.OpponentCorrect)

	// p2 sees that the opponent guessed but has no result yet
	upd2 := ch.lastUpdateFor(t, "p2")
	assert.True(t, upd2.OpponentGuessed)
	assert.Nil(t, upd2.Result)

	// no scores settle while guessing
	p1, _, err := store.LoadPlayer(ctx, st, "p1")
	require.NoError(t, err)
	assert.Zero(t, p1.Score)

	got, err = svc.SubmitGuess(ctx, g.ID, "p2", models.GuessAI) // wrong
	require.NoError(t, err)
	assert.Equal(t, models.GameFinished, got.Status)
	assert.NotZero(t, got.EndedAt)

	p1, _, err = store.LoadPlayer(ctx, st, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, p1.Score)
	p2, _, err := store.LoadPlayer(ctx, st, "p2")
	require.NoError(t, err)
	assert.Zero(t, p2.Score)
	assert.Zero(t, p2.GamesPlayed)

	upd2 = ch.lastUpdateFor(t, "p2")
	require.NotNil(t, upd2.Result)
	assert.False(t, upd2.Result.YouCorrect)
	require.NotNil(t, upd2.Result.OpponentCorrect)
	assert.True(t, *upd2.Result.OpponentCorrect)
}

// A guess after finished is accepted and recomputed (last write wins), but
// scores settle only once, on the transition into finished.
func TestPostFinishGuessRecomputed(t *testing.T) {
	svc, st, _, _, g := setupTestGame(t, true)
	ctx := context.Background()

	_, err := svc.SubmitGuess(ctx, g.ID, "p1", models.GuessAI)
	require.NoError(t, err)

	got, err := svc.SubmitGuess(ctx, g.ID, "p1", models.GuessHuman)
	require.NoError(t, err)
	assert.Equal(t, models.GameFinished, got.Status)
	require.NotNil(t, got.Player1Correct)
	assert.False(t, *got.Player1Correct)

	p1, _, err := store.LoadPlayer(ctx, st, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, p1.Score) // unchanged by the rewrite
}

// Documents the baseline concurrency model: whole-record read-modify-write,
// last write wins. A stale snapshot persisted after a newer append silently
// drops that append.
func TestStaleWriteLastWins(t *testing.T) {
	svc, st, _, _, g := setupTestGame(t, false)
	ctx := context.Background()

	stale, err := svc.Get(ctx, g.ID)
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, g.ID, "p1", "first")
	require.NoError(t, err)

	require.NoError(t, store.SaveGame(ctx, st, stale))

	got, err := svc.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Messages)
}
