// internal/events/inbox_test.go
package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmbertalan/turing-lobby/internal/models"
	"github.com/kmbertalan/turing-lobby/internal/store"
)

func TestPushAndPoll(t *testing.T) {
	st := store.NewMemoryStore()
	in := NewInbox(st)
	ctx := context.Background()

	msg := models.Message{ID: "m1", SenderID: "p2", Content: "hello", Timestamp: 42}
	require.NoError(t, in.Push(ctx, "p1", TypeMessage, msg))
	require.NoError(t, in.Push(ctx, "p1", TypeGameStart, GameStartPayload{GameID: "g1", OpponentName: "AI", IsAiGame: true}))

	evs, next, err := in.Events(ctx, "p1", 0)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, int64(2), next)

	// push order is preserved and payloads decode to their concrete types
	assert.Equal(t, TypeMessage, evs[0].Type)
	got, ok := evs[0].Payload.(models.Message)
	require.True(t, ok)
	assert.Equal(t, "hello", got.Content)
	assert.NotEmpty(t, evs[0].ID)
	assert.NotZero(t, evs[0].CreatedAt)

	start, ok := evs[1].Payload.(GameStartPayload)
	require.True(t, ok)
	assert.True(t, start.IsAiGame)
	assert.Equal(t, "AI", start.OpponentName)

	// the cursor is monotonic: nothing new means an empty page, same cursor
	evs, next2, err := in.Events(ctx, "p1", next)
	require.NoError(t, err)
	assert.Empty(t, evs)
	assert.Equal(t, next, next2)
}

func TestPushRefreshesInboxTTL(t *testing.T) {
	st := store.NewMemoryStore()
	in := NewInbox(st)

	require.NoError(t, in.Push(context.Background(), "p1", TypeMessage, models.Message{ID: "m1"}))
	assert.Equal(t, store.EventsTTL, st.TTL(store.PlayerEventsKey("p1")))
}

func TestPushFansOutToSubscriber(t *testing.T) {
	st := store.NewMemoryStore()
	in := NewInbox(st)
	ctx := context.Background()

	ch, cancel, err := st.Subscribe(ctx, store.PlayerEventsKey("p1"))
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, in.Push(ctx, "p1", TypeMessage, models.Message{ID: "m1", Content: "hi"}))

	raw := <-ch
	ev, err := Decode([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, TypeMessage, ev.Type)
	assert.Equal(t, "hi", ev.Payload.(models.Message).Content)
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"id":"x","type":"bogus","payload":{},"createdAt":1}`))
	assert.Error(t, err)
}

func TestGameUpdatePayloadRoundTrip(t *testing.T) {
	st := store.NewMemoryStore()
	in := NewInbox(st)
	ctx := context.Background()

	guess := models.GuessAI
	correct := true
	require.NoError(t, in.Push(ctx, "p1", TypeGameUpdate, GameUpdatePayload{
		YourGuess:       &guess,
		OpponentGuessed: true,
		Result:          &GuessResult{IsAiGame: false, YouCorrect: true, OpponentCorrect: &correct},
	}))

	evs, _, err := in.Events(ctx, "p1", 0)
	require.NoError(t, err)
	require.Len(t, evs, 1)

	upd, ok := evs[0].Payload.(GameUpdatePayload)
	require.True(t, ok)
	require.NotNil(t, upd.YourGuess)
	assert.Equal(t, models.GuessAI, *upd.YourGuess)
	require.NotNil(t, upd.Result)
	assert.True(t, upd.Result.YouCorrect)
	require.NotNil(t, upd.Result.OpponentCorrect)
	assert.True(t, *upd.Result.OpponentCorrect)
}
