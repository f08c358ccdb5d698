// internal/lobby/service_test.go
package lobby

import (
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmbertalan/turing-lobby/internal/models"
	"github.com/kmbertalan/turing-lobby/internal/store"
)

func newTestService() (*Service, *store.MemoryStore) {
	st := store.NewMemoryStore()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewService(st, log), st
}

func TestCreateLobby(t *testing.T) {
	s, st := newTestService()
	ctx := context.Background()

	res, err := s.Create(ctx, "Alice")
	require.NoError(t, err)
	require.NotEmpty(t, res.LobbyID)
	require.Len(t, res.Code, 6)

	l, err := s.Get(ctx, res.LobbyID)
	require.NoError(t, err)
	assert.Equal(t, models.LobbyOpen, l.State)
	assert.Equal(t, res.HostPlayerID, l.CreatorID)
	assert.Equal(t, res.Code, l.Code)

	host, ok, err := store.LoadPlayer(ctx, st, res.HostPlayerID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Alice", host.Name)
	assert.Equal(t, res.LobbyID, host.LobbyID)

	isHost, err := s.IsHost(ctx, res.LobbyID, res.HostPlayerID)
	require.NoError(t, err)
	assert.True(t, isHost)
}

func TestJoinLobbyCaseInsensitive(t *testing.T) {
	s, st := newTestService()
	ctx := context.Background()

	created, err := s.Create(ctx, "Host")
	require.NoError(t, err)

	j1, err := s.Join(ctx, created.Code, "Bob")
	require.NoError(t, err)
	// lower-cased code must resolve to the same lobby
	j2, err := s.Join(ctx, "  "+strings.ToLower(created.Code)+" ", "Carol")
	require.NoError(t, err)

	assert.Equal(t, created.LobbyID, j1.LobbyID)
	assert.Equal(t, created.LobbyID, j2.LobbyID)
	assert.NotEqual(t, j1.PlayerID, j2.PlayerID)

	members, err := st.SetMembers(ctx, store.LobbyPlayersKey(created.LobbyID))
	require.NoError(t, err)
	assert.Len(t, members, 3) // host + two joiners
}

func TestJoinUnknownCode(t *testing.T) {
	s, _ := newTestService()

	_, err := s.Join(context.Background(), "ZZZZZZ", "Bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJoinClosedLobby(t *testing.T) {
	s, st := newTestService()
	ctx := context.Background()

	created, err := s.Create(ctx, "Host")
	require.NoError(t, err)

	l, err := s.Get(ctx, created.LobbyID)
	require.NoError(t, err)
	l.State = models.LobbyClosed
	require.NoError(t, store.SaveLobby(ctx, st, l))

	before, err := st.SetCard(ctx, store.LobbyPlayersKey(created.LobbyID))
	require.NoError(t, err)

	_, err = s.Join(ctx, created.Code, "Late")
	assert.ErrorIs(t, err, ErrClosed)

	// no Player record is allocated for a rejected join
	after, err := st.SetCard(ctx, store.LobbyPlayersKey(created.LobbyID))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestEnqueueIdempotent(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	created, err := s.Create(ctx, "Host")
	require.NoError(t, err)

	require.NoError(t, s.Enqueue(ctx, created.LobbyID, "p1"))
	require.NoError(t, s.Enqueue(ctx, created.LobbyID, "p1"))
	require.NoError(t, s.Enqueue(ctx, created.LobbyID, "p2"))

	n, err := s.QueueSize(ctx, created.LobbyID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestDefaultPlayerName(t *testing.T) {
	s, st := newTestService()
	ctx := context.Background()

	created, err := s.Create(ctx, "Host")
	require.NoError(t, err)

	j, err := s.Join(ctx, created.Code, "   ")
	require.NoError(t, err)

	p, ok, err := store.LoadPlayer(ctx, st, j.PlayerID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Regexp(t, `^Player \d+$`, p.Name)
}
