// internal/lobby/service.go
package lobby

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kmbertalan/turing-lobby/internal/models"
	"github.com/kmbertalan/turing-lobby/internal/store"
)

var (
	// ErrNotFound means the lobby code or id resolves to nothing.
	ErrNotFound = errors.New("lobby not found")
	// ErrClosed means the lobby already ran matchmaking and rejects joins.
	ErrClosed = errors.New("lobby is closed")
)

const (
	codeLength       = 6
	codeAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	defaultMaxPlayer = 100
)

// Service manages lobbies and their waiting queues. All state lives in the
// injected store; the service itself is stateless per request.
type Service struct {
	store store.Store
	log   *logrus.Logger

	// newCode is swappable in tests. Codes are short and random; uniqueness
	// is probabilistic (36^6 space against the lobby TTL horizon), not
	// checked. A collision overwrites the code mapping and orphans the older
	// lobby's code.
	newCode func() string
	now     func() time.Time
}

// NewService builds a lobby service over the given store.
func NewService(st store.Store, log *logrus.Logger) *Service {
	return &Service{
		store:   st,
		log:     log,
		newCode: randomCode,
		now:     time.Now,
	}
}

func randomCode() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// CreateResult is returned from Create: the new lobby plus the host's own
// player identity.
type CreateResult struct {
	LobbyID      string
	Code         string
	HostPlayerID string
}

// Create allocates an open lobby, mints its share code and registers the
// host as the lobby's first member.
func (s *Service) Create(ctx context.Context, hostName string) (*CreateResult, error) {
	lobbyID := uuid.NewString()
	code := strings.ToUpper(s.newCode())

	host, err := s.addPlayer(ctx, lobbyID, hostName)
	if err != nil {
		return nil, err
	}

	l := models.Lobby{
		ID:         lobbyID,
		Code:       code,
		CreatedAt:  s.now().UnixMilli(),
		MaxPlayers: defaultMaxPlayer,
		State:      models.LobbyOpen,
		CreatorID:  host.ID,
	}
	if err := store.SaveLobby(ctx, s.store, &l); err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, store.LobbyCodeKey(code), lobbyID, store.LobbyTTL); err != nil {
		return nil, fmt.Errorf("failed to persist code mapping for lobby %s: %w", lobbyID, err)
	}

	s.log.WithFields(logrus.Fields{"lobby": lobbyID, "code": code, "host": host.ID}).Info("lobby created")
	return &CreateResult{LobbyID: lobbyID, Code: code, HostPlayerID: host.ID}, nil
}

// JoinResult is returned from Join.
type JoinResult struct {
	PlayerID string
	LobbyID  string
	Code     string
}

// Join resolves a share code and registers a new player in the lobby.
// Fails with ErrNotFound for an unknown code and ErrClosed once matchmaking
// has run. Codes are case-insensitive.
func (s *Service) Join(ctx context.Context, code, playerName string) (*JoinResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	lobbyID, ok, err := s.store.Get(ctx, store.LobbyCodeKey(code))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve lobby code %s: %w", code, err)
	}
	if !ok {
		return nil, ErrNotFound
	}

	l, err := s.Get(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	if l.State == models.LobbyClosed {
		return nil, ErrClosed
	}

	p, err := s.addPlayer(ctx, lobbyID, playerName)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"lobby": lobbyID, "player": p.ID, "name": p.Name}).Info("player joined lobby")
	return &JoinResult{PlayerID: p.ID, LobbyID: lobbyID, Code: code}, nil
}

// Get loads a lobby record by id.
func (s *Service) Get(ctx context.Context, lobbyID string) (*models.Lobby, error) {
	l, ok, err := store.LoadLobby(ctx, s.store, lobbyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return l, nil
}

// Enqueue adds the player to the lobby's waiting queue. Adding twice is a
// no-op; pairing happens only when the host triggers a matchmaking pass.
func (s *Service) Enqueue(ctx context.Context, lobbyID, playerID string) error {
	key := store.QueueKey(lobbyID)
	if err := s.store.SetAdd(ctx, key, playerID); err != nil {
		return fmt.Errorf("failed to enqueue player %s in lobby %s: %w", playerID, lobbyID, err)
	}
	return s.store.Expire(ctx, key, store.QueueTTL)
}

// QueueSize reports how many players are currently waiting.
func (s *Service) QueueSize(ctx context.Context, lobbyID string) (int64, error) {
	n, err := s.store.SetCard(ctx, store.QueueKey(lobbyID))
	if err != nil {
		return 0, fmt.Errorf("failed to read queue size for lobby %s: %w", lobbyID, err)
	}
	return n, nil
}

// IsHost reports whether playerID created the lobby.
func (s *Service) IsHost(ctx context.Context, lobbyID, playerID string) (bool, error) {
	l, err := s.Get(ctx, lobbyID)
	if err != nil {
		return false, err
	}
	return l.CreatorID == playerID, nil
}

// addPlayer mints a Player record and registers it in the lobby member set.
func (s *Service) addPlayer(ctx context.Context, lobbyID, name string) (*models.Player, error) {
	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("Player %d", rand.Intn(1000))
	}
	p := models.Player{
		ID:      uuid.NewString(),
		Name:    name,
		LobbyID: lobbyID,
	}
	if err := store.SavePlayer(ctx, s.store, &p); err != nil {
		return nil, err
	}
	if err := s.store.SetAdd(ctx, store.LobbyPlayersKey(lobbyID), p.ID); err != nil {
		return nil, fmt.Errorf("failed to register player %s in lobby %s: %w", p.ID, lobbyID, err)
	}
	if err := s.store.Expire(ctx, store.LobbyPlayersKey(lobbyID), store.LobbyTTL); err != nil {
		return nil, err
	}
	return &p, nil
}
