// internal/store/memory.go
package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests. TTLs are recorded but never
// enforced; expiry-dependent behavior is not what unit tests exercise here.
type MemoryStore struct {
	mu      sync.Mutex
	strings map[string]string
	sets    map[string]map[string]struct{}
	lists   map[string][]string
	ttls    map[string]time.Duration
	subs    map[string][]chan string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		strings: make(map[string]string),
		sets:    make(map[string]map[string]struct{}),
		lists:   make(map[string][]string),
		ttls:    make(map[string]time.Duration),
		subs:    make(map[string][]chan string),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.strings[key]
	return val, ok, nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strings[key] = value
	s.ttls[key] = ttl
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.strings, key)
	delete(s.sets, key)
	delete(s.lists, key)
	delete(s.ttls, key)
	return nil
}

func (s *MemoryStore) SetAdd(ctx context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sets[key] == nil {
		s.sets[key] = make(map[string]struct{})
	}
	s.sets[key][member] = struct{}{}
	return nil
}

func (s *MemoryStore) SetMembers(ctx context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := make([]string, 0, len(s.sets[key]))
	for m := range s.sets[key] {
		members = append(members, m)
	}
	return members, nil
}

func (s *MemoryStore) SetRemove(ctx context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range members {
		delete(s.sets[key], m)
	}
	return nil
}

func (s *MemoryStore) SetCard(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.sets[key])), nil
}

func (s *MemoryStore) ListAppend(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[key] = append(s.lists[key], value)
	return nil
}

func (s *MemoryStore) ListRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.lists[key]
	n := int64(len(list))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if start >= n || stop < start {
		return nil, nil
	}
	if stop >= n {
		stop = n - 1
	}
	out := make([]string, stop-start+1)
	copy(out, list[start:stop+1])
	return out, nil
}

func (s *MemoryStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ttls[key] = ttl
	return nil
}

func (s *MemoryStore) Publish(ctx context.Context, channel, payload string) error {
	s.mu.Lock()
	subs := append([]chan string(nil), s.subs[channel]...)
	s.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- payload:
		default: // slow subscriber, drop
		}
	}
	return nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, channel string) (<-chan string, func(), error) {
	ch := make(chan string, 16)
	s.mu.Lock()
	s.subs[channel] = append(s.subs[channel], ch)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		subs := s.subs[channel]
		for i, c := range subs {
			if c == ch {
				s.subs[channel] = append(subs[:i], subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel, nil
}

// TTL reports the last retention set for a key, for test assertions.
func (s *MemoryStore) TTL(key string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ttls[key]
}
