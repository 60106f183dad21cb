package auth

import (
	"context"
	"sync"
	"time"
)

// MemorySessionStore is an in-process SessionStore for tests and local
// development. TTLs are honored lazily on read.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	states   map[string]time.Time
}

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: map[string]memoryEntry{},
		states:   map[string]time.Time{},
	}
}

func (s *MemorySessionStore) Save(_ context.Context, sess *Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = memoryEntry{session: *sess, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok || time.Now().After(e.expiresAt) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	cp := e.session
	return &cp, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemorySessionStore) SaveState(_ context.Context, state string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state] = time.Now().Add(ttl)
	return nil
}

func (s *MemorySessionStore) ConsumeState(_ context.Context, state string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.states[state]
	delete(s.states, state)
	return ok && time.Now().Before(exp), nil
}
