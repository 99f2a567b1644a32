package session

import (
	"context"
	"sync"
	"time"
)

type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	now      func() time.Time
	expiry   map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
		expiry:   make(map[string]time.Time),
		now:      time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, userID string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if exp, set := m.expiry[userID]; set && !m.now().Before(exp) {
		delete(m.sessions, userID)
		delete(m.expiry, userID)
		return Session{}, ErrSessionNotFound
	}

	return s, nil
}

func (m *MemoryStore) Save(_ context.Context, s Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.UserID] = s
	if ttl > 0 {
		m.expiry[s.UserID] = m.now().Add(ttl)
	} else {
		delete(m.expiry, s.UserID)
	}

	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, userID)
	delete(m.expiry, userID)

	return nil
}

func (m *MemoryStore) Prune(_ context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pruned := 0
	for id, s := range m.sessions {
		if s.LastTouched.Before(before) {
			delete(m.sessions, id)
			delete(m.expiry, id)
			pruned++
		}
	}

	return pruned, nil
}
