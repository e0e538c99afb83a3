package session

import (
	"context"
	"sync"
	"time"

	"github.com/edvin/hostpanel/internal/platform"
)

// Memory keeps sessions in process. Expired entries are dropped lazily on
// lookup.
type Memory struct {
	clock platform.Clock
	ttl   time.Duration

	mu       sync.Mutex
	sessions map[string]Session
}

var _ Store = (*Memory)(nil)

func NewMemory(clock platform.Clock, ttl time.Duration) *Memory {
	return &Memory{clock: clock, ttl: ttl, sessions: make(map[string]Session)}
}

func (m *Memory) Create(_ context.Context, userID int64) (*Session, error) {
	now := m.clock.Now()
	s := Session{
		Token:     platform.RandomToken(tokenBytes),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	m.mu.Lock()
	m.sessions[s.Token] = s
	m.mu.Unlock()
	return &s, nil
}

func (m *Memory) Get(_ context.Context, token string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, ErrNotFound
	}
	if !m.clock.Now().Before(s.ExpiresAt) {
		delete(m.sessions, token)
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *Memory) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
	return nil
}
