package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/teamfinder/internal/dependencies/clock"
	"github.com/mcoot/teamfinder/internal/model"
	"github.com/mcoot/teamfinder/internal/session"
)

// Store is an in-process session store with lazy TTL eviction
type Store struct {
	mu       sync.RWMutex
	sessions map[model.PlayerID]*session.Session
	clock    clock.Clock
	ttl      time.Duration
}

// New creates a new memory session store
func New(clk clock.Clock, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	return &Store{
		sessions: make(map[model.PlayerID]*session.Session),
		clock:    clk,
		ttl:      ttl,
	}
}

var _ session.Store = (*Store)(nil)

func (m *Store) Get(ctx context.Context, id model.PlayerID) (*session.Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return &session.Session{}, nil
	}
	if m.expired(s) {
		m.mu.Lock()
		// Re-check under the write lock; a concurrent Save may have refreshed it
		if cur, ok := m.sessions[id]; ok && m.expired(cur) {
			delete(m.sessions, id)
		}
		m.mu.Unlock()
		return &session.Session{}, nil
	}
	return s.Clone(), nil
}

func (m *Store) Save(ctx context.Context, id model.PlayerID, s *session.Session) error {
	cp := s.Clone()
	cp.UpdatedAt = m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = cp
	return nil
}

func (m *Store) Delete(ctx context.Context, id model.PlayerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Sweep drops every expired session and returns how many were removed
func (m *Store) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx ends
func (m *Store) Run(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				logger.Debug("expired sessions swept", slog.Int("count", n))
			}
		}
	}
}

// Len returns the number of stored sessions, expired ones included
func (m *Store) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Store) expired(s *session.Session) bool {
	return m.clock.Now().Sub(s.UpdatedAt) >= m.ttl
}
