package service

import (
	"context"
	"sync"
	"time"

	"github.com/cloo-solutions/docgpt/internal/domain"
	"github.com/google/uuid"
)

// SessionManager owns all live sessions keyed by id.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	profile  domain.Profile
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionManager(profile domain.Profile, ttl time.Duration) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		profile:  profile,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Profile returns the profile every session is created with.
func (m *SessionManager) Profile() domain.Profile {
	return m.profile
}

// Create starts a new session with a random id.
func (m *SessionManager) Create() *Session {
	s := newSessionWithClock(uuid.NewString(), m.profile, m.now)

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s
}

// Get returns the session with the given id.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

// GetOrCreate returns the session for id, creating a fresh one when id is
// unknown. created reports whether a new session was made.
func (m *SessionManager) GetOrCreate(id string) (s *Session, created bool) {
	if id != "" {
		if s, err := m.Get(id); err == nil {
			return s, false
		}
	}
	return m.Create(), true
}

// Delete drops a session. Unknown ids are ignored.
func (m *SessionManager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// EvictIdle removes sessions not touched within the TTL. Sessions that are
// streaming an answer are kept.
func (m *SessionManager) EvictIdle(ctx context.Context) (int, error) {
	if m.ttl <= 0 {
		return 0, nil
	}
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, s := range m.sessions {
		if err := ctx.Err(); err != nil {
			return evicted, err
		}
		if s.State() == StateStreaming {
			continue
		}
		if s.LastSeen().Before(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted, nil
}
