package memory

import (
	"sync"

	"club-trivia-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRegistry.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Machine
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Machine),
	}
}

func (s *SessionStore) Put(sessionID string, m *app.Machine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = m
}

func (s *SessionStore) Get(sessionID string) (*app.Machine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.sessions[sessionID]
	return m, ok
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}
