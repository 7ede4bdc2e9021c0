package dialog

import (
	"sync"

	"github.com/soyeahso/kinobot/internal/domain"
)

// SessionStore holds active sessions keyed by user. Sessions for
// different users never contend; events racing for the same user (e.g. a
// duplicate button press) are serialized through Lock so updates are
// never lost or torn.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[domain.UserKey]*Session
	locks    map[domain.UserKey]*sync.Mutex
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[domain.UserKey]*Session),
		locks:    make(map[domain.UserKey]*sync.Mutex),
	}
}

// Lock acquires the per-user mutex and returns its release func. Lock
// entries outlive their sessions so a cancel racing a restart still
// serializes.
func (s *SessionStore) Lock(key domain.UserKey) func() {
	s.mu.Lock()
	m, ok := s.locks[key]
	if !ok {
		m = &sync.Mutex{}
		s.locks[key] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Get returns the session for a key, or nil if the user has no active
// dialog.
func (s *SessionStore) Get(key domain.UserKey) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[key]
}

// Put stores (or replaces) a session.
func (s *SessionStore) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Key] = sess
}

// Delete destroys the session for a key. Called on entry to a terminal
// state.
func (s *SessionStore) Delete(key domain.UserKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
}

// Count returns the number of active sessions.
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
