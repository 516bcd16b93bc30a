// Package session provides the in-memory registry of per-operator
// workflow sessions. Sessions live for the process lifetime only.
package session

import (
	"sync"

	"github.com/etpflow/etpflow/internal/domain"
)

// Session tracks one operator's workflow: the conversation stage, the
// requested range and district, the records streamed back by the fetch
// collaborator, and the identifiers eligible for document generation.
type Session struct {
	UserID     int64
	State      domain.ConversationState
	Source     domain.Source
	RangeStart int
	RangeEnd   int
	District   string
	Records    []domain.Record
	Eligible   []string
	Documents  []domain.GeneratedDocument

	mu sync.Mutex
}

// Store is a process-wide registry keyed by operator identity.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewStore creates an empty session registry.
func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// Begin creates a fresh session for the user, replacing any prior one.
func (s *Store) Begin(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := &Session{
		UserID: userID,
		State:  domain.StateSelectSource,
	}
	s.sessions[userID] = sess
	return sess
}

// End destroys the user's session. Ending an absent session is a no-op.
func (s *Store) End(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// With runs fn against the user's session under its per-session lock,
// serializing same-user actions. It reports whether a session existed.
func (s *Store) With(userID int64, fn func(*Session)) bool {
	s.mu.RLock()
	sess, ok := s.sessions[userID]
	s.mu.RUnlock()

	if !ok {
		return false
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	fn(sess)
	return true
}
