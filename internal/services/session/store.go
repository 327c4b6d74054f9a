package session

import (
	"sync"

	domain "poise/internal/domain/session"
	"poise/pkg/errors"
)

// Store is the in-memory registry of live sessions. It only guards the
// registry map; per-session state is serialized by the session's own
// mutex.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

// NewStore creates an empty session registry
func NewStore() *Store {
	return &Store{sessions: make(map[string]*domain.Session)}
}

// Create registers a new session. Returns ErrDuplicateSession if the ID
// is already registered.
func (s *Store) Create(sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sess.ID]; ok {
		return errors.Wrapf(errors.ErrDuplicateSession, "session %s", sess.ID)
	}
	s.sessions[sess.ID] = sess
	return nil
}

// Get returns the session with the given ID
func (s *Store) Get(id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrSessionNotFound, "session %s", id)
	}
	return sess, nil
}

// Delete removes a session from the registry. Deleting an unknown ID is
// a no-op so cleanup stays idempotent.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Range calls fn for each registered session. The snapshot is taken
// under the read lock; fn runs without it.
func (s *Store) Range(fn func(*domain.Session)) {
	s.mu.RLock()
	snapshot := make([]*domain.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		snapshot = append(snapshot, sess)
	}
	s.mu.RUnlock()

	for _, sess := range snapshot {
		fn(sess)
	}
}

// Count returns the number of registered sessions
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
