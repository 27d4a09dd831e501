package simulation

import (
	"sync"
)

// Store maps user ids to their current session.
// Entries are never evicted; the store grows with the number of distinct users.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the session of userID.
// An unseen user gets create(nil). A seen user gets create(prev) when renew
// reports a new visit, otherwise the existing session is returned unchanged.
func (s *Store) GetOrCreate(userID string, renew func() bool, create func(prev *Session) *Session) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.sessions[userID]
	if ok && !renew() {
		return prev
	}

	next := create(prev)
	if !ok {
		s.order = append(s.order, userID)
	}
	s.sessions[userID] = next
	return next
}

// Get returns the session of userID, if any
func (s *Store) Get(userID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

// Put inserts or replaces a session
func (s *Store) Put(userID string, sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[userID]; !ok {
		s.order = append(s.order, userID)
	}
	s.sessions[userID] = sess
}

// UserIDs returns every known user id in first-seen order
func (s *Store) UserIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Len returns the number of known users
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Stats returns the number of users and the number of items in all carts.
// Sessions are mutated outside the store lock; callers must hold off writers.
func (s *Store) Stats() (users int, cartItems int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		cartItems += len(sess.CartItems)
	}
	return len(s.sessions), cartItems
}
