package session

import (
	"sync"
	"time"
)

// DefaultCapacity bounds the store when no capacity is configured.
const DefaultCapacity = 100

// Clock returns the current time. Injected for eviction tests.
type Clock func() time.Time

// Store is a thread-safe, capacity-bounded registry of session state.
//
// Different sessions run independently under a single RWMutex; a session
// receiving overlapping turns is serialized through Update, giving
// last-write-wins per field without multi-field transactionality.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Context
	capacity int
	now      Clock
}

// Option configures a Store.
type Option func(*Store)

// WithClock injects a clock. Defaults to time.Now.
func WithClock(now Clock) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a session store bounded to capacity sessions.
// A non-positive capacity falls back to DefaultCapacity.
func NewStore(capacity int, opts ...Option) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s := &Store{
		sessions: make(map[string]*Context),
		capacity: capacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCreate returns a copy of the session's state, creating a fresh
// context on first reference. Never fails; inserting at capacity evicts
// the session with the oldest interaction time.
func (s *Store) GetOrCreate(sessionID string) *Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateLocked(sessionID).clone()
}

// Touch marks the session as recently used, creating it if needed.
func (s *Store) Touch(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreateLocked(sessionID).LastInteraction = s.now()
}

// Update applies fn to the session's state under the store lock,
// creating the session if needed. fn must not retain the *Context.
func (s *Store) Update(sessionID string, fn func(*Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.getOrCreateLocked(sessionID))
}

// Snapshot returns a copy of the session's state without creating it.
func (s *Store) Snapshot(sessionID string) (*Context, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return sc.clone(), true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// getOrCreateLocked returns the owned context, evicting if an insert
// would exceed capacity. Caller must hold the write lock.
func (s *Store) getOrCreateLocked(sessionID string) *Context {
	if sc, ok := s.sessions[sessionID]; ok {
		return sc
	}
	if len(s.sessions) >= s.capacity {
		s.evictOldestLocked()
	}
	sc := &Context{
		ID:              sessionID,
		LastInteraction: s.now(),
	}
	s.sessions[sessionID] = sc
	return sc
}

// evictOldestLocked drops the session with the oldest interaction time.
func (s *Store) evictOldestLocked() {
	var oldestID string
	var oldestTime time.Time
	first := true
	for id, sc := range s.sessions {
		if first || sc.LastInteraction.Before(oldestTime) {
			oldestID = id
			oldestTime = sc.LastInteraction
			first = false
		}
	}
	if oldestID != "" {
		delete(s.sessions, oldestID)
	}
}
