package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store keeps per-browser controllers keyed by session ID. Idle sessions are
// reaped by [Store.Sweep]; their players are stopped on the way out.
type Store struct {
	factory func() *Controller

	mu       sync.Mutex
	sessions map[string]*Controller
}

// NewStore creates a Store that builds controllers with factory.
func NewStore(factory func() *Controller) *Store {
	return &Store{
		factory:  factory,
		sessions: make(map[string]*Controller),
	}
}

// Create makes a fresh controller and returns its ID.
func (s *Store) Create() (string, *Controller) {
	id := uuid.NewString()
	c := s.factory()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = c
	return id, c
}

// Get returns the controller for id, if it exists.
func (s *Store) Get(id string) (*Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.sessions[id]
	return c, ok
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes sessions idle longer than maxIdle and stops their playback.
// Returns how many sessions were removed.
func (s *Store) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	var expired []*Controller
	for id, c := range s.sessions {
		if c.LastActive().Before(cutoff) {
			expired = append(expired, c)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, c := range expired {
		c.Stop()
	}
	return len(expired)
}
