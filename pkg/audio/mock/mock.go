// Package mock provides in-memory [audio.Sink] and [audio.Session]
// implementations for testing playback state transitions without real output.
//
// The mocks record every call so tests can assert on call counts, and expose
// fields the test can set to control behaviour.
package mock

import (
	"errors"
	"sync"

	"github.com/letruong/futuresight/pkg/audio"
)

// Sink records Start calls and hands out controllable sessions.
type Sink struct {
	// FailStart makes every Start call return an error.
	FailStart bool

	mu       sync.Mutex
	starts   int
	sessions []*Session
}

// Start implements audio.Sink.
func (s *Sink) Start(buf *audio.Buffer, onEnded func()) (audio.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts++
	if s.FailStart {
		return nil, errors.New("mock sink: start failed")
	}
	sess := &Session{Buffer: buf, onEnded: onEnded}
	s.sessions = append(s.sessions, sess)
	return sess, nil
}

// Starts returns how many times Start was called.
func (s *Sink) Starts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

// Last returns the most recently started session, or nil.
func (s *Sink) Last() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) == 0 {
		return nil
	}
	return s.sessions[len(s.sessions)-1]
}

// Active returns how many sessions have been started but not stopped.
func (s *Sink) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sess := range s.sessions {
		if !sess.Stopped() {
			n++
		}
	}
	return n
}

// Session is a controllable playback session. Call Finish to simulate the
// clip reaching its natural end.
type Session struct {
	// Buffer is the decoded buffer the session was started with.
	Buffer *audio.Buffer

	onEnded func()

	mu      sync.Mutex
	stopped bool
	stops   int
}

// Stop implements audio.Session.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.stops++
}

// Stopped reports whether Stop has been called at least once.
func (s *Session) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Stops returns how many times Stop was called.
func (s *Session) Stops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

// Finish simulates the clip playing to completion.
func (s *Session) Finish() {
	s.onEnded()
}
