package audio

import (
	"fmt"
	"sync"
)

// State is the playback state of a [Player].
type State int

const (
	StateIdle State = iota
	StatePlaying
)

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// Session is a live playback binding between a decoded buffer and an output.
// Stop halts output; it must be safe to call more than once.
type Session interface {
	Stop()
}

// Sink turns a decoded buffer into audible (or streamed) output. Start begins
// playback and must invoke onEnded exactly once when the clip finishes
// naturally or fails mid-stream — but not when the returned Session is
// stopped explicitly.
type Sink interface {
	Start(buf *Buffer, onEnded func()) (Session, error)
}

// PlaybackError reports a sink failure. The player resets to idle and the
// caller decides whether to surface it.
type PlaybackError struct {
	Err error
}

func (e *PlaybackError) Error() string { return fmt.Sprintf("audio: playback: %v", e.Err) }
func (e *PlaybackError) Unwrap() error { return e.Err }

// Player owns the single playback session for one controller. It holds the
// current base64 payload and moves between [StateIdle] and [StatePlaying].
// At most one Session exists at any time; starting playback always tears
// down a prior session first.
//
// Safe for concurrent use.
type Player struct {
	format Format

	mu      sync.Mutex
	payload string
	session Session
	state   State
	gen     uint64 // invalidates onEnded callbacks from superseded sessions
}

// NewPlayer creates a Player decoding payloads in the given format.
// A zero format means [DefaultFormat].
func NewPlayer(f Format) *Player {
	if f.SampleRate == 0 {
		f = DefaultFormat
	}
	return &Player{format: f}
}

// SetPayload replaces the stored base64 payload. An empty string clears it.
// It does not stop an active session; callers stop first when swapping
// payloads mid-playback.
func (p *Player) SetPayload(b64 string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payload = b64
}

// Payload returns the stored base64 payload, if any.
func (p *Player) Payload() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.payload, p.payload != ""
}

// State returns the current playback state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// IsPlaying reports whether a session is active.
func (p *Player) IsPlaying() bool { return p.State() == StatePlaying }

// Buffer decodes the stored payload. Returns a DecodeError for malformed
// payloads and nil, nil when no payload is loaded.
func (p *Player) Buffer() (*Buffer, error) {
	payload, ok := p.Payload()
	if !ok {
		return nil, nil
	}
	return DecodePCM16(payload, p.format)
}

// Play decodes the stored payload and starts a new session on sink.
//
// It is a no-op when no payload is loaded or a session is already playing.
// If a stale session is still around it is stopped first. Decode failures
// return a [DecodeError]; sink failures return a [PlaybackError]. In both
// cases the player stays idle.
func (p *Player) Play(sink Sink) error {
	p.mu.Lock()
	if p.payload == "" || p.state == StatePlaying {
		p.mu.Unlock()
		return nil
	}

	// Stop-before-play: a session left behind by a failed end callback must
	// not outlive the new one.
	stale := p.session
	p.session = nil
	payload := p.payload
	p.mu.Unlock()

	if stale != nil {
		stale.Stop()
	}

	buf, err := DecodePCM16(payload, p.format)
	if err != nil {
		return err
	}

	p.mu.Lock()
	if p.state == StatePlaying {
		// Lost the race to another Play call.
		p.mu.Unlock()
		return nil
	}
	p.gen++
	gen := p.gen
	p.mu.Unlock()

	session, err := sink.Start(buf, func() { p.ended(gen) })
	if err != nil {
		return &PlaybackError{Err: err}
	}

	p.mu.Lock()
	if p.gen != gen {
		// The clip ended (or Stop was called) before Start returned.
		p.mu.Unlock()
		session.Stop()
		return nil
	}
	p.session = session
	p.state = StatePlaying
	p.mu.Unlock()
	return nil
}

// Stop halts the active session and returns the player to idle. Calling it
// while idle, repeatedly, or from a natural-end path is safe.
func (p *Player) Stop() {
	p.mu.Lock()
	session := p.session
	p.session = nil
	p.state = StateIdle
	p.gen++ // pending onEnded callbacks from this session become stale
	p.mu.Unlock()

	if session != nil {
		session.Stop()
	}
}

// ended handles a session's natural-end callback.
func (p *Player) ended(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return // a Stop or newer Play superseded this session
	}
	p.gen++
	p.session = nil
	p.state = StateIdle
}
