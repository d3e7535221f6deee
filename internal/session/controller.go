// Package session owns the per-browser orchestration state machine: form
// state, generated narrative, audio payload, the two generation flags, and
// the playback player. One Controller corresponds to one page session.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/letruong/futuresight/internal/speech"
	"github.com/letruong/futuresight/internal/vision"
	"github.com/letruong/futuresight/pkg/audio"
	"github.com/letruong/futuresight/pkg/dateshift"
)

// User-facing messages, matching the page language. Root causes are logged,
// never shown.
const (
	msgIncompleteForm = "Vui lòng điền đầy đủ tất cả các trường thông tin."
	msgTextFailed     = "Đã xảy ra lỗi khi tạo văn bản. Vui lòng thử lại."
	msgAudioFailed    = "Đã xảy ra lỗi khi tạo audio. Vui lòng thử lại."
)

var (
	// ErrBusy rejects a generation call while another one is in flight.
	// UI button disabling is not a concurrency guard; this is.
	ErrBusy = errors.New("session: generation already in flight")

	// ErrIncompleteForm rejects text generation before all form fields are
	// filled in with a parseable date.
	ErrIncompleteForm = errors.New("session: form is incomplete")

	// ErrNoText rejects audio generation before any narrative exists.
	ErrNoText = errors.New("session: no generated text to synthesize")
)

// FormState is the user's input: an ISO start date, their name, and their
// aspirations for the coming six months.
type FormState struct {
	Date        string `json:"date"`
	Name        string `json:"name"`
	Aspirations string `json:"aspirations"`
}

// State is a consistent snapshot of a controller, shaped for the UI.
type State struct {
	Form            FormState `json:"form"`
	FutureDate      string    `json:"futureDate,omitempty"` // dd/mm/yyyy, empty when the date is invalid
	GeneratedText   string    `json:"generatedText,omitempty"`
	HasAudio        bool      `json:"hasAudio"`
	IsPlaying       bool      `json:"isPlaying"`
	GeneratingText  bool      `json:"generatingText"`
	GeneratingAudio bool      `json:"generatingAudio"`
	Error           string    `json:"error,omitempty"`
}

// Controller drives one session through the generate-text → generate-audio →
// play flow. All state transitions happen under one mutex; the provider
// calls themselves run outside it so a slow upstream never blocks snapshots.
type Controller struct {
	vision *vision.Service
	speech *speech.Service
	player *audio.Player

	mu              sync.Mutex
	form            FormState
	generatedText   string
	generatingText  bool
	generatingAudio bool
	userError       string
	lastActive      time.Time
}

// NewController wires a controller from its three collaborators.
func NewController(v *vision.Service, s *speech.Service, player *audio.Player) *Controller {
	return &Controller{
		vision:     v,
		speech:     s,
		player:     player,
		lastActive: time.Now(),
	}
}

// SetForm replaces the stored form state.
func (c *Controller) SetForm(f FormState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = f
	c.lastActive = time.Now()
}

// Snapshot returns the current state for rendering.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActive = time.Now()

	st := State{
		Form:            c.form,
		GeneratedText:   c.generatedText,
		GeneratingText:  c.generatingText,
		GeneratingAudio: c.generatingAudio,
		Error:           c.userError,
	}
	if future, err := dateshift.ShiftForward(c.form.Date); err == nil {
		st.FutureDate = dateshift.FormatShort(future)
	}
	_, st.HasAudio = c.player.Payload()
	st.IsPlaying = c.player.IsPlaying()
	return st
}

// GenerateText validates the form, clears stale results, and produces a new
// narrative. Any previous audio payload and playback are discarded first.
//
// Returns ErrBusy while either generation is in flight and ErrIncompleteForm
// when a field is missing or the date does not parse — in both failure modes
// no network call is made.
func (c *Controller) GenerateText(ctx context.Context) error {
	c.mu.Lock()
	if c.generatingText || c.generatingAudio {
		c.mu.Unlock()
		return ErrBusy
	}

	form := c.form
	future, err := validate(form)
	if err != nil {
		c.userError = msgIncompleteForm
		c.mu.Unlock()
		return err
	}

	c.userError = ""
	c.generatedText = ""
	c.generatingText = true
	c.mu.Unlock()

	c.player.Stop()
	c.player.SetPayload("")

	text, genErr := c.vision.Generate(ctx, future, form.Name, form.Aspirations)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.generatingText = false
	if genErr != nil {
		c.userError = msgTextFailed
		slog.Error("vision generation failed", "err", genErr)
		return genErr
	}
	c.generatedText = text
	return nil
}

// GenerateAudio synthesizes the current narrative. The previous payload and
// any active playback are discarded before the call; the narrative itself
// stays intact if synthesis fails.
func (c *Controller) GenerateAudio(ctx context.Context) error {
	c.mu.Lock()
	if c.generatingText || c.generatingAudio {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.generatedText == "" {
		c.mu.Unlock()
		return ErrNoText
	}

	text := c.generatedText
	c.userError = ""
	c.generatingAudio = true
	c.mu.Unlock()

	c.player.Stop()
	c.player.SetPayload("")

	payload, genErr := c.speech.Generate(ctx, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.generatingAudio = false
	if genErr != nil {
		c.userError = msgAudioFailed
		slog.Error("speech generation failed", "err", genErr)
		return genErr
	}
	c.player.SetPayload(payload)
	return nil
}

// Play starts playback of the stored payload on sink. No-op without a
// payload or while already playing.
func (c *Controller) Play(sink audio.Sink) error {
	return c.player.Play(sink)
}

// Stop halts playback. Safe to call at any time.
func (c *Controller) Stop() {
	c.player.Stop()
}

// Player exposes the underlying player for delivery routes that need the
// decoded buffer (e.g. the WAV download).
func (c *Controller) Player() *audio.Player {
	return c.player
}

// LastActive returns when the controller was last touched.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// validate checks that all three fields are present and the date parses.
func validate(f FormState) (future time.Time, err error) {
	if f.Date == "" || f.Name == "" || f.Aspirations == "" {
		return time.Time{}, ErrIncompleteForm
	}
	future, parseErr := dateshift.ShiftForward(f.Date)
	if parseErr != nil {
		// An unparseable date counts as an incomplete form.
		return time.Time{}, ErrIncompleteForm
	}
	return future, nil
}
