// Package server exposes the Futuresight HTTP surface: the embedded
// single-page form UI, the JSON session API, the audio playback and download
// routes, and the operational endpoints (/metrics, /healthz, /readyz).
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/letruong/futuresight/internal/health"
	"github.com/letruong/futuresight/internal/observe"
	"github.com/letruong/futuresight/internal/session"
	"github.com/letruong/futuresight/pkg/audio"
)

//go:embed web
var webFS embed.FS

// shutdownTimeout bounds graceful HTTP shutdown after ctx cancellation.
const shutdownTimeout = 10 * time.Second

// sweepInterval is how often expired sessions are collected.
const sweepInterval = 5 * time.Minute

// Config carries the server's runtime settings.
type Config struct {
	// ListenAddr is the address to bind, e.g. ":8080".
	ListenAddr string

	// SessionIdleTimeout is how long a session may sit untouched before the
	// sweeper removes it.
	SessionIdleTimeout time.Duration

	// TLSCertFile and TLSKeyFile enable TLS when both are set.
	TLSCertFile string
	TLSKeyFile  string
}

// Server routes HTTP requests to per-session controllers.
type Server struct {
	cfg     Config
	store   *session.Store
	metrics *observe.Metrics
	mux     *http.ServeMux
}

// Option is a functional option for New.
type Option func(*Server)

// WithMetrics injects a metrics instance instead of the package default.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithMetricsHandler mounts handler at GET /metrics (usually the Prometheus
// scrape handler from observe.InitProvider).
func WithMetricsHandler(handler http.Handler) Option {
	return func(s *Server) { s.mux.Handle("GET /metrics", handler) }
}

// WithProbes registers the health endpoints.
func WithProbes(p *health.Probes) Option {
	return func(s *Server) { p.Register(s.mux) }
}

// New wires the full route table over the given session store.
func New(cfg Config, store *session.Store, opts ...Option) *Server {
	s := &Server{
		cfg:   cfg,
		store: store,
		mux:   http.NewServeMux(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /api/session", s.handleCreateSession)
	s.mux.HandleFunc("GET /api/session/{id}", s.handleSnapshot)
	s.mux.HandleFunc("PUT /api/session/{id}/form", s.handleSetForm)
	s.mux.HandleFunc("POST /api/session/{id}/generate-text", s.handleGenerateText)
	s.mux.HandleFunc("POST /api/session/{id}/generate-audio", s.handleGenerateAudio)
	s.mux.HandleFunc("GET /api/session/{id}/playback", s.handlePlayback)
	s.mux.HandleFunc("POST /api/session/{id}/stop", s.handleStop)
	s.mux.HandleFunc("GET /api/session/{id}/audio.wav", s.handleDownload)

	return s
}

// Handler returns the route table wrapped in the observe middleware.
func (s *Server) Handler() http.Handler {
	return observe.Middleware(s.metrics)(s.mux)
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully. A
// background sweeper expires idle sessions for the lifetime of the server.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s.Handler(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server listening", "addr", s.cfg.ListenAddr, "tls", s.cfg.TLSCertFile != "")
		var err error
		if s.cfg.TLSCertFile != "" {
			err = srv.ListenAndServeTLS(s.cfg.TLSCertFile, s.cfg.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				s.sweepExpired(ctx)
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// sweepExpired reaps idle sessions and keeps the active-session gauge in step
// with the store.
func (s *Server) sweepExpired(ctx context.Context) {
	n := s.store.Sweep(s.cfg.SessionIdleTimeout)
	if n == 0 {
		return
	}
	s.metrics.ActiveSessions.Add(ctx, -int64(n))
	slog.Debug("swept idle sessions", "count", n)
}

// ─── Handlers ────────────────────────────────────────────────────────────────

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := webFS.ReadFile("web/index.html")
	if err != nil {
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, c := s.store.Create()
	s.metrics.ActiveSessions.Add(r.Context(), 1)
	slog.Info("session created", "session_id", id)
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":    id,
		"state": c.Snapshot(),
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Server) handleSetForm(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	var form session.FormState
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		http.Error(w, "malformed form body", http.StatusBadRequest)
		return
	}
	c.SetForm(form)
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Server) handleGenerateText(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}

	start := time.Now()
	err := c.GenerateText(r.Context())
	switch {
	case errors.Is(err, session.ErrBusy):
		s.metrics.RecordGeneration(r.Context(), "text", "busy")
		writeJSON(w, http.StatusConflict, c.Snapshot())
	case errors.Is(err, session.ErrIncompleteForm):
		s.metrics.RecordGeneration(r.Context(), "text", "rejected")
		writeJSON(w, http.StatusUnprocessableEntity, c.Snapshot())
	case err != nil:
		s.metrics.RecordGeneration(r.Context(), "text", "error")
		writeJSON(w, http.StatusBadGateway, c.Snapshot())
	default:
		s.metrics.TextGenDuration.Record(r.Context(), time.Since(start).Seconds())
		s.metrics.RecordGeneration(r.Context(), "text", "ok")
		writeJSON(w, http.StatusOK, c.Snapshot())
	}
}

func (s *Server) handleGenerateAudio(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}

	start := time.Now()
	err := c.GenerateAudio(r.Context())
	switch {
	case errors.Is(err, session.ErrBusy):
		s.metrics.RecordGeneration(r.Context(), "speech", "busy")
		writeJSON(w, http.StatusConflict, c.Snapshot())
	case errors.Is(err, session.ErrNoText):
		s.metrics.RecordGeneration(r.Context(), "speech", "rejected")
		writeJSON(w, http.StatusConflict, c.Snapshot())
	case err != nil:
		s.metrics.RecordGeneration(r.Context(), "speech", "error")
		writeJSON(w, http.StatusBadGateway, c.Snapshot())
	default:
		s.metrics.SpeechGenDuration.Record(r.Context(), time.Since(start).Seconds())
		s.metrics.RecordGeneration(r.Context(), "speech", "ok")
		writeJSON(w, http.StatusOK, c.Snapshot())
	}
}

// handlePlayback streams the stored audio as a WAV body paced in real time.
// The response stays open until playback finishes, the client disconnects,
// or another request stops it.
func (s *Server) handlePlayback(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	if _, hasAudio := c.Player().Payload(); !hasAudio {
		http.Error(w, "no audio generated", http.StatusNotFound)
		return
	}
	if c.Player().IsPlaying() {
		// At most one playback session per controller.
		http.Error(w, "playback already active", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Cache-Control", "no-store")

	done := make(chan struct{})
	sink := &notifySink{
		inner: &audio.WriterSink{W: w, Marshal: audio.EncodeWAV},
		done:  done,
	}

	if err := c.Play(sink); err != nil {
		var decodeErr *audio.DecodeError
		if errors.As(err, &decodeErr) {
			s.metrics.DecodeErrors.Add(r.Context(), 1)
		}
		slog.Error("playback failed to start", "err", err)
		http.Error(w, "playback failed", http.StatusInternalServerError)
		return
	}
	if !sink.started() {
		// Lost a race to a concurrent playback request; Play was a no-op.
		http.Error(w, "playback already active", http.StatusConflict)
		return
	}

	s.metrics.ActivePlaybacks.Add(r.Context(), 1)
	defer s.metrics.ActivePlaybacks.Add(r.Context(), -1)

	select {
	case <-done:
	case <-r.Context().Done():
		c.Stop()
		<-done
	}
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	c.Stop()
	writeJSON(w, http.StatusOK, c.Snapshot())
}

// handleDownload serves the full WAV file in one response.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	buf, err := c.Player().Buffer()
	if err != nil {
		var decodeErr *audio.DecodeError
		if errors.As(err, &decodeErr) {
			s.metrics.DecodeErrors.Add(r.Context(), 1)
		}
		http.Error(w, "stored audio is malformed", http.StatusInternalServerError)
		return
	}
	if buf == nil {
		http.Error(w, "no audio generated", http.StatusNotFound)
		return
	}
	wav, err := audio.EncodeWAV(buf)
	if err != nil {
		http.Error(w, "encoding failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", `attachment; filename="tam-nhin-6-thang.wav"`)
	w.Header().Set("Content-Length", fmt.Sprint(len(wav)))
	w.Write(wav)
}

// controller resolves the session ID path value, answering 404 on a miss.
func (s *Server) controller(w http.ResponseWriter, r *http.Request) (*session.Controller, bool) {
	c, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return nil, false
	}
	return c, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response encode failed", "err", err)
	}
}

// ─── Playback completion tracking ────────────────────────────────────────────

// notifySink wraps a sink so the playback handler can block until the stream
// finishes. done closes on natural end and on explicit Stop.
type notifySink struct {
	inner   audio.Sink
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	running bool
}

func (n *notifySink) Start(buf *audio.Buffer, onEnded func()) (audio.Session, error) {
	sess, err := n.inner.Start(buf, func() {
		onEnded()
		n.close()
	})
	if err != nil {
		return nil, err
	}
	n.mu.Lock()
	n.running = true
	n.mu.Unlock()
	return &notifySession{inner: sess, sink: n}, nil
}

// started reports whether the player actually ran Start on this sink. A
// concurrent playback request can win the race and turn Play into a no-op.
func (n *notifySink) started() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.running
}

func (n *notifySink) close() {
	n.once.Do(func() { close(n.done) })
}

type notifySession struct {
	inner audio.Session
	sink  *notifySink
}

func (s *notifySession) Stop() {
	s.inner.Stop()
	s.sink.close()
}
