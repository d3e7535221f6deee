// Command futuresight serves the six-month visualization web app: a form UI,
// narrative text generation, speech synthesis, and server-paced playback.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/letruong/futuresight/internal/config"
	"github.com/letruong/futuresight/internal/health"
	"github.com/letruong/futuresight/internal/observe"
	"github.com/letruong/futuresight/internal/resilience"
	"github.com/letruong/futuresight/internal/server"
	"github.com/letruong/futuresight/internal/session"
	"github.com/letruong/futuresight/internal/speech"
	"github.com/letruong/futuresight/internal/vision"
	"github.com/letruong/futuresight/pkg/audio"
	"github.com/letruong/futuresight/pkg/provider/speechgen"
	geminispeech "github.com/letruong/futuresight/pkg/provider/speechgen/gemini"
	openaispeech "github.com/letruong/futuresight/pkg/provider/speechgen/openai"
	"github.com/letruong/futuresight/pkg/provider/textgen"
	"github.com/letruong/futuresight/pkg/provider/textgen/anyllm"
)

// defaultTextModel is used when providers.text.model is left empty.
const defaultTextModel = "gemini-2.5-flash"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "futuresight: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "futuresight: %v\n", err)
		}
		return 1
	}
	if err := cfg.ResolveCredentials(os.LookupEnv); err != nil {
		fmt.Fprintf(os.Stderr, "futuresight: %v\n", err)
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("futuresight starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Metrics ───────────────────────────────────────────────────────────────
	scrape, otelShutdown, err := observe.InitProvider(observe.ProviderConfig{})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Providers ─────────────────────────────────────────────────────────────
	// Every backend sits behind a circuit breaker; configured fallbacks are
	// tried in order when the primary is failing.
	textProvider, err := buildTextChain(cfg.Providers)
	if err != nil {
		slog.Error("failed to create text provider", "name", cfg.Providers.Text.Name, "err", err)
		return 1
	}

	speechProvider, err := buildSpeechChain(cfg.Providers)
	if err != nil {
		slog.Error("failed to create speech provider", "name", cfg.Providers.Speech.Name, "err", err)
		return 1
	}

	// ── Services + session store ──────────────────────────────────────────────
	visionSvc := vision.NewService(textProvider)
	speechSvc := speech.NewService(speechProvider, speechgen.VoiceProfile{Name: cfg.Vision.Voice})

	store := session.NewStore(func() *session.Controller {
		return session.NewController(visionSvc, speechSvc, audio.NewPlayer(audio.DefaultFormat))
	})

	// ── Health probes ─────────────────────────────────────────────────────────
	probes := health.New()
	probes.Add("text-provider", providerCheck(cfg.Providers.Text.Name))
	probes.Add("speech-provider", providerCheck(cfg.Providers.Speech.Name))

	// ── HTTP server ───────────────────────────────────────────────────────────
	srvCfg := server.Config{
		ListenAddr:         cfg.Server.ListenAddr,
		SessionIdleTimeout: cfg.Server.SessionIdleTimeout,
	}
	if cfg.Server.TLS != nil {
		srvCfg.TLSCertFile = cfg.Server.TLS.CertFile
		srvCfg.TLSKeyFile = cfg.Server.TLS.KeyFile
	}

	srv := server.New(srvCfg, store,
		server.WithMetricsHandler(scrape),
		server.WithProbes(probes),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("server ready — press Ctrl+C to shut down")

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// buildTextChain constructs the primary text backend plus configured
// fallbacks, all behind per-backend circuit breakers.
func buildTextChain(pc config.ProvidersConfig) (textgen.Provider, error) {
	primary, err := buildTextProvider(pc.Text)
	if err != nil {
		return nil, err
	}
	chain := resilience.NewTextgenFallback(primary, pc.Text.Name, resilience.FallbackConfig{})
	slog.Info("provider created", "kind", "text", "name", pc.Text.Name)

	for _, entry := range pc.TextFallbacks {
		p, err := buildTextProvider(entry)
		if err != nil {
			return nil, fmt.Errorf("fallback %q: %w", entry.Name, err)
		}
		chain.AddFallback(entry.Name, p)
		slog.Info("provider created", "kind", "text", "name", entry.Name, "role", "fallback")
	}
	return chain, nil
}

// buildSpeechChain mirrors buildTextChain for the synthesis backends.
func buildSpeechChain(pc config.ProvidersConfig) (speechgen.Provider, error) {
	primary, err := buildSpeechProvider(pc.Speech)
	if err != nil {
		return nil, err
	}
	chain := resilience.NewSpeechgenFallback(primary, pc.Speech.Name, resilience.FallbackConfig{})
	slog.Info("provider created", "kind", "speech", "name", pc.Speech.Name)

	for _, entry := range pc.SpeechFallbacks {
		p, err := buildSpeechProvider(entry)
		if err != nil {
			return nil, fmt.Errorf("fallback %q: %w", entry.Name, err)
		}
		chain.AddFallback(entry.Name, p)
		slog.Info("provider created", "kind", "speech", "name", entry.Name, "role", "fallback")
	}
	return chain, nil
}

// buildTextProvider constructs the narrative text backend from its config
// entry. All backends go through any-llm-go.
func buildTextProvider(entry config.ProviderEntry) (textgen.Provider, error) {
	model := entry.Model
	if model == "" {
		model = defaultTextModel
	}

	var opts []anyllmlib.Option
	if entry.APIKey != "" {
		opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
	}
	if entry.BaseURL != "" {
		opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
	}
	return anyllm.New(entry.Name, model, opts...)
}

// buildSpeechProvider constructs the speech synthesis backend from its
// config entry.
func buildSpeechProvider(entry config.ProviderEntry) (speechgen.Provider, error) {
	switch entry.Name {
	case "gemini":
		var opts []geminispeech.Option
		if entry.Model != "" {
			opts = append(opts, geminispeech.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, geminispeech.WithBaseURL(entry.BaseURL))
		}
		return geminispeech.New(entry.APIKey, opts...)

	case "openai":
		var opts []openaispeech.Option
		if entry.BaseURL != "" {
			opts = append(opts, openaispeech.WithBaseURL(entry.BaseURL))
		}
		return openaispeech.New(entry.APIKey, entry.Model, opts...)

	default:
		return nil, fmt.Errorf("unknown speech provider %q", entry.Name)
	}
}

// providerCheck reports readiness for a configured provider. Construction
// already validated credentials; an unset name is the only failure mode left.
func providerCheck(name string) health.Check {
	return func(context.Context) error {
		if name == "" {
			return errors.New("not configured")
		}
		return nil
	}
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
