// Package config provides the configuration schema and loader for the
// futuresight server.
package config

import "time"

// LogLevel controls log verbosity for the futuresight server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for futuresight.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Vision    VisionConfig    `yaml:"vision"`
}

// ServerConfig holds network and logging settings for the futuresight server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// SessionIdleTimeout is how long an untouched browser session survives
	// before being reaped. Zero means the 30 minute default.
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// ProvidersConfig declares which backend to use for each generation stage.
type ProvidersConfig struct {
	Text   ProviderEntry `yaml:"text"`
	Speech ProviderEntry `yaml:"speech"`

	// TextFallbacks are additional text backends tried in order when the
	// primary fails or its circuit breaker is open.
	TextFallbacks []ProviderEntry `yaml:"text_fallbacks"`

	// SpeechFallbacks are additional synthesis backends tried in order when
	// the primary fails or its circuit breaker is open.
	SpeechFallbacks []ProviderEntry `yaml:"speech_fallbacks"`
}

// ProviderEntry is the common configuration block shared by both provider
// kinds.
type ProviderEntry struct {
	// Name selects the backend implementation (e.g., "gemini", "openai").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the backend's API. When empty it
	// resolves from the backend's conventional environment variable
	// (GEMINI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY).
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the backend's default API endpoint.
	// Leave empty to use the backend's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the backend
	// (e.g., "gemini-2.5-flash", "gemini-2.5-flash-preview-tts").
	Model string `yaml:"model"`
}

// VisionConfig tunes the generated visualization.
type VisionConfig struct {
	// Voice is the prebuilt narration voice identifier. Empty means the
	// speech service default ("Kore").
	Voice string `yaml:"voice"`
}
