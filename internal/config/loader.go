package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known backend names per provider kind.
var ValidProviderNames = map[string][]string{
	"text":   {"gemini", "openai", "anthropic", "ollama"},
	"speech": {"gemini", "openai"},
}

// envVarByProvider maps a backend name to the environment variable its API
// key conventionally lives in.
var envVarByProvider = map[string]string{
	"gemini":    "GEMINI_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Server.SessionIdleTimeout == 0 {
		cfg.Server.SessionIdleTimeout = 30 * time.Minute
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.SessionIdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.session_idle_timeout must not be negative"))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, fmt.Errorf("server.tls requires both cert_file and key_file"))
		}
	}

	errs = append(errs, validateProvider("text", "text", cfg.Providers.Text)...)
	errs = append(errs, validateProvider("speech", "speech", cfg.Providers.Speech)...)
	for i, entry := range cfg.Providers.TextFallbacks {
		errs = append(errs, validateProvider("text", fmt.Sprintf("text_fallbacks[%d]", i), entry)...)
	}
	for i, entry := range cfg.Providers.SpeechFallbacks {
		errs = append(errs, validateProvider("speech", fmt.Sprintf("speech_fallbacks[%d]", i), entry)...)
	}

	return errors.Join(errs...)
}

// validateProvider checks a single provider entry. kind selects the allowed
// backend names; label names the entry in error messages.
func validateProvider(kind, label string, entry ProviderEntry) []error {
	var errs []error
	if entry.Name == "" {
		errs = append(errs, fmt.Errorf("providers.%s.name is required", label))
		return errs
	}
	if known := ValidProviderNames[kind]; !slices.Contains(known, entry.Name) {
		errs = append(errs, fmt.Errorf("providers.%s.name %q is unknown; valid values: %v", label, entry.Name, known))
	}
	return errs
}

// ResolveCredentials fills in missing API keys from the environment via
// lookup (normally os.LookupEnv). A provider that needs a key and has none —
// neither in the config nor in the environment — is a fatal configuration
// error; the server must not start without its credentials.
func (c *Config) ResolveCredentials(lookup func(string) (string, bool)) error {
	var errs []error
	errs = append(errs, resolveKey("text", &c.Providers.Text, lookup))
	errs = append(errs, resolveKey("speech", &c.Providers.Speech, lookup))
	for i := range c.Providers.TextFallbacks {
		errs = append(errs, resolveKey(fmt.Sprintf("text_fallbacks[%d]", i), &c.Providers.TextFallbacks[i], lookup))
	}
	for i := range c.Providers.SpeechFallbacks {
		errs = append(errs, resolveKey(fmt.Sprintf("speech_fallbacks[%d]", i), &c.Providers.SpeechFallbacks[i], lookup))
	}
	return errors.Join(errs...)
}

func resolveKey(kind string, entry *ProviderEntry, lookup func(string) (string, bool)) error {
	if entry.APIKey != "" {
		return nil
	}
	envVar, needsKey := envVarByProvider[entry.Name]
	if !needsKey {
		return nil // local backends (ollama) run without credentials
	}
	if v, ok := lookup(envVar); ok && v != "" {
		entry.APIKey = v
		return nil
	}
	return fmt.Errorf("providers.%s: no API key configured and %s is not set", kind, envVar)
}
