package config_test

import (
	"strings"
	"testing"

	"github.com/letruong/futuresight/internal/config"
)

func TestLoadFromReader_Valid(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_addr: ":8080"
  log_level: info
providers:
  text:
    name: gemini
    model: gemini-2.5-flash
  speech:
    name: gemini
    model: gemini-2.5-flash-preview-tts
vision:
  voice: Kore
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
	if cfg.Providers.Text.Model != "gemini-2.5-flash" {
		t.Errorf("text model = %q", cfg.Providers.Text.Model)
	}
	if cfg.Vision.Voice != "Kore" {
		t.Errorf("voice = %q", cfg.Vision.Voice)
	}
}

func TestValidate_MissingProviderNames(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader(`server: {listen_addr: ":8080"}`))
	if err == nil {
		t.Fatal("expected error for missing provider names, got nil")
	}
	if !strings.Contains(err.Error(), "providers.text.name is required") {
		t.Errorf("error should mention text provider, got: %v", err)
	}
	if !strings.Contains(err.Error(), "providers.speech.name is required") {
		t.Errorf("error should mention speech provider, got: %v", err)
	}
}

func TestValidate_UnknownProviderName(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  text:
    name: skynet
  speech:
    name: gemini
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown provider name, got nil")
	}
	if !strings.Contains(err.Error(), "skynet") {
		t.Errorf("error should name the unknown provider, got: %v", err)
	}
}

func TestValidate_BadLogLevel(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: loud
providers:
  text: {name: gemini}
  speech: {name: gemini}
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil || !strings.Contains(err.Error(), "log_level") {
		t.Fatalf("expected log_level error, got: %v", err)
	}
}

func TestValidate_UnknownYAMLField(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  text: {name: gemini}
  speech: {name: gemini}
persistence:
  dsn: "postgres://nope"
`
	if _, err := config.LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("expected error for unknown top-level field, got nil")
	}
}

func TestValidate_FallbackEntries(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  text:
    name: gemini
  speech:
    name: gemini
  text_fallbacks:
    - name: ollama
    - name: hal9000
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown fallback backend, got nil")
	}
	if !strings.Contains(err.Error(), "text_fallbacks[1]") {
		t.Errorf("error should name the offending entry, got: %v", err)
	}
}

func TestResolveCredentials_FromEnv(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	cfg.Providers.Text = config.ProviderEntry{Name: "gemini"}
	cfg.Providers.Speech = config.ProviderEntry{Name: "gemini"}

	env := map[string]string{"GEMINI_API_KEY": "secret"}
	err := cfg.ResolveCredentials(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if err != nil {
		t.Fatalf("ResolveCredentials: %v", err)
	}
	if cfg.Providers.Text.APIKey != "secret" || cfg.Providers.Speech.APIKey != "secret" {
		t.Errorf("keys not resolved: %+v", cfg.Providers)
	}
}

func TestResolveCredentials_MissingKeyIsFatal(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	cfg.Providers.Text = config.ProviderEntry{Name: "gemini"}
	cfg.Providers.Speech = config.ProviderEntry{Name: "openai"}

	err := cfg.ResolveCredentials(func(string) (string, bool) { return "", false })
	if err == nil {
		t.Fatal("expected error when no key is available")
	}
	for _, want := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s, got: %v", want, err)
		}
	}
}

func TestResolveCredentials_ConfigKeyWins(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	cfg.Providers.Text = config.ProviderEntry{Name: "gemini", APIKey: "from-config"}
	cfg.Providers.Speech = config.ProviderEntry{Name: "gemini", APIKey: "from-config"}

	err := cfg.ResolveCredentials(func(string) (string, bool) { return "from-env", true })
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Providers.Text.APIKey != "from-config" {
		t.Errorf("config key should win, got %q", cfg.Providers.Text.APIKey)
	}
}

func TestResolveCredentials_OllamaNeedsNoKey(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	cfg.Providers.Text = config.ProviderEntry{Name: "ollama"}
	cfg.Providers.Speech = config.ProviderEntry{Name: "gemini", APIKey: "k"}

	if err := cfg.ResolveCredentials(func(string) (string, bool) { return "", false }); err != nil {
		t.Fatalf("ollama should not require a key: %v", err)
	}
}
