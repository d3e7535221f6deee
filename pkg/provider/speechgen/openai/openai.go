// Package openai provides a speechgen provider backed by the OpenAI
// text-to-speech API. The PCM response format is 24 kHz mono s16le, the same
// wire format Gemini TTS produces, so the two providers are interchangeable.
package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/letruong/futuresight/pkg/provider/speechgen"
)

// DefaultModel is the default OpenAI TTS model.
const DefaultModel = "gpt-4o-mini-tts"

// Ensure Provider implements the speechgen.Provider interface.
var _ speechgen.Provider = (*Provider)(nil)

// Provider implements speechgen.Provider using the OpenAI API.
type Provider struct {
	client oai.Client
	model  string
}

// config holds optional configuration for the provider.
type config struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New constructs a new OpenAI speech Provider.
// If model is empty, DefaultModel (gpt-4o-mini-tts) is used.
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai speech: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	client := oai.NewClient(reqOpts...)
	return &Provider{client: client, model: model}, nil
}

// openaiVoices is the set of voice names the speech endpoint accepts. Profile
// names from other backends (Gemini's "Kore" and friends) are not in it and
// must be mapped, not passed through.
var openaiVoices = map[string]bool{
	"alloy":   true,
	"ash":     true,
	"ballad":  true,
	"coral":   true,
	"echo":    true,
	"fable":   true,
	"nova":    true,
	"onyx":    true,
	"sage":    true,
	"shimmer": true,
	"verse":   true,
}

// mapVoice resolves a voice profile to an OpenAI voice name. Unknown or empty
// names fall back to "onyx", the closest match for a calm low narration voice.
func mapVoice(v speechgen.VoiceProfile) string {
	name := strings.ToLower(v.Name)
	if openaiVoices[name] {
		return name
	}
	return "onyx"
}

// Synthesize implements speechgen.Provider. The voice-direction text travels
// inside the prompt; the voice identity maps to an OpenAI voice name.
func (p *Provider) Synthesize(ctx context.Context, prompt string, voice speechgen.VoiceProfile) (string, error) {
	voiceName := mapVoice(voice)

	resp, err := p.client.Audio.Speech.New(ctx, oai.AudioSpeechNewParams{
		Model:          oai.SpeechModel(p.model),
		Input:          prompt,
		Voice:          oai.AudioSpeechNewParamsVoice(voiceName),
		ResponseFormat: oai.AudioSpeechNewParamsResponseFormatPCM,
	})
	if err != nil {
		return "", fmt.Errorf("openai speech: synthesize: %w", err)
	}
	defer resp.Body.Close()

	pcm, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return "", fmt.Errorf("openai speech: read audio: %w", err)
	}
	if len(pcm) == 0 {
		return "", fmt.Errorf("openai speech: no audio payload in response")
	}
	return base64.StdEncoding.EncodeToString(pcm), nil
}
