// Package gemini implements the speechgen.Provider interface for Google's
// Gemini TTS models.
//
// It calls the generateContent REST endpoint requesting audio response
// modality with a prebuilt voice, and extracts the inline base64 PCM payload
// from the first candidate's first content part. The returned audio is
// 24 kHz mono s16le PCM.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/letruong/futuresight/pkg/provider/speechgen"
)

// Compile-time assertion that Provider satisfies the speechgen interface.
var _ speechgen.Provider = (*Provider)(nil)

const (
	defaultModel   = "gemini-2.5-flash-preview-tts"
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// ── Options ────────────────────────────────────────────────────────────────────

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithModel sets the Gemini TTS model.
func WithModel(model string) Option {
	return func(p *Provider) { p.model = model }
}

// WithBaseURL overrides the base REST URL. Primarily used in tests to point
// at a local mock server.
func WithBaseURL(url string) Option {
	return func(p *Provider) { p.baseURL = url }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// ── Provider ───────────────────────────────────────────────────────────────────

// Provider implements speechgen.Provider for Gemini TTS.
type Provider struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// New creates a new Gemini TTS Provider. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: apiKey must not be empty")
	}
	p := &Provider{
		apiKey:     apiKey,
		model:      defaultModel,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// ── Protocol message types (outgoing) ─────────────────────────────────────────

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // base64-encoded
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

// ── Protocol message types (incoming) ─────────────────────────────────────────

type generateResponse struct {
	Candidates []candidate  `json:"candidates"`
	Error      *geminiError `json:"error,omitempty"`
}

type candidate struct {
	Content *content `json:"content,omitempty"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

// ── Synthesis ──────────────────────────────────────────────────────────────────

// Synthesize implements speechgen.Provider. It returns the base64 audio data
// of the first inline-data part of the first candidate's content.
func (p *Provider) Synthesize(ctx context.Context, prompt string, voice speechgen.VoiceProfile) (string, error) {
	reqBody := generateRequest{
		Contents: []content{
			{Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"AUDIO"},
		},
	}
	if voice.Name != "" {
		reqBody.GenerationConfig.SpeechConfig = &speechConfig{
			VoiceConfig: voiceConfig{
				PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: voice.Name},
			},
		}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, p.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("gemini: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return "", fmt.Errorf("gemini: read response: %w", err)
	}

	var gr generateResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	if gr.Error != nil {
		return "", fmt.Errorf("gemini: %s (status %d)", gr.Error.Message, gr.Error.Code)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini: unexpected HTTP status %d", resp.StatusCode)
	}

	audio := firstInlineData(&gr)
	if audio == "" {
		return "", fmt.Errorf("gemini: no audio payload in response")
	}
	return audio, nil
}

// firstInlineData walks candidates[0].content.parts[0..] and returns the
// first inline-data payload.
func firstInlineData(gr *generateResponse) string {
	if len(gr.Candidates) == 0 || gr.Candidates[0].Content == nil {
		return ""
	}
	for _, pt := range gr.Candidates[0].Content.Parts {
		if pt.InlineData != nil && pt.InlineData.Data != "" {
			return pt.InlineData.Data
		}
	}
	return ""
}
