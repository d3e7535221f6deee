// Package speech wraps narrative text in a voice-direction instruction and
// synthesizes it through a speechgen provider.
package speech

import (
	"context"
	"fmt"

	"github.com/letruong/futuresight/pkg/provider/speechgen"
)

// DefaultVoice is the prebuilt voice used for narration: a calm low voice
// suited to slow hypnotic delivery.
var DefaultVoice = speechgen.VoiceProfile{Name: "Kore"}

// voiceDirection prefixes the narrative so the model reads it as a slow,
// warm, hypnotic narration.
const voiceDirection = "Hãy đọc với giọng nam trầm ấm, truyền cảm và có nhịp điệu chậm rãi, thôi miên: "

// GenerationError hides the upstream failure behind a generic message, the
// same way vision.GenerationError does.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return "speech: audio generation failed" }
func (e *GenerationError) Unwrap() error { return e.Err }

// Service turns narrative text into a base64 PCM16 audio payload.
type Service struct {
	provider speechgen.Provider
	voice    speechgen.VoiceProfile
}

// NewService creates a speech Service. An empty voice name selects
// [DefaultVoice].
func NewService(p speechgen.Provider, voice speechgen.VoiceProfile) *Service {
	if voice.Name == "" {
		voice = DefaultVoice
	}
	return &Service{provider: p, voice: voice}
}

// Generate synthesizes text and returns the base64 audio payload. Transport
// failures and responses without an audio payload come back as a
// *GenerationError.
func (s *Service) Generate(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", &GenerationError{Err: fmt.Errorf("synthesize: empty narrative text")}
	}

	payload, err := s.provider.Synthesize(ctx, voiceDirection+text, s.voice)
	if err != nil {
		return "", &GenerationError{Err: fmt.Errorf("synthesize: %w", err)}
	}
	if payload == "" {
		return "", &GenerationError{Err: fmt.Errorf("synthesize: no audio payload in response")}
	}
	return payload, nil
}
