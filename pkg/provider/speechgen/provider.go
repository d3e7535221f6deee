// Package speechgen defines the Provider interface for speech-synthesis
// backends.
//
// A speechgen provider turns a narration prompt into a base64-encoded PCM16
// clip (24 kHz mono, little-endian) that pkg/audio can decode. Voice
// direction (pace, warmth) travels inside the prompt text; the voice
// identity is selected via [VoiceProfile].
//
// Implementations must be safe for concurrent use.
package speechgen

import "context"

// VoiceProfile selects the synthesis voice.
type VoiceProfile struct {
	// Name is the provider-specific voice identifier (e.g. "Kore").
	Name string
}

// Provider is the abstraction over any speech-synthesis backend.
type Provider interface {
	// Synthesize sends the narration prompt to the backend and returns the
	// base64-encoded PCM16 audio payload. A response with no audio payload
	// is an error. Implementations must respect ctx cancellation.
	Synthesize(ctx context.Context, prompt string, voice VoiceProfile) (string, error)
}
