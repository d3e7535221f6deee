package resilience

import (
	"context"

	"github.com/letruong/futuresight/pkg/provider/speechgen"
)

// SpeechgenFallback implements [speechgen.Provider] with automatic failover
// across multiple synthesis backends, each behind its own circuit breaker.
type SpeechgenFallback struct {
	group *FallbackGroup[speechgen.Provider]
}

// Compile-time interface assertion.
var _ speechgen.Provider = (*SpeechgenFallback)(nil)

// NewSpeechgenFallback creates a [SpeechgenFallback] with primary as the
// preferred backend.
func NewSpeechgenFallback(primary speechgen.Provider, primaryName string, cfg FallbackConfig) *SpeechgenFallback {
	return &SpeechgenFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional synthesis backend as a fallback.
func (f *SpeechgenFallback) AddFallback(name string, provider speechgen.Provider) {
	f.group.AddFallback(name, provider)
}

// Synthesize sends the prompt to the first healthy backend and returns its
// base64 audio payload.
func (f *SpeechgenFallback) Synthesize(ctx context.Context, prompt string, voice speechgen.VoiceProfile) (string, error) {
	return ExecuteWithResult(f.group, func(p speechgen.Provider) (string, error) {
		return p.Synthesize(ctx, prompt, voice)
	})
}
