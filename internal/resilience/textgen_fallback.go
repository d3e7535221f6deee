package resilience

import (
	"context"

	"github.com/letruong/futuresight/pkg/provider/textgen"
)

// TextgenFallback implements [textgen.Provider] with automatic failover across
// multiple text generation backends. Each backend has its own circuit breaker;
// when the primary fails or its breaker is open, the next healthy fallback is
// tried.
type TextgenFallback struct {
	group *FallbackGroup[textgen.Provider]
}

// Compile-time interface assertion.
var _ textgen.Provider = (*TextgenFallback)(nil)

// NewTextgenFallback creates a [TextgenFallback] with primary as the preferred
// backend.
func NewTextgenFallback(primary textgen.Provider, primaryName string, cfg FallbackConfig) *TextgenFallback {
	return &TextgenFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional text backend as a fallback.
func (f *TextgenFallback) AddFallback(name string, provider textgen.Provider) {
	f.group.AddFallback(name, provider)
}

// Generate sends the prompt to the first healthy backend and returns its text.
func (f *TextgenFallback) Generate(ctx context.Context, prompt string) (string, error) {
	return ExecuteWithResult(f.group, func(p textgen.Provider) (string, error) {
		return p.Generate(ctx, prompt)
	})
}
