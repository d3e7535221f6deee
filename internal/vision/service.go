// Package vision builds the guided-visualization prompt and turns it into
// narrative text through a textgen provider.
package vision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/letruong/futuresight/pkg/provider/textgen"
)

// GenerationError hides the upstream failure behind a generic message. The
// root cause stays reachable through Unwrap for logging, but Error() never
// leaks provider details to a user-facing path.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return "vision: text generation failed" }
func (e *GenerationError) Unwrap() error { return e.Err }

// Service generates visualization narratives.
type Service struct {
	provider textgen.Provider
}

// NewService creates a vision Service on top of the given provider.
func NewService(p textgen.Provider) *Service {
	return &Service{provider: p}
}

// Generate builds the narrative prompt from the future date, the user's name,
// and their aspirations, and returns the model's plain-text story.
//
// Failures — transport errors and blank responses alike — come back as a
// *GenerationError.
func (s *Service) Generate(ctx context.Context, futureDate time.Time, name, aspirations string) (string, error) {
	prompt := buildPrompt(futureDate, name, aspirations)

	text, err := s.provider.Generate(ctx, prompt)
	if err != nil {
		return "", &GenerationError{Err: fmt.Errorf("generate: %w", err)}
	}
	if strings.TrimSpace(text) == "" {
		return "", &GenerationError{Err: fmt.Errorf("generate: model returned no usable text")}
	}
	return text, nil
}
