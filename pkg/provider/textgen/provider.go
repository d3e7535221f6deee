// Package textgen defines the Provider interface for text-generation
// backends.
//
// A textgen provider wraps a generative text API (Gemini, OpenAI, a local
// Ollama instance, …) behind a single prompt-in, narrative-out call. The
// vision service composes the prompt; providers only transport it.
//
// Implementations must be safe for concurrent use.
package textgen

import "context"

// Provider is the abstraction over any text-generation backend.
type Provider interface {
	// Generate sends a single-turn prompt to the model and returns the plain
	// text of its reply. An empty reply is an error, never an empty string.
	// Implementations must respect ctx cancellation.
	Generate(ctx context.Context, prompt string) (string, error)
}
