// Package mock provides an in-memory speechgen.Provider for tests.
package mock

import (
	"context"
	"sync"

	"github.com/letruong/futuresight/pkg/provider/speechgen"
)

// Compile-time assertion.
var _ speechgen.Provider = (*Provider)(nil)

// Provider returns a canned base64 payload and records every call.
type Provider struct {
	// Payload is returned by Synthesize when Err is nil.
	Payload string

	// Err, when non-nil, is returned by every Synthesize call.
	Err error

	mu      sync.Mutex
	prompts []string
	voices  []speechgen.VoiceProfile
}

// Synthesize implements speechgen.Provider.
func (p *Provider) Synthesize(ctx context.Context, prompt string, voice speechgen.VoiceProfile) (string, error) {
	p.mu.Lock()
	p.prompts = append(p.prompts, prompt)
	p.voices = append(p.voices, voice)
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.Err != nil {
		return "", p.Err
	}
	return p.Payload, nil
}

// Calls returns how many times Synthesize was invoked.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.prompts)
}

// LastPrompt returns the most recent prompt, or "".
func (p *Provider) LastPrompt() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.prompts) == 0 {
		return ""
	}
	return p.prompts[len(p.prompts)-1]
}

// LastVoice returns the most recent voice profile.
func (p *Provider) LastVoice() speechgen.VoiceProfile {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.voices) == 0 {
		return speechgen.VoiceProfile{}
	}
	return p.voices[len(p.voices)-1]
}
