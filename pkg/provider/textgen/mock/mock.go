// Package mock provides an in-memory textgen.Provider for tests.
package mock

import (
	"context"
	"sync"

	"github.com/letruong/futuresight/pkg/provider/textgen"
)

// Compile-time assertion.
var _ textgen.Provider = (*Provider)(nil)

// Provider returns canned text and records every prompt it receives.
type Provider struct {
	// Text is returned by Generate when Err is nil.
	Text string

	// Err, when non-nil, is returned by every Generate call.
	Err error

	mu      sync.Mutex
	prompts []string
}

// Generate implements textgen.Provider.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	p.mu.Lock()
	p.prompts = append(p.prompts, prompt)
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.Err != nil {
		return "", p.Err
	}
	return p.Text, nil
}

// Calls returns how many times Generate was invoked.
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
