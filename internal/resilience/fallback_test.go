package resilience

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeBackend stands in for one generation backend in a chain. A backend with
// down=true fails every call.
type fakeBackend struct {
	name  string
	down  bool
	calls int
}

func (b *fakeBackend) narrate() (string, error) {
	b.calls++
	if b.down {
		return "", errUpstream
	}
	return "story from " + b.name, nil
}

func newChain(cfg CircuitBreakerConfig, backends ...*fakeBackend) *FallbackGroup[*fakeBackend] {
	fg := NewFallbackGroup(backends[0], backends[0].name, FallbackConfig{CircuitBreaker: cfg})
	for _, b := range backends[1:] {
		fg.AddFallback(b.name, b)
	}
	return fg
}

func TestFallbackGroup_HealthyPrimaryShieldsFallback(t *testing.T) {
	gemini := &fakeBackend{name: "gemini"}
	openai := &fakeBackend{name: "openai"}
	fg := newChain(CircuitBreakerConfig{MaxFailures: 3}, gemini, openai)

	got, err := ExecuteWithResult(fg, (*fakeBackend).narrate)
	if err != nil {
		t.Fatalf("ExecuteWithResult: %v", err)
	}
	if got != "story from gemini" {
		t.Fatalf("result = %q, want the primary's story", got)
	}
	if openai.calls != 0 {
		t.Errorf("fallback was called %d times with a healthy primary", openai.calls)
	}
}

func TestFallbackGroup_FailsOverInOrder(t *testing.T) {
	gemini := &fakeBackend{name: "gemini", down: true}
	openai := &fakeBackend{name: "openai"}
	fg := newChain(CircuitBreakerConfig{MaxFailures: 3}, gemini, openai)

	got, err := ExecuteWithResult(fg, (*fakeBackend).narrate)
	if err != nil {
		t.Fatalf("ExecuteWithResult: %v", err)
	}
	if got != "story from openai" {
		t.Fatalf("result = %q, want the fallback's story", got)
	}
	if gemini.calls != 1 {
		t.Errorf("primary calls = %d, want 1 attempt before failing over", gemini.calls)
	}
}

func TestFallbackGroup_AllDown(t *testing.T) {
	fg := newChain(CircuitBreakerConfig{MaxFailures: 3},
		&fakeBackend{name: "gemini", down: true},
		&fakeBackend{name: "openai", down: true},
	)

	_, err := ExecuteWithResult(fg, (*fakeBackend).narrate)
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}

func TestFallbackGroup_TrippedPrimaryIsNotAttempted(t *testing.T) {
	gemini := &fakeBackend{name: "gemini", down: true}
	openai := &fakeBackend{name: "openai"}
	fg := newChain(CircuitBreakerConfig{MaxFailures: 2, ResetTimeout: time.Hour}, gemini, openai)

	// Trip the primary's breaker.
	for i := 0; i < 2; i++ {
		if _, err := ExecuteWithResult(fg, (*fakeBackend).narrate); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	attemptsWhileTripping := gemini.calls

	// With the breaker open the primary is skipped entirely.
	got, err := ExecuteWithResult(fg, (*fakeBackend).narrate)
	if err != nil {
		t.Fatalf("ExecuteWithResult: %v", err)
	}
	if got != "story from openai" {
		t.Fatalf("result = %q, want the fallback's story", got)
	}
	if gemini.calls != attemptsWhileTripping {
		t.Errorf("primary was attempted during cooldown (calls %d → %d)",
			attemptsWhileTripping, gemini.calls)
	}
}

func TestFallbackGroup_Execute(t *testing.T) {
	gemini := &fakeBackend{name: "gemini", down: true}
	openai := &fakeBackend{name: "openai"}
	fg := newChain(CircuitBreakerConfig{MaxFailures: 3}, gemini, openai)

	var served string
	err := fg.Execute(func(b *fakeBackend) error {
		story, err := b.narrate()
		if err != nil {
			return err
		}
		served = story
		return nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if served != "story from openai" {
		t.Fatalf("served = %q, want the fallback's story", served)
	}
}

func TestFallbackGroup_ErrorCarriesLastCause(t *testing.T) {
	fg := newChain(CircuitBreakerConfig{MaxFailures: 3},
		&fakeBackend{name: "gemini", down: true},
	)

	_, err := ExecuteWithResult(fg, (*fakeBackend).narrate)
	if err == nil {
		t.Fatal("expected error with every backend down")
	}
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
	if want := errUpstream.Error(); !strings.Contains(err.Error(), want) {
		t.Errorf("error %q should carry the last cause %q", err, want)
	}
}
