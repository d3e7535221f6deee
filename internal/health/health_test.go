package health_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/letruong/futuresight/internal/health"
)

func TestHealthzAlwaysOK(t *testing.T) {
	t.Parallel()
	p := health.New()
	p.Add("broken", func(context.Context) error { return errors.New("down") })

	rec := httptest.NewRecorder()
	p.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestReadyzAllPassing(t *testing.T) {
	t.Parallel()
	p := health.New()
	p.Add("text-provider", func(context.Context) error { return nil })
	p.Add("speech-provider", func(context.Context) error { return nil })

	rec := httptest.NewRecorder()
	p.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	for _, want := range []string{`"text-provider":"ok"`, `"speech-provider":"ok"`} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("body missing %s: %s", want, rec.Body.String())
		}
	}
}

func TestReadyzFailingCheck(t *testing.T) {
	t.Parallel()
	p := health.New()
	p.Add("text-provider", func(context.Context) error { return nil })
	p.Add("speech-provider", func(context.Context) error { return errors.New("quota exhausted") })

	rec := httptest.NewRecorder()
	p.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"status":"fail"`) {
		t.Errorf("body should report overall failure: %s", body)
	}
	if !strings.Contains(body, "quota exhausted") {
		t.Errorf("body should carry the check error: %s", body)
	}
}

func TestReadyzChecksGetDeadline(t *testing.T) {
	t.Parallel()
	p := health.New()
	p.Add("deadline", func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			return errors.New("no deadline set")
		}
		return nil
	})

	rec := httptest.NewRecorder()
	p.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}
