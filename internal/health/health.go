// Package health exposes liveness and readiness probes for the HTTP server.
//
// /healthz reports liveness and always answers 200 while the process can
// serve requests. /readyz runs every registered check and answers 503 as
// soon as one fails, so load balancers stop routing traffic to an instance
// whose text or speech provider is unreachable.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// probeTimeout bounds a single readiness check.
const probeTimeout = 5 * time.Second

// Check probes one dependency. It must honour context cancellation and
// return nil when the dependency is usable.
type Check func(ctx context.Context) error

// Probes serves the health endpoints. Checks are fixed at construction and
// evaluated in registration order on every /readyz request.
type Probes struct {
	checks map[string]Check
	order  []string
}

// New builds a [Probes] from named checks. Names appear as keys in the
// /readyz response body.
func New() *Probes {
	return &Probes{checks: make(map[string]Check)}
}

// Add registers a named readiness check. Re-registering a name replaces the
// previous check.
func (p *Probes) Add(name string, check Check) {
	if _, ok := p.checks[name]; !ok {
		p.order = append(p.order, name)
	}
	p.checks[name] = check
}

type probeResult struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz always reports "ok": a process that reaches this handler is alive.
func (p *Probes) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, probeResult{Status: "ok"})
}

// Readyz evaluates every registered check with a [probeTimeout] deadline and
// reports 503 when any of them fails.
func (p *Probes) Readyz(w http.ResponseWriter, r *http.Request) {
	res := probeResult{
		Status: "ok",
		Checks: make(map[string]string, len(p.order)),
	}
	status := http.StatusOK

	for _, name := range p.order {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		err := p.checks[name](ctx)
		cancel()

		if err != nil {
			res.Checks[name] = "fail: " + err.Error()
			res.Status = "fail"
			status = http.StatusServiceUnavailable
		} else {
			res.Checks[name] = "ok"
		}
	}

	writeJSON(w, status, res)
}

// Register wires the probe routes onto mux.
func (p *Probes) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", p.Healthz)
	mux.HandleFunc("GET /readyz", p.Readyz)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
