// Package health runs time-bounded health checks on demand.
//
// Every call to CheckAll runs all registered checks concurrently, each under
// its own timeout, and reports a status per check. Nothing is cached: a
// report always reflects the probes made for it. A check that exceeds its
// timeout is abandoned and its late result discarded.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc is a health check function. It should return nil if the checked
// component is healthy, or an error describing the problem.
type CheckFunc func(ctx context.Context) error

// Status is the outcome of a single check.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	// StatusUnknown marks a check that never produced a result, e.g. because
	// it panicked.
	StatusUnknown Status = "unknown"
)

// Result is the outcome of one check in a Report.
type Result struct {
	Status Status
	Err    error
}

// Report is the outcome of a CheckAll call.
type Report struct {
	Checks map[string]Result
}

// Healthy reports whether every check passed.
func (r Report) Healthy() bool {
	for _, res := range r.Checks {
		if res.Status != StatusHealthy {
			return false
		}
	}
	return true
}

// Statuses flattens the report to check name -> status.
func (r Report) Statuses() map[string]Status {
	out := make(map[string]Status, len(r.Checks))
	for name, res := range r.Checks {
		out[name] = res.Status
	}
	return out
}

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc
}

// Health holds a set of named checks and a readiness flag.
type Health struct {
	ready atomic.Bool

	mu     sync.RWMutex
	checks []check
}

// New creates a Health with no checks. It starts not ready; call
// SetReady(true) once the service has finished initialization.
func New() *Health {
	return &Health{}
}

// Add registers a check bounded by timeout.
func (h *Health) Add(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, check{name: name, timeout: timeout, fn: fn})
}

// SetReady sets the readiness flag. It is cleared during graceful shutdown
// so that probes see the service as unhealthy while it drains.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// CheckAll runs every check concurrently and waits for all of them, at most
// for the longest check timeout.
func (h *Health) CheckAll(ctx context.Context) Report {
	h.mu.RLock()
	checks := make([]check, len(h.checks))
	copy(checks, h.checks)
	h.mu.RUnlock()

	results := make([]Result, len(checks))
	var wg sync.WaitGroup
	for i, c := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.run(ctx)
		}()
	}
	wg.Wait()

	report := Report{Checks: make(map[string]Result, len(checks))}
	for i, c := range checks {
		report.Checks[c.name] = results[i]
	}
	return report
}

// run executes the check in its own goroutine so that a check ignoring its
// context still cannot hold the caller past the timeout.
func (c check) run(ctx context.Context) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// Buffered so an abandoned check can still deliver and exit.
	done := make(chan Result, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- Result{Status: StatusUnknown, Err: fmt.Errorf("check panicked: %v", rec)}
			}
		}()
		if err := c.fn(ctx); err != nil {
			done <- Result{Status: StatusUnhealthy, Err: err}
			return
		}
		done <- Result{Status: StatusHealthy}
	}()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		return Result{Status: StatusUnhealthy, Err: ctx.Err()}
	}
}

// statusResponse is the JSON response body for Endpoint.
type statusResponse struct {
	Status Status            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Endpoint is an http.HandlerFunc for a service's own /health. It returns 200
// with {"status":"healthy"} when the service is ready and every check passes,
// or 503 with {"status":"unhealthy","checks":{...}} listing failures.
func (h *Health) Endpoint(w http.ResponseWriter, r *http.Request) {
	report := h.CheckAll(r.Context())

	failures := make(map[string]string)
	for name, res := range report.Checks {
		if res.Status == StatusHealthy {
			continue
		}
		if res.Err != nil {
			failures[name] = res.Err.Error()
		} else {
			failures[name] = string(res.Status)
		}
	}
	if !h.ready.Load() {
		failures["_readiness"] = "service is not ready"
	}
	writeResponse(w, failures)
}

// writeResponse writes the appropriate HTTP status and JSON body based on
// whether any failures were found.
func writeResponse(w http.ResponseWriter, failures map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := statusResponse{Status: StatusHealthy}
	status := http.StatusOK

	if len(failures) > 0 {
		resp.Status = StatusUnhealthy
		resp.Checks = failures
		status = http.StatusServiceUnavailable
	}

	w.WriteHeader(status)

	// Best effort: the status code is already written, so we cannot change
	// the response. This should only happen if the client disconnected.
	_ = json.NewEncoder(w).Encode(resp)
}
