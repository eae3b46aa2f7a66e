package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/pkg/health"
)

// Aggregator probes the health endpoint of every backend on demand.
type Aggregator struct {
	health *health.Health
}

// NewAggregator registers one probe of {target}/health per route, each
// bounded by timeout.
func NewAggregator(client *http.Client, routes []Route, timeout time.Duration) *Aggregator {
	h := health.New()
	for _, route := range routes {
		h.Add(route.Name, timeout, health.HTTPCheck(client, strings.TrimSuffix(route.Target, "/")+"/health"))
	}
	h.SetReady(true)
	return &Aggregator{health: h}
}

// CheckAll probes every backend concurrently. Results are never cached.
func (a *Aggregator) CheckAll(ctx context.Context) health.Report {
	return a.health.CheckAll(ctx)
}

type healthResponse struct {
	Gateway  health.Status            `json:"gateway"`
	Services map[string]health.Status `json:"services"`
}

// ServeHTTP reports the gateway itself as healthy along with every
// backend's status. It always answers 200.
func (a *Aggregator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	report := a.CheckAll(r.Context())
	if !report.Healthy() {
		lg := zctx.From(r.Context())
		for name, res := range report.Checks {
			if res.Status != health.StatusHealthy {
				lg.Warn("Backend unhealthy",
					zap.String("service", name),
					zap.String("status", string(res.Status)),
					zap.Error(res.Err),
				)
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(healthResponse{
		Gateway:  health.StatusHealthy,
		Services: report.Statuses(),
	})
}
