package app

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/gateway"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// routes is the gateway's fixed routing table.
func routes(b BackendsConfig) []gateway.Route {
	return []gateway.Route{
		{Name: "books", Prefix: "/books", Target: b.Books},
		{Name: "users", Prefix: "/users", Target: b.Users},
		{Name: "orders", Prefix: "/orders", Target: b.Orders},
	}
}

// NewGatewayHandler builds the gateway: prefix routing, aggregated /health
// and per-client rate limiting. The rate limiter's idle buckets are swept
// until ctx is cancelled.
func NewGatewayHandler(ctx context.Context, lg *zap.Logger, t Telemetry, cfg *GatewayConfig) (http.Handler, error) {
	router, err := gateway.NewRouter(gateway.Config{
		Routes:         routes(cfg.Backends),
		Timeout:        cfg.ProxyTimeout,
		TracerProvider: t.TracerProvider(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create router")
	}

	probe := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithTracerProvider(t.TracerProvider()),
		),
	}
	router.Handle("/health", gateway.NewAggregator(probe, router.Routes(), cfg.ProbeTimeout))

	return httpmiddleware.Wrap(instrument("gateway", router, t), middlewares(lg,
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			RPS:   cfg.RateLimit.RPS,
			Burst: cfg.RateLimit.Burst,
		}),
	)...), nil
}

// RunGateway serves the gateway until ctx is cancelled.
func RunGateway(ctx context.Context, lg *zap.Logger, t Telemetry, cfg *GatewayConfig) error {
	lg.Info("Initializing gateway",
		zap.String("addr", cfg.Addr),
		zap.String("books", cfg.Backends.Books),
		zap.String("users", cfg.Backends.Users),
		zap.String("orders", cfg.Backends.Orders),
	)
	h, err := NewGatewayHandler(ctx, lg, t, cfg)
	if err != nil {
		return err
	}
	return serve(ctx, lg, cfg.Addr, cfg.Graceful, h, nil)
}
