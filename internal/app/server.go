// Package app wires the storefront binaries: one Run function per service.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/handler"
	"github.com/xenking/storefront/pkg/health"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// Telemetry provides the meter and tracer providers. *app.Telemetry from
// go-faster/sdk satisfies it.
type Telemetry interface {
	MeterProvider() metric.MeterProvider
	TracerProvider() trace.TracerProvider
}

// newBackend returns a router with the service's own /health endpoint
// mounted, and the Health behind it.
func newBackend() (chi.Router, *health.Health) {
	h := health.New()
	h.Add("goroutines", time.Second, health.GoroutineCountCheck(10000))
	h.Add("gc_pause", time.Second, health.GCMaxPauseCheck(time.Second))

	r := handler.NewRouter()
	r.Get("/health", h.Endpoint)
	return r, h
}

// middlewares is the stack shared by every server. The logger is injected
// first so that Recovery and LogRequests can use it.
func middlewares(lg *zap.Logger, extra ...httpmiddleware.Middleware) []httpmiddleware.Middleware {
	mw := []httpmiddleware.Middleware{
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Recovery(),
		httpmiddleware.RequestID(),
		httpmiddleware.LogRequests(),
	}
	return append(mw, extra...)
}

// instrument wraps h with otelhttp server spans and metrics.
func instrument(name string, h http.Handler, t Telemetry) http.Handler {
	return otelhttp.NewHandler(h, name,
		otelhttp.WithTracerProvider(t.TracerProvider()),
		otelhttp.WithMeterProvider(t.MeterProvider()),
	)
}

// serve runs an HTTP server until ctx is cancelled, then drains it: the
// readiness flag is cleared, probes get ReadinessDelay to notice, and the
// server is shut down within ShutdownTimeout.
func serve(ctx context.Context, lg *zap.Logger, addr string, graceful GracefulConfig, h http.Handler, hs *health.Health) error {
	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              addr,
		Handler:           h,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		if hs != nil {
			hs.SetReady(false)
			lg.Info("Readiness set to false, draining", zap.Duration("delay", graceful.ReadinessDelay))
			time.Sleep(graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
	}()

	if hs != nil {
		hs.SetReady(true)
	}
	lg.Info("Server listening", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
