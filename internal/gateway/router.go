// Package gateway routes client requests to the backend services by path
// prefix and aggregates their health.
package gateway

import (
	"context"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/storefront/pkg/httperr"
)

// Route maps a path prefix to a backend.
type Route struct {
	// Name identifies the backend in errors and health reports.
	Name   string
	Prefix string
	Target string
}

// Config configures the gateway Router.
type Config struct {
	Routes []Route
	// Timeout bounds every proxied request, including reading the response
	// headers from the backend.
	Timeout time.Duration
	// Transport is the base transport for outbound calls. Defaults to
	// http.DefaultTransport.
	Transport      http.RoundTripper
	TracerProvider trace.TracerProvider
}

type backend struct {
	route  Route
	target *url.URL
	proxy  *httputil.ReverseProxy
}

// Router proxies requests to backends. The routing table is fixed at
// construction.
type Router struct {
	mux      chi.Router
	backends []*backend
	timeout  time.Duration
}

// NewRouter validates cfg and builds one reverse proxy per route.
func NewRouter(cfg Config) (*Router, error) {
	if cfg.Timeout <= 0 {
		return nil, errors.Errorf("proxy timeout must be positive, got %s", cfg.Timeout)
	}
	if len(cfg.Routes) == 0 {
		return nil, errors.New("no routes configured")
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	var opts []otelhttp.Option
	if cfg.TracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(cfg.TracerProvider))
	}
	transport = otelhttp.NewTransport(transport, opts...)

	r := &Router{
		mux:     chi.NewRouter(),
		timeout: cfg.Timeout,
	}
	seen := make(map[string]struct{}, len(cfg.Routes))
	for _, route := range cfg.Routes {
		if route.Prefix == "" || route.Prefix[0] != '/' {
			return nil, errors.Errorf("route %q: prefix %q must start with /", route.Name, route.Prefix)
		}
		if _, ok := seen[route.Prefix]; ok {
			return nil, errors.Errorf("route %q: duplicate prefix %q", route.Name, route.Prefix)
		}
		seen[route.Prefix] = struct{}{}

		target, err := url.Parse(route.Target)
		if err != nil {
			return nil, errors.Wrapf(err, "route %q: parse target", route.Name)
		}
		if !target.IsAbs() || target.Host == "" {
			return nil, errors.Errorf("route %q: target %q must be an absolute URL", route.Name, route.Target)
		}

		b := &backend{route: route, target: target}
		b.proxy = &httputil.ReverseProxy{
			Rewrite: func(pr *httputil.ProxyRequest) {
				pr.SetURL(b.target)
				pr.SetXForwarded()
			},
			Transport:    transport,
			ErrorHandler: b.unavailable,
		}
		r.backends = append(r.backends, b)

		h := r.withTimeout(b.proxy)
		r.mux.Handle(route.Prefix, h)
		r.mux.Handle(route.Prefix+"/*", h)
	}
	r.mux.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperr.NotFound(w, "route not found")
	})
	return r, nil
}

// Handle mounts an additional gateway-local handler, such as /health.
func (r *Router) Handle(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

// Routes returns a copy of the routing table.
func (r *Router) Routes() []Route {
	out := make([]Route, len(r.backends))
	for i, b := range r.backends {
		out[i] = b.route
	}
	return out
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) withTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), r.timeout)
		defer cancel()
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

// unavailable answers with 503 when the backend cannot be reached or does
// not respond in time. Backend error responses are passed through as-is.
func (b *backend) unavailable(w http.ResponseWriter, req *http.Request, err error) {
	zctx.From(req.Context()).Warn("Backend unavailable",
		zap.String("service", b.route.Name),
		zap.String("target", b.target.String()),
		zap.String("path", req.URL.Path),
		zap.Error(err),
	)
	httperr.Unavailable(w, b.route.Name+" service unavailable")
}
