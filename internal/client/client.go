// Package client implements the order workflow's view of the catalog and
// identity services over HTTP.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// maxBodySize bounds how much of a collaborator reply is read.
const maxBodySize = 1 << 20

// Config configures a collaborator client.
type Config struct {
	// BaseURL is the service root, e.g. http://books:3001.
	BaseURL string
	// Timeout bounds every call, including reading the body.
	Timeout time.Duration
	// Transport overrides the underlying round tripper. It is wrapped with
	// otelhttp either way.
	Transport      http.RoundTripper
	TracerProvider trace.TracerProvider
}

// StatusError reports a non-2xx reply from a collaborator.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Code)
}

// base holds what every collaborator client shares.
type base struct {
	root    *url.URL
	http    *http.Client
	timeout time.Duration
}

func newBase(cfg Config) (base, error) {
	root, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return base{}, errors.Wrap(err, "parse base url")
	}
	if root.Scheme == "" || root.Host == "" {
		return base{}, errors.Errorf("base url %q must be absolute", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		return base{}, errors.Errorf("timeout must be positive, got %s", cfg.Timeout)
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	var opts []otelhttp.Option
	if cfg.TracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(cfg.TracerProvider))
	}
	return base{
		root:    root,
		timeout: cfg.Timeout,
		http: &http.Client{
			Transport: otelhttp.NewTransport(transport, opts...),
		},
	}, nil
}

// get fetches root/segments... within the configured timeout and returns the
// body of a 2xx reply. Each segment is escaped so that it stays exactly one
// path element. A timeout surfaces as an error like any other failure.
func (b base) get(ctx context.Context, segments ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	escaped := make([]string, len(segments))
	for i, seg := range segments {
		if seg == "" || seg == "." || seg == ".." {
			return nil, errors.Errorf("invalid path segment %q", seg)
		}
		escaped[i] = url.PathEscape(seg)
	}
	u := b.root.JoinPath(escaped...)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &StatusError{URL: u.String(), Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	return body, nil
}
