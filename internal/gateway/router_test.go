package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/pkg/httperr"
)

type seen struct {
	Method string
	Path   string
	Query  string
	Host   string
	Header http.Header
	Body   string
}

type recorder struct {
	mu   sync.Mutex
	last seen
}

func (r *recorder) get() seen {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// echoBackend records the last request it received and answers with name.
func echoBackend(t *testing.T, name string, rec *recorder) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.last = seen{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Host:   r.Host,
			Header: r.Header.Clone(),
			Body:   string(body),
		}
		rec.mu.Unlock()
		w.Header().Set("X-Backend", name)
		w.WriteHeader(http.StatusTeapot)
		_, _ = io.WriteString(w, name)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// deadURL returns the address of a server that is no longer listening.
func deadURL() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	return srv.URL
}

func TestRouter_ProxiesByPrefix(t *testing.T) {
	var booksRec, ordersRec recorder
	booksSrv := echoBackend(t, "books", &booksRec)
	ordersSrv := echoBackend(t, "orders", &ordersRec)

	r, err := NewRouter(Config{
		Routes: []Route{
			{Name: "books", Prefix: "/books", Target: booksSrv.URL},
			{Name: "orders", Prefix: "/orders", Target: ordersSrv.URL},
		},
		Timeout: time.Second,
	})
	require.NoError(t, err)
	gw := httptest.NewServer(r)
	defer gw.Close()

	req, err := http.NewRequest(http.MethodPatch, gw.URL+"/orders/42/status?x=1", strings.NewReader(`{"status":"shipped"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Custom", "kept")

	resp, err := gw.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)

	// Backend responses, including non-2xx, pass through unchanged.
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "orders", resp.Header.Get("X-Backend"))
	assert.Equal(t, "orders", string(body))

	orders := ordersRec.get()
	assert.Equal(t, http.MethodPatch, orders.Method)
	assert.Equal(t, "/orders/42/status", orders.Path)
	assert.Equal(t, "x=1", orders.Query)
	assert.Equal(t, `{"status":"shipped"}`, orders.Body)
	assert.Equal(t, "kept", orders.Header.Get("X-Custom"))
	assert.Equal(t, "application/json", orders.Header.Get("Content-Type"))
	assert.Equal(t, strings.TrimPrefix(ordersSrv.URL, "http://"), orders.Host)
	assert.Empty(t, booksRec.get().Method)

	resp, err = gw.Client().Get(gw.URL + "/books")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "books", resp.Header.Get("X-Backend"))
	assert.Equal(t, "/books", booksRec.get().Path)
}

func TestRouter_BackendDown(t *testing.T) {
	r, err := NewRouter(Config{
		Routes:  []Route{{Name: "users", Prefix: "/users", Target: deadURL()}},
		Timeout: time.Second,
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/u1", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var env httperr.Envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	assert.Equal(t, httperr.Envelope{Error: "users service unavailable", Code: 503}, env)
}

func TestRouter_BackendTimeout(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	defer close(release)

	r, err := NewRouter(Config{
		Routes:  []Route{{Name: "books", Prefix: "/books", Target: slow.URL}},
		Timeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	start := time.Now()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/books/b1", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRouter_UnknownPrefix(t *testing.T) {
	var books recorder
	r, err := NewRouter(Config{
		Routes:  []Route{{Name: "books", Prefix: "/books", Target: echoBackend(t, "books", &books).URL}},
		Timeout: time.Second,
	})
	require.NoError(t, err)

	for _, path := range []string{"/", "/bookshelf", "/carts/1"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
	assert.Empty(t, books.get().Method)
}

func TestNewRouter_InvalidConfig(t *testing.T) {
	for _, tt := range []struct {
		name string
		cfg  Config
	}{
		{"NoRoutes", Config{Timeout: time.Second}},
		{"NoTimeout", Config{Routes: []Route{{Name: "a", Prefix: "/a", Target: "http://a"}}}},
		{"RelativeTarget", Config{Routes: []Route{{Name: "a", Prefix: "/a", Target: "/a"}}, Timeout: time.Second}},
		{"BadPrefix", Config{Routes: []Route{{Name: "a", Prefix: "a", Target: "http://a"}}, Timeout: time.Second}},
		{"DuplicatePrefix", Config{Routes: []Route{
			{Name: "a", Prefix: "/a", Target: "http://a"},
			{Name: "b", Prefix: "/a", Target: "http://b"},
		}, Timeout: time.Second}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRouter(tt.cfg)
			assert.Error(t, err)
		})
	}
}
