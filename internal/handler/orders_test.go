package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/storage/memory"
	"github.com/xenking/storefront/pkg/httperr"
)

// --- Mock implementations ---

type mockCatalog struct {
	prices map[string]decimal.Decimal
}

func (m *mockCatalog) Price(_ context.Context, bookID string) (decimal.Decimal, error) {
	p, ok := m.prices[bookID]
	if !ok {
		return decimal.Zero, errors.New("book not found")
	}
	return p, nil
}

type mockIdentity struct{}

func (mockIdentity) Verify(context.Context, string) error { return errors.New("identity down") }

// --- Helpers ---

func newOrdersServer(t *testing.T) http.Handler {
	t.Helper()
	svc, err := order.NewService(
		order.Config{DefaultPrice: decimal.RequireFromString("10")},
		&mockCatalog{prices: map[string]decimal.Decimal{"b1": decimal.RequireFromString("12.99")}},
		mockIdentity{},
		memory.NewOrderRepository(),
	)
	require.NoError(t, err)

	r := NewRouter()
	NewOrders(svc).Register(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func createOrder(t *testing.T, h http.Handler, userID string, items ...orderItemRequest) orderResponse {
	t.Helper()
	w := do(t, h, http.MethodPost, "/orders", createOrderRequest{UserID: userID, Items: items})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[orderResponse](t, w)
}

// --- Tests ---

func TestCreateOrder(t *testing.T) {
	h := newOrdersServer(t)

	o := createOrder(t, h, "u1",
		orderItemRequest{BookID: "b1", Quantity: 2},
		orderItemRequest{BookID: "gone", Quantity: 1},
	)

	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "u1", o.UserID)
	assert.Equal(t, order.StatusPending, o.Status)
	require.Len(t, o.Items, 2)
	assert.Equal(t, orderLineResponse{BookID: "b1", Quantity: 2, Price: 12.99}, o.Items[0])
	assert.Equal(t, orderLineResponse{BookID: "gone", Quantity: 1, Price: 10}, o.Items[1])
	assert.InDelta(t, 35.98, o.TotalAmount, 1e-9)
	assert.False(t, o.CreatedAt.IsZero())
}

func TestCreateOrder_BadRequest(t *testing.T) {
	h := newOrdersServer(t)

	for _, tt := range []struct {
		name string
		body any
	}{
		{"MalformedJSON", `{"userId":`},
		{"EmptyBody", ""},
		{"TrailingData", `{"userId":"u1","items":[{"bookId":"b1","quantity":1}]}garbage`},
		{"TwoValues", `{"userId":"u1","items":[{"bookId":"b1","quantity":1}]} {}`},
		{"MissingUser", createOrderRequest{Items: []orderItemRequest{{BookID: "b1", Quantity: 1}}}},
		{"NoItems", createOrderRequest{UserID: "u1"}},
		{"ZeroQuantity", createOrderRequest{UserID: "u1", Items: []orderItemRequest{{BookID: "b1"}}}},
		{"MissingBook", createOrderRequest{UserID: "u1", Items: []orderItemRequest{{Quantity: 1}}}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/orders", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decode[httperr.Envelope](t, w)
			assert.Equal(t, http.StatusBadRequest, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}

	w := do(t, h, http.MethodGet, "/orders", nil)
	assert.Empty(t, decode[[]orderResponse](t, w))
}

func TestGetOrder(t *testing.T) {
	h := newOrdersServer(t)
	created := createOrder(t, h, "u1", orderItemRequest{BookID: "b1", Quantity: 1})

	w := do(t, h, http.MethodGet, "/orders/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[orderResponse](t, w)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Items, got.Items)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))

	w = do(t, h, http.MethodGet, "/orders/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, http.StatusNotFound, decode[httperr.Envelope](t, w).Code)
}

func TestListOrders_Filters(t *testing.T) {
	h := newOrdersServer(t)
	a := createOrder(t, h, "u1", orderItemRequest{BookID: "b1", Quantity: 1})
	b := createOrder(t, h, "u2", orderItemRequest{BookID: "b1", Quantity: 1})
	c := createOrder(t, h, "u1", orderItemRequest{BookID: "b1", Quantity: 3})

	w := do(t, h, http.MethodPatch, "/orders/"+c.ID+"/status", updateStatusRequest{Status: "shipped"})
	require.Equal(t, http.StatusOK, w.Code)

	ids := func(path string) []string {
		w := do(t, h, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var out []string
		for _, o := range decode[[]orderResponse](t, w) {
			out = append(out, o.ID)
		}
		return out
	}

	assert.Equal(t, []string{a.ID, b.ID, c.ID}, ids("/orders"))
	assert.Equal(t, []string{a.ID, c.ID}, ids("/orders?userId=u1"))
	assert.Equal(t, []string{a.ID, b.ID}, ids("/orders?status=pending"))
	assert.Equal(t, []string{c.ID}, ids("/orders?userId=u1&status=shipped"))
	assert.Empty(t, ids("/orders?userId=nobody"))
}

func TestUpdateOrderStatus(t *testing.T) {
	h := newOrdersServer(t)
	o := createOrder(t, h, "u1", orderItemRequest{BookID: "b1", Quantity: 1})

	w := do(t, h, http.MethodPatch, "/orders/"+o.ID+"/status", updateStatusRequest{Status: "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/orders/"+o.ID, nil)
	assert.Equal(t, order.StatusPending, decode[orderResponse](t, w).Status)

	w = do(t, h, http.MethodPatch, "/orders/missing/status", updateStatusRequest{Status: "shipped"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodPatch, "/orders/"+o.ID+"/status", updateStatusRequest{Status: "delivered"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, order.StatusDelivered, decode[orderResponse](t, w).Status)
}

func TestCancelOrder(t *testing.T) {
	h := newOrdersServer(t)
	o := createOrder(t, h, "u1", orderItemRequest{BookID: "b1", Quantity: 1})

	w := do(t, h, http.MethodPatch, "/orders/"+o.ID+"/status", updateStatusRequest{Status: "delivered"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodDelete, "/orders/"+o.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[cancelOrderResponse](t, w)
	assert.Equal(t, "Order cancelled", resp.Message)
	assert.Equal(t, order.StatusCancelled, resp.Order.Status)

	// Cancelled orders are kept.
	w = do(t, h, http.MethodGet, "/orders/"+o.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodDelete, "/orders/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnknownRoute(t *testing.T) {
	h := newOrdersServer(t)

	w := do(t, h, http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, http.StatusNotFound, decode[httperr.Envelope](t, w).Code)

	w = do(t, h, http.MethodPut, "/orders", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
