package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/pkg/httperr"
)

type orderItemRequest struct {
	BookID   string `json:"bookId"`
	Quantity int    `json:"quantity"`
}

type createOrderRequest struct {
	UserID string             `json:"userId"`
	Items  []orderItemRequest `json:"items"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type orderLineResponse struct {
	BookID   string  `json:"bookId"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type orderResponse struct {
	ID          string              `json:"id"`
	UserID      string              `json:"userId"`
	Items       []orderLineResponse `json:"items"`
	TotalAmount float64             `json:"totalAmount"`
	Status      order.Status        `json:"status"`
	CreatedAt   time.Time           `json:"createdAt"`
}

type cancelOrderResponse struct {
	Message string        `json:"message"`
	Order   orderResponse `json:"order"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderLineResponse, len(o.Lines))
	for i, l := range o.Lines {
		items[i] = orderLineResponse{
			BookID:   l.BookID,
			Quantity: l.Quantity,
			Price:    l.Price.InexactFloat64(),
		}
	}
	return orderResponse{
		ID:          o.ID,
		UserID:      o.UserID,
		Items:       items,
		TotalAmount: o.Total.InexactFloat64(),
		Status:      o.Status,
		CreatedAt:   o.CreatedAt,
	}
}

// Orders serves the order endpoints on top of the order workflow.
type Orders struct {
	svc *order.Service
}

// NewOrders creates the order handler.
func NewOrders(svc *order.Service) *Orders {
	return &Orders{svc: svc}
}

// Register mounts the order routes on r.
func (h *Orders) Register(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}/status", h.UpdateStatus)
		r.Delete("/{id}", h.Cancel)
	})
}

// List handles GET /orders?userId=&status=.
func (h *Orders) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orders, err := h.svc.List(r.Context(), order.Filter{
		UserID: q.Get("userId"),
		Status: order.Status(q.Get("status")),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /orders/{id}.
func (h *Orders) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// Create handles POST /orders.
func (h *Orders) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		httperr.BadRequest(w, err.Error())
		return
	}

	items := make([]order.Item, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.Item{BookID: it.BookID, Quantity: it.Quantity}
	}

	result, err := h.svc.Create(r.Context(), order.CreateRequest{
		UserID: req.UserID,
		Items:  items,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(result.Order))
}

// UpdateStatus handles PATCH /orders/{id}/status.
func (h *Orders) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		httperr.BadRequest(w, err.Error())
		return
	}
	o, err := h.svc.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// Cancel handles DELETE /orders/{id}. The order is kept and marked cancelled.
func (h *Orders) Cancel(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cancelOrderResponse{
		Message: "Order cancelled",
		Order:   toOrderResponse(o),
	})
}

// writeError maps order errors to the error envelope.
func (h *Orders) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, order.ErrNotFound):
		httperr.NotFound(w, err.Error())
	case order.IsInvalidRequest(err):
		httperr.BadRequest(w, err.Error())
	default:
		internalError(w, r, err)
	}
}
