package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/book"
	"github.com/xenking/storefront/pkg/httperr"
)

type bookRequest struct {
	Title  string          `json:"title"`
	Author string          `json:"author"`
	Price  decimal.Decimal `json:"price"`
}

type bookResponse struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Author string  `json:"author"`
	Price  float64 `json:"price"`
}

func toBookResponse(b *book.Book) bookResponse {
	return bookResponse{
		ID:     b.ID,
		Title:  b.Title,
		Author: b.Author,
		Price:  b.Price.InexactFloat64(),
	}
}

// Books serves the catalog endpoints.
type Books struct {
	books book.Repository
}

// NewBooks creates the catalog handler.
func NewBooks(books book.Repository) *Books {
	return &Books{books: books}
}

// Register mounts the catalog routes on r.
func (h *Books) Register(r chi.Router) {
	r.Route("/books", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List handles GET /books.
func (h *Books) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.books.List(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	resp := make([]bookResponse, len(books))
	for i := range books {
		resp[i] = toBookResponse(&books[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /books/{id}.
func (h *Books) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.books.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponse(b))
}

// Create handles POST /books.
func (h *Books) Create(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := decodeJSON(r, &req); err != nil {
		httperr.BadRequest(w, err.Error())
		return
	}
	b := &book.Book{
		ID:     uuid.New().String(),
		Title:  req.Title,
		Author: req.Author,
		Price:  req.Price,
	}
	if err := b.Validate(); err != nil {
		httperr.BadRequest(w, err.Error())
		return
	}
	if err := h.books.Create(r.Context(), b); err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookResponse(b))
}

// Update handles PUT /books/{id}.
func (h *Books) Update(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := decodeJSON(r, &req); err != nil {
		httperr.BadRequest(w, err.Error())
		return
	}
	b := &book.Book{
		ID:     chi.URLParam(r, "id"),
		Title:  req.Title,
		Author: req.Author,
		Price:  req.Price,
	}
	if err := b.Validate(); err != nil {
		httperr.BadRequest(w, err.Error())
		return
	}
	if err := h.books.Update(r.Context(), b); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponse(b))
}

// Delete handles DELETE /books/{id}.
func (h *Books) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.books.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Books) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, book.ErrNotFound) {
		httperr.NotFound(w, err.Error())
		return
	}
	internalError(w, r, err)
}
