package app

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/book"
	"github.com/xenking/storefront/internal/handler"
	"github.com/xenking/storefront/internal/storage/memory"
	"github.com/xenking/storefront/pkg/health"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// sampleBooks is the catalog a seeded books service starts with.
func sampleBooks() []book.Book {
	return []book.Book{
		{ID: "b1", Title: "The Go Programming Language", Author: "Alan Donovan", Price: decimal.RequireFromString("12.99")},
		{ID: "b2", Title: "Concurrency in Go", Author: "Katherine Cox-Buday", Price: decimal.RequireFromString("24.50")},
		{ID: "b3", Title: "Designing Data-Intensive Applications", Author: "Martin Kleppmann", Price: decimal.RequireFromString("39.95")},
		{ID: "b4", Title: "The Pragmatic Programmer", Author: "David Thomas", Price: decimal.RequireFromString("8.75")},
	}
}

// NewBooksHandler builds the catalog service handler.
func NewBooksHandler(lg *zap.Logger, t Telemetry, cfg *BooksConfig) (http.Handler, *health.Health) {
	var seed []book.Book
	if cfg.Seed {
		seed = sampleBooks()
	}
	r, hs := newBackend()
	handler.NewBooks(memory.NewBookRepository(seed...)).Register(r)

	return httpmiddleware.Wrap(instrument("books", r, t), middlewares(lg)...), hs
}

// RunBooks serves the catalog until ctx is cancelled.
func RunBooks(ctx context.Context, lg *zap.Logger, t Telemetry, cfg *BooksConfig) error {
	lg.Info("Initializing books service", zap.String("addr", cfg.Addr), zap.Bool("seed", cfg.Seed))
	h, hs := NewBooksHandler(lg, t, cfg)
	return serve(ctx, lg, cfg.Addr, cfg.Graceful, h, hs)
}
