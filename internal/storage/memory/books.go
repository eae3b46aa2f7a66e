package memory

import (
	"context"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/book"
)

var _ book.Repository = (*BookRepository)(nil)

// BookRepository implements book.Repository in memory.
type BookRepository struct {
	mu    sync.RWMutex
	books []book.Book
}

// NewBookRepository returns a BookRepository holding the given books.
func NewBookRepository(seed ...book.Book) *BookRepository {
	return &BookRepository{books: append([]book.Book(nil), seed...)}
}

func (r *BookRepository) index(id string) int {
	for i := range r.books {
		if r.books[i].ID == id {
			return i
		}
	}
	return -1
}

// List returns all books in insertion order.
func (r *BookRepository) List(_ context.Context) ([]book.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]book.Book(nil), r.books...), nil
}

// GetByID returns the book with the given id.
func (r *BookRepository) GetByID(_ context.Context, id string) (*book.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.index(id)
	if i < 0 {
		return nil, book.ErrNotFound
	}
	b := r.books[i]
	return &b, nil
}

// Create stores a new book.
func (r *BookRepository) Create(_ context.Context, b *book.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.index(b.ID) >= 0 {
		return errors.Errorf("book %q already exists", b.ID)
	}
	r.books = append(r.books, *b)
	return nil
}

// Update replaces the stored book with the same id.
func (r *BookRepository) Update(_ context.Context, b *book.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(b.ID)
	if i < 0 {
		return book.ErrNotFound
	}
	r.books[i] = *b
	return nil
}

// Delete removes the book with the given id.
func (r *BookRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(id)
	if i < 0 {
		return book.ErrNotFound
	}
	r.books = append(r.books[:i], r.books[i+1:]...)
	return nil
}
