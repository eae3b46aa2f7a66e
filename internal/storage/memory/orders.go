// Package memory implements the domain repositories on top of process
// memory. Every repository guards its state with a single lock and hands
// out copies.
package memory

import (
	"context"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository is an append-only order store. Insertion order is the
// listing order; only the status of a stored order ever changes.
type OrderRepository struct {
	mu     sync.RWMutex
	orders []*order.Order
	byID   map[string]int
}

// NewOrderRepository returns an empty OrderRepository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{byID: make(map[string]int)}
}

// Insert appends a copy of o.
func (r *OrderRepository) Insert(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[o.ID]; ok {
		return errors.Errorf("order %q already exists", o.ID)
	}
	r.byID[o.ID] = len(r.orders)
	r.orders = append(r.orders, o.Clone())
	return nil
}

// List returns copies of every order matching f.
func (r *OrderRepository) List(_ context.Context, f order.Filter) ([]*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*order.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if f.Match(o) {
			out = append(out, o.Clone())
		}
	}
	return out, nil
}

// Get returns a copy of the order with the given id.
func (r *OrderRepository) Get(_ context.Context, id string) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return r.orders[i].Clone(), nil
}

// UpdateStatus overwrites the status of an order and returns the result.
func (r *OrderRepository) UpdateStatus(_ context.Context, id string, s order.Status) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	r.orders[i].Status = s
	return r.orders[i].Clone(), nil
}
