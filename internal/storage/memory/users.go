package memory

import (
	"context"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/user"
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository in memory.
type UserRepository struct {
	mu    sync.RWMutex
	users []user.User
}

// NewUserRepository returns a UserRepository holding the given users.
func NewUserRepository(seed ...user.User) *UserRepository {
	return &UserRepository{users: append([]user.User(nil), seed...)}
}

func (r *UserRepository) index(id string) int {
	for i := range r.users {
		if r.users[i].ID == id {
			return i
		}
	}
	return -1
}

// List returns all users in insertion order.
func (r *UserRepository) List(_ context.Context) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]user.User(nil), r.users...), nil
}

// GetByID returns the user with the given id.
func (r *UserRepository) GetByID(_ context.Context, id string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.index(id)
	if i < 0 {
		return nil, user.ErrNotFound
	}
	u := r.users[i]
	return &u, nil
}

// Create stores a new user.
func (r *UserRepository) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.index(u.ID) >= 0 {
		return errors.Errorf("user %q already exists", u.ID)
	}
	r.users = append(r.users, *u)
	return nil
}

// Update replaces the stored user with the same id.
func (r *UserRepository) Update(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(u.ID)
	if i < 0 {
		return user.ErrNotFound
	}
	r.users[i] = *u
	return nil
}

// Delete removes the user with the given id.
func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.index(id)
	if i < 0 {
		return user.ErrNotFound
	}
	r.users = append(r.users[:i], r.users[i+1:]...)
	return nil
}
