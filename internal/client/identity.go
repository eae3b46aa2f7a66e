package client

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/order"
)

var _ order.Identity = (*Identity)(nil)

// Identity checks users through GET {base}/users/{id}.
type Identity struct {
	base
}

// NewIdentity creates an Identity client.
func NewIdentity(cfg Config) (*Identity, error) {
	b, err := newBase(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "identity")
	}
	return &Identity{base: b}, nil
}

// Verify succeeds when the identity service knows the user.
func (c *Identity) Verify(ctx context.Context, userID string) error {
	body, err := c.get(ctx, "users", userID)
	if err != nil {
		return errors.Wrapf(err, "get user %s", userID)
	}
	if err := jx.DecodeBytes(body).Validate(); err != nil {
		return errors.Wrapf(err, "decode user %s", userID)
	}
	return nil
}
