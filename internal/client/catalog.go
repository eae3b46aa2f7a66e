package client

import (
	"bytes"
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/order"
)

var _ order.Catalog = (*Catalog)(nil)

// ErrNoPrice is returned when a catalog reply carries no usable price.
var ErrNoPrice = errors.New("price missing from catalog reply")

// Catalog prices books through GET {base}/books/{id}.
type Catalog struct {
	base
}

// NewCatalog creates a Catalog client.
func NewCatalog(cfg Config) (*Catalog, error) {
	b, err := newBase(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "catalog")
	}
	return &Catalog{base: b}, nil
}

// Price returns the current price of a book.
func (c *Catalog) Price(ctx context.Context, bookID string) (decimal.Decimal, error) {
	body, err := c.get(ctx, "books", bookID)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "get book %s", bookID)
	}
	price, err := decodePrice(body)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "decode book %s", bookID)
	}
	return price, nil
}

// decodePrice extracts the top-level "price" number of a book object,
// keeping the catalog's own precision.
func decodePrice(body []byte) (decimal.Decimal, error) {
	var (
		price decimal.Decimal
		found bool
	)
	d := jx.DecodeBytes(body)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if !bytes.Equal(key, []byte("price")) {
			return d.Skip()
		}
		if d.Next() != jx.Number {
			return errors.Errorf("price is %s, not a number", d.Next())
		}
		num, err := d.Num()
		if err != nil {
			return errors.Wrap(err, "price")
		}
		p, err := decimal.NewFromString(num.String())
		if err != nil {
			return errors.Wrap(err, "price")
		}
		price, found = p, true
		return nil
	}); err != nil {
		return decimal.Zero, err
	}
	if !found {
		return decimal.Zero, ErrNoPrice
	}
	return price, nil
}
