package order

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every recognized status in lifecycle order.
var Statuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// Valid reports whether s is one of the recognized statuses.
func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// ParseStatus converts a raw status string, failing with
// *InvalidStatusError for anything outside Statuses.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", &InvalidStatusError{Status: raw}
	}
	return s, nil
}

// Order is a placed order. Line prices are snapshots taken at creation and
// are never recomputed.
type Order struct {
	ID        string
	UserID    string
	Lines     []Line
	Total     decimal.Decimal
	Status    Status
	CreatedAt time.Time
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (o *Order) Clone() *Order {
	c := *o
	c.Lines = slices.Clone(o.Lines)
	return &c
}

// Line is a single priced entry of an order.
type Line struct {
	BookID   string
	Quantity int
	Price    decimal.Decimal
}

// Item is a requested line before pricing.
type Item struct {
	BookID   string
	Quantity int
}

// Filter narrows List results. Empty fields impose no constraint.
type Filter struct {
	UserID string
	Status Status
}

// Match reports whether o satisfies every set field of f.
func (f Filter) Match(o *Order) bool {
	if f.UserID != "" && o.UserID != f.UserID {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	return true
}

// Repository is the order store. Implementations must serialize mutations
// of the same order and return copies from reads.
type Repository interface {
	Insert(ctx context.Context, o *Order) error
	List(ctx context.Context, f Filter) ([]*Order, error)
	Get(ctx context.Context, id string) (*Order, error)
	UpdateStatus(ctx context.Context, id string, s Status) (*Order, error)
}

// Catalog resolves the current unit price of a book.
type Catalog interface {
	Price(ctx context.Context, bookID string) (decimal.Decimal, error)
}

// Identity looks up a user. Only the error is of interest.
type Identity interface {
	Verify(ctx context.Context, userID string) error
}
