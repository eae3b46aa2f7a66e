package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const instrumentationName = "github.com/xenking/storefront/internal/domain/order"

// Config holds the non-dependency settings of the order Service.
type Config struct {
	// DefaultPrice is the unit price used when the catalog cannot price an item.
	DefaultPrice decimal.Decimal

	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
}

// CreateRequest holds the input for placing an order.
type CreateRequest struct {
	UserID string
	Items  []Item
}

// CreateResult holds a placed order together with how each line was priced.
type CreateResult struct {
	Order *Order
	// Quotes is parallel to Order.Lines.
	Quotes []Quote
	// UserVerified is false when the identity lookup failed. It never
	// affects the order itself.
	UserVerified bool
}

// Defaulted returns the number of lines priced with the default price.
func (r *CreateResult) Defaulted() int {
	var n int
	for _, q := range r.Quotes {
		if q.Defaulted() {
			n++
		}
	}
	return n
}

// Service runs the order workflow and owns the order store.
type Service struct {
	catalog      Catalog
	identity     Identity
	orders       Repository
	defaultPrice decimal.Decimal
	now          func() time.Time

	tracer     trace.Tracer
	created    metric.Int64Counter
	defaulted  metric.Int64Counter
	unverified metric.Int64Counter
}

// NewService creates an order Service with the required dependencies.
func NewService(
	cfg Config,
	catalog Catalog,
	identity Identity,
	orders Repository,
) (*Service, error) {
	if cfg.DefaultPrice.IsNegative() {
		return nil, errors.Errorf("default price %s is negative", cfg.DefaultPrice)
	}
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = metricnoop.NewMeterProvider()
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = tracenoop.NewTracerProvider()
	}

	s := &Service{
		catalog:      catalog,
		identity:     identity,
		orders:       orders,
		defaultPrice: cfg.DefaultPrice,
		now:          time.Now,
		tracer:       cfg.TracerProvider.Tracer(instrumentationName),
	}

	meter := cfg.MeterProvider.Meter(instrumentationName)
	var err error
	if s.created, err = meter.Int64Counter("orders.created",
		metric.WithDescription("Orders placed"),
	); err != nil {
		return nil, errors.Wrap(err, "orders.created")
	}
	if s.defaulted, err = meter.Int64Counter("orders.price.defaulted",
		metric.WithDescription("Order lines priced with the default price"),
	); err != nil {
		return nil, errors.Wrap(err, "orders.price.defaulted")
	}
	if s.unverified, err = meter.Int64Counter("orders.identity.unverified",
		metric.WithDescription("Orders placed without a successful identity lookup"),
	); err != nil {
		return nil, errors.Wrap(err, "orders.identity.unverified")
	}
	return s, nil
}

// validate checks the request and returns the first problem found.
func validate(req CreateRequest) error {
	if req.UserID == "" {
		return &ValidationError{Field: "userId", Reason: "is required"}
	}
	if len(req.Items) == 0 {
		return &ValidationError{Field: "items", Reason: "must not be empty"}
	}
	for _, item := range req.Items {
		if item.BookID == "" {
			return &ValidationError{Field: "items.bookId", Reason: "is required"}
		}
		if item.Quantity <= 0 {
			return &ValidationError{Field: "items.quantity", Reason: "must be greater than 0 for book " + item.BookID}
		}
	}
	return nil
}

// Create validates the request, verifies the user and prices every item
// concurrently, then stores a pending order. Catalog and identity failures
// never fail the call.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "order.Create",
		trace.WithAttributes(
			attribute.String("user.id", req.UserID),
			attribute.Int("order.items", len(req.Items)),
		),
	)
	defer span.End()

	lg := zctx.From(ctx)

	// Each goroutine owns one slot, so completion order does not matter.
	quotes := make([]Quote, len(req.Items))
	var verifyErr error

	var g errgroup.Group
	g.Go(func() error {
		verifyErr = s.identity.Verify(ctx, req.UserID)
		return nil
	})
	for i, item := range req.Items {
		g.Go(func() error {
			quotes[i] = s.quote(ctx, item.BookID)
			return nil
		})
	}
	_ = g.Wait()

	if verifyErr != nil {
		lg.Warn("User verification failed, continuing",
			zap.String("user_id", req.UserID),
			zap.Error(verifyErr),
		)
		s.unverified.Add(ctx, 1)
	}

	lines := make([]Line, len(req.Items))
	subtotal := decimal.Zero
	for i, item := range req.Items {
		q := quotes[i]
		if q.Defaulted() {
			lg.Warn("Catalog lookup failed, using default price",
				zap.String("book_id", item.BookID),
				zap.String("price", q.Price.String()),
				zap.Error(q.Err),
			)
			s.defaulted.Add(ctx, 1)
		}
		lines[i] = Line{
			BookID:   item.BookID,
			Quantity: item.Quantity,
			Price:    q.Price,
		}
		subtotal = subtotal.Add(q.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	o := &Order{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		Lines:     lines,
		Total:     subtotal.Round(2),
		Status:    StatusPending,
		CreatedAt: s.now().UTC(),
	}
	if err := s.orders.Insert(ctx, o); err != nil {
		return nil, errors.Wrap(err, "insert order")
	}
	s.created.Add(ctx, 1)

	span.SetAttributes(attribute.String("order.id", o.ID))
	lg.Info("Order created",
		zap.String("order_id", o.ID),
		zap.String("user_id", o.UserID),
		zap.String("total", o.Total.StringFixed(2)),
	)

	return &CreateResult{
		Order:        o,
		Quotes:       quotes,
		UserVerified: verifyErr == nil,
	}, nil
}

// quote prices a single book, falling back to the default price on any
// catalog failure.
func (s *Service) quote(ctx context.Context, bookID string) Quote {
	price, err := s.catalog.Price(ctx, bookID)
	if err == nil && price.IsNegative() {
		err = errors.Errorf("negative price %s", price)
	}
	if err != nil {
		return Quote{
			BookID: bookID,
			Price:  s.defaultPrice,
			Source: PriceDefaulted,
			Err:    err,
		}
	}
	return Quote{
		BookID: bookID,
		Price:  price,
		Source: PriceResolved,
	}
}

// List returns orders matching f in insertion order. An unrecognized status
// filter simply matches nothing.
func (s *Service) List(ctx context.Context, f Filter) ([]*Order, error) {
	return s.orders.List(ctx, f)
}

// Get returns the order with the given id or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.orders.Get(ctx, id)
}

// SetStatus overwrites the status of an order. Any recognized status may
// follow any other.
func (s *Service) SetStatus(ctx context.Context, id, status string) (*Order, error) {
	st, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	o, err := s.orders.UpdateStatus(ctx, id, st)
	if err != nil {
		return nil, err
	}
	zctx.From(ctx).Info("Order status updated",
		zap.String("order_id", id),
		zap.String("status", string(st)),
	)
	return o, nil
}

// Cancel marks an order cancelled. Orders are never deleted.
func (s *Service) Cancel(ctx context.Context, id string) (*Order, error) {
	return s.SetStatus(ctx, id, string(StatusCancelled))
}
