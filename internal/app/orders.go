package app

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/client"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/handler"
	"github.com/xenking/storefront/internal/storage/memory"
	"github.com/xenking/storefront/pkg/health"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// NewOrdersHandler wires the order workflow to its collaborators and the
// in-memory store.
func NewOrdersHandler(lg *zap.Logger, t Telemetry, cfg *OrdersConfig) (http.Handler, *health.Health, error) {
	defaultPrice, err := cfg.DefaultPriceValue()
	if err != nil {
		return nil, nil, err
	}

	catalog, err := client.NewCatalog(client.Config{
		BaseURL:        cfg.CatalogURL,
		Timeout:        cfg.LookupTimeout,
		TracerProvider: t.TracerProvider(),
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "create catalog client")
	}
	identity, err := client.NewIdentity(client.Config{
		BaseURL:        cfg.IdentityURL,
		Timeout:        cfg.LookupTimeout,
		TracerProvider: t.TracerProvider(),
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "create identity client")
	}

	svc, err := order.NewService(order.Config{
		DefaultPrice:   defaultPrice,
		MeterProvider:  t.MeterProvider(),
		TracerProvider: t.TracerProvider(),
	}, catalog, identity, memory.NewOrderRepository())
	if err != nil {
		return nil, nil, errors.Wrap(err, "create order service")
	}

	r, hs := newBackend()
	handler.NewOrders(svc).Register(r)

	return httpmiddleware.Wrap(instrument("orders", r, t), middlewares(lg)...), hs, nil
}

// RunOrders serves the orders service until ctx is cancelled.
func RunOrders(ctx context.Context, lg *zap.Logger, t Telemetry, cfg *OrdersConfig) error {
	lg.Info("Initializing orders service",
		zap.String("addr", cfg.Addr),
		zap.String("catalog", cfg.CatalogURL),
		zap.String("identity", cfg.IdentityURL),
		zap.String("default_price", cfg.DefaultPrice),
	)
	h, hs, err := NewOrdersHandler(lg, t, cfg)
	if err != nil {
		return err
	}
	return serve(ctx, lg, cfg.Addr, cfg.Graceful, h, hs)
}
