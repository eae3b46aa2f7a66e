package app

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/user"
	"github.com/xenking/storefront/internal/handler"
	"github.com/xenking/storefront/internal/storage/memory"
	"github.com/xenking/storefront/pkg/health"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

func sampleUsers(now time.Time) []user.User {
	return []user.User{
		{ID: "u1", Name: "Ada Lovelace", Email: "ada@example.com", CreatedAt: now},
		{ID: "u2", Name: "Grace Hopper", Email: "grace@example.com", CreatedAt: now},
	}
}

// NewUsersHandler builds the identity service handler.
func NewUsersHandler(lg *zap.Logger, t Telemetry, cfg *UsersConfig) (http.Handler, *health.Health) {
	var seed []user.User
	if cfg.Seed {
		seed = sampleUsers(time.Now().UTC())
	}
	r, hs := newBackend()
	handler.NewUsers(memory.NewUserRepository(seed...)).Register(r)

	return httpmiddleware.Wrap(instrument("users", r, t), middlewares(lg)...), hs
}

// RunUsers serves the identity service until ctx is cancelled.
func RunUsers(ctx context.Context, lg *zap.Logger, t Telemetry, cfg *UsersConfig) error {
	lg.Info("Initializing users service", zap.String("addr", cfg.Addr), zap.Bool("seed", cfg.Seed))
	h, hs := NewUsersHandler(lg, t, cfg)
	return serve(ctx, lg, cfg.Addr, cfg.Graceful, h, hs)
}
