package main

import (
	"context"

	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	appkg "github.com/xenking/storefront/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := appkg.LoadUsersConfig()
		if err != nil {
			return err
		}
		return appkg.RunUsers(ctx, lg, m, cfg)
	})
}
