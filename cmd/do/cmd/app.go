package cmd

import (
	"context"
	"log/slog"

	"github.com/templui/recipehub/internal/app"
	"github.com/templui/recipehub/internal/config"
	"github.com/templui/recipehub/internal/logger"
)

// withApp boots the application from the environment, runs fn and closes it.
func withApp(ctx context.Context, fn func(ctx context.Context, a *app.App) error) error {
	cfg := config.Load()
	logger.Init(logger.Options{
		Debug:       cfg.DebugLogging(),
		Environment: cfg.AppEnv,
	})

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := a.Close()
		if closeErr != nil {
			slog.Error("failed to close app", "error", closeErr)
		}
	}()

	return fn(ctx, a)
}
