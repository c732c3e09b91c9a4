package cmd

import (
	"context"

	"github.com/templui/storyloom/internal/app"
	"github.com/templui/storyloom/internal/config"
	"github.com/templui/storyloom/internal/logger"
)

// loadConfig reads configuration and initializes logging for a command run.
func loadConfig() (*config.Config, func()) {
	cfg := config.Load()
	flush := logger.Init(cfg.IsDevelopment(), cfg.SentryDSN, cfg.AppEnv)
	return cfg, flush
}

// withApp builds the full application, runs fn and closes the app.
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg, flush := loadConfig()
	defer flush()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	return fn(a)
}
